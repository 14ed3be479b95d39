package qlearn

import (
	"slices"
)

// Values holds the Stand and Hit estimates for a state.
type Values struct {
	Stand float64
	Hit   float64
}

// At returns the estimate for a.
func (v Values) At(a Action) float64 {
	if a == Hit {
		return v.Hit
	}
	return v.Stand
}

// with returns a copy of v with the estimate for a replaced.
func (v Values) with(a Action, value float64) Values {
	if a == Hit {
		v.Hit = value
	} else {
		v.Stand = value
	}
	return v
}

// Best returns the greedy action. Ties favour Stand.
func (v Values) Best() Action {
	if v.Hit > v.Stand {
		return Hit
	}
	return Stand
}

// Max returns the larger of the two estimates.
func (v Values) Max() float64 {
	return max(v.Stand, v.Hit)
}

// Table maps states to action values. Entries are only ever added. A Table is
// not safe for concurrent use; parallel training gives each worker its own
// clone and merges afterwards.
type Table struct {
	entries map[State]Values
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[State]Values)}
}

// Peek returns the values for s without recording the state. Unseen states
// read as zero.
func (t *Table) Peek(s State) Values {
	return t.entries[s]
}

// Get returns the values for s, recording a zero entry the first time a state
// is referenced so it is persisted with the rest of the table.
func (t *Table) Get(s State) Values {
	v, ok := t.entries[s]
	if !ok {
		t.entries[s] = v
	}
	return v
}

// Has reports whether s has an entry.
func (t *Table) Has(s State) bool {
	_, ok := t.entries[s]
	return ok
}

// Set stores value as the estimate of taking a in s.
func (t *Table) Set(s State, a Action, value float64) {
	t.entries[s] = t.entries[s].with(a, value)
}

// SetValues stores both estimates for s.
func (t *Table) SetValues(s State, v Values) {
	t.entries[s] = v
}

// Size returns the number of distinct states recorded.
func (t *Table) Size() int {
	return len(t.entries)
}

// States returns every recorded state in lexicographic order.
func (t *Table) States() []State {
	out := make([]State, 0, len(t.entries))
	for s := range t.entries {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b State) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})
	return out
}

// Range calls fn for every entry in lexicographic state order until fn
// returns false.
func (t *Table) Range(fn func(State, Values) bool) {
	for _, s := range t.States() {
		if !fn(s, t.entries[s]) {
			return
		}
	}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{entries: make(map[State]Values, len(t.entries))}
	for s, v := range t.entries {
		out.entries[s] = v
	}
	return out
}

// MergeAverage replaces every cell with the average of that cell across the
// parts that contain the state. States present in t but in none of the parts
// are left untouched.
func (t *Table) MergeAverage(parts ...*Table) {
	type acc struct {
		sum Values
		n   int
	}
	sums := make(map[State]*acc)
	for _, p := range parts {
		if p == nil {
			continue
		}
		for s, v := range p.entries {
			a := sums[s]
			if a == nil {
				a = &acc{}
				sums[s] = a
			}
			a.sum.Stand += v.Stand
			a.sum.Hit += v.Hit
			a.n++
		}
	}
	for s, a := range sums {
		n := float64(a.n)
		t.entries[s] = Values{Stand: a.sum.Stand / n, Hit: a.sum.Hit / n}
	}
}

// ShouldTrain reports whether the table carries no knowledge yet. An empty
// table after a load is the signal to train before playing.
func ShouldTrain(t *Table) bool {
	return t == nil || t.Size() == 0
}
