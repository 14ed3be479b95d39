package qlearn

// Transition is one observed step, consumed immediately by the learner.
type Transition struct {
	State    State
	Action   Action
	Reward   float64
	Next     State
	Terminal bool
}

// Learner applies the one-step Q-learning update.
type Learner struct {
	Alpha float64
	Gamma float64
}

// NewLearner returns a learner using the given hyperparameters.
func NewLearner(h Hyperparameters) Learner {
	return Learner{Alpha: h.Alpha, Gamma: h.Gamma}
}

// Update moves Q(s, a) toward reward + gamma * max Q(next, .). A terminal
// transition contributes no successor value and never looks up tr.Next, so
// bust totals are not recorded as states.
func (l Learner) Update(t *Table, tr Transition) {
	maxNext := 0.0
	if !tr.Terminal {
		maxNext = t.Get(tr.Next).Max()
	}
	target := tr.Reward + l.Gamma*maxNext
	current := t.Get(tr.State).At(tr.Action)
	t.Set(tr.State, tr.Action, current+l.Alpha*(target-current))
}
