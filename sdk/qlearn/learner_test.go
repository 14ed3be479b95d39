package qlearn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLearnerUpdate(t *testing.T) {
	l := Learner{Alpha: 0.1, Gamma: 0.9}
	s := Observe(12, 10, false)
	next := Observe(17, 10, false)

	table := NewTable()
	table.SetValues(next, Values{Stand: 0.5, Hit: -0.2})
	table.Set(s, Hit, 0.1)

	l.Update(table, Transition{State: s, Action: Hit, Reward: 0, Next: next})

	// 0.1 + 0.1 * (0 + 0.9*0.5 - 0.1)
	assert.InDelta(t, 0.135, table.Peek(s).Hit, 1e-12)
	assert.Equal(t, 0.0, table.Peek(s).Stand)
}

func TestLearnerTerminalIgnoresSuccessor(t *testing.T) {
	l := Learner{Alpha: 0.5, Gamma: 0.9}
	s := Observe(20, 6, false)
	bust := Observe(25, 6, false)

	table := NewTable()
	l.Update(table, Transition{State: s, Action: Hit, Reward: -1, Next: bust, Terminal: true})

	assert.Equal(t, -0.5, table.Peek(s).Hit)
	assert.False(t, table.Has(bust), "terminal successor must not be recorded")
	assert.Equal(t, 1, table.Size())
}

func TestLearnerRecordsNonTerminalSuccessor(t *testing.T) {
	l := NewLearner(DefaultHyperparameters())
	s := Observe(8, 4, false)
	next := Observe(13, 4, false)

	table := NewTable()
	l.Update(table, Transition{State: s, Action: Hit, Next: next})

	assert.True(t, table.Has(next))
	assert.Equal(t, 2, table.Size())
}

func TestLearnerConvergesMonotonically(t *testing.T) {
	for _, reward := range []float64{1, -1, 0.5} {
		l := Learner{Alpha: 0.1, Gamma: 0.9}
		s := Observe(18, 9, false)
		table := NewTable()
		table.Set(s, Stand, -reward)

		prevGap := math.Abs(table.Peek(s).Stand - reward)
		for i := 0; i < 200; i++ {
			before := table.Peek(s).Stand
			l.Update(table, Transition{State: s, Action: Stand, Reward: reward, Next: s, Terminal: true})
			after := table.Peek(s).Stand

			gap := math.Abs(after - reward)
			require.Less(t, gap, prevGap, "update %d did not move toward %v", i, reward)
			// No overshoot: the estimate stays on the same side of the target.
			require.GreaterOrEqual(t, (before-reward)*(after-reward), 0.0)
			prevGap = gap
		}
		assert.InDelta(t, reward, table.Peek(s).Stand, 1e-6)
	}
}
