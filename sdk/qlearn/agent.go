package qlearn

import (
	rand "math/rand/v2"
)

// Agent owns a table together with the policy and learner that read and
// update it.
type Agent struct {
	Table   *Table
	Policy  *Policy
	Learner Learner
}

// NewAgent wires a table to a policy and learner. A nil table starts empty.
func NewAgent(table *Table, h Hyperparameters, rng *rand.Rand) *Agent {
	if table == nil {
		table = NewTable()
	}
	return &Agent{
		Table:   table,
		Policy:  NewPolicy(h.Epsilon, rng),
		Learner: NewLearner(h),
	}
}

// Decide returns the policy's action for s.
func (a *Agent) Decide(s State, training bool) Action {
	return a.Policy.ChooseAction(s, a.Table, training)
}

// Learn applies tr to the agent's table.
func (a *Agent) Learn(tr Transition) {
	a.Learner.Update(a.Table, tr)
}
