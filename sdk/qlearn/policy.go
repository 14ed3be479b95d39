package qlearn

import (
	rand "math/rand/v2"
)

// Policy selects actions epsilon-greedily from a table.
type Policy struct {
	Epsilon float64
	rng     *rand.Rand
}

// NewPolicy returns a policy that explores with probability epsilon using rng.
func NewPolicy(epsilon float64, rng *rand.Rand) *Policy {
	return &Policy{Epsilon: epsilon, rng: rng}
}

// ChooseAction returns the action to take in s. While training, a uniform
// draw below Epsilon picks Stand or Hit at random. Otherwise the action with
// the higher estimate wins, with ties going to Stand. Evaluation mode never
// consumes randomness.
func (p *Policy) ChooseAction(s State, t *Table, training bool) Action {
	if training && p.rng.Float64() < p.Epsilon {
		return Action(p.rng.IntN(NumActions))
	}
	return t.Get(s).Best()
}
