package qlearn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackrl/internal/randutil"
)

func TestPolicyGreedy(t *testing.T) {
	table := NewTable()
	hitState := Observe(11, 6, false)
	standState := Observe(19, 6, false)
	tieState := Observe(15, 10, false)
	table.SetValues(hitState, Values{Stand: -0.1, Hit: 0.4})
	table.SetValues(standState, Values{Stand: 0.5, Hit: -0.7})
	table.SetValues(tieState, Values{Stand: -0.3, Hit: -0.3})

	p := NewPolicy(0.2, randutil.New(1))
	for i := 0; i < 100; i++ {
		require.Equal(t, Hit, p.ChooseAction(hitState, table, false))
		require.Equal(t, Stand, p.ChooseAction(standState, table, false))
		require.Equal(t, Stand, p.ChooseAction(tieState, table, false))
	}
}

func TestPolicyEvaluationConsumesNoRandomness(t *testing.T) {
	table := NewTable()
	rngA, rngB := randutil.New(5), randutil.New(5)
	p := NewPolicy(1, rngA)
	for i := 0; i < 10; i++ {
		p.ChooseAction(Observe(12, 2, false), table, false)
	}
	require.Equal(t, rngB.Uint64(), rngA.Uint64())
}

func TestPolicyZeroEpsilonMatchesGreedy(t *testing.T) {
	table := NewTable()
	rng := randutil.New(3)
	for total := 4; total <= 21; total++ {
		for up := 2; up <= 11; up++ {
			table.SetValues(Observe(total, up, false), Values{Stand: rng.NormFloat64(), Hit: rng.NormFloat64()})
		}
	}

	p := NewPolicy(0, randutil.New(9))
	for _, s := range table.States() {
		assert.Equal(t, p.ChooseAction(s, table, false), p.ChooseAction(s, table, true), "state %v", s)
	}
}

func TestPolicyFullExplorationIsUniform(t *testing.T) {
	table := NewTable()
	s := Observe(16, 10, false)
	table.SetValues(s, Values{Stand: 1, Hit: -1})

	p := NewPolicy(1, randutil.New(11))
	const draws = 20000
	hits := 0
	for i := 0; i < draws; i++ {
		if p.ChooseAction(s, table, true) == Hit {
			hits++
		}
	}
	ratio := float64(hits) / draws
	assert.InDelta(t, 0.5, ratio, 0.02, "hit ratio %.3f", ratio)
}

func TestDecideUntrainedStands(t *testing.T) {
	agent := NewAgent(nil, DefaultHyperparameters(), randutil.New(1))
	for total := 4; total <= 21; total++ {
		for up := 2; up <= 11; up++ {
			for _, soft := range []bool{false, true} {
				require.Equal(t, Stand, agent.Decide(Observe(total, up, soft), false))
			}
		}
	}
}
