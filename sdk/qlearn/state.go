// Package qlearn trains a tabular Q-learning agent to play blackjack against a
// fixed dealer. States abstract a hand to (player total, dealer up card, soft
// ace); the table holds a Stand and a Hit estimate per state.
package qlearn

import "fmt"

// Action is a player decision.
type Action uint8

const (
	Stand Action = iota
	Hit
)

// NumActions is the size of the action space.
const NumActions = 2

func (a Action) String() string {
	switch a {
	case Stand:
		return "stand"
	case Hit:
		return "hit"
	default:
		return "unknown"
	}
}

// State is the discrete learning key. It is comparable and used directly as a
// map key.
type State struct {
	PlayerTotal  int
	DealerUpCard int // 2-10, 11 for an Ace
	SoftAce      bool
}

// Bounds of the reachable state space. Two cards total at least 4 and the
// player stops deciding once past 21.
const (
	MinPlayerTotal = 4
	MaxPlayerTotal = 21
	MinUpCard      = 2
	MaxUpCard      = 11
)

// Observe builds the State for a live hand situation.
func Observe(playerTotal, dealerUpCard int, softAce bool) State {
	return State{PlayerTotal: playerTotal, DealerUpCard: dealerUpCard, SoftAce: softAce}
}

// Less orders states lexicographically by (PlayerTotal, DealerUpCard, SoftAce)
// with false before true.
func (s State) Less(o State) bool {
	if s.PlayerTotal != o.PlayerTotal {
		return s.PlayerTotal < o.PlayerTotal
	}
	if s.DealerUpCard != o.DealerUpCard {
		return s.DealerUpCard < o.DealerUpCard
	}
	return !s.SoftAce && o.SoftAce
}

// IsBust reports whether the player total is past 21. Bust states are never
// stored in the table.
func (s State) IsBust() bool {
	return s.PlayerTotal > MaxPlayerTotal
}

// Validate reports whether s lies inside the state space the table can hold.
func (s State) Validate() error {
	if s.PlayerTotal < MinPlayerTotal || s.IsBust() {
		return fmt.Errorf("player total must be between %d and %d, got %d", MinPlayerTotal, MaxPlayerTotal, s.PlayerTotal)
	}
	if s.DealerUpCard < MinUpCard || s.DealerUpCard > MaxUpCard {
		return fmt.Errorf("dealer up card must be between %d and %d, got %d", MinUpCard, MaxUpCard, s.DealerUpCard)
	}
	return nil
}

func (s State) String() string {
	soft := "hard"
	if s.SoftAce {
		soft = "soft"
	}
	return fmt.Sprintf("%s %d vs %d", soft, s.PlayerTotal, s.DealerUpCard)
}
