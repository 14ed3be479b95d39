package qlearn

import (
	"fmt"

	"github.com/lox/blackjackrl/internal/deck"
	"github.com/lox/blackjackrl/internal/hand"
)

// DealerStandsOn is the total at which the dealer stops drawing.
const DealerStandsOn = 17

// Terminal rewards.
const (
	RewardWin  = 1.0
	RewardLoss = -1.0
	RewardPush = 0.0
)

// Observer receives every transition of an episode after it is applied.
type Observer func(Transition)

// PlayOptions controls a single hand.
type PlayOptions struct {
	// Learn enables exploration and Bellman updates. When false the agent
	// plays greedily and the table is only read.
	Learn    bool
	Observer Observer
}

// Outcome summarises a finished hand.
type Outcome struct {
	Reward      float64
	PlayerTotal int
	DealerTotal int
	PlayerBust  bool
	DealerBust  bool
	// Blackjack marks a natural 21 for the player. It is rewarded like any
	// other win.
	Blackjack bool
	Decisions int
}

// PlayHand deals and plays one hand from src. The player acts on states built
// from its total and the dealer's first card with the soft flag left false;
// every hit is learned from immediately and the final stand is learned from
// once the dealer resolves. A bust ends the hand without a dealer turn.
//
// A source that runs dry is a broken collaborator and aborts the hand with an
// error wrapping deck.ErrEmpty.
func PlayHand(src deck.Source, agent *Agent, opts PlayOptions) (Outcome, error) {
	player, dealer := hand.New(), hand.New()
	for _, h := range []*hand.Hand{player, dealer, player, dealer} {
		c, err := src.Deal()
		if err != nil {
			return Outcome{}, fmt.Errorf("initial deal: %w", err)
		}
		h.Add(c)
	}

	upCard := dealer.Card(0).Value()
	current := Observe(player.Total(), upCard, false)
	out := Outcome{Blackjack: player.IsBlackjack()}

	for !player.IsBust() {
		action := agent.Decide(current, opts.Learn)
		out.Decisions++
		if action == Stand {
			break
		}

		c, err := src.Deal()
		if err != nil {
			return Outcome{}, fmt.Errorf("player hit: %w", err)
		}
		player.Add(c)
		next := Observe(player.Total(), upCard, false)

		if player.IsBust() {
			learn(agent, opts, Transition{State: current, Action: Hit, Reward: RewardLoss, Next: next, Terminal: true})
			out.Reward = RewardLoss
			out.PlayerBust = true
			out.PlayerTotal = player.Total()
			out.DealerTotal = dealer.Total()
			return out, nil
		}
		learn(agent, opts, Transition{State: current, Action: Hit, Reward: 0, Next: next})
		current = next
	}

	for dealer.Total() < DealerStandsOn {
		c, err := src.Deal()
		if err != nil {
			return Outcome{}, fmt.Errorf("dealer draw: %w", err)
		}
		dealer.Add(c)
	}

	out.PlayerTotal = player.Total()
	out.DealerTotal = dealer.Total()
	out.DealerBust = dealer.IsBust()
	out.Reward = settle(out.PlayerTotal, out.DealerTotal, out.DealerBust)
	learn(agent, opts, Transition{State: current, Action: Stand, Reward: out.Reward, Next: current, Terminal: true})
	return out, nil
}

func settle(playerTotal, dealerTotal int, dealerBust bool) float64 {
	switch {
	case dealerBust || playerTotal > dealerTotal:
		return RewardWin
	case playerTotal < dealerTotal:
		return RewardLoss
	default:
		return RewardPush
	}
}

func learn(agent *Agent, opts PlayOptions, tr Transition) {
	if !opts.Learn {
		return
	}
	agent.Learn(tr)
	if opts.Observer != nil {
		opts.Observer(tr)
	}
}
