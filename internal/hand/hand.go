// Package hand accumulates blackjack cards and reports soft-adjusted totals.
package hand

import (
	"strconv"
	"strings"

	"github.com/lox/blackjackrl/internal/deck"
)

// BustThreshold is the highest total that is not a bust.
const BustThreshold = 21

// Hand is an ordered collection of dealt cards.
type Hand struct {
	cards []deck.Card
}

// New returns a hand holding the given cards.
func New(cards ...deck.Card) *Hand {
	h := &Hand{cards: make([]deck.Card, 0, 8)}
	h.cards = append(h.cards, cards...)
	return h
}

// Add appends a card to the hand.
func (h *Hand) Add(c deck.Card) {
	h.cards = append(h.cards, c)
}

// Card returns the i-th dealt card.
func (h *Hand) Card(i int) deck.Card {
	return h.cards[i]
}

// Cards returns a copy of the dealt cards.
func (h *Hand) Cards() []deck.Card {
	return append([]deck.Card(nil), h.cards...)
}

// Size returns the number of cards held.
func (h *Hand) Size() int {
	return len(h.cards)
}

// Total returns the hand value. Aces start at 11 and drop to 1 one at a time
// while the total exceeds 21.
func (h *Hand) Total() int {
	total, _ := h.score()
	return total
}

// IsSoft reports whether an Ace is still counted as 11 in Total.
func (h *Hand) IsSoft() bool {
	_, soft := h.score()
	return soft > 0
}

// IsBust reports whether the total exceeds 21.
func (h *Hand) IsBust() bool {
	return h.Total() > BustThreshold
}

// IsBlackjack reports a two-card 21.
func (h *Hand) IsBlackjack() bool {
	return len(h.cards) == 2 && h.Total() == BustThreshold
}

// String renders the cards and total, e.g. "A♠ 9♥ (20)".
func (h *Hand) String() string {
	parts := make([]string, 0, len(h.cards))
	for _, c := range h.cards {
		parts = append(parts, c.String())
	}
	var b strings.Builder
	b.WriteString(strings.Join(parts, " "))
	b.WriteString(" (")
	b.WriteString(strconv.Itoa(h.Total()))
	b.WriteString(")")
	return b.String()
}

// score returns the adjusted total and the count of Aces still worth 11.
func (h *Hand) score() (int, int) {
	total, soft := 0, 0
	for _, c := range h.cards {
		total += c.Value()
		if c.IsAce() {
			soft++
		}
	}
	for total > BustThreshold && soft > 0 {
		total -= 10
		soft--
	}
	return total, soft
}
