package deck

import (
	"errors"
	rand "math/rand/v2"
)

// ErrEmpty is returned when a card is requested from an exhausted source.
var ErrEmpty = errors.New("deck is empty")

// Source deals cards one at a time.
type Source interface {
	Deal() (Card, error)
}

// Deck represents a single 52-card deck
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// New creates a standard 52-card deck shuffled with rng. The deck keeps the
// generator so Reset can reshuffle from the same stream.
func New(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, 52),
		rng:   rng,
	}
	d.Reset()
	return d
}

// Reset restores the deck to a full 52-card deck and shuffles it
func (d *Deck) Reset() {
	d.cards = d.cards[:0]
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Ace; rank <= King; rank++ {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}
	d.Shuffle()
}

// Shuffle randomizes the order of the remaining cards
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Deal removes and returns the top card from the deck
func (d *Deck) Deal() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrEmpty
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, nil
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Stacked deals a fixed sequence of cards in order. Useful for scripting
// hands in tests.
type Stacked struct {
	cards []Card
	next  int
}

// NewStacked returns a source that deals cards in the given order.
func NewStacked(cards ...Card) *Stacked {
	return &Stacked{cards: cards}
}

// Deal returns the next scripted card.
func (s *Stacked) Deal() (Card, error) {
	if s.next >= len(s.cards) {
		return Card{}, ErrEmpty
	}
	c := s.cards[s.next]
	s.next++
	return c, nil
}

// Remaining returns the number of scripted cards not yet dealt.
func (s *Stacked) Remaining() int {
	return len(s.cards) - s.next
}
