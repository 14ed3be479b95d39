package deck

import (
	"testing"

	"github.com/lox/blackjackrl/internal/randutil"
)

func TestParseCards(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Card
		wantErr  bool
	}{
		{
			name:  "blackjack",
			input: "AsKh",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Suit: Hearts, Rank: King},
			},
		},
		{
			name:  "low cards",
			input: "5h4d3c2s",
			expected: []Card{
				{Suit: Hearts, Rank: Five},
				{Suit: Diamonds, Rank: Four},
				{Suit: Clubs, Rank: Three},
				{Suit: Spades, Rank: Two},
			},
		},
		{
			name:  "case insensitive",
			input: "asKHtDjc",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Suit: Hearts, Rank: King},
				{Suit: Diamonds, Rank: Ten},
				{Suit: Clubs, Rank: Jack},
			},
		},
		{
			name:    "invalid rank",
			input:   "XsKs",
			wantErr: true,
		},
		{
			name:    "invalid suit",
			input:   "AxKs",
			wantErr: true,
		},
		{
			name:    "odd length",
			input:   "AsK",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCards(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("got %d cards, want %d", len(got), len(tt.expected))
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("card %d: got %v, want %v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestCardValue(t *testing.T) {
	tests := []struct {
		rank Rank
		want int
	}{
		{Ace, 11},
		{Two, 2},
		{Nine, 9},
		{Ten, 10},
		{Jack, 10},
		{Queen, 10},
		{King, 10},
	}
	for _, tt := range tests {
		c := NewCard(Clubs, tt.rank)
		if got := c.Value(); got != tt.want {
			t.Errorf("%v.Value() = %d, want %d", c, got, tt.want)
		}
		if c.IsAce() != (tt.rank == Ace) {
			t.Errorf("%v.IsAce() = %v", c, c.IsAce())
		}
	}
}

func TestDeckDealsEveryCardOnce(t *testing.T) {
	d := New(randutil.New(42))
	if d.Remaining() != 52 {
		t.Fatalf("expected 52 cards, got %d", d.Remaining())
	}

	seen := make(map[Card]bool)
	for i := 0; i < 52; i++ {
		c, err := d.Deal()
		if err != nil {
			t.Fatalf("deal %d: %v", i, err)
		}
		if seen[c] {
			t.Fatalf("card %v dealt twice", c)
		}
		seen[c] = true
	}

	if _, err := d.Deal(); err != ErrEmpty {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestDeckShuffleDeterministic(t *testing.T) {
	a := New(randutil.New(7))
	b := New(randutil.New(7))
	for i := 0; i < 52; i++ {
		ca, _ := a.Deal()
		cb, _ := b.Deal()
		if ca != cb {
			t.Fatalf("card %d differs with the same seed: %v vs %v", i, ca, cb)
		}
	}
}

func TestStacked(t *testing.T) {
	s := NewStacked(MustParseCards("AsTd")...)
	c, err := s.Deal()
	if err != nil || c.Rank != Ace {
		t.Fatalf("unexpected first card %v (%v)", c, err)
	}
	if s.Remaining() != 1 {
		t.Fatalf("expected 1 remaining, got %d", s.Remaining())
	}
	_, _ = s.Deal()
	if _, err := s.Deal(); err != ErrEmpty {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}
