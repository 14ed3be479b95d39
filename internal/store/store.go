// Package store persists action-value tables. Every backend writes a full
// snapshot that replaces the previous one; a missing or empty store loads as
// an empty table.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lox/blackjackrl/sdk/qlearn"
)

// ErrMalformed marks stored data that cannot be turned back into a table.
var ErrMalformed = errors.New("malformed table data")

// Store loads and saves a complete table.
type Store interface {
	// Load returns the stored table. A store that does not exist yet, or
	// holds no rows, yields an empty table and no error.
	Load(ctx context.Context) (*qlearn.Table, error)
	// Save replaces the stored contents with t.
	Save(ctx context.Context, t *qlearn.Table) error
	Close() error
}

// Meta describes the run that produced a snapshot.
type Meta struct {
	RunID    string    `json:"run_id,omitempty" toml:"run_id,omitempty"`
	Episodes int64     `json:"episodes,omitempty" toml:"episodes,omitempty"`
	SavedAt  time.Time `json:"saved_at" toml:"saved_at"`
}

// Row is the persisted form of one state: SoftAce is 0 or 1.
type Row struct {
	PlayerTotal  int     `json:"player_total" toml:"player_total"`
	DealerUpCard int     `json:"dealer_up_card" toml:"dealer_up_card"`
	SoftAce      int     `json:"has_soft_ace" toml:"has_soft_ace"`
	Stand        float64 `json:"stand" toml:"stand"`
	Hit          float64 `json:"hit" toml:"hit"`
}

// Rows flattens t into rows ordered by state.
func Rows(t *qlearn.Table) []Row {
	rows := make([]Row, 0, t.Size())
	t.Range(func(s qlearn.State, v qlearn.Values) bool {
		soft := 0
		if s.SoftAce {
			soft = 1
		}
		rows = append(rows, Row{
			PlayerTotal:  s.PlayerTotal,
			DealerUpCard: s.DealerUpCard,
			SoftAce:      soft,
			Stand:        v.Stand,
			Hit:          v.Hit,
		})
		return true
	})
	return rows
}

// FromRows rebuilds a table, rejecting rows that could not have been written
// by Rows: totals outside the state space, impossible up cards, a soft flag other
// than 0/1, or a state listed twice.
func FromRows(rows []Row) (*qlearn.Table, error) {
	t := qlearn.NewTable()
	for i, r := range rows {
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformed, i, err)
		}
		s := r.state()
		if t.Has(s) {
			return nil, fmt.Errorf("%w: row %d: duplicate state %v", ErrMalformed, i, s)
		}
		t.SetValues(s, qlearn.Values{Stand: r.Stand, Hit: r.Hit})
	}
	return t, nil
}

func (r Row) state() qlearn.State {
	return qlearn.Observe(r.PlayerTotal, r.DealerUpCard, r.SoftAce == 1)
}

func (r Row) validate() error {
	if r.SoftAce != 0 && r.SoftAce != 1 {
		return fmt.Errorf("soft ace flag %d is not 0 or 1", r.SoftAce)
	}
	return r.state().Validate()
}

// Open returns the backend for uri: postgres:// and postgresql:// URLs open a
// PostgresStore, anything else is treated as a file path.
func Open(ctx context.Context, uri string) (Store, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, errors.New("store location is empty")
	}
	if strings.HasPrefix(uri, "postgres://") || strings.HasPrefix(uri, "postgresql://") {
		return OpenPostgres(ctx, uri)
	}
	return NewFileStore(uri)
}

// LoadOrEmpty loads from st and degrades to an empty table when the store is
// unreachable or its contents are malformed. The failure is logged; callers
// treat the empty table as "train before play".
func LoadOrEmpty(ctx context.Context, st Store, logger zerolog.Logger) *qlearn.Table {
	t, err := st.Load(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("could not load table, starting untrained")
		return qlearn.NewTable()
	}
	logger.Info().Int("states", t.Size()).Msg("table loaded")
	return t
}
