package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lox/blackjackrl/sdk/qlearn"
)

//go:embed schema.sql
var schema string

const undefinedTable = "42P01"

var qValueColumns = []string{"player_total", "dealer_up_card", "has_soft_ace", "stand_q", "hit_q"}

// PostgresStore keeps one row per state in the q_values relation.
type PostgresStore struct{ *pgxpool.Pool }

// OpenPostgres prepares a pool for dsn. Connections are made on first use, so
// an unreachable server surfaces from Load or Save.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &PostgresStore{p}, nil
}

// Migrate creates the q_values relation if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.Exec(ctx, schema)
	return err
}

// Load reads every row. A missing relation is an empty table.
func (s *PostgresStore) Load(ctx context.Context) (*qlearn.Table, error) {
	rows, err := s.Query(ctx, `
		SELECT player_total, dealer_up_card, has_soft_ace, stand_q, hit_q
		  FROM q_values
	`)
	if err != nil {
		if isUndefinedTable(err) {
			return qlearn.NewTable(), nil
		}
		return nil, fmt.Errorf("query q_values: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Row, error) {
		var (
			r     Row
			total int32
			up    int32
			soft  int16
		)
		if err := row.Scan(&total, &up, &soft, &r.Stand, &r.Hit); err != nil {
			return Row{}, err
		}
		r.PlayerTotal, r.DealerUpCard, r.SoftAce = int(total), int(up), int(soft)
		return r, nil
	})
	if err != nil {
		if isUndefinedTable(err) {
			return qlearn.NewTable(), nil
		}
		return nil, fmt.Errorf("scan q_values: %w", err)
	}
	return FromRows(out)
}

// Save replaces all rows with t inside one transaction, so a crash leaves
// either the previous snapshot or the new one.
func (s *PostgresStore) Save(ctx context.Context, t *qlearn.Table) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM q_values`); err != nil {
		return fmt.Errorf("clear q_values: %w", err)
	}

	rows := Rows(t)
	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		r := rows[i]
		return []any{int32(r.PlayerTotal), int32(r.DealerUpCard), int16(r.SoftAce), r.Stand, r.Hit}, nil
	})
	n, err := tx.CopyFrom(ctx, pgx.Identifier{"q_values"}, qValueColumns, src)
	if err != nil {
		return fmt.Errorf("copy q_values: %w", err)
	}
	if int(n) != len(rows) {
		return fmt.Errorf("copy q_values: wrote %d of %d rows", n, len(rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.Pool.Close()
	return nil
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}
