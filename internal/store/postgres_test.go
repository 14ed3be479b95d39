package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackrl/sdk/qlearn"
)

// Set BLACKJACK_TEST_POSTGRES to a disposable database DSN to run these.
func openTestPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("BLACKJACK_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("BLACKJACK_TEST_POSTGRES not set")
	}
	ctx := context.Background()
	st, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	_, err = st.Exec(ctx, `DROP TABLE IF EXISTS q_values`)
	require.NoError(t, err)
	return st
}

func TestPostgresStoreMissingRelationIsEmpty(t *testing.T) {
	st := openTestPostgres(t)

	table, err := st.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, table.Size())
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	st := openTestPostgres(t)
	ctx := context.Background()

	want := randomTable(3)
	require.NoError(t, st.Save(ctx, want))

	got, err := st.Load(ctx)
	require.NoError(t, err)
	requireSameTable(t, want, got)

	small := qlearn.NewTable()
	small.SetValues(qlearn.Observe(12, 2, false), qlearn.Values{Stand: -0.25, Hit: -0.3})
	require.NoError(t, st.Save(ctx, small))

	got, err = st.Load(ctx)
	require.NoError(t, err)
	requireSameTable(t, small, got)
}

func TestPostgresStoreMigrateEmpty(t *testing.T) {
	st := openTestPostgres(t)
	ctx := context.Background()

	require.NoError(t, st.Migrate(ctx))
	table, err := st.Load(ctx)
	require.NoError(t, err)
	require.True(t, qlearn.ShouldTrain(table))
}
