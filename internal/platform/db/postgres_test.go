package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPool connects to TEST_PG_DSN and applies the schema, or skips.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))
	return pool
}

func countAudit(t *testing.T, pool *pgxpool.Pool, entityID string) int {
	t.Helper()
	var n int
	err := pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM audit_logs WHERE entity_id = $1`, entityID).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestMigrateIsIdempotent(t *testing.T) {
	pool := testPool(t)
	require.NoError(t, Migrate(context.Background(), pool))
}

func TestWithTxCommitAndRollback(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	committed, rolledBack := uuid.NewString(), uuid.NewString()
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM audit_logs WHERE entity_id IN ($1, $2)`, committed, rolledBack)
	})

	insert := func(tx pgx.Tx, id string) error {
		_, err := tx.Exec(ctx, `INSERT INTO audit_logs (action, entity, entity_id) VALUES ('test', 'tx', $1)`, id)
		return err
	}

	require.NoError(t, WithTx(ctx, pool, func(tx pgx.Tx) error { return insert(tx, committed) }))
	assert.Equal(t, 1, countAudit(t, pool, committed))

	errAbort := errors.New("abort")
	err := WithTx(ctx, pool, func(tx pgx.Tx) error {
		if err := insert(tx, rolledBack); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)
	assert.Equal(t, 0, countAudit(t, pool, rolledBack))
}
