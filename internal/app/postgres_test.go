package app

import (
	"context"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evol-ledger-backend/internal/common/config"
	apperrors "evol-ledger-backend/internal/common/errors"
	ledgermodels "evol-ledger-backend/internal/features/ledger/models"
	"evol-ledger-backend/internal/features/tier"
)

func buildPostgres(t *testing.T, maxConns int32, lockTimeout time.Duration) *Container {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(t, config.BackendPostgres)
	cfg.Postgres.DSN = dsn
	cfg.Postgres.MaxConns = maxConns
	cfg.Postgres.AutoMigrate = true
	cfg.Ledger.LockTimeout = lockTimeout

	ctx := context.Background()
	c, err := Build(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	_, err = c.Postgres.Pool().Exec(ctx, `TRUNCATE ledger_users`)
	require.NoError(t, err)
	_, err = c.Postgres.Pool().Exec(ctx, `UPDATE reward_pools SET used = 0`)
	require.NoError(t, err)
	return c
}

func TestPostgresClaimsBeyondPoolSize(t *testing.T) {
	const (
		maxConns = 2
		claims   = 12
	)
	c := buildPostgres(t, maxConns, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	errs := make(chan error, claims)
	var wg sync.WaitGroup
	for i := 0; i < claims; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := c.Rewards.Claim(ctx, id, time.Unix(1_700_000_000, 0))
			errs <- err
		}("user" + strconv.Itoa(i))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	require.NoError(t, ctx.Err(), "claims did not finish before the deadline")

	states, err := c.Pools.State(context.Background())
	require.NoError(t, err)
	rookie, _ := tier.ByLevel(1)
	assert.Equal(t, int64(claims)*rookie.ClaimCeiling, states[0].Used)
}

func TestPostgresRowLockWaitIsBounded(t *testing.T) {
	c := buildPostgres(t, 4, 200*time.Millisecond)
	ctx := context.Background()

	_, err := c.Postgres.Pool().Exec(ctx, `INSERT INTO ledger_users (user_id) VALUES ('held')`)
	require.NoError(t, err)

	tx, err := c.Postgres.Pool().Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()
	_, err = tx.Exec(ctx, `SELECT 1 FROM ledger_users WHERE user_id = 'held' FOR UPDATE`)
	require.NoError(t, err)

	start := time.Now()
	_, err = c.Store.Update(ctx, "held", func(_ context.Context, r *ledgermodels.UserRecord, _ bool) error {
		r.Points++
		return nil
	})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeLockTimeout), "got %v", err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
