// Package storetest holds the behaviour checks shared by every ledger backend.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evol-ledger-backend/internal/features/ledger/models"
	"evol-ledger-backend/internal/features/ledger/repository"
)

// Run exercises store against the ledger contract. newStore must return an
// empty store.
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	t.Run("GetUnknownIsAbsent", func(t *testing.T) {
		s := newStore(t)
		lk, err := s.Get(context.Background(), "404")
		require.NoError(t, err)
		assert.False(t, lk.Present)
		assert.Equal(t, "404", lk.Record.UserID)
		assert.Zero(t, lk.Record.Points)

		snap, err := s.Snapshot(context.Background())
		require.NoError(t, err)
		assert.Empty(t, snap, "reads must not materialize records")
	})

	t.Run("UpdateMaterializes", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		var sawPresent bool
		rec, err := s.Update(ctx, "u1", func(_ context.Context, r *models.UserRecord, present bool) error {
			sawPresent = present
			r.Points += 250
			r.LastClaimAt = 1000
			r.MarkCompleted("original", 2)
			return nil
		})
		require.NoError(t, err)
		assert.False(t, sawPresent)
		assert.Equal(t, int64(250), rec.Points)

		lk, err := s.Get(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, lk.Present)
		assert.Equal(t, int64(250), lk.Record.Points)
		assert.Equal(t, int64(1000), lk.Record.LastClaimAt)
		assert.True(t, lk.Record.HasCompleted("original", 2))

		_, err = s.Update(ctx, "u1", func(_ context.Context, r *models.UserRecord, present bool) error {
			sawPresent = present
			return nil
		})
		require.NoError(t, err)
		assert.True(t, sawPresent)
	})

	t.Run("UpdateErrorAborts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		boom := errors.New("boom")

		calls := 0
		_, err := s.Update(ctx, "u2", func(_ context.Context, r *models.UserRecord, _ bool) error {
			calls++
			r.Points = 999
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)

		lk, err := s.Get(ctx, "u2")
		require.NoError(t, err)
		assert.False(t, lk.Present)
		assert.Zero(t, lk.Record.Points)
	})

	t.Run("ConcurrentUpdatesSerialize", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		const n = 25

		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Update(ctx, "hot", func(_ context.Context, r *models.UserRecord, _ bool) error {
					r.Points++
					return nil
				})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		lk, err := s.Get(ctx, "hot")
		require.NoError(t, err)
		assert.Equal(t, int64(n), lk.Record.Points)
	})

	t.Run("UpdatePairCommitsBoth", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		a, b, err := s.UpdatePair(ctx, "200", "100", func(a, b *models.UserRecord, aPresent, bPresent bool) error {
			assert.False(t, aPresent)
			assert.False(t, bPresent)
			a.Points += 50
			a.ReferralApplied = true
			a.ReferredBy = "100"
			b.Points += 50
			b.TotalReferrals++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "200", a.UserID)
		assert.Equal(t, "100", b.UserID)

		la, err := s.Get(ctx, "200")
		require.NoError(t, err)
		lb, err := s.Get(ctx, "100")
		require.NoError(t, err)
		assert.True(t, la.Record.ReferralApplied)
		assert.Equal(t, "100", la.Record.ReferredBy)
		assert.Equal(t, int64(50), la.Record.Points)
		assert.Equal(t, int64(1), lb.Record.TotalReferrals)
	})

	t.Run("UpdatePairErrorAbortsBoth", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, _, err := s.UpdatePair(ctx, "a", "b", func(a, b *models.UserRecord, _, _ bool) error {
			a.Points = 1
			b.Points = 1
			return errors.New("abort")
		})
		require.Error(t, err)

		snap, err := s.Snapshot(ctx)
		require.NoError(t, err)
		assert.Empty(t, snap)
	})

	t.Run("UpdatePairRejectsSameUser", func(t *testing.T) {
		s := newStore(t)
		_, _, err := s.UpdatePair(context.Background(), "x", "x", func(_, _ *models.UserRecord, _, _ bool) error {
			t.Fatal("mutate must not run")
			return nil
		})
		assert.ErrorIs(t, err, repository.ErrSameUser)
	})

	t.Run("CrossedPairsDoNotDeadlock", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, _, err := s.UpdatePair(ctx, "p", "q", func(a, b *models.UserRecord, _, _ bool) error {
					a.Points++
					b.Points++
					return nil
				})
				assert.NoError(t, err)
			}()
			go func() {
				defer wg.Done()
				_, _, err := s.UpdatePair(ctx, "q", "p", func(a, b *models.UserRecord, _, _ bool) error {
					a.Points++
					b.Points++
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		lp, err := s.Get(ctx, "p")
		require.NoError(t, err)
		assert.Equal(t, int64(20), lp.Record.Points)
	})

	t.Run("SnapshotIsSortedCopy", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for i := 3; i >= 1; i-- {
			id := fmt.Sprintf("user-%d", i)
			_, err := s.Update(ctx, id, func(_ context.Context, r *models.UserRecord, _ bool) error {
				r.Points = 10
				return nil
			})
			require.NoError(t, err)
		}

		snap, err := s.Snapshot(ctx)
		require.NoError(t, err)
		require.Len(t, snap, 3)
		assert.Equal(t, "user-1", snap[0].UserID)
		assert.Equal(t, "user-3", snap[2].UserID)
	})
}
