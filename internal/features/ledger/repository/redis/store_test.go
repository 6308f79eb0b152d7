package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "evol-ledger-backend/internal/common/errors"
	"evol-ledger-backend/internal/features/ledger/models"
	"evol-ledger-backend/internal/features/ledger/repository"
	"evol-ledger-backend/internal/features/ledger/repository/storetest"
)

func newTestStore(t *testing.T, lockTimeout time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, lockTimeout), mr
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		s, _ := newTestStore(t, 5*time.Second)
		return s
	})
}

func TestMalformedRecordIsTreatedAsEmpty(t *testing.T) {
	s, mr := newTestStore(t, time.Second)
	ctx := context.Background()
	require.NoError(t, mr.Set(makeUserKey("broken"), "{not json"))

	lk, err := s.Get(ctx, "broken")
	require.NoError(t, err)
	assert.False(t, lk.Present)
	assert.Zero(t, lk.Record.Points)

	rec, err := s.Update(ctx, "broken", func(_ context.Context, r *models.UserRecord, present bool) error {
		assert.False(t, present)
		r.Points = 250
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(250), rec.Points)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, int64(250), snap[0].Points)
}

func TestLockWaitIsBounded(t *testing.T) {
	s, mr := newTestStore(t, 50*time.Millisecond)
	require.NoError(t, mr.Set(makeLockKey("busy"), "someone-else"))

	_, err := s.Update(context.Background(), "busy", func(context.Context, *models.UserRecord, bool) error {
		t.Fatal("mutate must not run without the lock")
		return nil
	})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeLockTimeout))
}

func TestReleaseKeepsForeignLock(t *testing.T) {
	s, mr := newTestStore(t, time.Second)

	s.release("u", "not-the-owner")
	require.NoError(t, mr.Set(makeLockKey("u"), "owner"))
	s.release("u", "not-the-owner")

	got, err := mr.Get(makeLockKey("u"))
	require.NoError(t, err)
	assert.Equal(t, "owner", got)
}

func TestLockIsReleasedAfterUpdate(t *testing.T) {
	s, mr := newTestStore(t, time.Second)

	_, err := s.Update(context.Background(), "u", func(_ context.Context, r *models.UserRecord, _ bool) error {
		r.Points = 1
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(makeLockKey("u")))
}

func TestSnapshotSpansSeveralBatches(t *testing.T) {
	s, mr := newTestStore(t, time.Second)
	ctx := context.Background()

	const users = 2*scanBatch + 50
	for i := 0; i < users; i++ {
		_, err := s.Update(ctx, fmt.Sprintf("u%04d", i), func(_ context.Context, r *models.UserRecord, _ bool) error {
			r.Points = 1
			return nil
		})
		require.NoError(t, err)
	}
	require.NoError(t, mr.Set(keyPrefixLock+"u0001", "held"))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap, users)
	assert.Equal(t, "u0000", snap[0].UserID)
	assert.Equal(t, fmt.Sprintf("u%04d", users-1), snap[users-1].UserID)
}
