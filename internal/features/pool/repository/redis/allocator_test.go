package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evol-ledger-backend/internal/features/pool/repository"
	"evol-ledger-backend/internal/features/pool/repository/pooltest"
)

func newTestAllocator(t *testing.T, capacities map[int]int64) (*Allocator, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	a := NewAllocator(client, capacities)
	require.NoError(t, a.Seed(context.Background()))
	return a, mr
}

func TestAllocatorContract(t *testing.T) {
	pooltest.Run(t, func(t *testing.T, capacities map[int]int64) repository.Allocator {
		a, _ := newTestAllocator(t, capacities)
		return a
	})
}

func TestSeedContract(t *testing.T) {
	pooltest.RunSeed(t, func(t *testing.T) func(map[int]int64) repository.Allocator {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })

		return func(capacities map[int]int64) repository.Allocator {
			a := NewAllocator(client, capacities)
			require.NoError(t, a.Seed(context.Background()))
			return a
		}
	})
}

func TestSeedClampsStoredFields(t *testing.T) {
	a, mr := newTestAllocator(t, map[int]int64{1: 50})
	ctx := context.Background()

	ok, err := a.TryReserve(ctx, 1, 40)
	require.NoError(t, err)
	require.True(t, ok)

	a.capacities[1] = 30
	require.NoError(t, a.Seed(ctx))

	assert.Equal(t, "30", mr.HGet(makePoolKey(1), fieldUsed))
	assert.Equal(t, "30", mr.HGet(makePoolKey(1), fieldCapacity))
}

func TestUnseededPoolIsUnknown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	a := NewAllocator(client, map[int]int64{1: 10})
	_, err := a.TryReserve(context.Background(), 1, 5)
	assert.True(t, repository.IsUnknownTier(err))
}
