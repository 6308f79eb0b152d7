// Package pooltest holds the behaviour checks shared by every pool allocator.
package pooltest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evol-ledger-backend/internal/features/pool/repository"
)

// Run exercises allocators built by newAllocator, which receives the
// capacities the fresh allocator must start with.
func Run(t *testing.T, newAllocator func(t *testing.T, capacities map[int]int64) repository.Allocator) {
	t.Run("ReserveWithinCapacity", func(t *testing.T) {
		a := newAllocator(t, map[int]int64{1: 12})
		ctx := context.Background()

		ok, err := a.TryReserve(ctx, 1, 5)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = a.TryReserve(ctx, 1, 5)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = a.TryReserve(ctx, 1, 5)
		require.NoError(t, err)
		assert.False(t, ok, "12 - 10 leaves no room for 5")

		st := stateOf(t, a, 1)
		assert.Equal(t, int64(10), st.Used)
		assert.Equal(t, int64(2), st.Remaining())
	})

	t.Run("ExactFitSucceeds", func(t *testing.T) {
		a := newAllocator(t, map[int]int64{2: 10})
		ok, err := a.TryReserve(context.Background(), 2, 10)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(10), stateOf(t, a, 2).Used)
	})

	t.Run("UnknownTier", func(t *testing.T) {
		a := newAllocator(t, map[int]int64{1: 10})
		_, err := a.TryReserve(context.Background(), 5, 1)
		assert.True(t, repository.IsUnknownTier(err))
		assert.True(t, repository.IsUnknownTier(a.Reset(context.Background(), 5)))
	})

	t.Run("TiersAreIndependent", func(t *testing.T) {
		a := newAllocator(t, map[int]int64{1: 5, 2: 100})
		ctx := context.Background()

		ok, err := a.TryReserve(ctx, 1, 5)
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = a.TryReserve(ctx, 1, 5)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = a.TryReserve(ctx, 2, 10)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("ReleaseAndReset", func(t *testing.T) {
		a := newAllocator(t, map[int]int64{3: 30})
		ctx := context.Background()

		ok, err := a.TryReserve(ctx, 3, 15)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, a.Release(ctx, 3, 15))
		assert.Zero(t, stateOf(t, a, 3).Used)

		ok, err = a.TryReserve(ctx, 3, 30)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, a.Reset(ctx, 3))
		st := stateOf(t, a, 3)
		assert.Zero(t, st.Used)
		assert.Equal(t, int64(30), st.Capacity)
	})

	t.Run("ConcurrentReservesNeverOverdraw", func(t *testing.T) {
		const (
			capacity = 103
			ceiling  = 10
			workers  = 40
		)
		a := newAllocator(t, map[int]int64{2: capacity})
		ctx := context.Background()

		var wg sync.WaitGroup
		var granted int64
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := a.TryReserve(ctx, 2, ceiling)
				assert.NoError(t, err)
				if ok {
					atomic.AddInt64(&granted, 1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(capacity/ceiling), granted)
		st := stateOf(t, a, 2)
		assert.Equal(t, granted*ceiling, st.Used)
		assert.LessOrEqual(t, st.Used, st.Capacity)
	})
}

func stateOf(t *testing.T, a repository.Allocator, level int) repository.State {
	t.Helper()
	states, err := a.State(context.Background())
	require.NoError(t, err)
	for _, st := range states {
		if st.Level == level {
			return st
		}
	}
	t.Fatalf("tier %d missing from state", level)
	return repository.State{}
}

// RunSeed checks re-seeding of persistent allocators. open prepares one empty
// backend and returns a constructor that builds and seeds an allocator on it.
func RunSeed(t *testing.T, open func(t *testing.T) func(capacities map[int]int64) repository.Allocator) {
	t.Run("LoweredCapacityClampsUsed", func(t *testing.T) {
		seed := open(t)
		ctx := context.Background()

		ok, err := seed(map[int]int64{1: 100}).TryReserve(ctx, 1, 80)
		require.NoError(t, err)
		require.True(t, ok)

		a := seed(map[int]int64{1: 50})
		st := stateOf(t, a, 1)
		assert.Equal(t, int64(50), st.Capacity)
		assert.Equal(t, int64(50), st.Used)
		assert.LessOrEqual(t, st.Percent(), 100.0)

		ok, err = a.TryReserve(ctx, 1, 1)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("RaisedCapacityKeepsUsed", func(t *testing.T) {
		seed := open(t)
		ctx := context.Background()

		ok, err := seed(map[int]int64{2: 50}).TryReserve(ctx, 2, 20)
		require.NoError(t, err)
		require.True(t, ok)

		st := stateOf(t, seed(map[int]int64{2: 80}), 2)
		assert.Equal(t, int64(80), st.Capacity)
		assert.Equal(t, int64(20), st.Used)
	})
}
