package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "evol-ledger-backend/internal/common/errors"
	ledgermodels "evol-ledger-backend/internal/features/ledger/models"
	ledgermemory "evol-ledger-backend/internal/features/ledger/repository/memory"
	poolmemory "evol-ledger-backend/internal/features/pool/repository/memory"
)

func TestStatsAndExport(t *testing.T) {
	store := ledgermemory.NewStore()
	pools := poolmemory.NewAllocator(map[int]int64{1: 100, 2: 300})
	ctx := context.Background()

	for id, pts := range map[string]int64{"a": 10, "b": 500} {
		pts := pts
		_, err := store.Update(ctx, id, func(_ context.Context, r *ledgermodels.UserRecord, _ bool) error {
			r.Points = pts
			if pts > 100 {
				r.WalletAddress = "gxr1qqqqqqqq"
			}
			return nil
		})
		require.NoError(t, err)
	}
	ok, err := pools.TryReserve(ctx, 1, 50)
	require.NoError(t, err)
	require.True(t, ok)

	svc := NewAdminService(store, pools)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, int64(510), stats.TotalDistributed)
	assert.Equal(t, 1, stats.UsersWithWallet)
	assert.Equal(t, 1, stats.UsersPerTier[1])
	assert.Equal(t, 1, stats.UsersPerTier[2])
	require.Len(t, stats.Pools, 2)
	assert.InDelta(t, 50.0, stats.Pools[0].Percent, 0.001)
	assert.InDelta(t, 12.5, stats.PoolUsagePercent, 0.001)

	rows, err := svc.Export(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].UserID)
	assert.Equal(t, "gxr1qqqqqqqq", rows[1].Wallet)
}

func TestResetPool(t *testing.T) {
	pools := poolmemory.NewAllocator(map[int]int64{1: 10})
	svc := NewAdminService(ledgermemory.NewStore(), pools)
	ctx := context.Background()

	ok, err := pools.TryReserve(ctx, 1, 10)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, svc.ResetPool(ctx, 1))
	ok, err = pools.TryReserve(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.True(t, apperrors.HasCode(svc.ResetPool(ctx, 9), apperrors.ErrCodeTierNotFound))
	assert.True(t, apperrors.HasCode(svc.ResetPool(ctx, 3), apperrors.ErrCodeTierNotFound))
}
