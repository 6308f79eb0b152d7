package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "evol-ledger-backend/internal/common/errors"
	ledgermodels "evol-ledger-backend/internal/features/ledger/models"
	"evol-ledger-backend/internal/features/ledger/repository/memory"
)

func seed(t *testing.T, store *memory.Store, points map[string]int64) {
	t.Helper()
	for id, p := range points {
		p := p
		_, err := store.Update(context.Background(), id, func(_ context.Context, r *ledgermodels.UserRecord, _ bool) error {
			r.Points = p
			return nil
		})
		require.NoError(t, err)
	}
}

func TestRankOrdersByPointsThenID(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, map[string]int64{"a": 100, "b": 300, "c": 100, "d": 0})
	svc := NewRankingService(store)
	ctx := context.Background()

	want := map[string]int{"b": 1, "a": 2, "c": 3, "d": 4}
	for id, rank := range want {
		pos, total, err := svc.Rank(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, rank, pos, "user %s", id)
		assert.Equal(t, 4, total)
	}
}

func TestRankIsDeterministic(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, map[string]int64{"x": 50, "y": 50, "z": 50})
	svc := NewRankingService(store)

	for i := 0; i < 20; i++ {
		pos, _, err := svc.Rank(context.Background(), "y")
		require.NoError(t, err)
		assert.Equal(t, 2, pos)
	}
}

func TestRankUnknownUser(t *testing.T) {
	svc := NewRankingService(memory.NewStore())
	_, _, err := svc.Rank(context.Background(), "ghost")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnranked))
}

func TestLeaderboardFiltersByTier(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, map[string]int64{
		"rookie":  10,
		"c1":      500,
		"c2":      14999,
		"c3":      500,
		"breaker": 15000,
	})
	svc := NewRankingService(store)

	board, err := svc.Leaderboard(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, "Evol 2 – Charger", board.Tier)
	assert.Equal(t, 3, board.TotalInTier)
	require.Len(t, board.Entries, 2)
	assert.Equal(t, "c2", board.Entries[0].UserID)
	assert.Equal(t, 1, board.Entries[0].Rank)
	assert.Equal(t, "c1", board.Entries[1].UserID)
	assert.Equal(t, "Userc1", board.Entries[1].DisplayName)
}

func TestLeaderboardDefaultsAndErrors(t *testing.T) {
	svc := NewRankingService(memory.NewStore())
	ctx := context.Background()

	board, err := svc.Leaderboard(ctx, 7, 0)
	require.NoError(t, err)
	assert.Empty(t, board.Entries)
	assert.NotNil(t, board.Entries)

	_, err = svc.Leaderboard(ctx, 8, 10)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTierNotFound))
}
