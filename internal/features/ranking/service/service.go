package service

import (
	"context"
	"sort"

	apperrors "evol-ledger-backend/internal/common/errors"
	ledgermodels "evol-ledger-backend/internal/features/ledger/models"
	ledgerrepo "evol-ledger-backend/internal/features/ledger/repository"
	"evol-ledger-backend/internal/features/ranking/models"
	"evol-ledger-backend/internal/features/tier"
)

const (
	DefaultLeaderboardLimit = 100
	MaxLeaderboardLimit     = 1000
)

type RankingService interface {
	Rank(ctx context.Context, userID string) (position, total int, err error)
	Position(ctx context.Context, userID string) (*models.Position, error)
	Leaderboard(ctx context.Context, level, limit int) (*models.Leaderboard, error)
}

type rankingService struct {
	store ledgerrepo.Store
}

// NewRankingService ranks users over ledger snapshots. It never writes.
func NewRankingService(store ledgerrepo.Store) RankingService {
	return &rankingService{store: store}
}

// SortRecords orders by points descending, then user id ascending.
func SortRecords(recs []ledgermodels.UserRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Points != recs[j].Points {
			return recs[i].Points > recs[j].Points
		}
		return recs[i].UserID < recs[j].UserID
	})
}

func (s *rankingService) ranked(ctx context.Context) ([]ledgermodels.UserRecord, error) {
	recs, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	SortRecords(recs)
	return recs, nil
}

func (s *rankingService) Rank(ctx context.Context, userID string) (int, int, error) {
	pos, err := s.Position(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return pos.Rank, pos.Total, nil
}

func (s *rankingService) Position(ctx context.Context, userID string) (*models.Position, error) {
	recs, err := s.ranked(ctx)
	if err != nil {
		return nil, err
	}
	for i, r := range recs {
		if r.UserID == userID {
			return &models.Position{
				UserID: userID,
				Rank:   i + 1,
				Total:  len(recs),
				Points: r.Points,
				Tier:   tier.Classify(r.Points).Name,
			}, nil
		}
	}
	return nil, apperrors.NewUnrankedError(userID)
}

func (s *rankingService) Leaderboard(ctx context.Context, level, limit int) (*models.Leaderboard, error) {
	t, ok := tier.ByLevel(level)
	if !ok {
		return nil, apperrors.NewTierNotFoundError(level)
	}
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	recs, err := s.ranked(ctx)
	if err != nil {
		return nil, err
	}

	board := &models.Leaderboard{TierLevel: t.Level, Tier: t.Name, Entries: []models.Entry{}}
	for _, r := range recs {
		if tier.Classify(r.Points).Level != t.Level {
			continue
		}
		board.TotalInTier++
		if len(board.Entries) < limit {
			board.Entries = append(board.Entries, models.Entry{
				Rank:        len(board.Entries) + 1,
				UserID:      r.UserID,
				Points:      r.Points,
				DisplayName: r.Name(),
				Tier:        t.Name,
				Badge:       t.Badge,
			})
		}
	}
	return board, nil
}
