package service

import (
	"context"

	apperrors "evol-ledger-backend/internal/common/errors"
	"evol-ledger-backend/internal/common/logger"
	"evol-ledger-backend/internal/common/metrics"
	"evol-ledger-backend/internal/features/admin/models"
	ledgerrepo "evol-ledger-backend/internal/features/ledger/repository"
	poolrepo "evol-ledger-backend/internal/features/pool/repository"
	"evol-ledger-backend/internal/features/tier"
)

type AdminService interface {
	Stats(ctx context.Context) (*models.Stats, error)
	Export(ctx context.Context) ([]models.ExportRow, error)
	ResetPool(ctx context.Context, level int) error
}

type adminService struct {
	store ledgerrepo.Store
	pools poolrepo.Allocator
}

func NewAdminService(store ledgerrepo.Store, pools poolrepo.Allocator) AdminService {
	return &adminService{store: store, pools: pools}
}

func (s *adminService) Stats(ctx context.Context) (*models.Stats, error) {
	recs, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	states, err := s.pools.State(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.Stats{
		TotalUsers:   len(recs),
		UsersPerTier: make(map[int]int, tier.MaxLevel),
		Pools:        make([]models.PoolUsage, 0, len(states)),
	}
	for _, r := range recs {
		stats.TotalDistributed += r.Points
		stats.TotalReferrals += r.TotalReferrals
		if r.WalletAddress != "" {
			stats.UsersWithWallet++
		}
		stats.UsersPerTier[tier.Classify(r.Points).Level]++
	}

	for _, st := range states {
		name := ""
		if t, ok := tier.ByLevel(st.Level); ok {
			name = t.Name
		}
		stats.Pools = append(stats.Pools, models.PoolUsage{
			TierLevel: st.Level,
			Tier:      name,
			Capacity:  st.Capacity,
			Used:      st.Used,
			Remaining: st.Remaining(),
			Percent:   st.Percent(),
		})
		stats.TotalPoolCapacity += st.Capacity
		stats.TotalPoolUsed += st.Used
		metrics.ObservePool(st.Level, st.Used)
	}
	if stats.TotalPoolCapacity > 0 {
		stats.PoolUsagePercent = float64(stats.TotalPoolUsed) * 100 / float64(stats.TotalPoolCapacity)
	}
	return stats, nil
}

func (s *adminService) Export(ctx context.Context) ([]models.ExportRow, error) {
	recs, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]models.ExportRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, models.ExportRow{UserID: r.UserID, Points: r.Points, Wallet: r.WalletAddress})
	}
	return rows, nil
}

// ResetPool is the out-of-band refill: the tier's used total goes back to zero.
func (s *adminService) ResetPool(ctx context.Context, level int) error {
	if _, ok := tier.ByLevel(level); !ok {
		return apperrors.NewTierNotFoundError(level)
	}
	if err := s.pools.Reset(ctx, level); err != nil {
		if poolrepo.IsUnknownTier(err) {
			return apperrors.NewTierNotFoundError(level)
		}
		return err
	}
	metrics.ObservePool(level, 0)
	logger.Info().Int("tier", level).Msg("Reward pool refilled")
	return nil
}
