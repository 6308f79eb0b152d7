package service

import (
	"context"
	"time"

	"evol-ledger-backend/internal/features/reward/models"
)

type RewardService interface {
	Claim(ctx context.Context, userID string, now time.Time) (*models.ClaimResult, error)
	ApplyReferral(ctx context.Context, userID, code string, now time.Time) (*models.ReferralResult, error)
	ReferralCode(userID string) string
	ConnectWallet(ctx context.Context, userID, address string, now time.Time) (*models.WalletResult, error)
	Tasks(ctx context.Context, userID string) ([]models.TaskView, error)
	CompleteTask(ctx context.Context, userID, category string, index int, now time.Time) (*models.TaskResult, error)
	Profile(ctx context.Context, userID string, now time.Time) (*models.Profile, error)
	TouchProfile(ctx context.Context, userID, displayName string, now time.Time) error
}

// Ranker resolves a user's global leaderboard position.
type Ranker interface {
	Rank(ctx context.Context, userID string) (position, total int, err error)
}
