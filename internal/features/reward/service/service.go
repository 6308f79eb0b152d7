package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"evol-ledger-backend/internal/common/config"
	apperrors "evol-ledger-backend/internal/common/errors"
	"evol-ledger-backend/internal/common/logger"
	"evol-ledger-backend/internal/common/metrics"
	"evol-ledger-backend/internal/common/validation"
	ledgermodels "evol-ledger-backend/internal/features/ledger/models"
	ledgerrepo "evol-ledger-backend/internal/features/ledger/repository"
	poolrepo "evol-ledger-backend/internal/features/pool/repository"
	"evol-ledger-backend/internal/features/reward/models"
	"evol-ledger-backend/internal/features/tier"
)

const ReferralPrefix = "REF"

// errUnchanged aborts a ledger update that has nothing to write.
var errUnchanged = errors.New("record unchanged")

// Options carries the reward economics.
type Options struct {
	ClaimReward    int64
	ClaimCooldown  time.Duration
	ReferralReward int64
	Catalog        *config.Catalog
	Wallet         validation.WalletRules
}

// OptionsFromConfig builds Options from loaded configuration.
func OptionsFromConfig(cfg *config.Config, catalog *config.Catalog) Options {
	return Options{
		ClaimReward:    cfg.Ledger.ClaimReward,
		ClaimCooldown:  cfg.Ledger.ClaimCooldown,
		ReferralReward: cfg.Ledger.ReferralReward,
		Catalog:        catalog,
		Wallet: validation.WalletRules{
			Prefixes:  cfg.Wallet.Prefixes,
			AcceptTON: cfg.Wallet.AcceptTON,
		},
	}
}

type rewardService struct {
	store  ledgerrepo.Store
	pools  poolrepo.Allocator
	ranker Ranker
	opts   Options
}

// NewRewardService wires the claim, referral, wallet and task flows. ranker may be nil.
func NewRewardService(store ledgerrepo.Store, pools poolrepo.Allocator, ranker Ranker, opts Options) RewardService {
	if opts.Catalog == nil {
		opts.Catalog = config.DefaultCatalog()
	}
	return &rewardService{
		store:  store,
		pools:  pools,
		ranker: ranker,
		opts:   opts,
	}
}

func (s *rewardService) remaining(rec *ledgermodels.UserRecord, now int64) time.Duration {
	elapsed := time.Duration(now-rec.LastClaimAt) * time.Second
	if rec.LastClaimAt == 0 {
		return 0
	}
	if elapsed >= s.opts.ClaimCooldown {
		return 0
	}
	return s.opts.ClaimCooldown - elapsed
}

func (s *rewardService) Claim(ctx context.Context, userID string, now time.Time) (*models.ClaimResult, error) {
	var (
		charged     tier.Tier
		mustRelease bool
	)
	nowUnix := now.Unix()

	rec, err := s.store.Update(ctx, userID, func(txCtx context.Context, r *ledgermodels.UserRecord, _ bool) error {
		if left := s.remaining(r, nowUnix); left > 0 {
			return apperrors.NewCooldownError(left)
		}
		// A clock that moved backwards must not rewind last_claim_at.
		if nowUnix < r.LastClaimAt {
			return apperrors.NewCooldownError(s.opts.ClaimCooldown)
		}

		charged = tier.Classify(r.Points)
		ok, err := s.pools.TryReserve(txCtx, charged.Level, charged.ClaimCeiling)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.NewPoolExhaustedError(charged.Level, charged.Name)
		}
		// A reservation on the ledger transaction rolls back with it.
		mustRelease = !poolrepo.JoinsTx(txCtx, s.pools)

		r.Points += s.opts.ClaimReward
		r.LastClaimAt = nowUnix
		r.Touch(nowUnix)
		return nil
	})
	if err != nil {
		if mustRelease {
			s.rollbackReservation(charged, userID)
		}
		s.countClaim(err)
		if apperrors.HasCode(err, apperrors.ErrCodePoolExhausted) {
			logger.Warn().Str("user_id", userID).Int("tier", charged.Level).Msg("Reward pool exhausted")
		}
		return nil, err
	}

	metrics.ClaimsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	s.observePool(ctx, charged.Level)

	current := tier.Classify(rec.Points)
	msg := fmt.Sprintf("Claim successful! +%d points. Your evolution: %s", s.opts.ClaimReward, current.Name)
	if current.Level > charged.Level {
		msg += fmt.Sprintf(". You evolved to %s!", current.Name)
	}

	return &models.ClaimResult{
		UserID:        userID,
		Points:        rec.Points,
		Reward:        s.opts.ClaimReward,
		Tier:          charged.Name,
		TierLevel:     charged.Level,
		Badge:         charged.Badge,
		CurrentTier:   current.Name,
		LastClaimAt:   rec.LastClaimAt,
		NextClaimAt:   rec.LastClaimAt + int64(s.opts.ClaimCooldown/time.Second),
		Message:       msg,
		TierPromotion: current.Level > charged.Level,
	}, nil
}

func (s *rewardService) rollbackReservation(charged tier.Tier, userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.pools.Release(ctx, charged.Level, charged.ClaimCeiling); err != nil {
		logger.Error().Err(err).Str("user_id", userID).Int("tier", charged.Level).
			Int64("amount", charged.ClaimCeiling).Msg("Failed to release pool reservation after ledger write failure")
	}
}

func (s *rewardService) countClaim(err error) {
	switch {
	case apperrors.HasCode(err, apperrors.ErrCodeCooldownActive):
		metrics.ClaimsTotal.WithLabelValues(metrics.OutcomeCooldown).Inc()
	case apperrors.HasCode(err, apperrors.ErrCodePoolExhausted):
		metrics.ClaimsTotal.WithLabelValues(metrics.OutcomePoolExhausted).Inc()
	default:
		metrics.ClaimsTotal.WithLabelValues(metrics.OutcomeError).Inc()
	}
}

func (s *rewardService) observePool(ctx context.Context, level int) {
	states, err := s.pools.State(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("Skipping pool gauge update")
		return
	}
	for _, st := range states {
		if st.Level == level {
			metrics.ObservePool(st.Level, st.Used)
		}
	}
}

func (s *rewardService) ReferralCode(userID string) string {
	return ReferralPrefix + userID
}

// DecodeReferralCode strips the REF prefix and returns the referrer id.
func DecodeReferralCode(code string) (string, error) {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) >= len(ReferralPrefix) && strings.EqualFold(trimmed[:len(ReferralPrefix)], ReferralPrefix) {
		trimmed = trimmed[len(ReferralPrefix):]
	}
	if trimmed == "" || strings.ContainsAny(trimmed, " \t\r\n:") {
		return "", apperrors.NewInvalidReferralCodeError(code)
	}
	return trimmed, nil
}

func (s *rewardService) ApplyReferral(ctx context.Context, userID, code string, now time.Time) (*models.ReferralResult, error) {
	referrerID, err := DecodeReferralCode(code)
	if err != nil {
		metrics.ReferralsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}
	if referrerID == userID {
		metrics.ReferralsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, apperrors.NewSelfReferralError()
	}

	nowUnix := now.Unix()
	reward := s.opts.ReferralReward
	user, referrer, err := s.store.UpdatePair(ctx, userID, referrerID,
		func(u, ref *ledgermodels.UserRecord, _, _ bool) error {
			if u.ReferralApplied {
				return apperrors.NewReferralAppliedError()
			}
			u.Points += reward
			u.ReferralApplied = true
			u.ReferredBy = referrerID
			u.Touch(nowUnix)

			ref.Points += reward
			ref.TotalReferrals++
			ref.Touch(nowUnix)
			return nil
		})
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeReferralApplied) {
			metrics.ReferralsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		} else {
			metrics.ReferralsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		}
		return nil, err
	}

	metrics.ReferralsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	logger.Info().Str("user_id", userID).Str("referrer_id", referrerID).Int64("reward", reward).Msg("Referral applied")

	t := tier.Classify(user.Points)
	return &models.ReferralResult{
		UserID:         userID,
		ReferrerID:     referrerID,
		Points:         user.Points,
		ReferrerPoints: referrer.Points,
		Reward:         reward,
		Tier:           t.Name,
		Badge:          t.Badge,
		Message:        fmt.Sprintf("Referral applied! You and your friend each received %d points.", reward),
	}, nil
}

func (s *rewardService) ConnectWallet(ctx context.Context, userID, address string, now time.Time) (*models.WalletResult, error) {
	address = strings.TrimSpace(address)
	if !s.opts.Wallet.ValidWallet(address) {
		return nil, apperrors.NewInvalidWalletError(address)
	}

	nowUnix := now.Unix()
	_, err := s.store.Update(ctx, userID, func(_ context.Context, r *ledgermodels.UserRecord, _ bool) error {
		r.WalletAddress = address
		r.Touch(nowUnix)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.WalletResult{
		UserID:        userID,
		WalletAddress: address,
		Message:       "Wallet connected successfully.",
	}, nil
}

func (s *rewardService) Tasks(ctx context.Context, userID string) ([]models.TaskView, error) {
	lk, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out []models.TaskView
	for _, category := range config.Categories() {
		for i, t := range s.opts.Catalog.TasksIn(category) {
			out = append(out, models.TaskView{
				Category:  category,
				Index:     i,
				Name:      t.Name,
				Reward:    t.Reward,
				Completed: lk.Record.HasCompleted(category, i),
			})
		}
	}
	return out, nil
}

func (s *rewardService) CompleteTask(ctx context.Context, userID, category string, index int, now time.Time) (*models.TaskResult, error) {
	tasks := s.opts.Catalog.TasksIn(category)
	if index < 0 || index >= len(tasks) {
		return nil, apperrors.NewTaskNotFoundError(category, index)
	}
	task := tasks[index]

	nowUnix := now.Unix()
	rec, err := s.store.Update(ctx, userID, func(_ context.Context, r *ledgermodels.UserRecord, _ bool) error {
		if r.HasCompleted(category, index) {
			return apperrors.NewTaskCompletedError(category, index)
		}
		r.MarkCompleted(category, index)
		r.Points += task.Reward
		r.Touch(nowUnix)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TasksTotal.WithLabelValues(category).Inc()

	t := tier.Classify(rec.Points)
	return &models.TaskResult{
		UserID:   userID,
		Category: category,
		Index:    index,
		Reward:   task.Reward,
		Points:   rec.Points,
		Tier:     t.Name,
		Badge:    t.Badge,
		Message:  fmt.Sprintf("Task \"%s\" completed! +%d points.", task.Name, task.Reward),
	}, nil
}

func (s *rewardService) Profile(ctx context.Context, userID string, now time.Time) (*models.Profile, error) {
	lk, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	rec := lk.Record

	t := tier.Classify(rec.Points)
	next, pct := tier.Progress(rec.Points)
	left := s.remaining(&rec, now.Unix())

	p := &models.Profile{
		UserID:          userID,
		DisplayName:     rec.Name(),
		Points:          rec.Points,
		Tier:            t.Name,
		TierLevel:       t.Level,
		Badge:           t.Badge,
		NextTierPoints:  next,
		Progress:        pct,
		CanClaim:        left == 0,
		NextClaimIn:     int64((left + time.Second - 1) / time.Second),
		ReferralCode:    s.ReferralCode(userID),
		ReferralApplied: rec.ReferralApplied,
		ReferredBy:      rec.ReferredBy,
		TotalReferrals:  rec.TotalReferrals,
		WalletAddress:   rec.WalletAddress,
		Message:         fmt.Sprintf("Your evolution: %s\nPoints: %d", t.Name, rec.Points),
	}

	if s.ranker != nil && lk.Present {
		pos, total, err := s.ranker.Rank(ctx, userID)
		switch {
		case err == nil:
			p.Rank, p.TotalRanked = pos, total
		case apperrors.HasCode(err, apperrors.ErrCodeUnranked):
		default:
			return nil, err
		}
	}
	return p, nil
}

// TouchProfile stores the Telegram display name on an existing record.
// Unknown users are left unmaterialized.
func (s *rewardService) TouchProfile(ctx context.Context, userID, displayName string, now time.Time) error {
	name := validation.NormalizeDisplayName(displayName)
	if name == "" {
		return nil
	}

	lk, err := s.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !lk.Present || lk.Record.DisplayName == name {
		return nil
	}

	_, err = s.store.Update(ctx, userID, func(_ context.Context, r *ledgermodels.UserRecord, present bool) error {
		if !present || r.DisplayName == name {
			return errUnchanged
		}
		r.DisplayName = name
		r.Touch(now.Unix())
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return nil
	}
	return err
}
