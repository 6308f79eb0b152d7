package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "evol-ledger-backend/internal/common/errors"
	"evol-ledger-backend/internal/common/logger"
	"evol-ledger-backend/internal/features/ledger/models"
	"evol-ledger-backend/internal/features/ledger/repository"
	pgplatform "evol-ledger-backend/internal/platform/postgres"
)

const selectColumns = `user_id, points, last_claim_at, wallet_address, referral_applied, referred_by,
	total_referrals, completed_tasks, display_name, created_at, updated_at`

// Store keeps the ledger in the ledger_users table and serializes writers
// with row locks.
type Store struct {
	db *pgplatform.Client
}

func NewStore(db *pgplatform.Client) *Store {
	return &Store{db: db}
}

var _ repository.Store = (*Store)(nil)

func scanRecord(row pgx.Row) (models.UserRecord, error) {
	var rec models.UserRecord
	var tasks []byte
	err := row.Scan(&rec.UserID, &rec.Points, &rec.LastClaimAt, &rec.WalletAddress, &rec.ReferralApplied,
		&rec.ReferredBy, &rec.TotalReferrals, &tasks, &rec.DisplayName, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return rec, err
	}
	if len(tasks) > 0 {
		if err := json.Unmarshal(tasks, &rec.CompletedTasks); err != nil {
			appErr := apperrors.NewCorruptStateError("ledger_users."+rec.UserID+".completed_tasks", err)
			logger.Warn().Str("code", string(appErr.Code)).Str("user_id", rec.UserID).Err(err).Msg(appErr.Message)
			rec.CompletedTasks = nil
		}
	}
	if len(rec.CompletedTasks) == 0 {
		rec.CompletedTasks = nil
	}
	return rec, nil
}

func (s *Store) Get(ctx context.Context, userID string) (models.Lookup, error) {
	rec, err := scanRecord(s.db.Pool().QueryRow(ctx,
		`SELECT `+selectColumns+` FROM ledger_users WHERE user_id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Lookup{Record: models.NewRecord(userID)}, nil
	}
	if err != nil {
		return models.Lookup{}, apperrors.NewDatabaseError("get ledger record", err)
	}
	return models.Lookup{Record: rec, Present: true}, nil
}

// lockRow makes sure the row exists and locks it for the rest of tx.
func lockRow(ctx context.Context, tx pgx.Tx, userID string) (models.Lookup, error) {
	tag, err := tx.Exec(ctx, `INSERT INTO ledger_users (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return models.Lookup{}, err
	}
	inserted := tag.RowsAffected() == 1

	rec, err := scanRecord(tx.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM ledger_users WHERE user_id = $1 FOR UPDATE`, userID))
	if err != nil {
		return models.Lookup{}, err
	}
	return models.Lookup{Record: rec, Present: !inserted}, nil
}

func saveRow(ctx context.Context, tx pgx.Tx, rec models.UserRecord) error {
	tasks, err := json.Marshal(rec.CompletedTasks)
	if err != nil {
		return fmt.Errorf("marshal completed tasks: %w", err)
	}
	if rec.CompletedTasks == nil {
		tasks = []byte("{}")
	}

	_, err = tx.Exec(ctx, `
		UPDATE ledger_users SET
			points = $2, last_claim_at = $3, wallet_address = $4, referral_applied = $5, referred_by = $6,
			total_referrals = $7, completed_tasks = $8::jsonb, display_name = $9, created_at = $10, updated_at = $11
		WHERE user_id = $1`,
		rec.UserID, rec.Points, rec.LastClaimAt, rec.WalletAddress, rec.ReferralApplied, rec.ReferredBy,
		rec.TotalReferrals, string(tasks), rec.DisplayName, rec.CreatedAt, rec.UpdatedAt)
	return err
}

// mutationError marks errors returned by the caller's mutate function so they
// pass through without being wrapped as database failures.
type mutationError struct{ err error }

func (e mutationError) Error() string { return e.err.Error() }

func (s *Store) unwrapTxError(op string, err error) error {
	if me, ok := err.(mutationError); ok {
		return me.err
	}
	if pgplatform.IsLockTimeout(err) {
		return apperrors.NewLockTimeoutError("Ledger record", s.db.LockTimeout())
	}
	return apperrors.Wrap(err, apperrors.ErrCodeTransactionFailed, "Ledger transaction failed: "+op)
}

func (s *Store) Update(ctx context.Context, userID string, fn repository.MutateFunc) (models.UserRecord, error) {
	var out models.UserRecord
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		cur, err := lockRow(ctx, tx, userID)
		if err != nil {
			return err
		}
		rec := cur.Record
		if err := fn(pgplatform.ContextWithTx(ctx, tx), &rec, cur.Present); err != nil {
			return mutationError{err}
		}
		rec.UserID = userID
		if err := saveRow(ctx, tx, rec); err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return models.UserRecord{}, s.unwrapTxError("update", err)
	}
	return out, nil
}

func (s *Store) UpdatePair(ctx context.Context, a, b string, fn repository.PairMutateFunc) (models.UserRecord, models.UserRecord, error) {
	var outA, outB models.UserRecord
	if a == b {
		return outA, outB, repository.ErrSameUser
	}

	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		first, second, swapped := repository.OrderPair(a, b)
		l1, err := lockRow(ctx, tx, first)
		if err != nil {
			return err
		}
		l2, err := lockRow(ctx, tx, second)
		if err != nil {
			return err
		}
		curA, curB := l1, l2
		if swapped {
			curA, curB = l2, l1
		}

		recA, recB := curA.Record, curB.Record
		if err := fn(&recA, &recB, curA.Present, curB.Present); err != nil {
			return mutationError{err}
		}
		recA.UserID, recB.UserID = a, b
		if err := saveRow(ctx, tx, recA); err != nil {
			return err
		}
		if err := saveRow(ctx, tx, recB); err != nil {
			return err
		}
		outA, outB = recA, recB
		return nil
	})
	if err != nil {
		return models.UserRecord{}, models.UserRecord{}, s.unwrapTxError("update pair", err)
	}
	return outA, outB, nil
}

func (s *Store) Snapshot(ctx context.Context) ([]models.UserRecord, error) {
	rows, err := s.db.Pool().Query(ctx, `SELECT `+selectColumns+` FROM ledger_users ORDER BY user_id`)
	if err != nil {
		return nil, apperrors.NewDatabaseError("snapshot ledger", err)
	}
	defer rows.Close()

	var out []models.UserRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, apperrors.NewDatabaseError("scan ledger record", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("snapshot ledger", err)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
