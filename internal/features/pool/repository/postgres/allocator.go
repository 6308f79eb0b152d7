package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	apperrors "evol-ledger-backend/internal/common/errors"
	"evol-ledger-backend/internal/common/logger"
	"evol-ledger-backend/internal/features/pool/repository"
	pgplatform "evol-ledger-backend/internal/platform/postgres"
)

// Allocator keeps pools in reward_pools. A reservation is one conditional
// UPDATE so the row lock makes it linearizable per tier.
type Allocator struct {
	db         *pgplatform.Client
	capacities map[int]int64
}

func NewAllocator(db *pgplatform.Client, capacities map[int]int64) *Allocator {
	return &Allocator{db: db, capacities: capacities}
}

var (
	_ repository.Allocator = (*Allocator)(nil)
	_ repository.TxJoiner  = (*Allocator)(nil)
	_ repository.Seeder    = (*Allocator)(nil)
)

// Seed upserts configured capacities and keeps used totals. A used total
// above a lowered capacity is clamped to it, leaving that pool exhausted.
func (a *Allocator) Seed(ctx context.Context) error {
	err := a.db.WithTx(ctx, func(tx pgx.Tx) error {
		for level, c := range a.capacities {
			var used int64
			err := tx.QueryRow(ctx, `SELECT used FROM reward_pools WHERE tier = $1 FOR UPDATE`, level).Scan(&used)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			if used > c {
				logger.Warn().Int("tier", level).Int64("used", used).Int64("capacity", c).
					Msg("Reward pool capacity lowered below used total, clamping")
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO reward_pools (tier, capacity, used) VALUES ($1, $2, 0)
				ON CONFLICT (tier) DO UPDATE
				SET capacity = EXCLUDED.capacity, used = LEAST(reward_pools.used, EXCLUDED.capacity)`, level, c)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.NewDatabaseError("seed reward pools", err)
	}
	return nil
}

// JoinsTx reports whether reservations made with ctx run on a ledger
// transaction and roll back with it.
func (a *Allocator) JoinsTx(ctx context.Context) bool {
	_, ok := pgplatform.TxFromContext(ctx)
	return ok
}

func (a *Allocator) dbError(op string, err error) error {
	if pgplatform.IsLockTimeout(err) {
		return apperrors.NewLockTimeoutError("Reward pool", a.db.LockTimeout())
	}
	return apperrors.NewDatabaseError(op, err)
}

func (a *Allocator) TryReserve(ctx context.Context, level int, amount int64) (bool, error) {
	if _, ok := a.capacities[level]; !ok {
		return false, repository.ErrUnknownTier{Level: level}
	}
	if amount < 0 {
		return false, nil
	}

	// Inside a ledger transaction the reserve shares its connection; a second
	// connection per claim would exhaust the pool under load.
	tag, err := a.db.Querier(ctx).Exec(ctx,
		`UPDATE reward_pools SET used = used + $2 WHERE tier = $1 AND used + $2 <= capacity`, level, amount)
	if err != nil {
		return false, a.dbError("reserve from reward pool", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (a *Allocator) Release(ctx context.Context, level int, amount int64) error {
	_, err := a.db.Querier(ctx).Exec(ctx,
		`UPDATE reward_pools SET used = GREATEST(used - $2, 0) WHERE tier = $1`, level, amount)
	if err != nil {
		return a.dbError("release reward pool reservation", err)
	}
	return nil
}

func (a *Allocator) State(ctx context.Context) ([]repository.State, error) {
	rows, err := a.db.Pool().Query(ctx, `SELECT tier, capacity, used FROM reward_pools ORDER BY tier`)
	if err != nil {
		return nil, apperrors.NewDatabaseError("read reward pools", err)
	}
	defer rows.Close()

	var out []repository.State
	for rows.Next() {
		var st repository.State
		if err := rows.Scan(&st.Level, &st.Capacity, &st.Used); err != nil {
			return nil, apperrors.NewDatabaseError("scan reward pool", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("read reward pools", err)
	}
	return out, nil
}

func (a *Allocator) Reset(ctx context.Context, level int) error {
	if _, ok := a.capacities[level]; !ok {
		return repository.ErrUnknownTier{Level: level}
	}
	if _, err := a.db.Querier(ctx).Exec(ctx, `UPDATE reward_pools SET used = 0 WHERE tier = $1`, level); err != nil {
		return a.dbError("reset reward pool", err)
	}
	return nil
}
