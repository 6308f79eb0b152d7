package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"evol-ledger-backend/internal/common/logger"
)

type migration struct {
	Version int
	Name    string
	UpSQL   string
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "create_ledger_users",
		UpSQL: `
CREATE TABLE IF NOT EXISTS ledger_users (
	user_id          TEXT PRIMARY KEY,
	points           BIGINT NOT NULL DEFAULT 0 CHECK (points >= 0),
	last_claim_at    BIGINT NOT NULL DEFAULT 0,
	wallet_address   TEXT NOT NULL DEFAULT '',
	referral_applied BOOLEAN NOT NULL DEFAULT FALSE,
	referred_by      TEXT NOT NULL DEFAULT '',
	total_referrals  BIGINT NOT NULL DEFAULT 0,
	completed_tasks  JSONB NOT NULL DEFAULT '{}'::jsonb,
	display_name     TEXT NOT NULL DEFAULT '',
	created_at       BIGINT NOT NULL DEFAULT 0,
	updated_at       BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_ledger_users_points ON ledger_users (points DESC, user_id ASC);`,
	},
	{
		Version: 2,
		Name:    "create_reward_pools",
		UpSQL: `
CREATE TABLE IF NOT EXISTS reward_pools (
	tier     INT PRIMARY KEY CHECK (tier BETWEEN 1 AND 7),
	capacity BIGINT NOT NULL CHECK (capacity >= 0),
	used     BIGINT NOT NULL DEFAULT 0 CHECK (used >= 0)
);`,
	},
}

// Migrate applies pending schema migrations in version order.
func (c *Client) Migrate(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INT PRIMARY KEY,
	name       TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var applied bool
		err := c.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, m.Version).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if applied {
			continue
		}

		err = c.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.UpSQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}

		logger.Info().Int("version", m.Version).Str("name", m.Name).Msg("Migration applied")
	}
	return nil
}
