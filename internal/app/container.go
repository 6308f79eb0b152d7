package app

import (
	"context"
	"fmt"

	"evol-ledger-backend/internal/common/config"
	"evol-ledger-backend/internal/common/logger"
	"evol-ledger-backend/internal/common/metrics"
	"evol-ledger-backend/internal/common/validation"
	adminservice "evol-ledger-backend/internal/features/admin/service"
	ledgerrepo "evol-ledger-backend/internal/features/ledger/repository"
	ledgermemory "evol-ledger-backend/internal/features/ledger/repository/memory"
	ledgerpostgres "evol-ledger-backend/internal/features/ledger/repository/postgres"
	ledgerredis "evol-ledger-backend/internal/features/ledger/repository/redis"
	poolrepo "evol-ledger-backend/internal/features/pool/repository"
	poolmemory "evol-ledger-backend/internal/features/pool/repository/memory"
	poolpostgres "evol-ledger-backend/internal/features/pool/repository/postgres"
	poolredis "evol-ledger-backend/internal/features/pool/repository/redis"
	rankingservice "evol-ledger-backend/internal/features/ranking/service"
	rewardservice "evol-ledger-backend/internal/features/reward/service"
	"evol-ledger-backend/internal/features/tier"
	pgplatform "evol-ledger-backend/internal/platform/postgres"
	redisplatform "evol-ledger-backend/internal/platform/redis"
)

// Container owns the storage clients and the services built on them.
type Container struct {
	Config  *config.Config
	Catalog *config.Catalog

	Redis    *redisplatform.Client
	Postgres *pgplatform.Client

	Store ledgerrepo.Store
	Pools poolrepo.Allocator

	Rewards rewardservice.RewardService
	Ranking rankingservice.RankingService
	Admin   adminservice.AdminService
}

// Build opens the configured ledger backend and wires the services.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	catalog, err := config.LoadCatalog(cfg.Ledger.CatalogFile)
	if err != nil {
		return nil, err
	}
	validation.SetWalletRules(validation.WalletRules{
		Prefixes:  cfg.Wallet.Prefixes,
		AcceptTON: cfg.Wallet.AcceptTON,
	})

	c := &Container{Config: cfg, Catalog: catalog}
	capacities := allTiers(catalog.Capacities())

	switch cfg.Ledger.Backend {
	case config.BackendMemory:
		c.Store = ledgermemory.NewStore()
		c.Pools = poolmemory.NewAllocator(capacities)

	case config.BackendRedis:
		c.Redis, err = redisplatform.OpenFromConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		c.Store = ledgerredis.NewStore(c.Redis.Client, cfg.Ledger.LockTimeout)
		c.Pools = poolredis.NewAllocator(c.Redis.Client, capacities)

	case config.BackendPostgres:
		c.Postgres, err = pgplatform.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.AutoMigrate {
			if err := c.Postgres.Migrate(ctx); err != nil {
				c.Close()
				return nil, err
			}
		}
		c.Store = ledgerpostgres.NewStore(c.Postgres)
		c.Pools = poolpostgres.NewAllocator(c.Postgres, capacities)

	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}

	if s, ok := c.Pools.(poolrepo.Seeder); ok {
		if err := s.Seed(ctx); err != nil {
			c.Close()
			return nil, fmt.Errorf("seed reward pools: %w", err)
		}
	}
	c.observePools(ctx)

	c.Ranking = rankingservice.NewRankingService(c.Store)
	c.Rewards = rewardservice.NewRewardService(c.Store, c.Pools, c.Ranking, rewardservice.OptionsFromConfig(cfg, catalog))
	c.Admin = adminservice.NewAdminService(c.Store, c.Pools)

	logger.Info().
		Str("backend", cfg.Ledger.Backend).
		Int("tiers", len(capacities)).
		Int("tasks", len(catalog.Tasks)).
		Msg("Ledger initialized")

	return c, nil
}

// allTiers fills every tier level missing from capacities with an empty pool
// so claims in that tier fail with POOL_EXHAUSTED rather than an internal error.
func allTiers(capacities map[int]int64) map[int]int64 {
	out := make(map[int]int64, tier.MaxLevel)
	for _, t := range tier.All() {
		out[t.Level] = capacities[t.Level]
	}
	return out
}

func (c *Container) observePools(ctx context.Context) {
	states, err := c.Pools.State(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read pool state")
		return
	}
	for _, st := range states {
		metrics.ObservePool(st.Level, st.Used)
	}
}

// StreamClient returns the Redis client used for the bot command streams,
// opening one when the ledger itself is not Redis-backed.
func (c *Container) StreamClient(ctx context.Context) (*redisplatform.Client, error) {
	if c.Redis != nil {
		return c.Redis, nil
	}
	client, err := redisplatform.OpenFromConfig(ctx, c.Config)
	if err != nil {
		return nil, err
	}
	c.Redis = client
	return client, nil
}

// Ping checks the ledger storage.
func (c *Container) Ping(ctx context.Context) error {
	return c.Store.Ping(ctx)
}

func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
	if c.Postgres != nil {
		c.Postgres.Close()
	}
}
