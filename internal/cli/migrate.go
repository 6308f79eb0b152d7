package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"evol-ledger-backend/internal/app"
	"evol-ledger-backend/internal/common/config"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the ledger tables and seed the reward pools",
	Long: `Applies pending Postgres migrations and writes the configured pool capacities.
With the redis backend only the pools are seeded. Used totals are kept.`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Ledger.Backend == config.BackendMemory {
		return fmt.Errorf("nothing to migrate for the memory backend")
	}
	cfg.Postgres.AutoMigrate = true

	c, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "%s ledger migrated, %d reward pools seeded\n", cfg.Ledger.Backend, len(c.Catalog.Capacities()))
	return nil
}
