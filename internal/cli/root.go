package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"evol-ledger-backend/internal/app"
	"evol-ledger-backend/internal/common/config"
	"evol-ledger-backend/internal/common/logger"
)

const serviceName = "evol-ledger"

var backendFlag string

var rootCmd = &cobra.Command{
	Use:   "evol-ledger",
	Short: "Evolution reward ledger backend",
	Long: `Evolution reward ledger: periodic claims charged against per-tier reward
pools, referrals, tasks, wallets and tier leaderboards. Serves the Mini App
HTTP API and the chat bot command stream.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "ledger backend: memory, redis or postgres (overrides LEDGER_BACKEND)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the environment, applies flag overrides and initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if backendFlag != "" {
		cfg.Ledger.Backend = backendFlag
	}
	logger.Init(serviceName, cfg.Debug)
	return cfg, nil
}

// buildContainer loads config and wires the ledger for a command.
func buildContainer(ctx context.Context) (*app.Container, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
