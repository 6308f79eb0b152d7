package cli

import (
	"github.com/spf13/cobra"

	"evol-ledger-backend/internal/app"
	"evol-ledger-backend/internal/common/logger"
	"evol-ledger-backend/internal/workers"
)

var serveWithWorker bool

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveWithWorker, "with-worker", false, "also consume the bot command stream")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	c, err := buildContainer(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	logger.Info().
		Str("backend", c.Config.Ledger.Backend).
		Bool("debug", c.Config.Debug).
		Msg("Starting evolution ledger")

	if serveWithWorker {
		rdb, err := c.StreamClient(ctx)
		if err != nil {
			return err
		}
		w := workers.NewRedisStreamWorker(rdb.Client, c.Rewards, c.Ranking, workers.StreamOptionsFromConfig(c.Config))
		go func() {
			if err := w.Start(ctx); err != nil {
				logger.Error().Err(err).Msg("Bot command worker stopped")
			}
		}()
	}

	return app.Serve(ctx, c)
}
