package cli

import (
	"github.com/spf13/cobra"

	"evol-ledger-backend/internal/workers"
)

func init() {
	rootCmd.AddCommand(workerCmd)
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume chat bot commands from the Redis stream",
	Long: `Reads {type, user_id, args} entries from the command stream (BOT_COMMAND_STREAM)
and publishes one reply per command to the reply stream (BOT_REPLY_STREAM).
Commands: claim, status, referral, usecode, wallet, rank, task.`,
	RunE: runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	c, err := buildContainer(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	rdb, err := c.StreamClient(ctx)
	if err != nil {
		return err
	}
	return workers.NewRedisStreamWorker(rdb.Client, c.Rewards, c.Ranking, workers.StreamOptionsFromConfig(c.Config)).Start(ctx)
}
