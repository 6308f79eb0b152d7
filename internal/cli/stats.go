package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	adminmodels "evol-ledger-backend/internal/features/admin/models"
	rankingmodels "evol-ledger-backend/internal/features/ranking/models"
)

var (
	statsTier  int
	statsLimit int
)

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().IntVar(&statsTier, "tier", 0, "also print the leaderboard of this tier (1-7)")
	statsCmd.Flags().IntVar(&statsLimit, "limit", 10, "leaderboard rows")
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print pool usage and an optional tier leaderboard",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, err := buildContainer(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	stats, err := c.Admin.Stats(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printStats(out, stats)

	if statsTier == 0 {
		return nil
	}
	board, err := c.Ranking.Leaderboard(ctx, statsTier, statsLimit)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	printLeaderboard(out, board)
	return nil
}

func printStats(out io.Writer, s *adminmodels.Stats) {
	fmt.Fprintf(out, "Users: %d  Distributed: %d  Wallets: %d  Referrals: %d\n",
		s.TotalUsers, s.TotalDistributed, s.UsersWithWallet, s.TotalReferrals)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIER\tNAME\tUSERS\tUSED\tCAPACITY\tUSAGE")
	for _, p := range s.Pools {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%.2f%%\n",
			p.TierLevel, p.Tier, s.UsersPerTier[p.TierLevel], p.Used, p.Capacity, p.Percent)
	}
	fmt.Fprintf(tw, "\tTOTAL\t%d\t%d\t%d\t%.2f%%\n",
		s.TotalUsers, s.TotalPoolUsed, s.TotalPoolCapacity, s.PoolUsagePercent)
	_ = tw.Flush()
}

func printLeaderboard(out io.Writer, b *rankingmodels.Leaderboard) {
	fmt.Fprintf(out, "%s leaderboard (%d users)\n", b.Tier, b.TotalInTier)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tUSER\tNAME\tPOINTS")
	for _, e := range b.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", e.Rank, e.UserID, e.DisplayName, e.Points)
	}
	_ = tw.Flush()
}
