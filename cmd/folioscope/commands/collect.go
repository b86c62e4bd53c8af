package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// collectCmd runs the price update once and exits.
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Fetch the latest prices and refresh valuations",
	RunE:  runCollect,
}

// backfillCmd seeds price history over a date range.
var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Seed daily price history over a date range",
	Long: `Seed daily price history for every held ticker and the benchmark.

Example:
  go run ./cmd/folioscope backfill --from 2025-01-01`,
	RunE: runBackfill,
}

var (
	backfillFrom string
	backfillTo   string
)

func init() {
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(backfillCmd)

	backfillCmd.Flags().StringVar(&backfillFrom, "from", "", "start date (YYYY-MM-DD, required)")
	backfillCmd.Flags().StringVar(&backfillTo, "to", "", "end date (YYYY-MM-DD, default today)")
	_ = backfillCmd.MarkFlagRequired("from")
}

func runCollect(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	results, err := d.collector.UpdatePrices(context.Background(), d.collectorCfg)
	if err != nil {
		return err
	}

	for _, result := range results {
		if result.Error != nil {
			fmt.Printf("  %-8s FAILED: %v\n", result.Ticker, result.Error)
		} else if result.Saved {
			fmt.Printf("  %-8s %.2f\n", result.Ticker, result.Close)
		}
	}
	return nil
}

func runBackfill(cmd *cobra.Command, args []string) error {
	from, err := time.Parse("2006-01-02", backfillFrom)
	if err != nil {
		return fmt.Errorf("invalid --from date: %w", err)
	}
	to := time.Now().UTC()
	if backfillTo != "" {
		to, err = time.Parse("2006-01-02", backfillTo)
		if err != nil {
			return fmt.Errorf("invalid --to date: %w", err)
		}
	}

	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	return d.collector.Backfill(context.Background(), from, to, d.collectorCfg)
}
