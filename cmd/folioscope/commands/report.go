package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// reportCmd generates a report once and exits.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a portfolio report now",
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	data, err := d.generator.Generate(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Report generated for %s\n", data.Date.Format("2006-01-02"))
	fmt.Printf("  Portfolio value: $%.2f\n", data.PortfolioValue)
	fmt.Printf("  Monthly: portfolio %.2f%% vs benchmark %.2f%%\n",
		data.MonthlyPerformance.Portfolio, data.MonthlyPerformance.Benchmark)
	fmt.Printf("  YTD:     portfolio %.2f%% vs benchmark %.2f%%\n",
		data.YTDPerformance.Portfolio, data.YTDPerformance.Benchmark)
	return nil
}
