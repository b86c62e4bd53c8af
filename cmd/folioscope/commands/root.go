package commands

import (
	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "folioscope",
	Short: "Portfolio performance and risk analytics service",
	Long: `Folioscope computes portfolio performance, risk statistics, sector
allocation and top movers over stored daily prices, and serves them over
a REST API.

Usage:
  go run ./cmd/folioscope [command]

Examples:
  go run ./cmd/folioscope api
  go run ./cmd/folioscope scheduler
  go run ./cmd/folioscope collect
  go run ./cmd/folioscope report`,
}

// Execute runs the root command. Called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
