package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "finpipe",
	Short: "TASI financial statement ingestion pipeline",
	Long: `finpipe ingests extracted TASI financial filings, normalizes
them to SAR, derives sector-specific ratios, scores data quality, and
merges the results into the statement store.

Usage:
  go run ./cmd/finpipe [command]

Examples:
  go run ./cmd/finpipe ingest --batch filings/2024q3.json
  go run ./cmd/finpipe check --batch filings/2024q3.json
  go run ./cmd/finpipe serve
  go run ./cmd/finpipe schedule
  go run ./cmd/finpipe status`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
