package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tasi-labs/finpipe/internal/store"
	"github.com/tasi-labs/finpipe/pkg/config"
	"github.com/tasi-labs/finpipe/pkg/database"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store totals and recent ingestion decisions",
	Long: `Prints statement counts for the target fiscal year, the
review-queue depth, and the most recent audit entries.

Example:
  go run ./cmd/finpipe status
  go run ./cmd/finpipe status --year 2023 --audit 20`,
	RunE: runStatus,
}

var (
	statusYear  int
	statusAudit int
)

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().IntVar(&statusYear, "year", 0, "fiscal year (default from config)")
	statusCmd.Flags().IntVar(&statusAudit, "audit", 10, "number of audit entries to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	year := cfg.Ingest.TargetFiscalYear
	if statusYear > 0 {
		year = statusYear
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo := store.NewRepository(db.Pool)

	stats, err := repo.Stats(ctx, year)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}

	fmt.Printf("=== Ingestion Status FY%d ===\n", stats.FiscalYear)
	fmt.Printf("Statements      : %d\n", stats.Statements)
	fmt.Printf("Pending reviews : %d\n", stats.PendingReviews)
	if stats.LatestExtraction != nil {
		fmt.Printf("Latest extract  : %s\n", stats.LatestExtraction.Format("2006-01-02 15:04:05"))
	}

	entries, err := repo.RecentAudit(ctx, statusAudit)
	if err != nil {
		return fmt.Errorf("load audit entries: %w", err)
	}

	if len(entries) > 0 {
		fmt.Printf("\nRecent decisions:\n")
		for _, e := range entries {
			fmt.Printf("  %s  %-6s FY%d %-3s  %-13s %-17s score=%d\n",
				e.Timestamp.Format("2006-01-02 15:04"),
				e.Ticker, e.FiscalYear, e.FiscalQuarter,
				e.Disposition, e.Action, e.Score)
		}
	}

	return nil
}
