package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tasi-labs/finpipe/internal/extract"
	"github.com/tasi-labs/finpipe/pkg/config"
	"github.com/tasi-labs/finpipe/pkg/database"
	"github.com/tasi-labs/finpipe/pkg/logger"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one filing batch through the pipeline",
	Long: `Processes an extracted filing batch end to end: extraction,
unit normalization, classification, ratio derivation, quality scoring,
and the final merge into the statement store.

Records below the quality threshold are held in the review queue
instead of being written to the fact tables.

Example:
  go run ./cmd/finpipe ingest --batch filings/2024q3.json
  go run ./cmd/finpipe ingest --batch filings/2024q3.json --workers 8`,
	RunE: runIngest,
}

var (
	ingestBatch   string
	ingestWorkers int
)

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestBatch, "batch", "", "path to the extracted batch file (required)")
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", 0, "worker count (default from config)")
	ingestCmd.MarkFlagRequired("batch")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if ingestWorkers > 0 {
		cfg.Ingest.Workers = ingestWorkers
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	items, err := extract.ReadBatch(ingestBatch)
	if err != nil {
		return fmt.Errorf("read batch: %w", err)
	}

	runner, auditFile, err := buildRunner(cfg, db, log)
	if err != nil {
		return err
	}
	defer auditFile.Close()

	PrintRunHeader("Filing Batch Ingestion", ingestBatch, len(items))

	summary, err := runner.Run(context.Background(), items)
	if err != nil {
		return fmt.Errorf("run batch: %w", err)
	}

	PrintRunSummary(summary)
	return nil
}
