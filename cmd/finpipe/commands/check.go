package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tasi-labs/finpipe/internal/contracts"
	"github.com/tasi-labs/finpipe/internal/derive"
	"github.com/tasi-labs/finpipe/internal/extract"
	"github.com/tasi-labs/finpipe/pkg/config"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Score a batch without writing anything",
	Long: `Runs a filing batch through extraction, normalization, and
quality scoring, then prints the per-record verdicts. Nothing touches
the database; use this to preview how a batch would fare before a real
ingest.

Example:
  go run ./cmd/finpipe check --batch filings/2024q3.json`,
	RunE: runCheck,
}

var checkBatch string

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkBatch, "batch", "", "path to the extracted batch file (required)")
	checkCmd.MarkFlagRequired("batch")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := buildStages(cfg)
	if err != nil {
		return err
	}

	items, err := extract.ReadBatch(checkBatch)
	if err != nil {
		return fmt.Errorf("read batch: %w", err)
	}

	PrintRunHeader("Batch Quality Check (dry run)", checkBatch, len(items))

	ready, review, rejected, failed := 0, 0, 0, 0
	for _, item := range items {
		raw, err := extract.Extract(item.Table, item.Meta, time.Now())
		if err != nil {
			failed++
			fmt.Printf("  %-6s  EXTRACTION FAILED: %v\n", item.Meta.Ticker, err)
			continue
		}

		rec := st.normalizer.Normalize(raw)
		profile := st.classifier.Classify(rec.Ticker)
		derived := derive.Derive(rec, profile)
		validation := st.validator.Validate(rec, derived, profile)

		switch validation.Disposition {
		case contracts.DispositionInsertReady:
			ready++
		case contracts.DispositionNeedsReview:
			review++
		default:
			rejected++
		}

		fmt.Printf("  %-6s  %-10s  score=%3d  unit=%s (%s)  disposition=%s\n",
			rec.Ticker, rec.Period.Label(), validation.DisplayScore(),
			rec.ReportedUnit, rec.UnitConfidence, validation.Disposition)
		for _, issue := range validation.Issues {
			fmt.Printf("          └─ [%s] %s\n", issue.Severity, issue.Message)
		}
	}

	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("  Insert-ready: %d, Needs review: %d, Rejected: %d, Failed: %d\n",
		ready, review, rejected, failed)
	return nil
}
