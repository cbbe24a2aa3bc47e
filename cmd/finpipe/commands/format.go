package commands

import (
	"fmt"
	"time"

	"github.com/tasi-labs/finpipe/internal/pipeline"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// ═══════════════════════════════════════════════════════════

// PrintRunHeader prints a formatted batch run header.
func PrintRunHeader(title, batch string, records int) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  %s\n", title)
	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("  Batch     : %s\n", batch)
	fmt.Printf("  Records   : %d\n", records)
	fmt.Printf("  Started   : %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintRunSummary prints the outcome counts of a batch run.
func PrintRunSummary(summary *pipeline.Summary) {
	duration := summary.FinishedAt.Sub(summary.StartedAt)

	fmt.Println()
	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("  Inserted  : %d\n", summary.Inserted)
	fmt.Printf("  Updated   : %d\n", summary.Updated)
	fmt.Printf("  Skipped   : %d\n", summary.Skipped)
	fmt.Printf("  Held      : %d\n", summary.Held)
	fmt.Printf("  Failed    : %d\n", summary.Failed)
	fmt.Println("───────────────────────────────────────────────────────────")

	if summary.Failed > 0 {
		fmt.Printf("⚠️  %d/%d records failed in %.2fs\n", summary.Failed, summary.Total, duration.Seconds())
		for _, res := range summary.Results {
			if res.Error != nil {
				fmt.Printf("   - %s: %v\n", res.Ticker, res.Error)
			}
		}
	} else {
		fmt.Printf("✅ %d records processed in %.2fs\n", summary.Total, duration.Seconds())
	}
}
