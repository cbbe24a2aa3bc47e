package store

import (
	"context"
	"fmt"
	"time"
)

// IngestStats summarizes what the store currently holds for one fiscal
// year. Backs the status command and the health endpoint.
type IngestStats struct {
	FiscalYear       int        `json:"fiscal_year"`
	Statements       int        `json:"statements"`
	PendingReviews   int        `json:"pending_reviews"`
	LatestExtraction *time.Time `json:"latest_extraction,omitempty"`
}

// Stats reports statement and review-queue counts for a fiscal year.
func (r *Repository) Stats(ctx context.Context, fiscalYear int) (*IngestStats, error) {
	stats := &IngestStats{FiscalYear: fiscalYear}

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), MAX(extraction_date)
		FROM financial_statements
		WHERE fiscal_year = $1
	`, fiscalYear).Scan(&stats.Statements, &stats.LatestExtraction)
	if err != nil {
		return nil, fmt.Errorf("count statements for FY%d: %w", fiscalYear, err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM audit.review_queue
		WHERE fiscal_year = $1
	`, fiscalYear).Scan(&stats.PendingReviews)
	if err != nil {
		return nil, fmt.Errorf("count pending reviews for FY%d: %w", fiscalYear, err)
	}

	return stats, nil
}
