package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tasi-labs/finpipe/internal/contracts"
)

// ReviewItem is one held record awaiting operator review.
type ReviewItem struct {
	ReviewID      int64                 `json:"review_id"`
	Ticker        string                `json:"ticker"`
	FiscalYear    int                   `json:"fiscal_year"`
	FiscalQuarter contracts.Quarter     `json:"fiscal_quarter"`
	Disposition   contracts.Disposition `json:"disposition"`
	Score         int                   `json:"score"`
	SourceFile    string                `json:"source_file"`
	Issues        []contracts.Issue     `json:"issues"`
	CreatedAt     time.Time             `json:"created_at"`
}

// SaveReview parks a record whose disposition blocked insertion. The
// record never touches the fact tables; the queue row carries enough
// context for an operator to decide what to do with the source filing.
func (r *Repository) SaveReview(
	ctx context.Context,
	rec *contracts.NormalizedFinancialRecord,
	validation *contracts.ValidationResult,
) error {
	issues, err := json.Marshal(validation.Issues)
	if err != nil {
		return fmt.Errorf("marshal review issues for %s: %w", rec.Key(), err)
	}

	key := rec.Key()
	query := `
		INSERT INTO audit.review_queue (
			ticker, fiscal_year, fiscal_quarter,
			disposition, confidence_score, source_file, issues, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err = r.pool.Exec(ctx, query,
		key.Ticker, key.Year, string(key.Quarter),
		string(validation.Disposition), validation.DisplayScore(),
		rec.SourceFile, issues,
	)
	if err != nil {
		return fmt.Errorf("save review for %s: %w", key, err)
	}
	return nil
}

// PendingReviews lists queued records, oldest first.
func (r *Repository) PendingReviews(ctx context.Context, limit int) ([]ReviewItem, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT review_id, ticker, fiscal_year, fiscal_quarter,
		       disposition, confidence_score, source_file, issues, created_at
		FROM audit.review_queue
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query review queue: %w", err)
	}
	defer rows.Close()

	var items []ReviewItem
	for rows.Next() {
		var item ReviewItem
		var quarter, disposition string
		var issuesRaw []byte
		if err := rows.Scan(&item.ReviewID, &item.Ticker, &item.FiscalYear, &quarter,
			&disposition, &item.Score, &item.SourceFile, &issuesRaw, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review item: %w", err)
		}
		item.FiscalQuarter = contracts.Quarter(quarter)
		item.Disposition = contracts.Disposition(disposition)
		if len(issuesRaw) > 0 {
			if err := json.Unmarshal(issuesRaw, &item.Issues); err != nil {
				return nil, fmt.Errorf("decode issues for review %d: %w", item.ReviewID, err)
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
