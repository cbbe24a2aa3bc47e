package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/tasi-labs/finpipe/internal/contracts"
)

// RecordAudit appends one pipeline decision to the audit.ingest_log
// table. Every processed record lands here regardless of disposition.
func (r *Repository) RecordAudit(ctx context.Context, entry *contracts.AuditEntry) error {
	query := `
		INSERT INTO audit.ingest_log (
			ticker, fiscal_year, fiscal_quarter,
			disposition, action, confidence_score, logged_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.Ticker, entry.FiscalYear, string(entry.FiscalQuarter),
		string(entry.Disposition), string(entry.Action), entry.Score, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("record audit entry for %s: %w", entry.Ticker, err)
	}
	return nil
}

// RecentAudit returns the latest audit entries, newest first.
func (r *Repository) RecentAudit(ctx context.Context, limit int) ([]contracts.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT ticker, fiscal_year, fiscal_quarter,
		       disposition, action, confidence_score, logged_at
		FROM audit.ingest_log
		ORDER BY logged_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []contracts.AuditEntry
	for rows.Next() {
		var e contracts.AuditEntry
		var quarter, disposition, action string
		if err := rows.Scan(&e.Ticker, &e.FiscalYear, &quarter,
			&disposition, &action, &e.Score, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.FiscalQuarter = contracts.Quarter(quarter)
		e.Disposition = contracts.Disposition(disposition)
		e.Action = contracts.UpsertAction(action)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AuditWriter mirrors audit entries to an append-only local file so a
// run's decisions survive even when the database is the thing being
// debugged. One line per record.
type AuditWriter struct {
	mu   sync.Mutex
	file *os.File
}

// NewAuditWriter opens (or creates) the audit file for appending.
func NewAuditWriter(path string) (*AuditWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit file %s: %w", path, err)
	}
	return &AuditWriter{file: f}, nil
}

// Append writes one audit line. Safe for concurrent use by pipeline
// workers.
func (w *AuditWriter) Append(entry *contracts.AuditEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	line := fmt.Sprintf("%s\t%d\t%s\t%s\t%s\t%d\t%s\n",
		entry.Ticker, entry.FiscalYear, entry.FiscalQuarter,
		entry.Disposition, entry.Action, entry.Score,
		entry.Timestamp.UTC().Format(time.RFC3339),
	)
	if _, err := w.file.WriteString(line); err != nil {
		return fmt.Errorf("append audit line: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *AuditWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
