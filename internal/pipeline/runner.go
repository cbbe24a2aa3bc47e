// Package pipeline orchestrates the ingestion stages. It is the only
// place the stages are wired together; each stage stays independently
// testable behind its own package.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tasi-labs/finpipe/internal/classify"
	"github.com/tasi-labs/finpipe/internal/contracts"
	"github.com/tasi-labs/finpipe/internal/derive"
	"github.com/tasi-labs/finpipe/internal/extract"
	"github.com/tasi-labs/finpipe/internal/normalize"
	"github.com/tasi-labs/finpipe/internal/store"
	"github.com/tasi-labs/finpipe/internal/validate"
	"github.com/tasi-labs/finpipe/pkg/logger"
)

// Store is the persistence surface the runner needs. Satisfied by
// *store.Repository in production and by fakes in tests.
type Store interface {
	Upsert(ctx context.Context, rec *contracts.NormalizedFinancialRecord, derived *contracts.DerivedMetrics, validation *contracts.ValidationResult) (*contracts.UpsertOutcome, error)
	SaveReview(ctx context.Context, rec *contracts.NormalizedFinancialRecord, validation *contracts.ValidationResult) error
	RecordAudit(ctx context.Context, entry *contracts.AuditEntry) error
}

// AuditSink receives a copy of every audit entry outside the database,
// typically the append-only audit file.
type AuditSink interface {
	Append(entry *contracts.AuditEntry) error
}

// Config holds runner tuning knobs.
type Config struct {
	Workers           int
	StoreWritesPerSec int
}

// Runner drives batches of raw filings through extract, normalize,
// classify, derive, validate, and store.
type Runner struct {
	normalizer *normalize.Normalizer
	classifier *classify.Classifier
	validator  *validate.Validator
	store      Store
	audit      AuditSink
	limiter    *rate.Limiter
	workers    int
	logger     *logger.Logger

	// keyMu serializes workers that race on the same record key so
	// the store-level extraction_date guard is the backstop, not the
	// first line of defense.
	keyMu sync.Map
}

// NewRunner assembles a runner from its stages.
func NewRunner(
	normalizer *normalize.Normalizer,
	classifier *classify.Classifier,
	validator *validate.Validator,
	st Store,
	audit AuditSink,
	cfg Config,
	log *logger.Logger,
) *Runner {
	writesPerSec := cfg.StoreWritesPerSec
	if writesPerSec <= 0 {
		writesPerSec = 50
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Runner{
		normalizer: normalizer,
		classifier: classifier,
		validator:  validator,
		store:      st,
		audit:      audit,
		limiter:    rate.NewLimiter(rate.Limit(writesPerSec), writesPerSec),
		workers:    workers,
		logger:     log.WithField("module", "pipeline"),
	}
}

// RecordResult is the per-record outcome of a run.
type RecordResult struct {
	Ticker      string
	Key         contracts.RecordKey
	Disposition contracts.Disposition
	Action      contracts.UpsertAction
	Score       int
	Error       error
}

// Summary aggregates a batch run.
type Summary struct {
	Total      int
	Inserted   int
	Updated    int
	Skipped    int
	Held       int
	Failed     int
	Results    []RecordResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// Run processes a batch with a bounded worker pool. A failure in one
// record never aborts the batch; it is reported in the summary and the
// remaining records proceed.
func (r *Runner) Run(ctx context.Context, items []extract.BatchItem) (*Summary, error) {
	summary := &Summary{Total: len(items), StartedAt: time.Now()}
	r.logger.WithFields(map[string]interface{}{
		"records": len(items),
		"workers": r.workers,
	}).Info("Starting ingestion run")

	itemCh := make(chan extract.BatchItem, len(items))
	resultCh := make(chan RecordResult, len(items))

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.worker(ctx, itemCh, resultCh)
		}()
	}

	for _, item := range items {
		itemCh <- item
	}
	close(itemCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for res := range resultCh {
		summary.Results = append(summary.Results, res)
		switch {
		case res.Error != nil:
			summary.Failed++
		case res.Action == contracts.ActionInserted:
			summary.Inserted++
		case res.Action == contracts.ActionUpdated:
			summary.Updated++
		case res.Action == contracts.ActionHeld:
			summary.Held++
		default:
			summary.Skipped++
		}
	}
	summary.FinishedAt = time.Now()

	r.logger.WithFields(map[string]interface{}{
		"inserted": summary.Inserted,
		"updated":  summary.Updated,
		"skipped":  summary.Skipped,
		"held":     summary.Held,
		"failed":   summary.Failed,
	}).Info("Ingestion run completed")

	return summary, nil
}

func (r *Runner) worker(ctx context.Context, itemCh <-chan extract.BatchItem, resultCh chan<- RecordResult) {
	for item := range itemCh {
		select {
		case <-ctx.Done():
			resultCh <- RecordResult{Ticker: item.Meta.Ticker, Error: ctx.Err()}
			return
		default:
		}
		resultCh <- r.processOne(ctx, item)
	}
}

// processOne runs a single filing through every stage.
func (r *Runner) processOne(ctx context.Context, item extract.BatchItem) RecordResult {
	res := RecordResult{Ticker: item.Meta.Ticker}

	raw, err := extract.Extract(item.Table, item.Meta, time.Now())
	if err != nil {
		r.logger.WithError(err).WithField("ticker", item.Meta.Ticker).Error("Extraction failed")
		res.Error = fmt.Errorf("extract %s: %w", item.Meta.Ticker, err)
		return res
	}
	res.Key = raw.Key()

	rec := r.normalizer.Normalize(raw)
	profile := r.classifier.Classify(rec.Ticker)
	derived := derive.Derive(rec, profile)
	validation := r.validator.Validate(rec, derived, profile)
	res.Disposition = validation.Disposition
	res.Score = validation.Score

	// Two filings for the same statement can land in one batch.
	// Serialize them so the winner is decided by extraction date,
	// not by goroutine scheduling.
	mu := r.lockFor(res.Key)
	mu.Lock()
	action, err := r.persist(ctx, rec, derived, validation)
	mu.Unlock()
	if err != nil {
		res.Error = err
		return res
	}
	res.Action = action

	entry := &contracts.AuditEntry{
		Ticker:        rec.Ticker,
		FiscalYear:    rec.Period.Year,
		FiscalQuarter: rec.Period.Quarter,
		Disposition:   validation.Disposition,
		Action:        action,
		Score:         validation.DisplayScore(),
		Timestamp:     time.Now(),
	}
	if err := r.store.RecordAudit(ctx, entry); err != nil {
		r.logger.WithError(err).WithField("ticker", rec.Ticker).Warn("Audit log write failed")
	}
	if r.audit != nil {
		if err := r.audit.Append(entry); err != nil {
			r.logger.WithError(err).Warn("Audit file write failed")
		}
	}

	return res
}

// persist routes the record by disposition and applies the store write
// rate limit.
func (r *Runner) persist(
	ctx context.Context,
	rec *contracts.NormalizedFinancialRecord,
	derived *contracts.DerivedMetrics,
	validation *contracts.ValidationResult,
) (contracts.UpsertAction, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	if validation.Disposition != contracts.DispositionInsertReady {
		if err := r.store.SaveReview(ctx, rec, validation); err != nil {
			return "", fmt.Errorf("save review %s: %w", rec.Key(), err)
		}
		return contracts.ActionHeld, nil
	}

	outcome, err := r.store.Upsert(ctx, rec, derived, validation)
	if err == nil {
		return outcome.Action, nil
	}
	if !errors.Is(err, store.ErrUpsertConflict) {
		return "", fmt.Errorf("upsert %s: %w", rec.Key(), err)
	}

	// A concurrent writer from another process can still win the
	// extraction_date race. Retry once; a second loss means a newer
	// extraction is already committed. Any other retry failure is a
	// real store error and fails the record.
	outcome, retryErr := r.store.Upsert(ctx, rec, derived, validation)
	switch {
	case retryErr == nil:
		return outcome.Action, nil
	case errors.Is(retryErr, store.ErrUpsertConflict):
		r.logger.WithError(retryErr).WithField("key", rec.Key().String()).Warn("Upsert retry lost, treating as stale")
		return contracts.ActionSkippedStale, nil
	default:
		return "", fmt.Errorf("upsert retry %s: %w", rec.Key(), retryErr)
	}
}

func (r *Runner) lockFor(key contracts.RecordKey) *sync.Mutex {
	mu, _ := r.keyMu.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
