package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasi-labs/finpipe/internal/classify"
	"github.com/tasi-labs/finpipe/internal/contracts"
	"github.com/tasi-labs/finpipe/internal/extract"
	"github.com/tasi-labs/finpipe/internal/normalize"
	"github.com/tasi-labs/finpipe/internal/refdata"
	"github.com/tasi-labs/finpipe/internal/store"
	"github.com/tasi-labs/finpipe/internal/validate"
	"github.com/tasi-labs/finpipe/pkg/logger"
)

// fakeStore mimics the repository's dedup behavior in memory.
type fakeStore struct {
	mu      sync.Mutex
	records map[contracts.RecordKey]*contracts.NormalizedFinancialRecord
	reviews []*contracts.ValidationResult
	audits  []*contracts.AuditEntry
	nextID  int64

	// upsertErrs are returned by successive Upsert calls before the
	// in-memory behavior takes over, oldest first.
	upsertErrs []error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[contracts.RecordKey]*contracts.NormalizedFinancialRecord)}
}

func (f *fakeStore) Upsert(ctx context.Context, rec *contracts.NormalizedFinancialRecord, derived *contracts.DerivedMetrics, validation *contracts.ValidationResult) (*contracts.UpsertOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.upsertErrs) > 0 {
		err := f.upsertErrs[0]
		f.upsertErrs = f.upsertErrs[1:]
		return nil, err
	}

	key := rec.Key()
	f.nextID++
	outcome := &contracts.UpsertOutcome{Key: key, StatementID: f.nextID}

	existing, ok := f.records[key]
	switch {
	case !ok:
		outcome.Action = contracts.ActionInserted
	case existing.ExtractionDate.Equal(rec.ExtractionDate):
		outcome.Action = contracts.ActionSkippedDuplicate
		return outcome, nil
	case existing.ExtractionDate.After(rec.ExtractionDate):
		outcome.Action = contracts.ActionSkippedStale
		return outcome, nil
	default:
		outcome.Action = contracts.ActionUpdated
	}
	f.records[key] = rec
	return outcome, nil
}

func (f *fakeStore) SaveReview(ctx context.Context, rec *contracts.NormalizedFinancialRecord, validation *contracts.ValidationResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = append(f.reviews, validation)
	return nil
}

func (f *fakeStore) RecordAudit(ctx context.Context, entry *contracts.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, entry)
	return nil
}

func newTestRunner(st Store) *Runner {
	registry := refdata.NewRegistry(map[string]contracts.InstitutionKind{
		"1120": contracts.KindBank,
	})
	return NewRunner(
		normalize.New(refdata.NewUnitOverrides(nil)),
		classify.New(registry),
		validate.New(validate.Config{TargetFiscalYear: 2024}),
		st,
		nil,
		Config{Workers: 4, StoreWritesPerSec: 1000},
		logger.NewNop(),
	)
}

var batchExtractedAt = time.Date(2024, 11, 1, 8, 0, 0, 0, time.UTC)

func batchItem(ticker, header string) extract.BatchItem {
	return extract.BatchItem{
		Meta: extract.Metadata{
			Ticker:         ticker,
			FiscalYear:     2024,
			PeriodHint:     contracts.FY,
			StatedUnit:     contracts.UnitThousands,
			SourceFile:     ticker + "_fy2024.xlsx",
			ExtractionDate: batchExtractedAt,
		},
		Table: extract.SourceTable{
			Rows: map[string]map[string]decimal.Decimal{
				"Revenue":           {header: decimal.NewFromInt(1_000_000)},
				"Net Profit":        {header: decimal.NewFromInt(150_000)},
				"Total Assets":      {header: decimal.NewFromInt(2_000_000)},
				"Total Liabilities": {header: decimal.NewFromInt(1_200_000)},
				"Total Equity":      {header: decimal.NewFromInt(800_000)},
			},
		},
	}
}

func TestRun_CleanBatchInserts(t *testing.T) {
	st := newFakeStore()
	r := newTestRunner(st)

	items := []extract.BatchItem{
		batchItem("2010", "FY2024"),
		batchItem("7010", "FY2024"),
	}

	summary, err := r.Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Inserted)
	assert.Zero(t, summary.Failed)
	assert.Len(t, st.audits, 2, "every record leaves an audit entry")
}

func TestRun_ExtractionFailureIsIsolated(t *testing.T) {
	st := newFakeStore()
	r := newTestRunner(st)

	items := []extract.BatchItem{
		batchItem("2010", "FY2024"),
		batchItem("7010", "FY2023"), // wrong period column: extraction fails
		batchItem("2350", "FY2024"),
	}

	summary, err := r.Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 1, summary.Failed)

	var failed *RecordResult
	for i := range summary.Results {
		if summary.Results[i].Error != nil {
			failed = &summary.Results[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "7010", failed.Ticker)
	assert.ErrorIs(t, failed.Error, extract.ErrNoMatchingPeriod)
}

func TestRun_LowScoreRecordIsHeld(t *testing.T) {
	st := newFakeStore()
	r := newTestRunner(st)

	// Bank filing missing every bank-required field except assets:
	// scores well below the insert threshold.
	item := extract.BatchItem{
		Meta: extract.Metadata{
			Ticker: "1120", FiscalYear: 2024, PeriodHint: contracts.FY,
			StatedUnit: contracts.UnitThousands,
		},
		Table: extract.SourceTable{
			Rows: map[string]map[string]decimal.Decimal{
				"Total Assets": {"FY2024": decimal.NewFromInt(450_000_000)},
			},
		},
	}

	summary, err := r.Run(context.Background(), []extract.BatchItem{item})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Held)
	assert.Zero(t, summary.Inserted)
	require.Len(t, st.reviews, 1)
	assert.NotEqual(t, contracts.DispositionInsertReady, st.reviews[0].Disposition)
	assert.Empty(t, st.records, "held records never reach the fact table")

	require.Len(t, st.audits, 1)
	assert.Equal(t, contracts.ActionHeld, st.audits[0].Action)
}

func TestRun_RerunOfUnchangedBatchIsIdempotent(t *testing.T) {
	st := newFakeStore()
	r := newTestRunner(st)

	items := []extract.BatchItem{batchItem("2010", "FY2024")}

	first, err := r.Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Inserted)

	// Same batch, same sidecar extraction date: the existing row must
	// stay untouched, not be rewritten.
	second, err := r.Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Skipped)
	assert.Zero(t, second.Inserted)
	assert.Zero(t, second.Updated)
	require.Len(t, second.Results, 1)
	assert.Equal(t, contracts.ActionSkippedDuplicate, second.Results[0].Action)
}

func TestRun_NewerExtractionSupersedes(t *testing.T) {
	st := newFakeStore()
	r := newTestRunner(st)

	first, err := r.Run(context.Background(), []extract.BatchItem{batchItem("2010", "FY2024")})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Inserted)

	refreshed := batchItem("2010", "FY2024")
	refreshed.Meta.ExtractionDate = batchExtractedAt.Add(24 * time.Hour)

	second, err := r.Run(context.Background(), []extract.BatchItem{refreshed})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Updated)
	assert.Zero(t, second.Inserted)
	assert.Len(t, st.records, 1, "update replaces in place")
}

func TestRun_UpsertConflictRetriesOnce(t *testing.T) {
	st := newFakeStore()
	st.upsertErrs = []error{store.ErrUpsertConflict}
	r := newTestRunner(st)

	summary, err := r.Run(context.Background(), []extract.BatchItem{batchItem("2010", "FY2024")})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Inserted, "one conflict is retried and succeeds")
	assert.Zero(t, summary.Failed)
}

func TestRun_PersistentConflictIsStale(t *testing.T) {
	st := newFakeStore()
	st.upsertErrs = []error{store.ErrUpsertConflict, store.ErrUpsertConflict}
	r := newTestRunner(st)

	summary, err := r.Run(context.Background(), []extract.BatchItem{batchItem("2010", "FY2024")})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped, "losing the race twice means a newer extraction won")
	require.Len(t, summary.Results, 1)
	assert.Equal(t, contracts.ActionSkippedStale, summary.Results[0].Action)
}

func TestRun_RetryFailureIsNotMaskedAsStale(t *testing.T) {
	st := newFakeStore()
	outage := errors.New("connection reset by peer")
	st.upsertErrs = []error{store.ErrUpsertConflict, outage}
	r := newTestRunner(st)

	summary, err := r.Run(context.Background(), []extract.BatchItem{batchItem("2010", "FY2024")})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed, "a store outage on the retry fails the record")
	assert.Zero(t, summary.Skipped)
	require.Len(t, summary.Results, 1)
	assert.ErrorIs(t, summary.Results[0].Error, outage)
}
