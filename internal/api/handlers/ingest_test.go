package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasi-labs/finpipe/internal/contracts"
	"github.com/tasi-labs/finpipe/internal/store"
	"github.com/tasi-labs/finpipe/pkg/logger"
)

type fakeIngestStore struct {
	reviews []store.ReviewItem
	audits  []contracts.AuditEntry
	stats   map[int]*store.IngestStats
}

func (f *fakeIngestStore) PendingReviews(ctx context.Context, limit int) ([]store.ReviewItem, error) {
	if limit < len(f.reviews) {
		return f.reviews[:limit], nil
	}
	return f.reviews, nil
}

func (f *fakeIngestStore) RecentAudit(ctx context.Context, limit int) ([]contracts.AuditEntry, error) {
	return f.audits, nil
}

func (f *fakeIngestStore) Stats(ctx context.Context, fiscalYear int) (*store.IngestStats, error) {
	if s, ok := f.stats[fiscalYear]; ok {
		return s, nil
	}
	return &store.IngestStats{FiscalYear: fiscalYear}, nil
}

func newTestHandler(st IngestStore) *IngestHandler {
	return NewIngestHandler(st, 2024, logger.NewNop())
}

func TestListReviews(t *testing.T) {
	st := &fakeIngestStore{
		reviews: []store.ReviewItem{
			{
				ReviewID: 1, Ticker: "8030", FiscalYear: 2024, FiscalQuarter: contracts.Q3,
				Disposition: contracts.DispositionNeedsReview, Score: 65,
				Issues: []contracts.Issue{{
					Check: "stale_fiscal_year", Severity: contracts.SeverityError, Deduction: 50,
				}},
				CreatedAt: time.Now(),
			},
		},
	}
	h := newTestHandler(st)

	req := httptest.NewRequest(http.MethodGet, "/api/review", nil)
	rec := httptest.NewRecorder()
	h.ListReviews(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count   int                `json:"count"`
		Reviews []store.ReviewItem `json:"reviews"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "8030", body.Reviews[0].Ticker)
	require.Len(t, body.Reviews[0].Issues, 1)
	assert.Equal(t, "stale_fiscal_year", body.Reviews[0].Issues[0].Check)
}

func TestListAudit(t *testing.T) {
	st := &fakeIngestStore{
		audits: []contracts.AuditEntry{
			{Ticker: "1120", FiscalYear: 2024, FiscalQuarter: contracts.Q3,
				Disposition: contracts.DispositionInsertReady, Action: contracts.ActionInserted, Score: 100},
		},
	}
	h := newTestHandler(st)

	req := httptest.NewRequest(http.MethodGet, "/api/audit?limit=5", nil)
	rec := httptest.NewRecorder()
	h.ListAudit(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"1120"`)
	assert.Contains(t, rec.Body.String(), "Inserted")
}

func TestGetStats(t *testing.T) {
	st := &fakeIngestStore{
		stats: map[int]*store.IngestStats{
			2024: {FiscalYear: 2024, Statements: 180, PendingReviews: 12},
		},
	}
	h := newTestHandler(st)

	// Default year from config.
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	h.GetStats(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var stats store.IngestStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2024, stats.FiscalYear)
	assert.Equal(t, 180, stats.Statements)

	// Explicit year.
	req = httptest.NewRequest(http.MethodGet, "/api/stats?year=2023", nil)
	rec = httptest.NewRecorder()
	h.GetStats(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2023, stats.FiscalYear)
}

func TestGetStats_InvalidYear(t *testing.T) {
	h := newTestHandler(&fakeIngestStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/stats?year=banana", nil)
	rec := httptest.NewRecorder()
	h.GetStats(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
