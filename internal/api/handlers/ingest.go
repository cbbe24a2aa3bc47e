// Package handlers holds the HTTP endpoint implementations.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/tasi-labs/finpipe/internal/contracts"
	"github.com/tasi-labs/finpipe/internal/store"
	"github.com/tasi-labs/finpipe/pkg/logger"
)

// IngestStore is the read surface the handlers need.
type IngestStore interface {
	PendingReviews(ctx context.Context, limit int) ([]store.ReviewItem, error)
	RecentAudit(ctx context.Context, limit int) ([]contracts.AuditEntry, error)
	Stats(ctx context.Context, fiscalYear int) (*store.IngestStats, error)
}

// IngestHandler serves the review queue and audit endpoints.
type IngestHandler struct {
	store            IngestStore
	targetFiscalYear int
	logger           *logger.Logger
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(st IngestStore, targetFiscalYear int, log *logger.Logger) *IngestHandler {
	return &IngestHandler{
		store:            st,
		targetFiscalYear: targetFiscalYear,
		logger:           log,
	}
}

// ListReviews returns held records awaiting operator review.
// GET /api/review?limit=N
func (h *IngestHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.PendingReviews(r.Context(), queryLimit(r, 100))
	if err != nil {
		h.logger.WithError(err).Error("Failed to list review queue")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve review queue")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(items),
		"reviews": items,
	})
}

// ListAudit returns the latest ingestion decisions, newest first.
// GET /api/audit?limit=N
func (h *IngestHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.RecentAudit(r.Context(), queryLimit(r, 50))
	if err != nil {
		h.logger.WithError(err).Error("Failed to list audit log")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve audit log")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(entries),
		"entries": entries,
	})
}

// GetStats returns ingestion totals for a fiscal year.
// GET /api/stats?year=YYYY
func (h *IngestHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	year := h.targetFiscalYear
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 2000 || parsed > time.Now().Year()+1 {
			respondError(w, http.StatusBadRequest, "Invalid year parameter")
			return
		}
		year = parsed
	}

	stats, err := h.store.Stats(r.Context(), year)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get ingest stats")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 1000 {
		return fallback
	}
	return limit
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes a JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
