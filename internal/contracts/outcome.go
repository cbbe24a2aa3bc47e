package contracts

import "time"

// UpsertAction is what the store did with a validated record.
type UpsertAction string

const (
	ActionInserted         UpsertAction = "Inserted"
	ActionUpdated          UpsertAction = "Updated"
	ActionSkippedDuplicate UpsertAction = "SkippedDuplicate"
	ActionSkippedStale     UpsertAction = "SkippedStale"
	// ActionHeld marks records gated out of the store by disposition
	// (NeedsReview or Rejected). They appear only in the audit trail.
	ActionHeld UpsertAction = "Held"
)

// UpsertOutcome is the per-record result of merging into the store.
type UpsertOutcome struct {
	Key         RecordKey    `json:"key"`
	Action      UpsertAction `json:"action"`
	StatementID int64        `json:"statement_id,omitempty"`
}

// AuditEntry is one append-only line of the ingest audit trail.
type AuditEntry struct {
	Ticker        string       `json:"ticker"`
	FiscalYear    int          `json:"fiscal_year"`
	FiscalQuarter Quarter      `json:"fiscal_quarter"`
	Disposition   Disposition  `json:"disposition"`
	Action        UpsertAction `json:"action"`
	Score         int          `json:"confidence_score"`
	Timestamp     time.Time    `json:"timestamp"`
}
