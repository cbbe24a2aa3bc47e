package contracts

import "time"

// Severity grades a validation issue.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Disposition is the categorical outcome of validation.
type Disposition string

const (
	DispositionInsertReady Disposition = "InsertReady"
	DispositionNeedsReview Disposition = "NeedsReview"
	DispositionRejected    Disposition = "Rejected"
)

// Issue is one flagged problem with a field reference and the deduction
// it applied.
type Issue struct {
	Check     string   `json:"check"`
	Severity  Severity `json:"severity"`
	Field     Field    `json:"field,omitempty"`
	Deduction int      `json:"deduction"`
	Message   string   `json:"message"`
}

// ValidationResult is the immutable outcome of validating one
// normalized record. Re-validation produces a new result.
//
// Score starts at 100 and decreases by stacked deductions; it is not
// floored, so heavily penalized records can go negative. The only hard
// floor is the negative-equity override, which forces the score to
// exactly 0. DisplayScore clamps for presentation.
type ValidationResult struct {
	Score       int         `json:"score"`
	Disposition Disposition `json:"disposition"`
	Issues      []Issue     `json:"issues"`
	ValidatedAt time.Time   `json:"validated_at"`
}

// DisplayScore clamps the raw score into [0, 100] for reports.
func (r *ValidationResult) DisplayScore() int {
	switch {
	case r.Score < 0:
		return 0
	case r.Score > 100:
		return 100
	}
	return r.Score
}

// DispositionForScore maps a raw score onto the policy bands:
// [80,100] InsertReady, [50,80) NeedsReview, below 50 Rejected.
// The lower bound of each band is inclusive.
func DispositionForScore(score int) Disposition {
	switch {
	case score >= 80:
		return DispositionInsertReady
	case score >= 50:
		return DispositionNeedsReview
	}
	return DispositionRejected
}
