package contracts

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodType distinguishes quarterly filings from the full-year annual filing.
type PeriodType string

const (
	PeriodQuarterly PeriodType = "Quarterly"
	PeriodAnnual    PeriodType = "Annual"
)

// Quarter identifies the fiscal quarter within a year. FY denotes the
// annual filing.
type Quarter string

const (
	Q1 Quarter = "Q1"
	Q2 Quarter = "Q2"
	Q3 Quarter = "Q3"
	Q4 Quarter = "Q4"
	FY Quarter = "FY"
)

// PeriodType returns the period type implied by the quarter.
func (q Quarter) PeriodType() PeriodType {
	if q == FY {
		return PeriodAnnual
	}
	return PeriodQuarterly
}

// Valid reports whether q is one of the five known quarters.
func (q Quarter) Valid() bool {
	switch q {
	case Q1, Q2, Q3, Q4, FY:
		return true
	}
	return false
}

// FiscalPeriod is a (fiscal_year, fiscal_quarter) pair.
type FiscalPeriod struct {
	Year    int     `json:"fiscal_year"`
	Quarter Quarter `json:"fiscal_quarter"`
}

// Label returns the human-readable period label used in reports and the
// fact table ("FY2024" or "Q3 2024").
func (p FiscalPeriod) Label() string {
	if p.Quarter == FY {
		return fmt.Sprintf("FY%d", p.Year)
	}
	return fmt.Sprintf("%s %d", p.Quarter, p.Year)
}

// ReportedUnit is the currency scale a filing states (or fails to state)
// for its monetary figures.
type ReportedUnit string

const (
	UnitSAR       ReportedUnit = "SAR"
	UnitThousands ReportedUnit = "thousands"
	UnitMillions  ReportedUnit = "millions"
	UnitUnknown   ReportedUnit = ""
)

// Multiplier returns the factor that converts values in this unit to
// full SAR. Unknown units return zero so callers cannot silently scale
// by a guess.
func (u ReportedUnit) Multiplier() decimal.Decimal {
	switch u {
	case UnitSAR:
		return decimal.NewFromInt(1)
	case UnitThousands:
		return decimal.NewFromInt(1_000)
	case UnitMillions:
		return decimal.NewFromInt(1_000_000)
	}
	return decimal.Zero
}

// UnitConfidence records how sure the normalizer is about the scale it
// applied. Ambiguous records are never guessed at; the flag propagates
// so the validator can downgrade the confidence score.
type UnitConfidence string

const (
	UnitCertain   UnitConfidence = "certain"
	UnitInferred  UnitConfidence = "inferred"
	UnitAmbiguous UnitConfidence = "ambiguous"
)

// RecordKey is the deduplication identity of a financial record.
type RecordKey struct {
	Ticker  string
	Year    int
	Quarter Quarter
}

// String renders the key for log and audit lines.
func (k RecordKey) String() string {
	return fmt.Sprintf("%s/%d/%s", k.Ticker, k.Year, k.Quarter)
}

// RawFinancialRecord is one company, one fiscal period, one extraction
// pass, with monetary values still in source units. Fields is sparse:
// a metric absent from the filing is absent from the map, never zero.
type RawFinancialRecord struct {
	Ticker       string          `json:"ticker"`
	Period       FiscalPeriod    `json:"period"`
	PeriodType   PeriodType      `json:"period_type"`
	Fields       map[Field]decimal.Decimal `json:"fields"`
	SourceFile   string          `json:"source_file"`
	ExtractionDate time.Time     `json:"extraction_date"`
	ReportedUnit ReportedUnit    `json:"reported_unit"`
}

// Key returns the record's deduplication key.
func (r *RawFinancialRecord) Key() RecordKey {
	return RecordKey{Ticker: r.Ticker, Year: r.Period.Year, Quarter: r.Period.Quarter}
}

// Get looks up a reported field. The second return value distinguishes
// a missing field from a reported zero.
func (r *RawFinancialRecord) Get(f Field) (decimal.Decimal, bool) {
	v, ok := r.Fields[f]
	return v, ok
}

// Has reports whether the field was present in the filing.
func (r *RawFinancialRecord) Has(f Field) bool {
	_, ok := r.Fields[f]
	return ok
}

// NormalizedFinancialRecord is a RawFinancialRecord with every monetary
// field rescaled to full SAR. The raw record is copied, not mutated, so
// the original extraction stays available for traceability.
type NormalizedFinancialRecord struct {
	RawFinancialRecord

	// Multiplier is the scale factor that was applied to monetary fields.
	Multiplier decimal.Decimal `json:"multiplier"`
	// UnitConfidence qualifies the applied multiplier.
	UnitConfidence UnitConfidence `json:"unit_confidence"`
}
