// Package validate scores normalized records and decides whether they
// may be inserted automatically. Scoring is pure and deterministic:
// every applicable check always runs, in a fixed order that determines
// issue listing, and deductions stack from a base of 100. The score is
// deliberately not floored: stacked deductions can push it negative,
// and only the negative-equity override pins it to a fixed value.
package validate

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tasi-labs/finpipe/internal/contracts"
)

// Deduction and threshold policy constants.
const (
	baseScore = 100

	deductMissingField = 15
	deductStaleYear    = 50
	deductBalanceGap   = 25
	deductAmbiguousUnit = 10
	deductCostAnomaly  = 20
)

var (
	// balanceTolerance is the relative variance allowed on
	// Assets = Liabilities + Equity.
	balanceTolerance = decimal.NewFromFloat(0.05)
	// costAnomalyMultiple flags cost_of_sales exceeding revenue by
	// this factor, the signature of a unit mismatch between fields
	// extracted from different statement sections.
	costAnomalyMultiple = decimal.NewFromInt(10)
)

// Config holds the per-run validation parameters.
type Config struct {
	// TargetFiscalYear is the fiscal year this ingestion run expects;
	// records from other years are stale.
	TargetFiscalYear int
}

// Validator scores records against the run configuration.
type Validator struct {
	cfg Config
}

// New creates a Validator for an ingestion run.
func New(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// Validate runs all checks and produces an immutable result. The
// result is advisory; acting on the disposition is the upserter's job.
func (v *Validator) Validate(
	rec *contracts.NormalizedFinancialRecord,
	derived *contracts.DerivedMetrics,
	profile contracts.InstitutionProfile,
) *contracts.ValidationResult {
	score := baseScore
	var issues []contracts.Issue

	// 1. Required fields for this institution kind. A bank is not
	// penalized for a missing revenue line.
	for _, f := range profile.RequiredFields {
		if rec.Has(f) {
			continue
		}
		score -= deductMissingField
		issues = append(issues, contracts.Issue{
			Check:     "missing_required_field",
			Severity:  contracts.SeverityError,
			Field:     f,
			Deduction: deductMissingField,
			Message:   fmt.Sprintf("required field %s absent for %s institution", f, profile.Kind),
		})
	}

	// 2. Staleness against the run's target year.
	if rec.Period.Year != v.cfg.TargetFiscalYear {
		score -= deductStaleYear
		issues = append(issues, contracts.Issue{
			Check:     "stale_fiscal_year",
			Severity:  contracts.SeverityError,
			Deduction: deductStaleYear,
			Message:   fmt.Sprintf("fiscal year %d does not match target %d", rec.Period.Year, v.cfg.TargetFiscalYear),
		})
	}

	// 3. Balance-sheet identity within tolerance.
	if issue := checkBalanceIdentity(rec); issue != nil {
		score -= issue.Deduction
		issues = append(issues, *issue)
	}

	// 4. Unit ambiguity carried forward from normalization.
	if rec.UnitConfidence == contracts.UnitAmbiguous {
		score -= deductAmbiguousUnit
		issues = append(issues, contracts.Issue{
			Check:     "ambiguous_unit",
			Severity:  contracts.SeverityWarning,
			Deduction: deductAmbiguousUnit,
			Message:   "reporting unit could not be determined with confidence",
		})
	}

	// 5. Revenue/cost anomaly.
	if issue := checkCostAnomaly(rec); issue != nil {
		score -= issue.Deduction
		issues = append(issues, *issue)
	}

	// 6. Negative equity: hard override, not a deduction. Liabilities
	// exceeding assets invalidates every derived ratio.
	if equity, ok := rec.Get(contracts.FieldTotalEquity); ok && equity.IsNegative() {
		score = 0
		issues = append(issues, contracts.Issue{
			Check:    "negative_equity",
			Severity: contracts.SeverityCritical,
			Field:    contracts.FieldTotalEquity,
			Message:  "total equity is negative; record rejected outright",
		})
	}

	return &contracts.ValidationResult{
		Score:       score,
		Disposition: contracts.DispositionForScore(score),
		Issues:      issues,
		ValidatedAt: time.Now().UTC(),
	}
}

func checkBalanceIdentity(rec *contracts.NormalizedFinancialRecord) *contracts.Issue {
	assets, ok := rec.Get(contracts.FieldTotalAssets)
	if !ok || assets.IsZero() {
		return nil
	}
	liabilities, ok := rec.Get(contracts.FieldTotalLiabilities)
	if !ok {
		return nil
	}
	equity, ok := rec.Get(contracts.FieldTotalEquity)
	if !ok {
		return nil
	}

	variance := assets.Sub(liabilities.Add(equity)).Abs().DivRound(assets.Abs(), 8)
	if variance.LessThanOrEqual(balanceTolerance) {
		return nil
	}

	return &contracts.Issue{
		Check:     "balance_sheet_identity",
		Severity:  contracts.SeverityError,
		Field:     contracts.FieldTotalAssets,
		Deduction: deductBalanceGap,
		Message: fmt.Sprintf("assets - (liabilities + equity) variance %s exceeds %s tolerance",
			variance.StringFixed(4), balanceTolerance.String()),
	}
}

func checkCostAnomaly(rec *contracts.NormalizedFinancialRecord) *contracts.Issue {
	revenue, ok := rec.Get(contracts.FieldRevenue)
	if !ok || !revenue.IsPositive() {
		return nil
	}
	cost, ok := rec.Get(contracts.FieldCostOfSales)
	if !ok {
		return nil
	}
	if cost.LessThanOrEqual(revenue.Mul(costAnomalyMultiple)) {
		return nil
	}

	return &contracts.Issue{
		Check:     "cost_revenue_anomaly",
		Severity:  contracts.SeverityWarning,
		Field:     contracts.FieldCostOfSales,
		Deduction: deductCostAnomaly,
		Message:   "cost_of_sales exceeds 10x revenue; likely unit mismatch between statement sections",
	}
}
