package validate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasi-labs/finpipe/internal/contracts"
	"github.com/tasi-labs/finpipe/internal/derive"
	"github.com/tasi-labs/finpipe/internal/refdata"
)

func record(year int, confidence contracts.UnitConfidence, fields map[contracts.Field]decimal.Decimal) *contracts.NormalizedFinancialRecord {
	return &contracts.NormalizedFinancialRecord{
		RawFinancialRecord: contracts.RawFinancialRecord{
			Ticker:         "0000",
			Period:         contracts.FiscalPeriod{Year: year, Quarter: contracts.FY},
			PeriodType:     contracts.PeriodAnnual,
			Fields:         fields,
			ExtractionDate: time.Now(),
		},
		Multiplier:     decimal.NewFromInt(1),
		UnitConfidence: confidence,
	}
}

func profileFor(kind contracts.InstitutionKind) contracts.InstitutionProfile {
	return refdata.NewRegistry(map[string]contracts.InstitutionKind{"0000": kind}).Lookup("0000")
}

func validateWith(v *Validator, rec *contracts.NormalizedFinancialRecord, profile contracts.InstitutionProfile) *contracts.ValidationResult {
	return v.Validate(rec, derive.Derive(rec, profile), profile)
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func cleanStandardFields() map[contracts.Field]decimal.Decimal {
	return map[contracts.Field]decimal.Decimal{
		contracts.FieldRevenue:          d(1_000_000_000),
		contracts.FieldNetProfit:        d(150_000_000),
		contracts.FieldTotalAssets:      d(2_000_000_000),
		contracts.FieldTotalLiabilities: d(1_200_000_000),
		contracts.FieldTotalEquity:      d(800_000_000),
	}
}

func TestValidate_CleanRecordScoresFull(t *testing.T) {
	v := New(Config{TargetFiscalYear: 2024})
	res := validateWith(v, record(2024, contracts.UnitCertain, cleanStandardFields()), profileFor(contracts.KindStandard))

	assert.Equal(t, 100, res.Score)
	assert.Equal(t, contracts.DispositionInsertReady, res.Disposition)
	assert.Empty(t, res.Issues)
}

func TestValidate_BankNotPenalizedForMissingRevenue(t *testing.T) {
	v := New(Config{TargetFiscalYear: 2024})
	fields := map[contracts.Field]decimal.Decimal{
		contracts.FieldNetInterestIncome: d(9_000_000_000),
		contracts.FieldNetProfit:         d(5_000_000_000),
		contracts.FieldTotalAssets:       d(450_000_000_000),
		contracts.FieldTotalLiabilities:  d(390_000_000_000),
		contracts.FieldTotalEquity:       d(60_000_000_000),
	}

	res := validateWith(v, record(2024, contracts.UnitCertain, fields), profileFor(contracts.KindBank))
	assert.Equal(t, 100, res.Score)
	assert.Empty(t, res.Issues)

	// The same record as a standard company loses 15 for revenue.
	res = validateWith(v, record(2024, contracts.UnitCertain, fields), profileFor(contracts.KindStandard))
	assert.Equal(t, 85, res.Score)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "missing_required_field", res.Issues[0].Check)
	assert.Equal(t, contracts.FieldRevenue, res.Issues[0].Field)
}

func TestValidate_StaleYearLandsOnReviewBoundary(t *testing.T) {
	v := New(Config{TargetFiscalYear: 2024})
	res := validateWith(v, record(2023, contracts.UnitCertain, cleanStandardFields()), profileFor(contracts.KindStandard))

	assert.Equal(t, 50, res.Score)
	// 50 is inclusive in the review band.
	assert.Equal(t, contracts.DispositionNeedsReview, res.Disposition)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "stale_fiscal_year", res.Issues[0].Check)
}

func TestValidate_BalanceIdentityViolation(t *testing.T) {
	v := New(Config{TargetFiscalYear: 2024})
	fields := cleanStandardFields()
	// Assets 2.0e9 vs L+E 1.7e9: 15% variance, over the 5% tolerance.
	fields[contracts.FieldTotalEquity] = d(500_000_000)

	res := validateWith(v, record(2024, contracts.UnitCertain, fields), profileFor(contracts.KindStandard))
	assert.Equal(t, 75, res.Score)
	assert.Equal(t, contracts.DispositionNeedsReview, res.Disposition)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "balance_sheet_identity", res.Issues[0].Check)
}

func TestValidate_BalanceIdentityWithinTolerance(t *testing.T) {
	v := New(Config{TargetFiscalYear: 2024})
	fields := cleanStandardFields()
	// 4% variance stays clean.
	fields[contracts.FieldTotalEquity] = d(720_000_000)

	res := validateWith(v, record(2024, contracts.UnitCertain, fields), profileFor(contracts.KindStandard))
	assert.Equal(t, 100, res.Score)
}

func TestValidate_AmbiguousUnitDeduction(t *testing.T) {
	v := New(Config{TargetFiscalYear: 2024})
	res := validateWith(v, record(2024, contracts.UnitAmbiguous, cleanStandardFields()), profileFor(contracts.KindStandard))

	assert.Equal(t, 90, res.Score)
	assert.Equal(t, contracts.DispositionInsertReady, res.Disposition)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, contracts.SeverityWarning, res.Issues[0].Severity)
}

func TestValidate_CostAnomaly(t *testing.T) {
	v := New(Config{TargetFiscalYear: 2024})
	fields := cleanStandardFields()
	// Cost of sales in thousands while revenue in millions: 10x+ gap.
	fields[contracts.FieldCostOfSales] = d(11_000_000_000)

	res := validateWith(v, record(2024, contracts.UnitCertain, fields), profileFor(contracts.KindStandard))
	assert.Equal(t, 80, res.Score)
	assert.Equal(t, contracts.DispositionInsertReady, res.Disposition)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "cost_revenue_anomaly", res.Issues[0].Check)
}

func TestValidate_NegativeEquityOverridesEverything(t *testing.T) {
	v := New(Config{TargetFiscalYear: 2024})
	// Accumulated losses ate through the capital: liabilities exceed
	// assets and equity is negative.
	fields := map[contracts.Field]decimal.Decimal{
		contracts.FieldRevenue:          d(2_101_532_404),
		contracts.FieldNetProfit:        d(-480_765_110),
		contracts.FieldTotalAssets:      d(4_585_690_106),
		contracts.FieldTotalLiabilities: d(5_603_825_678),
		contracts.FieldTotalEquity:      d(-1_018_135_572),
	}

	res := validateWith(v, record(2024, contracts.UnitCertain, fields), profileFor(contracts.KindStandard))
	assert.Equal(t, 0, res.Score, "negative equity forces the score to exactly 0")
	assert.Equal(t, contracts.DispositionRejected, res.Disposition)

	var critical *contracts.Issue
	for i := range res.Issues {
		if res.Issues[i].Check == "negative_equity" {
			critical = &res.Issues[i]
		}
	}
	require.NotNil(t, critical)
	assert.Equal(t, contracts.SeverityCritical, critical.Severity)
}

func TestValidate_DeductionsStackBelowZero(t *testing.T) {
	v := New(Config{TargetFiscalYear: 2024})
	// Stale year, ambiguous unit, and four missing required fields:
	// 100 - 50 - 10 - 60 = -20.
	fields := map[contracts.Field]decimal.Decimal{
		contracts.FieldRevenue: d(500_000_000),
	}

	res := validateWith(v, record(2022, contracts.UnitAmbiguous, fields), profileFor(contracts.KindStandard))
	assert.Equal(t, -20, res.Score, "raw score is not floored")
	assert.Equal(t, contracts.DispositionRejected, res.Disposition)
	assert.Equal(t, 0, res.DisplayScore(), "display clamps to zero")
	assert.Len(t, res.Issues, 6)
}

func TestValidate_IssueOrderIsDeterministic(t *testing.T) {
	v := New(Config{TargetFiscalYear: 2024})
	fields := cleanStandardFields()
	delete(fields, contracts.FieldNetProfit)

	res := validateWith(v, record(2023, contracts.UnitAmbiguous, fields), profileFor(contracts.KindStandard))
	require.Len(t, res.Issues, 3)
	assert.Equal(t, "missing_required_field", res.Issues[0].Check)
	assert.Equal(t, "stale_fiscal_year", res.Issues[1].Check)
	assert.Equal(t, "ambiguous_unit", res.Issues[2].Check)
}
