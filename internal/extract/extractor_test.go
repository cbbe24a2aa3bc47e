package extract

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasi-labs/finpipe/internal/contracts"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestExtract_AnnualFiling(t *testing.T) {
	table := SourceTable{
		Rows: map[string]map[string]decimal.Decimal{
			"Revenue":           {"FY2024": d(1_000_000), "FY2023": d(900_000)},
			"Cost of Sales":     {"FY2024": d(600_000)},
			"Net Profit (Loss)": {"FY2024": d(150_000)},
			"Total Assets":      {"FY2024": d(5_000_000)},
			"Total Liabilities": {"FY2024": d(3_000_000)},
			"Total Equity":      {"FY2024": d(2_000_000)},
		},
	}
	meta := Metadata{
		Ticker:     "2010",
		FiscalYear: 2024,
		PeriodHint: contracts.FY,
		StatedUnit: contracts.UnitThousands,
		SourceFile: "2010_fy2024.xlsx",
	}

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rec, err := Extract(table, meta, now)
	require.NoError(t, err)

	assert.Equal(t, "2010", rec.Ticker)
	assert.Equal(t, contracts.PeriodAnnual, rec.PeriodType)
	assert.Equal(t, "FY2024", rec.Period.Label())
	assert.Equal(t, contracts.UnitThousands, rec.ReportedUnit)
	assert.Equal(t, now, rec.ExtractionDate)

	// Prior-year column must not leak in.
	revenue, ok := rec.Get(contracts.FieldRevenue)
	require.True(t, ok)
	assert.True(t, revenue.Equal(d(1_000_000)))

	assert.True(t, rec.Has(contracts.FieldCostOfSales))
	assert.True(t, rec.Has(contracts.FieldNetProfit))
}

func TestExtract_SidecarExtractionDate(t *testing.T) {
	table := SourceTable{
		Rows: map[string]map[string]decimal.Decimal{
			"Revenue": {"FY2024": d(1_000_000)},
		},
	}
	extractedAt := time.Date(2024, 11, 5, 14, 30, 0, 0, time.UTC)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	meta := Metadata{
		Ticker: "2010", FiscalYear: 2024, PeriodHint: contracts.FY,
		ExtractionDate: extractedAt,
	}
	rec, err := Extract(table, meta, now)
	require.NoError(t, err)
	assert.Equal(t, extractedAt, rec.ExtractionDate,
		"sidecar date wins over processing time")

	// Batches without a sidecar date fall back to now.
	meta.ExtractionDate = time.Time{}
	rec, err = Extract(table, meta, now)
	require.NoError(t, err)
	assert.Equal(t, now, rec.ExtractionDate)
}

func TestExtract_QuarterHeaderSpellings(t *testing.T) {
	headers := []string{"Q3 2024", "2024 Q3", "Q3-2024", "q3 2024"}

	for _, header := range headers {
		t.Run(header, func(t *testing.T) {
			table := SourceTable{
				Rows: map[string]map[string]decimal.Decimal{
					"Total Assets": {header: d(7_500_000)},
				},
			}
			meta := Metadata{Ticker: "1120", FiscalYear: 2024, PeriodHint: contracts.Q3}

			rec, err := Extract(table, meta, time.Now())
			require.NoError(t, err)
			assert.Equal(t, contracts.PeriodQuarterly, rec.PeriodType)

			assets, ok := rec.Get(contracts.FieldTotalAssets)
			require.True(t, ok)
			assert.True(t, assets.Equal(d(7_500_000)))
		})
	}
}

func TestExtract_LabelSynonymsAcrossLayouts(t *testing.T) {
	// Function of Expense income statement plus Order of Liquidity
	// balance sheet on one side; Nature of Expense plus
	// Current/Non-current on the other. Both resolve to the same
	// canonical fields where the line items overlap.
	functionLayout := SourceTable{
		Rows: map[string]map[string]decimal.Decimal{
			"Cost of Goods Sold":   {"FY2024": d(600)},
			"Net income":           {"FY2024": d(100)},
			"  Total   Assets  ":   {"FY2024": d(900)},
		},
	}
	natureLayout := SourceTable{
		Rows: map[string]map[string]decimal.Decimal{
			"Profit for the year":  {"FY2024": d(100)},
			"Total Current Assets": {"FY2024": d(400)},
			"Inventories":          {"FY2024": d(50)},
		},
	}
	meta := Metadata{Ticker: "2222", FiscalYear: 2024, PeriodHint: contracts.FY}

	recA, err := Extract(functionLayout, meta, time.Now())
	require.NoError(t, err)
	assert.True(t, recA.Has(contracts.FieldCostOfSales))
	assert.True(t, recA.Has(contracts.FieldNetProfit))
	assert.True(t, recA.Has(contracts.FieldTotalAssets), "label matching must survive whitespace noise")
	assert.False(t, recA.Has(contracts.FieldCurrentAssets), "missing section leaves fields unset")

	recB, err := Extract(natureLayout, meta, time.Now())
	require.NoError(t, err)
	assert.False(t, recB.Has(contracts.FieldCostOfSales), "nature layout has no cost of sales line")
	assert.True(t, recB.Has(contracts.FieldNetProfit))
	assert.True(t, recB.Has(contracts.FieldCurrentAssets))
	assert.True(t, recB.Has(contracts.FieldInventory))
}

func TestExtract_NoMatchingPeriod(t *testing.T) {
	table := SourceTable{
		Rows: map[string]map[string]decimal.Decimal{
			"Revenue": {"FY2023": d(900_000)},
		},
	}
	meta := Metadata{Ticker: "4001", FiscalYear: 2024, PeriodHint: contracts.FY}

	rec, err := Extract(table, meta, time.Now())
	assert.Nil(t, rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoMatchingPeriod)

	var exErr *Error
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, "4001", exErr.Ticker)
}

func TestExtract_UnknownLabelsIgnored(t *testing.T) {
	table := SourceTable{
		Rows: map[string]map[string]decimal.Decimal{
			"Revenue":                    {"FY2024": d(500)},
			"Zakat and income tax":       {"FY2024": d(20)},
			"Earnings per share (basic)": {"FY2024": d(2)},
		},
	}
	meta := Metadata{Ticker: "7010", FiscalYear: 2024, PeriodHint: contracts.FY}

	rec, err := Extract(table, meta, time.Now())
	require.NoError(t, err)
	assert.Len(t, rec.Fields, 1)
}
