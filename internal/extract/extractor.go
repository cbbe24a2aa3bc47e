// Package extract turns raw source tables (one per company filing,
// keyed by statement line-item labels as they literally appear) into
// typed RawFinancialRecords. Filings come in two income statement
// layouts (Nature of Expense, Function of Expense) and two balance
// sheet layouts (Order of Liquidity, Current/Non-current); label
// synonyms are resolved here, once, so downstream stages only ever see
// canonical field names.
package extract

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tasi-labs/finpipe/internal/contracts"
)

// ErrNoMatchingPeriod is returned when no column of the source table
// corresponds to the requested fiscal year and period.
var ErrNoMatchingPeriod = errors.New("no matching period column")

// Error is an extraction failure for a single record. Extraction
// failures skip the record; they never abort the batch.
type Error struct {
	Ticker string
	Period contracts.FiscalPeriod
	Reason error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract %s %s: %v", e.Ticker, e.Period.Label(), e.Reason)
}

func (e *Error) Unwrap() error { return e.Reason }

// SourceTable is the heterogeneous sparse table handed over by the file
// parsing layer: line-item label → period column header → value.
// Column headers vary by filing ("FY2024", "2024", "Q3 2024", ...).
type SourceTable struct {
	Rows map[string]map[string]decimal.Decimal `json:"rows"`
}

// Metadata is the sidecar information accompanying a source table.
// ExtractionDate is when the table was pulled from the filing, not
// when this pipeline runs; reprocessing an unchanged batch must keep
// the same date so the store recognizes it as a duplicate.
type Metadata struct {
	Ticker         string                 `json:"ticker"`
	FiscalYear     int                    `json:"fiscal_year"`
	PeriodHint     contracts.Quarter      `json:"period_hint"`
	StatedUnit     contracts.ReportedUnit `json:"stated_unit"`
	SourceFile     string                 `json:"source_file"`
	ExtractionDate time.Time              `json:"extraction_date"`
}

// labelSynonyms maps canonical fields to the filing labels that carry
// them, lowercased. Both label variants of each statement layout are
// listed; a filing using the other layout simply leaves the field
// unset.
var labelSynonyms = map[contracts.Field][]string{
	contracts.FieldRevenue: {
		"revenue", "revenues", "total revenue", "sales", "net sales",
		"revenue from contracts with customers",
	},
	contracts.FieldCostOfSales: {
		// Function of Expense layout only; Nature of Expense filings
		// report expense lines by nature instead.
		"cost of sales", "cost of revenue", "cost of revenues", "cost of goods sold",
	},
	contracts.FieldGrossProfit: {
		"gross profit", "gross profit (loss)",
	},
	contracts.FieldOperatingProfit: {
		"operating profit", "operating income", "profit from operations",
		"operating profit (loss)",
	},
	contracts.FieldOperatingExpenses: {
		"operating expenses", "total operating expenses",
		"general and administrative expenses", "selling and distribution expenses",
	},
	contracts.FieldOtherExpenses: {
		"other expenses", "other operating expenses",
	},
	contracts.FieldNetProfit: {
		"net profit", "net income", "profit for the period", "profit for the year",
		"net profit (loss)", "profit attributable to shareholders",
	},
	contracts.FieldInterestExpense: {
		"interest expense", "finance costs", "finance charges",
	},
	contracts.FieldTotalAssets: {
		"total assets",
	},
	contracts.FieldTotalLiabilities: {
		"total liabilities",
	},
	contracts.FieldTotalEquity: {
		"total equity", "total shareholders equity", "total shareholders' equity",
		"equity attributable to shareholders",
	},
	contracts.FieldCurrentAssets: {
		// Current/Non-current layout only; Order of Liquidity balance
		// sheets carry no current split.
		"current assets", "total current assets",
	},
	contracts.FieldCurrentLiabilities: {
		"current liabilities", "total current liabilities",
	},
	contracts.FieldInventory: {
		"inventory", "inventories",
	},
	contracts.FieldReceivables: {
		"receivables", "trade receivables", "accounts receivable",
	},
	contracts.FieldOperatingCashFlow: {
		"operating cash flow", "net cash from operating activities",
		"cash flows from operating activities",
	},
	contracts.FieldCapex: {
		"capital expenditure", "capital expenditures",
		"purchase of property and equipment",
	},
	contracts.FieldFreeCashFlow: {
		"free cash flow",
	},
	contracts.FieldNetInterestIncome: {
		"net interest income", "net special commission income",
		"net income from financing and investments",
	},
	contracts.FieldTotalOperatingIncome: {
		"total operating income",
	},
	contracts.FieldTotalLoans: {
		"total loans", "loans and advances", "loans and advances, net",
		"financing, net",
	},
	contracts.FieldTotalDeposits: {
		"total deposits", "customer deposits", "customers' deposits",
	},
	contracts.FieldNonPerformingLoans: {
		"non-performing loans", "non performing loans",
	},
	contracts.FieldAvgEarningAssets: {
		"average earning assets", "average interest-earning assets",
	},
	contracts.FieldGrossWrittenPremiums: {
		"gross written premiums", "gross premiums written",
	},
	contracts.FieldNetWrittenPremiums: {
		"net written premiums", "net premiums written",
	},
	contracts.FieldNetEarnedPremiums: {
		"net earned premiums", "net premiums earned",
	},
	contracts.FieldClaimsIncurred: {
		"claims incurred", "net claims incurred", "gross claims paid",
	},
	contracts.FieldPolicyAcquisitionCosts: {
		"policy acquisition costs", "policy acquisition costs and underwriting expenses",
	},
	contracts.FieldCapitalAdequacyRatio: {
		"capital adequacy ratio",
	},
}

// lookupByLabel is the inverse synonym index, built once.
var lookupByLabel = func() map[string]contracts.Field {
	m := make(map[string]contracts.Field)
	for field, labels := range labelSynonyms {
		for _, l := range labels {
			m[l] = field
		}
	}
	return m
}()

// Extract resolves the requested period's column out of a source table
// and builds a RawFinancialRecord. Provenance comes from the sidecar's
// extraction date; now is only a fallback for batches that omit it.
// Absent sections leave their fields unset; only a missing period
// column fails the record.
func Extract(table SourceTable, meta Metadata, now time.Time) (*contracts.RawFinancialRecord, error) {
	period := contracts.FiscalPeriod{Year: meta.FiscalYear, Quarter: meta.PeriodHint}

	extractedAt := meta.ExtractionDate
	if extractedAt.IsZero() {
		extractedAt = now
	}

	fields := make(map[contracts.Field]decimal.Decimal)
	matched := false
	for label, columns := range table.Rows {
		field, known := lookupByLabel[normalizeLabel(label)]
		if !known {
			continue
		}
		value, ok := periodValue(columns, period)
		if !ok {
			continue
		}
		matched = true
		fields[field] = value
	}

	if !matched {
		return nil, &Error{Ticker: meta.Ticker, Period: period, Reason: ErrNoMatchingPeriod}
	}

	return &contracts.RawFinancialRecord{
		Ticker:         meta.Ticker,
		Period:         period,
		PeriodType:     period.Quarter.PeriodType(),
		Fields:         fields,
		SourceFile:     meta.SourceFile,
		ExtractionDate: extractedAt,
		ReportedUnit:   meta.StatedUnit,
	}, nil
}

// periodValue finds the column matching the requested period among the
// header spellings filings actually use.
func periodValue(columns map[string]decimal.Decimal, period contracts.FiscalPeriod) (decimal.Decimal, bool) {
	for header, value := range columns {
		if matchesPeriod(header, period) {
			return value, true
		}
	}
	return decimal.Zero, false
}

// matchesPeriod recognizes the common header spellings for a fiscal
// period: "FY2024", "FY 2024", "2024" for annual; "Q3 2024",
// "2024 Q3", "Q3-2024" for quarters.
func matchesPeriod(header string, period contracts.FiscalPeriod) bool {
	h := normalizeLabel(header)
	year := fmt.Sprintf("%d", period.Year)

	if period.Quarter == contracts.FY {
		switch h {
		case "fy" + year, "fy " + year, year, "annual " + year, year + " annual":
			return true
		}
		return false
	}

	q := strings.ToLower(string(period.Quarter))
	switch h {
	case q + " " + year, year + " " + q, q + "-" + year, q + year:
		return true
	}
	return false
}

// normalizeLabel lowercases and collapses whitespace so label matching
// survives the formatting noise of real filings.
func normalizeLabel(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
