package contracts

// Field names a statement line item in its canonical form. Extraction
// resolves filing-specific labels into these once; every later stage
// works only with canonical fields.
type Field string

const (
	// Income statement
	FieldRevenue               Field = "revenue"
	FieldCostOfSales           Field = "cost_of_sales"
	FieldGrossProfit           Field = "gross_profit"
	FieldOperatingProfit       Field = "operating_profit"
	FieldOperatingExpenses     Field = "operating_expenses"
	FieldOtherExpenses         Field = "other_expenses"
	FieldNetProfit             Field = "net_profit"
	FieldInterestExpense       Field = "interest_expense"

	// Balance sheet
	FieldTotalAssets        Field = "total_assets"
	FieldTotalLiabilities   Field = "total_liabilities"
	FieldTotalEquity        Field = "total_equity"
	FieldCurrentAssets      Field = "current_assets"
	FieldCurrentLiabilities Field = "current_liabilities"
	FieldInventory          Field = "inventory"
	FieldReceivables        Field = "receivables"

	// Cash flow
	FieldOperatingCashFlow Field = "operating_cash_flow"
	FieldCapex             Field = "capex"
	FieldFreeCashFlow      Field = "free_cash_flow"

	// Bank statements
	FieldNetInterestIncome    Field = "net_interest_income"
	FieldTotalOperatingIncome Field = "total_operating_income"
	FieldTotalLoans           Field = "total_loans"
	FieldTotalDeposits        Field = "total_deposits"
	FieldNonPerformingLoans   Field = "non_performing_loans"
	FieldAvgEarningAssets     Field = "average_earning_assets"

	// Insurance statements
	FieldGrossWrittenPremiums   Field = "gross_written_premiums"
	FieldNetWrittenPremiums     Field = "net_written_premiums"
	FieldNetEarnedPremiums      Field = "net_earned_premiums"
	FieldClaimsIncurred         Field = "claims_incurred"
	FieldPolicyAcquisitionCosts Field = "policy_acquisition_costs"

	// Ratios occasionally reported as line items. Dimensionless, so
	// never scaled during unit normalization.
	FieldCapitalAdequacyRatio Field = "capital_adequacy_ratio"
)

// dimensionless fields carry no currency unit.
var dimensionless = map[Field]bool{
	FieldCapitalAdequacyRatio: true,
}

// Monetary reports whether the field carries a currency unit and is
// therefore subject to scale conversion.
func (f Field) Monetary() bool {
	return !dimensionless[f]
}
