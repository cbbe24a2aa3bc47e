package contracts

import "github.com/shopspring/decimal"

// Status is a human-readable categorical summary of a ratio, bucketed
// against fixed policy thresholds.
type Status string

const (
	StatusExcellent Status = "Excellent"
	StatusGood      Status = "Good"
	StatusAverage   Status = "Average"
	StatusWeak      Status = "Weak"
	StatusNegative  Status = "Negative"
	StatusProfit    Status = "Profit"
	StatusLoss      Status = "Loss"
	StatusLow       Status = "Low"
	StatusModerate  Status = "Moderate"
	StatusHigh      Status = "High"
	StatusExcessive Status = "Excessive"
	StatusStrong    Status = "Strong"
	StatusAdequate  Status = "Adequate"
	StatusTight     Status = "Tight"
	StatusNA        Status = "N/A"
)

// DerivedMetrics carries the ratio suite computed from one normalized
// record. Every ratio is a pointer: nil means "not computable from the
// reported fields", which is distinct from a genuine zero ratio.
type DerivedMetrics struct {
	// Profitability
	ROE             *decimal.Decimal `json:"return_on_equity,omitempty"`
	ROA             *decimal.Decimal `json:"return_on_assets,omitempty"`
	GrossMargin     *decimal.Decimal `json:"gross_margin,omitempty"`
	OperatingMargin *decimal.Decimal `json:"operating_margin,omitempty"`
	NetMargin       *decimal.Decimal `json:"net_margin,omitempty"`

	// Liquidity
	CurrentRatio   *decimal.Decimal `json:"current_ratio,omitempty"`
	QuickRatio     *decimal.Decimal `json:"quick_ratio,omitempty"`
	WorkingCapital *decimal.Decimal `json:"working_capital,omitempty"`

	// Leverage and efficiency
	DebtToEquity  *decimal.Decimal `json:"debt_to_equity,omitempty"`
	DebtToAssets  *decimal.Decimal `json:"debt_to_assets,omitempty"`
	AssetTurnover *decimal.Decimal `json:"asset_turnover,omitempty"`

	// Bank suite
	NetInterestMargin *decimal.Decimal `json:"net_interest_margin,omitempty"`
	CostToIncome      *decimal.Decimal `json:"cost_to_income,omitempty"`
	LoanToDeposit     *decimal.Decimal `json:"loan_to_deposit,omitempty"`
	NPLRatio          *decimal.Decimal `json:"npl_ratio,omitempty"`
	// NIMApproximated is set when total_assets stood in for an
	// averaging base in the NIM denominator.
	NIMApproximated bool `json:"nim_approximated,omitempty"`

	// Insurance suite
	LossRatio      *decimal.Decimal `json:"loss_ratio,omitempty"`
	ExpenseRatio   *decimal.Decimal `json:"expense_ratio,omitempty"`
	CombinedRatio  *decimal.Decimal `json:"combined_ratio,omitempty"`
	RetentionRatio *decimal.Decimal `json:"retention_ratio,omitempty"`

	// Categorical buckets
	ROEStatus       Status `json:"roe_status"`
	ProfitStatus    Status `json:"profit_status"`
	LeverageStatus  Status `json:"leverage_status"`
	LiquidityStatus Status `json:"liquidity_status"`
}
