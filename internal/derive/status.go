package derive

import (
	"github.com/shopspring/decimal"

	"github.com/tasi-labs/finpipe/internal/contracts"
)

// Fixed bucket thresholds. Ratios are stored as decimals, so 20% ROE
// is 0.20.
var (
	roeExcellent = decimal.NewFromFloat(0.20)
	roeGood      = decimal.NewFromFloat(0.15)
	roeAverage   = decimal.NewFromFloat(0.10)

	leverageLow      = decimal.NewFromFloat(0.5)
	leverageModerate = decimal.NewFromFloat(1.5)
	leverageHigh     = decimal.NewFromFloat(3.0)

	liquidityStrong   = decimal.NewFromFloat(2.0)
	liquidityAdequate = decimal.NewFromFloat(1.0)
)

func roeStatus(roe *decimal.Decimal) contracts.Status {
	if roe == nil {
		return contracts.StatusNA
	}
	switch {
	case roe.GreaterThan(roeExcellent):
		return contracts.StatusExcellent
	case roe.GreaterThanOrEqual(roeGood):
		return contracts.StatusGood
	case roe.GreaterThanOrEqual(roeAverage):
		return contracts.StatusAverage
	case roe.GreaterThanOrEqual(decimal.Zero):
		return contracts.StatusWeak
	}
	return contracts.StatusNegative
}

func profitStatus(netProfit decimal.Decimal) contracts.Status {
	if netProfit.GreaterThan(decimal.Zero) {
		return contracts.StatusProfit
	}
	return contracts.StatusLoss
}

func leverageStatus(debtToEquity *decimal.Decimal) contracts.Status {
	if debtToEquity == nil {
		return contracts.StatusNA
	}
	switch {
	case debtToEquity.LessThan(leverageLow):
		return contracts.StatusLow
	case debtToEquity.LessThan(leverageModerate):
		return contracts.StatusModerate
	case debtToEquity.LessThan(leverageHigh):
		return contracts.StatusHigh
	}
	return contracts.StatusExcessive
}

func liquidityStatus(currentRatio *decimal.Decimal) contracts.Status {
	if currentRatio == nil {
		return contracts.StatusNA
	}
	switch {
	case currentRatio.GreaterThanOrEqual(liquidityStrong):
		return contracts.StatusStrong
	case currentRatio.GreaterThanOrEqual(liquidityAdequate):
		return contracts.StatusAdequate
	}
	return contracts.StatusTight
}
