// Package derive computes the ratio suite for a normalized record.
// Every ratio is computed only when all of its inputs are present and
// the denominator is non-zero; otherwise it stays absent. An absent
// ratio is never written as zero, since that would misrepresent a real
// 0% ratio as computed.
package derive

import (
	"github.com/shopspring/decimal"

	"github.com/tasi-labs/finpipe/internal/contracts"
)

// ratioPrecision bounds division results; statements carry at most two
// decimal places, ratios keep a few more for onward arithmetic.
const ratioPrecision = 8

// Derive computes all applicable ratios for the record. Standard
// ratios are computed for every kind from whatever fields are present;
// the bank and insurance suites only for their kinds.
func Derive(rec *contracts.NormalizedFinancialRecord, profile contracts.InstitutionProfile) *contracts.DerivedMetrics {
	m := &contracts.DerivedMetrics{}

	netProfit, hasNetProfit := rec.Get(contracts.FieldNetProfit)

	m.ROE = ratio(rec, contracts.FieldNetProfit, contracts.FieldTotalEquity)
	m.ROA = ratio(rec, contracts.FieldNetProfit, contracts.FieldTotalAssets)
	m.GrossMargin = ratio(rec, contracts.FieldGrossProfit, contracts.FieldRevenue)
	m.OperatingMargin = ratio(rec, contracts.FieldOperatingProfit, contracts.FieldRevenue)
	m.NetMargin = ratio(rec, contracts.FieldNetProfit, contracts.FieldRevenue)
	m.DebtToEquity = ratio(rec, contracts.FieldTotalLiabilities, contracts.FieldTotalEquity)
	m.DebtToAssets = ratio(rec, contracts.FieldTotalLiabilities, contracts.FieldTotalAssets)
	m.AssetTurnover = ratio(rec, contracts.FieldRevenue, contracts.FieldTotalAssets)
	m.CurrentRatio = ratio(rec, contracts.FieldCurrentAssets, contracts.FieldCurrentLiabilities)
	m.QuickRatio = quickRatio(rec)
	m.WorkingCapital = difference(rec, contracts.FieldCurrentAssets, contracts.FieldCurrentLiabilities)

	switch profile.Kind {
	case contracts.KindBank, contracts.KindFinance:
		deriveBank(rec, m)
	case contracts.KindInsurance:
		deriveInsurance(rec, m)
	}

	m.ROEStatus = roeStatus(m.ROE)
	if hasNetProfit {
		m.ProfitStatus = profitStatus(netProfit)
	} else {
		m.ProfitStatus = contracts.StatusNA
	}
	m.LeverageStatus = leverageStatus(m.DebtToEquity)
	m.LiquidityStatus = liquidityStatus(m.CurrentRatio)

	return m
}

func deriveBank(rec *contracts.NormalizedFinancialRecord, m *contracts.DerivedMetrics) {
	// NIM over average earning assets when reported; total assets is
	// the documented approximation otherwise.
	if nim := ratio(rec, contracts.FieldNetInterestIncome, contracts.FieldAvgEarningAssets); nim != nil {
		m.NetInterestMargin = nim
	} else if nim := ratio(rec, contracts.FieldNetInterestIncome, contracts.FieldTotalAssets); nim != nil {
		m.NetInterestMargin = nim
		m.NIMApproximated = true
	}

	m.CostToIncome = ratio(rec, contracts.FieldOperatingExpenses, contracts.FieldTotalOperatingIncome)
	m.LoanToDeposit = ratio(rec, contracts.FieldTotalLoans, contracts.FieldTotalDeposits)
	m.NPLRatio = ratio(rec, contracts.FieldNonPerformingLoans, contracts.FieldTotalLoans)
}

func deriveInsurance(rec *contracts.NormalizedFinancialRecord, m *contracts.DerivedMetrics) {
	m.LossRatio = ratio(rec, contracts.FieldClaimsIncurred, contracts.FieldNetEarnedPremiums)
	m.ExpenseRatio = expenseRatio(rec)
	// Combined ratio exists only when both components do; a missing
	// side is not a zero.
	if m.LossRatio != nil && m.ExpenseRatio != nil {
		sum := m.LossRatio.Add(*m.ExpenseRatio)
		m.CombinedRatio = &sum
	}
	m.RetentionRatio = ratio(rec, contracts.FieldNetWrittenPremiums, contracts.FieldGrossWrittenPremiums)
}

// ratio divides two record fields, absent unless both are present and
// the denominator is non-zero.
func ratio(rec *contracts.NormalizedFinancialRecord, num, den contracts.Field) *decimal.Decimal {
	n, ok := rec.Get(num)
	if !ok {
		return nil
	}
	d, ok := rec.Get(den)
	if !ok || d.IsZero() {
		return nil
	}
	v := n.DivRound(d, ratioPrecision)
	return &v
}

// difference subtracts two record fields, absent unless both are present.
func difference(rec *contracts.NormalizedFinancialRecord, a, b contracts.Field) *decimal.Decimal {
	av, ok := rec.Get(a)
	if !ok {
		return nil
	}
	bv, ok := rec.Get(b)
	if !ok {
		return nil
	}
	v := av.Sub(bv)
	return &v
}

// quickRatio is (current_assets - inventory) / current_liabilities.
func quickRatio(rec *contracts.NormalizedFinancialRecord) *decimal.Decimal {
	ca, ok := rec.Get(contracts.FieldCurrentAssets)
	if !ok {
		return nil
	}
	inv, ok := rec.Get(contracts.FieldInventory)
	if !ok {
		return nil
	}
	cl, ok := rec.Get(contracts.FieldCurrentLiabilities)
	if !ok || cl.IsZero() {
		return nil
	}
	v := ca.Sub(inv).DivRound(cl, ratioPrecision)
	return &v
}

// expenseRatio is (policy_acquisition_costs + other_expenses) /
// net_earned_premiums.
func expenseRatio(rec *contracts.NormalizedFinancialRecord) *decimal.Decimal {
	acq, ok := rec.Get(contracts.FieldPolicyAcquisitionCosts)
	if !ok {
		return nil
	}
	other, ok := rec.Get(contracts.FieldOtherExpenses)
	if !ok {
		return nil
	}
	nep, ok := rec.Get(contracts.FieldNetEarnedPremiums)
	if !ok || nep.IsZero() {
		return nil
	}
	v := acq.Add(other).DivRound(nep, ratioPrecision)
	return &v
}
