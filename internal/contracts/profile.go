package contracts

import "github.com/shopspring/decimal"

// InstitutionKind classifies a company by how it reports income.
// Kind is a property of the company, assigned once at onboarding from
// the registry, not inferred per filing.
type InstitutionKind string

const (
	KindStandard  InstitutionKind = "standard"
	KindBank      InstitutionKind = "bank"
	KindInsurance InstitutionKind = "insurance"
	KindFinance   InstitutionKind = "finance"
)

// Valid reports whether k is a known institution kind.
func (k InstitutionKind) Valid() bool {
	switch k {
	case KindStandard, KindBank, KindInsurance, KindFinance:
		return true
	}
	return false
}

// InstitutionProfile describes how a ticker's filings should be read:
// which metric substitutes for revenue and which fields the validator
// may penalize when missing.
type InstitutionProfile struct {
	Ticker             string          `json:"ticker"`
	Name               string          `json:"name,omitempty"`
	Kind               InstitutionKind `json:"kind"`
	PrimaryIncomeField Field           `json:"primary_income_field"`
	RequiredFields     []Field         `json:"required_fields"`
}

// Requires reports whether f is in the profile's required set.
func (p *InstitutionProfile) Requires(f Field) bool {
	for _, rf := range p.RequiredFields {
		if rf == f {
			return true
		}
	}
	return false
}

// PrimaryIncome resolves the record value that stands in for revenue
// for this kind. Finance companies fall back to revenue when no net
// interest income is reported.
func (p *InstitutionProfile) PrimaryIncome(rec *NormalizedFinancialRecord) (decimal.Decimal, bool) {
	if v, ok := rec.Get(p.PrimaryIncomeField); ok {
		return v, true
	}
	if p.Kind == KindFinance {
		return rec.Get(FieldRevenue)
	}
	return decimal.Zero, false
}
