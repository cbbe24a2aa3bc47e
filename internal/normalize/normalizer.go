// Package normalize rescales raw financial records to the canonical
// unit (full SAR). Filings report in raw SAR, thousands, or millions,
// often without saying which, so the applied multiplier carries a
// confidence grade that the validator folds into its score. A wrong
// guess here is bounded, not fatal: the balance-sheet identity check
// downstream is the second line of defense against a 1000x scale slip.
package normalize

import (
	"github.com/shopspring/decimal"

	"github.com/tasi-labs/finpipe/internal/contracts"
	"github.com/tasi-labs/finpipe/internal/refdata"
)

// Plausible band for a listed company's total assets in full SAR.
// The smallest TASI issuers hold on the order of a hundred million;
// the largest a few trillion. A candidate scale whose product falls
// outside this band is not credible.
var (
	assetsFloor   = decimal.NewFromInt(100_000_000)
	assetsCeiling = decimal.NewFromInt(5_000_000_000_000)
)

// candidateMultipliers are the scales filings are known to use.
var candidateMultipliers = []decimal.Decimal{
	decimal.NewFromInt(1),
	decimal.NewFromInt(1_000),
	decimal.NewFromInt(1_000_000),
}

// Normalizer converts records to canonical scale using the maintained
// override table first and magnitude inference second.
type Normalizer struct {
	overrides *refdata.UnitOverrides
}

// New creates a Normalizer. overrides may be empty but not nil.
func New(overrides *refdata.UnitOverrides) *Normalizer {
	return &Normalizer{overrides: overrides}
}

// Normalize produces a normalized copy of raw. The input record is
// never mutated.
//
// Detection policy:
//   - Ticker in the override table → override multiplier, Certain.
//   - Unit stated in the filing and the scaled total_assets magnitude
//     is plausible → stated multiplier, Certain. Stated but actively
//     implausible → stated multiplier kept, graded Ambiguous. Stated
//     with nothing to check against → Inferred.
//   - Unit unstated → infer from total_assets magnitude. Exactly one
//     candidate scale lands in the plausible band → Inferred.
//     Borderline (zero or several candidates fit) → multiplier 1,
//     Ambiguous; no guessing.
func (n *Normalizer) Normalize(raw *contracts.RawFinancialRecord) *contracts.NormalizedFinancialRecord {
	multiplier, confidence := n.detect(raw)

	fields := make(map[contracts.Field]decimal.Decimal, len(raw.Fields))
	for f, v := range raw.Fields {
		if f.Monetary() {
			fields[f] = v.Mul(multiplier)
		} else {
			fields[f] = v
		}
	}

	out := &contracts.NormalizedFinancialRecord{
		RawFinancialRecord: *raw,
		Multiplier:         multiplier,
		UnitConfidence:     confidence,
	}
	out.Fields = fields
	return out
}

func (n *Normalizer) detect(raw *contracts.RawFinancialRecord) (decimal.Decimal, contracts.UnitConfidence) {
	if ov, ok := n.overrides.Lookup(raw.Ticker); ok {
		return ov.Multiplier, contracts.UnitCertain
	}

	assets, hasAssets := raw.Get(contracts.FieldTotalAssets)

	if raw.ReportedUnit != contracts.UnitUnknown {
		mult := raw.ReportedUnit.Multiplier()
		if !hasAssets || assets.IsZero() {
			return mult, contracts.UnitInferred
		}
		if plausibleAssets(assets.Mul(mult)) {
			return mult, contracts.UnitCertain
		}
		// Stated unit contradicts the magnitude; keep the statement
		// but flag it for the validator.
		return mult, contracts.UnitAmbiguous
	}

	if !hasAssets || assets.IsZero() {
		return decimal.NewFromInt(1), contracts.UnitAmbiguous
	}

	var fits []decimal.Decimal
	for _, mult := range candidateMultipliers {
		if plausibleAssets(assets.Mul(mult)) {
			fits = append(fits, mult)
		}
	}
	if len(fits) == 1 {
		return fits[0], contracts.UnitInferred
	}
	return decimal.NewFromInt(1), contracts.UnitAmbiguous
}

func plausibleAssets(v decimal.Decimal) bool {
	return v.GreaterThanOrEqual(assetsFloor) && v.LessThanOrEqual(assetsCeiling)
}
