// Package classify tags records with an institution profile. The kind
// of a company (bank, insurer, finance, standard) is a property of the
// ticker held in an externally maintained registry, never inferred
// from which fields a particular filing happens to contain.
package classify

import (
	"github.com/tasi-labs/finpipe/internal/contracts"
	"github.com/tasi-labs/finpipe/internal/refdata"
)

// Classifier resolves ticker → InstitutionProfile from the injected
// registry. Profiles are assigned once per ticker and only change on
// corporate restructuring, which is a registry edit, not a code path.
type Classifier struct {
	registry *refdata.Registry
}

// New creates a Classifier backed by the given registry.
func New(registry *refdata.Registry) *Classifier {
	return &Classifier{registry: registry}
}

// Classify returns the institution profile for a ticker. Tickers not
// in the registry are standard companies.
func (c *Classifier) Classify(ticker string) contracts.InstitutionProfile {
	return c.registry.Lookup(ticker)
}
