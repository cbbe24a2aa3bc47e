// Package refdata loads the externally maintained reference tables the
// pipeline consumes: the institution-kind registry and the per-ticker
// unit-multiplier overrides. Both are read once at startup and injected
// into the stages that need them, keeping those stages pure.
package refdata

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tasi-labs/finpipe/internal/contracts"
)

// registryFile is the YAML shape of the institution registry.
type registryFile struct {
	Institutions []registryEntry `yaml:"institutions"`
}

type registryEntry struct {
	Ticker string `yaml:"ticker"`
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
}

// Registry maps tickers to institution kinds. Tickers absent from the
// registry are standard companies.
type Registry struct {
	entries map[string]contracts.InstitutionProfile
}

// LoadRegistry reads and validates the institution registry.
// Unknown YAML fields fail immediately so typos in the maintained file
// surface at startup, not as silent misclassification.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}

	var f registryFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}

	entries := make(map[string]contracts.InstitutionProfile, len(f.Institutions))
	for _, e := range f.Institutions {
		kind := contracts.InstitutionKind(e.Kind)
		if !kind.Valid() {
			return nil, fmt.Errorf("registry entry %s: unknown kind %q", e.Ticker, e.Kind)
		}
		if e.Ticker == "" {
			return nil, fmt.Errorf("registry entry with empty ticker (name %q)", e.Name)
		}
		if _, dup := entries[e.Ticker]; dup {
			return nil, fmt.Errorf("registry entry %s: duplicate ticker", e.Ticker)
		}
		entries[e.Ticker] = buildProfile(e.Ticker, e.Name, kind)
	}

	return &Registry{entries: entries}, nil
}

// NewRegistry builds a registry from in-memory assignments. Used by
// tests and by callers that manage the table themselves.
func NewRegistry(kinds map[string]contracts.InstitutionKind) *Registry {
	entries := make(map[string]contracts.InstitutionProfile, len(kinds))
	for ticker, kind := range kinds {
		entries[ticker] = buildProfile(ticker, "", kind)
	}
	return &Registry{entries: entries}
}

// Lookup returns the profile for a ticker. Unregistered tickers get a
// standard-company profile.
func (r *Registry) Lookup(ticker string) contracts.InstitutionProfile {
	if p, ok := r.entries[ticker]; ok {
		return p
	}
	return buildProfile(ticker, "", contracts.KindStandard)
}

// Len returns the number of registered tickers.
func (r *Registry) Len() int {
	return len(r.entries)
}

// buildProfile fixes the primary income field and required-field set
// for each institution kind. A bank is never penalized for a missing
// revenue line because revenue is not in its required set.
func buildProfile(ticker, name string, kind contracts.InstitutionKind) contracts.InstitutionProfile {
	p := contracts.InstitutionProfile{
		Ticker: ticker,
		Name:   name,
		Kind:   kind,
	}

	common := []contracts.Field{
		contracts.FieldNetProfit,
		contracts.FieldTotalAssets,
		contracts.FieldTotalLiabilities,
		contracts.FieldTotalEquity,
	}

	switch kind {
	case contracts.KindBank:
		p.PrimaryIncomeField = contracts.FieldNetInterestIncome
		p.RequiredFields = append([]contracts.Field{contracts.FieldNetInterestIncome}, common...)
	case contracts.KindInsurance:
		p.PrimaryIncomeField = contracts.FieldGrossWrittenPremiums
		p.RequiredFields = append([]contracts.Field{contracts.FieldGrossWrittenPremiums}, common...)
	case contracts.KindFinance:
		// Finance companies report either net interest income or
		// revenue; neither alone is required.
		p.PrimaryIncomeField = contracts.FieldNetInterestIncome
		p.RequiredFields = common
	default:
		p.PrimaryIncomeField = contracts.FieldRevenue
		p.RequiredFields = append([]contracts.Field{contracts.FieldRevenue}, common...)
	}

	return p
}
