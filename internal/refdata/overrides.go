package refdata

import (
	"bytes"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/tasi-labs/finpipe/internal/contracts"
)

// overridesFile is the YAML shape of the unit-multiplier overrides.
type overridesFile struct {
	Overrides []overrideEntry `yaml:"overrides"`
}

type overrideEntry struct {
	Ticker  string `yaml:"ticker"`
	Company string `yaml:"company"`
	Unit    string `yaml:"unit"`
}

// Override records a ticker's known reporting unit, established out of
// band from published figures.
type Override struct {
	Unit       contracts.ReportedUnit
	Multiplier decimal.Decimal
}

// UnitOverrides maps tickers to known canonical scales. Tickers in this
// table skip unit inference entirely.
type UnitOverrides struct {
	entries map[string]Override
}

// LoadUnitOverrides reads and validates the override table.
func LoadUnitOverrides(path string) (*UnitOverrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read unit overrides: %w", err)
	}

	var f overridesFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode unit overrides: %w", err)
	}

	entries := make(map[string]Override, len(f.Overrides))
	for _, e := range f.Overrides {
		unit := contracts.ReportedUnit(e.Unit)
		mult := unit.Multiplier()
		if mult.IsZero() {
			return nil, fmt.Errorf("override %s: unknown unit %q", e.Ticker, e.Unit)
		}
		if _, dup := entries[e.Ticker]; dup {
			return nil, fmt.Errorf("override %s: duplicate ticker", e.Ticker)
		}
		entries[e.Ticker] = Override{Unit: unit, Multiplier: mult}
	}

	return &UnitOverrides{entries: entries}, nil
}

// NewUnitOverrides builds an override table from in-memory assignments.
func NewUnitOverrides(units map[string]contracts.ReportedUnit) *UnitOverrides {
	entries := make(map[string]Override, len(units))
	for ticker, unit := range units {
		entries[ticker] = Override{Unit: unit, Multiplier: unit.Multiplier()}
	}
	return &UnitOverrides{entries: entries}
}

// Lookup returns the override for a ticker, if one is maintained.
func (o *UnitOverrides) Lookup(ticker string) (Override, bool) {
	ov, ok := o.entries[ticker]
	return ov, ok
}

// Len returns the number of overridden tickers.
func (o *UnitOverrides) Len() int {
	return len(o.entries)
}
