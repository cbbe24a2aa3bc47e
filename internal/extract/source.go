package extract

import (
	"encoding/json"
	"fmt"
	"os"
)

// BatchItem pairs one source table with its sidecar metadata. The file
// parsing layer (CSV/Excel mechanics live outside this module) emits
// batches of these as JSON.
type BatchItem struct {
	Meta  Metadata    `json:"metadata"`
	Table SourceTable `json:"table"`
}

// ReadBatch loads a JSON batch file of extracted source tables.
func ReadBatch(path string) ([]BatchItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}

	var items []BatchItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode batch file %s: %w", path, err)
	}

	for i, item := range items {
		if item.Meta.Ticker == "" {
			return nil, fmt.Errorf("batch item %d: missing ticker", i)
		}
		if !item.Meta.PeriodHint.Valid() {
			return nil, fmt.Errorf("batch item %d (%s): invalid period hint %q",
				i, item.Meta.Ticker, item.Meta.PeriodHint)
		}
	}

	return items, nil
}
