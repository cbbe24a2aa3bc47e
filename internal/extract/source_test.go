package extract

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasi-labs/finpipe/internal/contracts"
)

func writeBatch(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadBatch(t *testing.T) {
	path := writeBatch(t, `[
		{
			"metadata": {
				"ticker": "1010",
				"fiscal_year": 2024,
				"period_hint": "FY",
				"stated_unit": "thousands",
				"source_file": "1010_fy2024.xlsx",
				"extraction_date": "2024-11-01T08:00:00Z"
			},
			"table": {
				"rows": {
					"Total Assets": {"FY2024": "450000000"}
				}
			}
		}
	]`)

	items, err := ReadBatch(path)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "1010", items[0].Meta.Ticker)
	assert.Equal(t, contracts.FY, items[0].Meta.PeriodHint)
	assert.Equal(t, contracts.UnitThousands, items[0].Meta.StatedUnit)
	assert.Equal(t, time.Date(2024, 11, 1, 8, 0, 0, 0, time.UTC), items[0].Meta.ExtractionDate)
}

func TestReadBatch_InvalidPeriodHint(t *testing.T) {
	path := writeBatch(t, `[
		{"metadata": {"ticker": "1010", "fiscal_year": 2024, "period_hint": "Q5"}, "table": {"rows": {}}}
	]`)

	_, err := ReadBatch(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid period hint")
}

func TestReadBatch_MissingTicker(t *testing.T) {
	path := writeBatch(t, `[
		{"metadata": {"fiscal_year": 2024, "period_hint": "FY"}, "table": {"rows": {}}}
	]`)

	_, err := ReadBatch(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing ticker")
}
