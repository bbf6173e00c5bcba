package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gridseer/gridseer/pkg/models"
)

// makeWorkbook writes rows into the default sheet of a new workbook.
func makeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "readings.xlsx")
	f := excelize.NewFile()
	for r, cells := range rows {
		for c, cell := range cells {
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", axis, cell))
		}
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestLoadXLSX(t *testing.T) {
	path := makeWorkbook(t, [][]any{
		{"timestamp", "demand", "import"},
		{"2024-03-01 00:00:00", 620.5, 40.4},
		{"2024-03-01 00:05:00", 615.0, ""},
	})

	frame, err := LoadXLSX(path, testOptions())
	require.NoError(t, err)
	require.Equal(t, 2, frame.Len())
	assert.Equal(t, []string{models.FieldDemand, models.FieldImport}, frame.Fields)
	assert.InDelta(t, 620.5, frame.Values[models.FieldDemand][0], 1e-9)
	assert.Equal(t, 1, frame.MissingCount(models.FieldImport), "blank cell is missing")
}

func TestLoadXLSXMissingSheet(t *testing.T) {
	path := makeWorkbook(t, [][]any{
		{"timestamp", "demand", "import"},
		{"2024-03-01 00:00:00", 620.5, 40.4},
	})

	opts := testOptions()
	opts.Sheet = "Nope"
	_, err := LoadXLSX(path, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to read sheet "Nope"`)
}

func TestLoadXLSXHeaderRules(t *testing.T) {
	path := makeWorkbook(t, [][]any{
		{"timestamp", "demand"},
		{"2024-03-01 00:00:00", 620.5},
	})

	_, err := LoadXLSX(path, testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required column "import"`)
}
