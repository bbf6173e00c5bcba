package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridseer/gridseer/internal/report"
	"github.com/gridseer/gridseer/pkg/models"
)

// TestReportFullRun drives the whole pipeline on two days of synthetic
// readings with a clear daily cycle. The holdout leaves two full daily
// periods of training data so every registered method gets a fair shot.
func TestReportFullRun(t *testing.T) {
	input := writeReadingsCSV(t, 600, models.PointsPerDay)
	outDir := filepath.Join(t.TempDir(), "out")

	cmd := NewReportCmd()
	require.NoError(t, execute(t, cmd,
		"-i", input, "-o", outDir,
		"--series", "demand",
		"--holdout", "24", "--horizon", "12",
		"--png"))

	content, err := os.ReadFile(filepath.Join(outDir, "report.json"))
	require.NoError(t, err)
	var r report.Report
	require.NoError(t, json.Unmarshal(content, &r))

	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, 600, r.Rows)
	assert.Equal(t, "5m0s", r.Interval)
	require.Len(t, r.Fields, 6)
	require.NotNil(t, r.Cleaning)

	require.Len(t, r.Seasonality, 1)
	assert.Equal(t, "demand", r.Seasonality[0].Field)
	require.NotEmpty(t, r.Seasonality[0].Periods, "the daily cycle is detected")
	assert.Equal(t, models.PointsPerDay, r.Seasonality[0].Periods[0].Period)

	require.Len(t, r.Targets, 1)
	target := r.Targets[0]
	assert.Equal(t, "demand", target.Field)
	require.NotNil(t, target.Comparison)
	assert.Equal(t, 24, target.Comparison.TestLen)
	assert.NotEmpty(t, target.Comparison.Scores)
	assert.NotEmpty(t, target.Comparison.Best)
	require.NotNil(t, target.Forecast)
	assert.Len(t, target.Forecast.Points, 12)

	html, err := os.ReadFile(filepath.Join(outDir, "report.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "gridseer run "+r.RunID)
	assert.Contains(t, string(html), "demand forecast")

	records := readCSVFile(t, filepath.Join(outDir, "demand_forecast.csv"))
	assert.Len(t, records, 1+12)

	for _, png := range []string{"demand_forecast.png", "overview.png"} {
		info, err := os.Stat(filepath.Join(outDir, png))
		require.NoError(t, err, png)
		assert.Positive(t, info.Size(), png)
	}
}

func TestReportUnknownSeries(t *testing.T) {
	input := writeReadingsCSV(t, 48, 12)

	cmd := NewReportCmd()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := execute(t, cmd, "-i", input, "-o", t.TempDir(), "--series", "voltage")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown field "voltage"`)
}
