package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridseer/gridseer/internal/report"
)

func TestForecastWritesArtifacts(t *testing.T) {
	input := writeReadingsCSV(t, 48, 12)
	outDir := filepath.Join(t.TempDir(), "out")

	cmd := NewForecastCmd()
	require.NoError(t, execute(t, cmd,
		"-i", input, "-o", outDir,
		"--series", "demand",
		"--methods", "drift,ses",
		"--horizon", "6", "--holdout", "6"))

	content, err := os.ReadFile(filepath.Join(outDir, "forecast.json"))
	require.NoError(t, err)
	var r report.Report
	require.NoError(t, json.Unmarshal(content, &r))

	require.Len(t, r.Targets, 1)
	target := r.Targets[0]
	assert.Equal(t, "demand", target.Field)
	require.NotNil(t, target.Comparison)
	assert.Equal(t, 6, target.Comparison.TestLen)
	require.Len(t, target.Comparison.Scores, 2)
	assert.Contains(t, []string{"drift", "ses"}, target.Comparison.Best)
	require.NotNil(t, target.Forecast)
	assert.Equal(t, target.Comparison.Best, target.Forecast.Method)
	assert.Len(t, target.Forecast.Points, 6)
	require.NotNil(t, target.Residuals)
	assert.Positive(t, target.Residuals.Lags)
	assert.GreaterOrEqual(t, target.Residuals.PValue, 0.0)
	assert.LessOrEqual(t, target.Residuals.PValue, 1.0)

	records := readCSVFile(t, filepath.Join(outDir, "demand_forecast.csv"))
	require.Len(t, records, 1+6, "header plus one row per forecast step")
	assert.Equal(t, []string{"timestamp", "value", "lower", "upper"}, records[0])
	assert.Equal(t, "2024-03-01T04:00:00Z", records[1][0], "timestamps continue the 5-minute grid")
	assert.NotEmpty(t, records[1][2])
	assert.NotEmpty(t, records[1][3])

	html, err := os.ReadFile(filepath.Join(outDir, "forecast.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "demand forecast")
}

func TestForecastStaticCharts(t *testing.T) {
	input := writeReadingsCSV(t, 48, 12)
	outDir := filepath.Join(t.TempDir(), "out")

	cmd := NewForecastCmd()
	require.NoError(t, execute(t, cmd,
		"-i", input, "-o", outDir,
		"--series", "import",
		"--methods", "drift",
		"--horizon", "6", "--holdout", "6",
		"--chart-format", "png"))

	info, err := os.Stat(filepath.Join(outDir, "import_forecast.png"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	_, err = os.Stat(filepath.Join(outDir, "forecast.html"))
	assert.True(t, os.IsNotExist(err), "no HTML page in png mode")
}

func TestForecastNoOutputDir(t *testing.T) {
	input := writeReadingsCSV(t, 48, 12)

	cmd := NewForecastCmd()
	require.NoError(t, execute(t, cmd,
		"-i", input,
		"--series", "demand",
		"--methods", "drift",
		"--horizon", "6", "--holdout", "6"))
}

func TestForecastUnknownMetric(t *testing.T) {
	input := writeReadingsCSV(t, 48, 12)

	cmd := NewForecastCmd()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := execute(t, cmd,
		"-i", input, "--series", "demand", "--methods", "drift",
		"--horizon", "6", "--holdout", "6", "--metric", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown accuracy metric "wrong"`)
}

func TestForecastUnknownMethod(t *testing.T) {
	input := writeReadingsCSV(t, 48, 12)

	cmd := NewForecastCmd()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := execute(t, cmd,
		"-i", input, "--series", "demand", "--methods", "warp",
		"--horizon", "6", "--holdout", "6")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown forecasting method "warp"`)
}
