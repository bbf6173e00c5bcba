package visualization

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridseer/gridseer/internal/forecast"
	"github.com/gridseer/gridseer/pkg/models"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func requirePNG(t *testing.T, path string) {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(content), len(pngMagic))
	assert.Equal(t, pngMagic, content[:len(pngMagic)])
}

func TestSeriesPNG(t *testing.T) {
	frame := chartFrame(t)
	path := filepath.Join(t.TempDir(), "series.png")

	require.NoError(t, SeriesPNG(frame, path))
	requirePNG(t, path)
}

func TestSeriesPNGEmptyFrame(t *testing.T) {
	err := SeriesPNG(models.NewFrame(models.DefaultInterval), filepath.Join(t.TempDir(), "series.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty frame")
}

func TestForecastPNG(t *testing.T) {
	frame := chartFrame(t)
	history, err := frame.Series(models.FieldDemand)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "forecast.png")

	result := &forecast.Result{
		Method: "sma",
		Points: []float64{101, 101, 101},
		Lower:  []float64{99, 99, 99},
		Upper:  []float64{103, 103, 103},
	}
	require.NoError(t, ForecastPNG(models.FieldDemand, history, result, path))
	requirePNG(t, path)
}

func TestForecastPNGBadPath(t *testing.T) {
	frame := chartFrame(t)
	history, err := frame.Series(models.FieldDemand)
	require.NoError(t, err)

	result := &forecast.Result{
		Method: "sma",
		Points: []float64{101},
		Lower:  []float64{99},
		Upper:  []float64{103},
	}
	err = ForecastPNG(models.FieldDemand, history, result, filepath.Join(t.TempDir(), "missing", "forecast.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save")
}
