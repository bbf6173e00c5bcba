package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonalNaive(t *testing.T) {
	pattern := []float64{10, -5, -3, -2}
	values := tiledSeries(20, 100, pattern)
	cfg := Config{SeasonalPeriods: []int{4}}

	r, err := (&seasonalNaive{}).Forecast(values, 6, cfg)
	require.NoError(t, err)
	require.Len(t, r.Points, 6)
	assert.InDelta(t, 4, r.Params["period"], 1e-12)
	for h := 0; h < 6; h++ {
		assert.InDelta(t, 100+pattern[h%4], r.Points[h], 1e-9, "step %d", h)
	}

	for i := 0; i < 4; i++ {
		assert.True(t, math.IsNaN(r.Fitted[i]), "warmup fit at %d", i)
	}
	assert.InDelta(t, values[0], r.Fitted[4], 1e-9)

	// A perfectly repeating series fits exactly, so the intervals collapse.
	assert.InDelta(t, r.Points[0], r.Lower[0], 1e-9)
	assert.InDelta(t, r.Points[0], r.Upper[0], 1e-9)
}

func TestSeasonalNaivePicksLongestPeriod(t *testing.T) {
	values := tiledSeries(40, 100, []float64{10, -5, -3, -2})
	r, err := (&seasonalNaive{}).Forecast(values, 2, Config{SeasonalPeriods: []int{4, 8}})
	require.NoError(t, err)
	assert.InDelta(t, 8, r.Params["period"], 1e-12)
}

func TestSeasonalNaiveNoPeriodFits(t *testing.T) {
	values := tiledSeries(20, 100, []float64{10, -5, -3, -2})
	_, err := (&seasonalNaive{}).Forecast(values, 2, Config{SeasonalPeriods: []int{12}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no configured seasonal period")
}

func TestDriftExtendsTheLine(t *testing.T) {
	values := lineSeries(30, 5, 0.5)

	r, err := (&drift{}).Forecast(values, 5, DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, r.Params["slope"], 1e-12)
	for h := 0; h < 5; h++ {
		assert.InDelta(t, values[29]+0.5*float64(h+1), r.Points[h], 1e-9, "step %d", h)
	}
	assert.True(t, math.IsNaN(r.Fitted[0]))
	assert.InDelta(t, values[10], r.Fitted[10], 1e-9)
}

func TestMovingAverage(t *testing.T) {
	values := lineSeries(10, 1, 1) // 1..10

	r, err := (&movingAverage{}).Forecast(values, 3, Config{Window: 2})
	require.NoError(t, err)
	assert.InDelta(t, 2, r.Params["window"], 1e-12)
	for h := 0; h < 3; h++ {
		assert.InDelta(t, 9.5, r.Points[h], 1e-9, "step %d", h)
	}
	assert.True(t, math.IsNaN(r.Fitted[1]))
	assert.InDelta(t, 1.5, r.Fitted[2], 1e-9)
	assert.InDelta(t, 8.5, r.Fitted[9], 1e-9)
}

func TestMovingAverageWindowTooLarge(t *testing.T) {
	_, err := (&movingAverage{}).Forecast(lineSeries(4, 1, 1), 2, Config{Window: 4})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window 4")
}

func TestSimpleSmoothingHoldsTheLevel(t *testing.T) {
	values := tiledSeries(12, 7, []float64{0})

	r, err := (&simpleSmoothing{}).Forecast(values, 4, Config{Alpha: 0.3})
	require.NoError(t, err)
	assert.InDelta(t, 0.3, r.Params["alpha"], 1e-12)
	for h := 0; h < 4; h++ {
		assert.InDelta(t, 7, r.Points[h], 1e-9, "step %d", h)
	}
}

func TestSimpleSmoothingGridSearch(t *testing.T) {
	// Alternating noise around a stable level favors a small alpha.
	values := tiledSeries(40, 50, []float64{2, -2})

	r, err := (&simpleSmoothing{}).Forecast(values, 1, Config{})
	require.NoError(t, err)
	assert.Less(t, r.Params["alpha"], 0.5)
	assert.InDelta(t, 50, r.Points[0], 1.5)
}

func TestHoltTracksALinearTrend(t *testing.T) {
	values := lineSeries(20, 10, 2)

	r, err := (&holt{}).Forecast(values, 3, Config{})
	require.NoError(t, err)
	for h := 0; h < 3; h++ {
		assert.InDelta(t, values[19]+2*float64(h+1), r.Points[h], 1e-6, "step %d", h)
	}
	// Exact fits collapse the intervals.
	assert.InDelta(t, r.Points[2], r.Lower[2], 1e-6)
}

func TestHoltDampedTrend(t *testing.T) {
	values := lineSeries(20, 10, 2)

	r, err := (&holt{}).Forecast(values, 10, Config{DampedTrend: true})
	require.NoError(t, err)
	assert.InDelta(t, 0.98, r.Params["phi"], 1e-12)
	assert.Less(t, r.Points[9], values[19]+2*10, "damping pulls below the straight line")
	assert.Greater(t, r.Points[9], values[19])
}

func TestHoltWintersAdditiveSeasonal(t *testing.T) {
	pattern := []float64{5, -2, -3, 0}
	values := tiledSeries(24, 100, pattern)
	cfg := Config{SeasonalPeriods: []int{4}}

	r, err := (&holtWinters{}).Forecast(values, 8, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 4, r.Params["period"], 1e-12)
	for h := 0; h < 8; h++ {
		assert.InDelta(t, 100+pattern[h%4], r.Points[h], 1e-6, "step %d", h)
	}

	for i := 0; i < 4; i++ {
		assert.True(t, math.IsNaN(r.Fitted[i]), "warmup fit at %d", i)
	}
	assert.InDelta(t, values[4], r.Fitted[4], 1e-6)
}

func TestHoltWintersPicksShortestPeriod(t *testing.T) {
	values := tiledSeries(40, 100, []float64{5, -2, -3, 0})
	r, err := (&holtWinters{}).Forecast(values, 2, Config{SeasonalPeriods: []int{8, 4}})
	require.NoError(t, err)
	assert.InDelta(t, 4, r.Params["period"], 1e-12)
}

func TestArimaExtendsALinearTrend(t *testing.T) {
	values := lineSeries(60, 5, 0.5)

	r, err := (&arima{}).Forecast(values, 5, DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, 1, r.Params["d"], 1e-12, "one difference makes a line stationary")
	for h := 0; h < 5; h++ {
		assert.InDelta(t, values[59]+0.5*float64(h+1), r.Points[h], 1e-6, "step %d", h)
	}
}

func TestArimaFlatSeries(t *testing.T) {
	values := tiledSeries(40, 7.5, []float64{0})

	r, err := (&arima{}).Forecast(values, 4, DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, 0, r.Params["d"], 1e-12)
	for h := 0; h < 4; h++ {
		assert.InDelta(t, 7.5, r.Points[h], 1e-9, "step %d", h)
	}
}

func TestArimaStationaryOscillation(t *testing.T) {
	values := make([]float64, 80)
	for i := range values {
		values[i] = 50 + 10*math.Sin(2*math.Pi*float64(i)/10)
	}

	r, err := (&arima{}).Forecast(values, 6, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, r.Points, 6)
	for h, v := range r.Points {
		assert.False(t, math.IsNaN(v), "step %d", h)
		assert.InDelta(t, 50, v, 25, "step %d stays in the series' range", h)
	}
	assert.LessOrEqual(t, r.Params["p"], 3.0)
	assert.LessOrEqual(t, r.Params["q"], 2.0)
}

func TestArimaNeedsEnoughData(t *testing.T) {
	_, err := (&arima{}).Forecast(lineSeries(20, 0, 1), 4, DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 30 points")
}

func TestSTLSeasonalForecast(t *testing.T) {
	fast := []float64{4, -1, -2, -1}
	slow := []float64{3, 1, -1, -3, -3, -1, 1, 3}
	n := 84
	values := make([]float64, n)
	for i := range values {
		values[i] = 50 + fast[i%4] + slow[i%8]
	}
	cfg := Config{SeasonalPeriods: []int{4, 8}}

	r, err := (&stl{}).Forecast(values, 12, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 2, r.Params["periods"], 1e-12)
	for h := 0; h < 12; h++ {
		want := 50 + fast[(n+h)%4] + slow[(n+h)%8]
		assert.InDelta(t, want, r.Points[h], 1e-6, "step %d", h)
	}
}

func TestSTLRequiresASeasonalPeriod(t *testing.T) {
	_, err := (&stl{}).Forecast(lineSeries(50, 0, 1), 4, Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no configured seasonal period")
}

func BenchmarkHoltWintersGrid(b *testing.B) {
	values := make([]float64, 4*288) // four days of 5-minute readings
	for i := range values {
		values[i] = 500 + 80*math.Sin(2*math.Pi*float64(i)/288)
	}
	cfg := Config{SeasonalPeriods: []int{288}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := (&holtWinters{}).Forecast(values, 288, cfg); err != nil {
			b.Fatal(err)
		}
	}
}
