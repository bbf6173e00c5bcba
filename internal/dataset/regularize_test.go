package dataset

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridseer/gridseer/pkg/models"
)

// manualFrame builds a demand+import frame from parallel slices.
func manualFrame(t *testing.T, stamps []time.Time, demand, imp []float64) *models.Frame {
	t.Helper()
	frame := models.NewFrame(models.DefaultInterval)
	frame.Timestamps = append(frame.Timestamps, stamps...)
	require.NoError(t, frame.AddColumn(models.FieldDemand, demand))
	require.NoError(t, frame.AddColumn(models.FieldImport, imp))
	return frame
}

func at(minutes int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
}

func TestRegularizeSortsDedupesAndFillsGaps(t *testing.T) {
	// Out of order, one duplicated timestamp, one missing grid row.
	frame := manualFrame(t,
		[]time.Time{at(5), at(0), at(5), at(15)},
		[]float64{610, 620, 615, 600},
		[]float64{41, 40, 42, 43},
	)

	out, err := Regularize(frame, testOptions())
	require.NoError(t, err)
	require.Equal(t, 4, out.Len())
	assert.Equal(t, models.DefaultInterval, out.Interval)

	for i, want := range []time.Time{at(0), at(5), at(10), at(15)} {
		assert.True(t, out.Timestamps[i].Equal(want), "row %d", i)
	}
	assert.InDelta(t, 615, out.Values[models.FieldDemand][1], 1e-9, "duplicate keeps the last reading")
	assert.True(t, math.IsNaN(out.Values[models.FieldDemand][2]), "gap row is missing")
	assert.InDelta(t, 600, out.Values[models.FieldDemand][3], 1e-9)

	// The input frame is untouched.
	assert.Equal(t, 4, frame.Len())
	assert.InDelta(t, 610, frame.Values[models.FieldDemand][0], 1e-9)
}

func TestRegularizeInfersInterval(t *testing.T) {
	frame := manualFrame(t,
		[]time.Time{at(0), at(10), at(20)},
		[]float64{1, 2, 3},
		[]float64{4, 5, 6},
	)

	out, err := Regularize(frame, testOptions())
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, out.Interval)
	assert.Equal(t, 3, out.Len())
}

func TestRegularizeOffGridReading(t *testing.T) {
	frame := manualFrame(t,
		[]time.Time{at(0), at(5), at(7)},
		[]float64{1, 2, 3},
		[]float64{4, 5, 6},
	)

	opts := testOptions()
	opts.Interval = 5 * time.Minute
	_, err := Regularize(frame, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not on the 5m0s grid")
}

func TestRegularizeGapTooLarge(t *testing.T) {
	frame := manualFrame(t,
		[]time.Time{at(0), at(5), at(25)},
		[]float64{1, 2, 3},
		[]float64{4, 5, 6},
	)

	opts := testOptions()
	opts.MaxGap = 10 * time.Minute
	_, err := Regularize(frame, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds the maximum")
}

func TestRegularizeTooFewRows(t *testing.T) {
	_, err := Regularize(models.NewFrame(models.DefaultInterval), testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")

	frame := manualFrame(t, []time.Time{at(0)}, []float64{1}, []float64{2})
	_, err = Regularize(frame, testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single row")
}

func TestInterpolate(t *testing.T) {
	nan := math.NaN()
	frame := manualFrame(t,
		[]time.Time{at(0), at(5), at(10), at(15), at(20), at(25)},
		[]float64{nan, 2, nan, nan, 8, nan},
		[]float64{1, 1, 1, 1, 1, 1},
	)

	report, err := Interpolate(frame, testOptions())
	require.NoError(t, err)
	assert.Equal(t, 4, report[models.FieldDemand])
	assert.Equal(t, 0, report[models.FieldImport])
	assert.Equal(t, 4, report.Total())

	want := []float64{2, 2, 4, 6, 8, 8}
	for i, v := range want {
		assert.InDelta(t, v, frame.Values[models.FieldDemand][i], 1e-9, "row %d", i)
	}
	assert.Equal(t, 0, frame.MissingCount(models.FieldDemand))
}

func TestInterpolateAllMissingColumn(t *testing.T) {
	nan := math.NaN()
	frame := manualFrame(t,
		[]time.Time{at(0), at(5)},
		[]float64{nan, nan},
		[]float64{1, 2},
	)

	_, err := Interpolate(frame, testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no numeric readings")
}
