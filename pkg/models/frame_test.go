package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTestFrame(t *testing.T, rows int) *Frame {
	t.Helper()

	frame := NewFrame(DefaultInterval)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		frame.Timestamps = append(frame.Timestamps, start.Add(time.Duration(i)*DefaultInterval))
	}

	demand := make([]float64, rows)
	solar := make([]float64, rows)
	for i := 0; i < rows; i++ {
		demand[i] = 100 + float64(i)
		solar[i] = float64(i % 7)
	}
	require.NoError(t, frame.AddColumn(FieldDemand, demand))
	require.NoError(t, frame.AddColumn(FieldSolar, solar))

	return frame
}

func TestFrameSeries(t *testing.T) {
	frame := makeTestFrame(t, 12)

	series, err := frame.Series(FieldDemand)
	require.NoError(t, err)
	assert.Equal(t, FieldDemand, series.Field)
	assert.Equal(t, DefaultUnit, series.Unit)
	assert.Equal(t, 12, series.Len())
	assert.Equal(t, frame.Timestamps[0], series.Start())
	assert.Equal(t, frame.Timestamps[11], series.End())
	assert.Equal(t, 105.0, series.Points[5].Value)
}

func TestFrameSeriesUnknownField(t *testing.T) {
	frame := makeTestFrame(t, 4)

	_, err := frame.Series("voltage")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "voltage")
	assert.Contains(t, err.Error(), FieldDemand)
}

func TestFrameAddColumn(t *testing.T) {
	frame := makeTestFrame(t, 4)

	err := frame.AddColumn(FieldDemand, []float64{1, 2, 3, 4})
	assert.Error(t, err, "duplicate column must be rejected")

	err = frame.AddColumn(FieldWind, []float64{1, 2})
	assert.Error(t, err, "length mismatch must be rejected")

	err = frame.AddColumn(FieldWind, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, []string{FieldDemand, FieldSolar, FieldWind}, frame.Fields)
}

func TestFrameMissingCount(t *testing.T) {
	frame := makeTestFrame(t, 6)
	frame.Values[FieldDemand][2] = math.NaN()
	frame.Values[FieldDemand][4] = math.NaN()

	assert.Equal(t, 2, frame.MissingCount(FieldDemand))
	assert.Equal(t, 0, frame.MissingCount(FieldSolar))
}

func TestFrameCopyIsDeep(t *testing.T) {
	frame := makeTestFrame(t, 5)

	clone := frame.Copy()
	clone.Values[FieldDemand][0] = -1
	clone.Timestamps[0] = clone.Timestamps[0].Add(time.Hour)

	assert.Equal(t, 100.0, frame.Values[FieldDemand][0])
	assert.NotEqual(t, frame.Timestamps[0], clone.Timestamps[0])
}

func TestTimeSeriesFutureTimestamps(t *testing.T) {
	frame := makeTestFrame(t, 3)
	series, err := frame.Series(FieldDemand)
	require.NoError(t, err)

	future := series.FutureTimestamps(2)
	require.Len(t, future, 2)
	assert.Equal(t, series.End().Add(DefaultInterval), future[0])
	assert.Equal(t, series.End().Add(2*DefaultInterval), future[1])
}

func TestTimeSeriesSliceIsCopy(t *testing.T) {
	frame := makeTestFrame(t, 8)
	series, err := frame.Series(FieldDemand)
	require.NoError(t, err)

	head := series.Slice(0, 4)
	head.Points[0].Value = -99

	assert.Equal(t, 100.0, series.Points[0].Value)
	assert.Equal(t, 4, head.Len())
	assert.Equal(t, series.Field, head.Field)
}

func TestTimeSeriesWithValues(t *testing.T) {
	frame := makeTestFrame(t, 4)
	series, err := frame.Series(FieldSolar)
	require.NoError(t, err)

	replaced := series.WithValues([]float64{9, 9, 9, 9})
	assert.Equal(t, []float64{9, 9, 9, 9}, replaced.Values())
	assert.NotEqual(t, series.Values(), replaced.Values())
	assert.Equal(t, series.Timestamps(), replaced.Timestamps())
}

func TestFrameWindow(t *testing.T) {
	frame := makeTestFrame(t, 12)
	start := frame.Start()

	w := frame.Window(start.Add(2*DefaultInterval), start.Add(5*DefaultInterval))
	require.Equal(t, 3, w.Len())
	assert.Equal(t, start.Add(2*DefaultInterval), w.Start())
	assert.Equal(t, []float64{102, 103, 104}, w.Values[FieldDemand])

	open := frame.Window(time.Time{}, time.Time{})
	assert.Equal(t, frame.Len(), open.Len())

	after := frame.Window(start.Add(100*DefaultInterval), time.Time{})
	assert.Zero(t, after.Len())
}
