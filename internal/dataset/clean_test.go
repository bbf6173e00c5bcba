package dataset

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridseer/gridseer/pkg/models"
)

func TestClean(t *testing.T) {
	stamps := make([]time.Time, 8)
	for i := range stamps {
		stamps[i] = at(5 * i)
	}
	frame := manualFrame(t, stamps,
		[]float64{10, 12, 11, 13, 12, 11, 10, 100}, // one spike
		[]float64{40, 40, 40, 40, 40, 40, 40, 40},
	)

	cleaned, result, err := Clean(frame, 1.5, testOptions())
	require.NoError(t, err)
	assert.InDelta(t, 1.5, result.Multiplier, 1e-12)

	demand := result.Fields[models.FieldDemand]
	assert.Equal(t, 1, demand.ClippedHigh)
	assert.Equal(t, 0, demand.ClippedLow)
	assert.InDelta(t, 14.5, demand.UpperBound, 1e-9)
	assert.InDelta(t, 14.5, cleaned.Values[models.FieldDemand][7], 1e-9, "spike moved to the upper bound")

	assert.Equal(t, 0, result.Fields[models.FieldImport].Total(), "constant column untouched")
	assert.Equal(t, 1, result.Total())

	// The input frame keeps the spike.
	assert.InDelta(t, 100, frame.Values[models.FieldDemand][7], 1e-9)
}

func TestCleanRejectsMissingReadings(t *testing.T) {
	frame := manualFrame(t,
		[]time.Time{at(0), at(5), at(10), at(15)},
		[]float64{10, math.NaN(), 11, 12},
		[]float64{40, 40, 40, 40},
	)

	_, _, err := Clean(frame, 1.5, testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interpolate before cleaning")
}

func TestWriteCSV(t *testing.T) {
	frame := manualFrame(t,
		[]time.Time{at(0), at(5)},
		[]float64{620.5, 615},
		[]float64{40.4, math.NaN()},
	)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(frame, &buf))

	want := "timestamp,demand,import\n" +
		"2024-03-01T00:00:00Z,620.5,40.4\n" +
		"2024-03-01T00:05:00Z,615,\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVRoundTrip(t *testing.T) {
	frame, err := ReadCSV(bytes.NewReader([]byte(sampleCSV)), testOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(frame, &buf))

	again, err := ReadCSV(&buf, testOptions())
	require.NoError(t, err)
	require.Equal(t, frame.Len(), again.Len())
	assert.Equal(t, frame.Fields, again.Fields)
	for i := range frame.Timestamps {
		assert.True(t, frame.Timestamps[i].Equal(again.Timestamps[i]), "row %d", i)
	}
	assert.InDelta(t, frame.Values[models.FieldDemand][2], again.Values[models.FieldDemand][2], 1e-9)
	assert.Equal(t, 1, again.MissingCount(models.FieldImport), "missing cell survives the round trip")
}
