package models

import (
	"time"
)

// Canonical spreadsheet columns. Readings are power values in MW sampled on
// a 5-minute grid.
const (
	FieldDemand     = "demand"
	FieldGeneration = "generation"
	FieldImport     = "import"
	FieldSolar      = "solar"
	FieldWind       = "wind"
	FieldOther      = "other"
)

// DefaultUnit is the unit of measure shared by all canonical fields.
const DefaultUnit = "MW"

// Grid constants for 5-minute readings.
const (
	DefaultInterval = 5 * time.Minute
	PointsPerHour   = 12
	PointsPerDay    = 288
	PointsPerWeek   = 2016
)

// CanonicalFields returns the spreadsheet columns in their conventional order.
func CanonicalFields() []string {
	return []string{FieldDemand, FieldGeneration, FieldImport, FieldSolar, FieldWind, FieldOther}
}

// DataPoint is a single reading.
type DataPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// TimeSeries is one column of readings on a regular interval.
type TimeSeries struct {
	Field    string        `json:"field"`
	Unit     string        `json:"unit,omitempty"`
	Interval time.Duration `json:"interval"`
	Points   []DataPoint   `json:"points"`
}

// Len returns the number of points.
func (ts *TimeSeries) Len() int {
	return len(ts.Points)
}

// Values returns the readings in order.
func (ts *TimeSeries) Values() []float64 {
	out := make([]float64, len(ts.Points))
	for i, p := range ts.Points {
		out[i] = p.Value
	}
	return out
}

// Timestamps returns the reading times in order.
func (ts *TimeSeries) Timestamps() []time.Time {
	out := make([]time.Time, len(ts.Points))
	for i, p := range ts.Points {
		out[i] = p.Timestamp
	}
	return out
}

// Start returns the timestamp of the first point, or the zero time when empty.
func (ts *TimeSeries) Start() time.Time {
	if len(ts.Points) == 0 {
		return time.Time{}
	}
	return ts.Points[0].Timestamp
}

// End returns the timestamp of the last point, or the zero time when empty.
func (ts *TimeSeries) End() time.Time {
	if len(ts.Points) == 0 {
		return time.Time{}
	}
	return ts.Points[len(ts.Points)-1].Timestamp
}

// Slice returns a copy of the points in [i, j).
func (ts *TimeSeries) Slice(i, j int) *TimeSeries {
	out := &TimeSeries{
		Field:    ts.Field,
		Unit:     ts.Unit,
		Interval: ts.Interval,
		Points:   make([]DataPoint, j-i),
	}
	copy(out.Points, ts.Points[i:j])
	return out
}

// Copy returns a deep copy.
func (ts *TimeSeries) Copy() *TimeSeries {
	return ts.Slice(0, len(ts.Points))
}

// FutureTimestamps continues the series grid for horizon steps past End.
func (ts *TimeSeries) FutureTimestamps(horizon int) []time.Time {
	out := make([]time.Time, horizon)
	last := ts.End()
	for i := 0; i < horizon; i++ {
		out[i] = last.Add(time.Duration(i+1) * ts.Interval)
	}
	return out
}

// WithValues returns a series with the same grid and metadata but new values.
// The replacement must match the series length.
func (ts *TimeSeries) WithValues(values []float64) *TimeSeries {
	out := ts.Copy()
	for i := range out.Points {
		out.Points[i].Value = values[i]
	}
	return out
}
