package models

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/gridseer/gridseer/pkg/errors"
)

// Frame is the loaded spreadsheet: shared timestamps plus one value column per
// field. Columns keep their spreadsheet order. NaN marks a missing reading;
// interpolation removes NaN before analysis sees a series.
type Frame struct {
	Timestamps []time.Time          `json:"timestamps"`
	Fields     []string             `json:"fields"`
	Values     map[string][]float64 `json:"values"`
	Interval   time.Duration        `json:"interval"`
}

// NewFrame creates an empty frame on the given interval.
func NewFrame(interval time.Duration) *Frame {
	return &Frame{
		Interval: interval,
		Values:   make(map[string][]float64),
	}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Timestamps)
}

// Span returns the covered duration from first to last timestamp.
func (f *Frame) Span() time.Duration {
	if len(f.Timestamps) < 2 {
		return 0
	}
	return f.Timestamps[len(f.Timestamps)-1].Sub(f.Timestamps[0])
}

// Start returns the first timestamp, or the zero time when empty.
func (f *Frame) Start() time.Time {
	if len(f.Timestamps) == 0 {
		return time.Time{}
	}
	return f.Timestamps[0]
}

// End returns the last timestamp, or the zero time when empty.
func (f *Frame) End() time.Time {
	if len(f.Timestamps) == 0 {
		return time.Time{}
	}
	return f.Timestamps[len(f.Timestamps)-1]
}

// HasField reports whether the frame carries the named column.
func (f *Frame) HasField(name string) bool {
	_, ok := f.Values[name]
	return ok
}

// AddColumn appends a column. The column must match the frame length.
func (f *Frame) AddColumn(field string, values []float64) error {
	if f.HasField(field) {
		return errors.NewValidationError(errors.CodeInvalidInput,
			fmt.Sprintf("duplicate column %q", field))
	}
	if len(values) != len(f.Timestamps) {
		return errors.NewValidationError(errors.CodeInvalidInput,
			fmt.Sprintf("column %q has %d values for %d rows", field, len(values), len(f.Timestamps)))
	}
	f.Fields = append(f.Fields, field)
	f.Values[field] = values
	return nil
}

// Series extracts one column as a TimeSeries.
func (f *Frame) Series(field string) (*TimeSeries, error) {
	values, ok := f.Values[field]
	if !ok {
		return nil, errors.NewValidationError(errors.CodeMissingField,
			fmt.Sprintf("unknown field %q, have: %s", field, strings.Join(f.Fields, ", ")))
	}
	ts := &TimeSeries{
		Field:    field,
		Unit:     DefaultUnit,
		Interval: f.Interval,
		Points:   make([]DataPoint, len(values)),
	}
	for i, v := range values {
		ts.Points[i] = DataPoint{Timestamp: f.Timestamps[i], Value: v}
	}
	return ts, nil
}

// Window returns the rows within [from, to). A zero from or to leaves that
// side open. Columns share storage with the original frame.
func (f *Frame) Window(from, to time.Time) *Frame {
	lo := 0
	hi := len(f.Timestamps)
	if !from.IsZero() {
		lo = sort.Search(len(f.Timestamps), func(i int) bool {
			return !f.Timestamps[i].Before(from)
		})
	}
	if !to.IsZero() {
		hi = sort.Search(len(f.Timestamps), func(i int) bool {
			return !f.Timestamps[i].Before(to)
		})
	}
	if hi < lo {
		hi = lo
	}

	out := NewFrame(f.Interval)
	out.Timestamps = f.Timestamps[lo:hi]
	for _, field := range f.Fields {
		out.Fields = append(out.Fields, field)
		out.Values[field] = f.Values[field][lo:hi]
	}
	return out
}

// MissingCount returns the number of NaN readings in the named column.
func (f *Frame) MissingCount(field string) int {
	n := 0
	for _, v := range f.Values[field] {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Copy returns a deep copy.
func (f *Frame) Copy() *Frame {
	out := &Frame{
		Timestamps: make([]time.Time, len(f.Timestamps)),
		Fields:     make([]string, len(f.Fields)),
		Values:     make(map[string][]float64, len(f.Values)),
		Interval:   f.Interval,
	}
	copy(out.Timestamps, f.Timestamps)
	copy(out.Fields, f.Fields)
	for field, values := range f.Values {
		c := make([]float64, len(values))
		copy(c, values)
		out.Values[field] = c
	}
	return out
}
