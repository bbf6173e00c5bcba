// Package stats provides the descriptive statistics, outlier bounds, and
// accuracy metrics used across analysis and forecasting. Functions operate on
// plain float64 slices; callers are expected to have filled missing values
// first.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/gridseer/gridseer/pkg/errors"
)

// Summary holds the descriptive statistics of one series.
type Summary struct {
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	StdDev   float64 `json:"std_dev"`
	Variance float64 `json:"variance"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Range    float64 `json:"range"`
	Q1       float64 `json:"q1"`
	Q3       float64 `json:"q3"`
	IQR      float64 `json:"iqr"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`
}

// Describe computes the summary statistics of values.
func Describe(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, errors.NewValidationError(errors.CodeInsufficientData,
			"cannot describe an empty series")
	}

	s := Summary{
		Count: len(values),
		Mean:  stat.Mean(values, nil),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
	}
	s.Range = s.Max - s.Min
	s.Median = mustQuantile(values, 0.5)
	s.Q1 = mustQuantile(values, 0.25)
	s.Q3 = mustQuantile(values, 0.75)
	s.IQR = s.Q3 - s.Q1

	if len(values) > 1 {
		s.Variance = stat.Variance(values, nil)
		s.StdDev = math.Sqrt(s.Variance)
	}
	if len(values) > 2 {
		s.Skewness = stat.Skew(values, nil)
	}
	if len(values) > 3 {
		s.Kurtosis = stat.ExKurtosis(values, nil)
	}

	return s, nil
}

// Quantile returns the p-quantile (0 <= p <= 1) using linear interpolation on
// (n-1) spacing, matching spreadsheet quartiles. gonum's CumulantKinds estimate
// quantiles differently, so this stays hand-rolled.
func Quantile(values []float64, p float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.NewValidationError(errors.CodeInsufficientData,
			"cannot take a quantile of an empty series")
	}
	if p < 0 || p > 1 {
		return 0, errors.NewValidationError(errors.CodeOutOfRange,
			"quantile probability must be within [0, 1]")
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	h := p * float64(len(sorted)-1)
	lo := int(math.Floor(h))
	frac := h - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1], nil
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo]), nil
}

// mustQuantile is Quantile for validated inputs.
func mustQuantile(values []float64, p float64) float64 {
	q, _ := Quantile(values, p)
	return q
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StdDev returns the sample standard deviation, 0 for fewer than two values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// Variance returns the sample variance, 0 for fewer than two values.
func Variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.Variance(values, nil)
}
