package stats

import (
	"fmt"

	"github.com/gridseer/gridseer/pkg/errors"
)

// DefaultIQRMultiplier is the conventional Tukey fence factor.
const DefaultIQRMultiplier = 1.5

// ClipReport records what IQR clipping did to one series.
type ClipReport struct {
	LowerBound  float64 `json:"lower_bound"`
	UpperBound  float64 `json:"upper_bound"`
	ClippedLow  int     `json:"clipped_low"`
	ClippedHigh int     `json:"clipped_high"`
}

// Total returns the number of values moved to a bound.
func (r ClipReport) Total() int {
	return r.ClippedLow + r.ClippedHigh
}

// IQRBounds returns the outlier fences Q1-k*IQR and Q3+k*IQR.
func IQRBounds(values []float64, k float64) (lower, upper float64, err error) {
	if len(values) < 4 {
		return 0, 0, errors.NewValidationError(errors.CodeInsufficientData,
			fmt.Sprintf("need at least 4 points for IQR bounds, got %d", len(values)))
	}
	if k <= 0 {
		return 0, 0, errors.NewValidationError(errors.CodeOutOfRange,
			"IQR multiplier must be positive")
	}

	q1 := mustQuantile(values, 0.25)
	q3 := mustQuantile(values, 0.75)
	iqr := q3 - q1
	return q1 - k*iqr, q3 + k*iqr, nil
}

// ClipOutliers winsorizes values outside the IQR fences: readings below the
// lower fence become the lower fence, readings above the upper fence become
// the upper fence. Rows are never dropped, so the time grid stays intact.
func ClipOutliers(values []float64, k float64) ([]float64, ClipReport, error) {
	lower, upper, err := IQRBounds(values, k)
	if err != nil {
		return nil, ClipReport{}, err
	}

	report := ClipReport{LowerBound: lower, UpperBound: upper}
	clipped := make([]float64, len(values))
	for i, v := range values {
		switch {
		case v < lower:
			clipped[i] = lower
			report.ClippedLow++
		case v > upper:
			clipped[i] = upper
			report.ClippedHigh++
		default:
			clipped[i] = v
		}
	}
	return clipped, report, nil
}

// DetectOutliers returns the indices of values outside the IQR fences.
func DetectOutliers(values []float64, k float64) ([]int, error) {
	lower, upper, err := IQRBounds(values, k)
	if err != nil {
		return nil, err
	}

	var outliers []int
	for i, v := range values {
		if v < lower || v > upper {
			outliers = append(outliers, i)
		}
	}
	return outliers, nil
}
