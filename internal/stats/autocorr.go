package stats

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/gridseer/gridseer/pkg/errors"
)

// AutoCorrelation returns the autocorrelation of values at the given lag.
func AutoCorrelation(values []float64, lag int) (float64, error) {
	if lag < 0 {
		return 0, errors.NewValidationError(errors.CodeOutOfRange, "lag must be non-negative")
	}
	if lag >= len(values) {
		return 0, errors.NewValidationError(errors.CodeInsufficientData,
			fmt.Sprintf("lag %d requires more than %d points", lag, len(values)))
	}
	if lag == 0 {
		return 1, nil
	}

	mean := stat.Mean(values, nil)
	var num, den float64
	for i := 0; i < len(values); i++ {
		d := values[i] - mean
		den += d * d
		if i+lag < len(values) {
			num += d * (values[i+lag] - mean)
		}
	}
	if den == 0 {
		return 0, nil
	}
	return num / den, nil
}

// ACF returns autocorrelations for lags 1..maxLag.
func ACF(values []float64, maxLag int) ([]float64, error) {
	if maxLag < 1 {
		return nil, errors.NewValidationError(errors.CodeOutOfRange, "maxLag must be at least 1")
	}
	if maxLag >= len(values) {
		maxLag = len(values) - 1
	}
	if maxLag < 1 {
		return nil, errors.NewValidationError(errors.CodeInsufficientData,
			"series too short for autocorrelation")
	}

	acf := make([]float64, maxLag)
	for lag := 1; lag <= maxLag; lag++ {
		r, err := AutoCorrelation(values, lag)
		if err != nil {
			return nil, err
		}
		acf[lag-1] = r
	}
	return acf, nil
}
