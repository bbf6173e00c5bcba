package stats

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gridseer/gridseer/pkg/errors"
)

// LjungBox tests whether a residual series behaves like white noise by
// pooling its autocorrelations over lags 1..maxLag. It returns the Q
// statistic and its chi-squared tail probability; a small p-value means the
// residuals still carry structure the model missed.
func LjungBox(residuals []float64, maxLag int) (q, pValue float64, err error) {
	n := len(residuals)
	if maxLag < 1 {
		return 0, 0, errors.NewValidationError(errors.CodeOutOfRange,
			"maxLag must be at least 1")
	}
	if n <= maxLag {
		return 0, 0, errors.NewValidationError(errors.CodeInsufficientData,
			fmt.Sprintf("%d residuals cannot support %d lags", n, maxLag))
	}

	acf, err := ACF(residuals, maxLag)
	if err != nil {
		return 0, 0, err
	}
	for k, r := range acf {
		q += r * r / float64(n-(k+1))
	}
	q *= float64(n) * float64(n+2)

	dist := distuv.ChiSquared{K: float64(maxLag)}
	return q, dist.Survival(q), nil
}
