// Package decompose implements classical and sequential multi-seasonal
// decomposition of regularly sampled series, plus seasonal period detection.
package decompose

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/gridseer/gridseer/pkg/errors"
)

// Model selects how components combine.
type Model string

const (
	// Additive decomposes values = trend + seasonal + remainder.
	Additive Model = "additive"
	// Multiplicative decomposes values = trend * seasonal * remainder.
	Multiplicative Model = "multiplicative"
)

// ParseModel validates a model name.
func ParseModel(name string) (Model, error) {
	switch Model(name) {
	case Additive, Multiplicative:
		return Model(name), nil
	}
	return "", errors.NewValidationError(errors.CodeInvalidInput,
		fmt.Sprintf("unknown decomposition model %q (additive or multiplicative)", name))
}

// Decomposition is the result of one classical pass. All component slices
// have the input length and recombine to the input exactly.
type Decomposition struct {
	Period    int       `json:"period"`
	Model     Model     `json:"model"`
	Trend     []float64 `json:"trend"`
	Seasonal  []float64 `json:"seasonal"`
	Remainder []float64 `json:"remainder"`
}

// Strength returns the seasonal strength 1 - Var(R)/Var(S+R), clamped to
// [0, 1]. Values near 1 mean the seasonal component dominates the remainder.
func (d *Decomposition) Strength() float64 {
	return seasonalStrength(d.Seasonal, d.Remainder)
}

func seasonalStrength(seasonal, remainder []float64) float64 {
	combined := make([]float64, len(seasonal))
	for i := range combined {
		combined[i] = seasonal[i] + remainder[i]
	}
	varCombined := stat.Variance(combined, nil)
	if varCombined == 0 {
		return 1
	}
	s := 1 - stat.Variance(remainder, nil)/varCombined
	return math.Max(0, math.Min(1, s))
}

// Classical performs moving-average decomposition at one seasonal period.
// The trend is a centered moving average (the even-period case uses the
// standard 2xM window with half weights at the ends), seasonal indices are
// averaged per cycle position over the interior and centered, and the
// remainder absorbs whatever the other two components do not explain.
func Classical(values []float64, period int, model Model) (*Decomposition, error) {
	if period < 2 {
		return nil, errors.NewValidationError(errors.CodeInvalidPeriod,
			fmt.Sprintf("seasonal period must be at least 2, got %d", period))
	}
	if len(values) < 2*period {
		return nil, errors.NewValidationError(errors.CodeInsufficientData,
			fmt.Sprintf("need at least %d points for period %d, got %d", 2*period, period, len(values)))
	}
	if model != Additive && model != Multiplicative {
		return nil, errors.NewValidationError(errors.CodeInvalidInput,
			fmt.Sprintf("unknown decomposition model %q", model))
	}
	if model == Multiplicative {
		for i, v := range values {
			if v <= 0 {
				return nil, errors.NewValidationError(errors.CodeInvalidInput,
					fmt.Sprintf("multiplicative model requires positive values, got %v at index %d", v, i))
			}
		}
	}

	n := len(values)
	trend, from, to := centeredMovingAverage(values, period)

	// Seasonal indices from the interior, where the centered average exists.
	sums := make([]float64, period)
	counts := make([]int, period)
	for i := from; i < to; i++ {
		pos := i % period
		if model == Additive {
			sums[pos] += values[i] - trend[i]
		} else {
			sums[pos] += values[i] / trend[i]
		}
		counts[pos]++
	}
	indices := make([]float64, period)
	for pos := range indices {
		if counts[pos] > 0 {
			indices[pos] = sums[pos] / float64(counts[pos])
		} else if model == Multiplicative {
			indices[pos] = 1
		}
	}
	centerIndices(indices, model)

	// Extend the trend to the edges so every component is full length.
	for i := 0; i < from; i++ {
		trend[i] = trend[from]
	}
	for i := to; i < n; i++ {
		trend[i] = trend[to-1]
	}

	seasonal := make([]float64, n)
	remainder := make([]float64, n)
	for i := 0; i < n; i++ {
		seasonal[i] = indices[i%period]
		if model == Additive {
			remainder[i] = values[i] - trend[i] - seasonal[i]
		} else {
			remainder[i] = values[i] / (trend[i] * seasonal[i])
		}
	}

	return &Decomposition{
		Period:    period,
		Model:     model,
		Trend:     trend,
		Seasonal:  seasonal,
		Remainder: remainder,
	}, nil
}

// centeredMovingAverage returns the centered trend estimate and the index
// range [from, to) where it is defined.
func centeredMovingAverage(values []float64, period int) (trend []float64, from, to int) {
	n := len(values)
	trend = make([]float64, n)

	if period%2 == 1 {
		h := period / 2
		from, to = h, n-h
		for i := from; i < to; i++ {
			sum := 0.0
			for j := i - h; j <= i+h; j++ {
				sum += values[j]
			}
			trend[i] = sum / float64(period)
		}
		return trend, from, to
	}

	// Even period: window of period+1 points with half weight at both ends.
	h := period / 2
	from, to = h, n-h
	for i := from; i < to; i++ {
		sum := 0.5*values[i-h] + 0.5*values[i+h]
		for j := i - h + 1; j <= i+h-1; j++ {
			sum += values[j]
		}
		trend[i] = sum / float64(period)
	}
	return trend, from, to
}

// centerIndices normalizes seasonal indices so they sum to zero (additive)
// or average to one (multiplicative) over a full cycle.
func centerIndices(indices []float64, model Model) {
	mean := stat.Mean(indices, nil)
	if model == Additive {
		for i := range indices {
			indices[i] -= mean
		}
		return
	}
	if mean == 0 {
		return
	}
	for i := range indices {
		indices[i] /= mean
	}
}
