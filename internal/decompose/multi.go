package decompose

import (
	"fmt"
	"sort"

	"github.com/gridseer/gridseer/pkg/errors"
)

// MultiDecomposition is the result of sequential decomposition at several
// seasonal periods (daily and weekly for 5-minute readings). One seasonal
// component is extracted per period; trend and remainder come from the final
// pass, so components recombine to the input exactly.
type MultiDecomposition struct {
	Model     Model             `json:"model"`
	Periods   []int             `json:"periods"`
	Trend     []float64         `json:"trend"`
	Seasonals map[int][]float64 `json:"seasonals"`
	Remainder []float64         `json:"remainder"`
}

// MultiSeasonal removes one seasonal component per period, shortest period
// first, re-estimating trend on the running deseasonalized series.
func MultiSeasonal(values []float64, periods []int, model Model) (*MultiDecomposition, error) {
	if len(periods) == 0 {
		return nil, errors.NewValidationError(errors.CodeInvalidPeriod,
			"at least one seasonal period is required")
	}

	sorted := make([]int, len(periods))
	copy(sorted, periods)
	sort.Ints(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, errors.NewValidationError(errors.CodeInvalidPeriod,
				fmt.Sprintf("duplicate seasonal period %d", sorted[i]))
		}
	}

	out := &MultiDecomposition{
		Model:     model,
		Periods:   sorted,
		Seasonals: make(map[int][]float64, len(sorted)),
	}

	deseason := make([]float64, len(values))
	copy(deseason, values)

	var last *Decomposition
	for _, period := range sorted {
		d, err := Classical(deseason, period, model)
		if err != nil {
			return nil, err
		}
		out.Seasonals[period] = d.Seasonal
		for i := range deseason {
			if model == Additive {
				deseason[i] -= d.Seasonal[i]
			} else {
				deseason[i] /= d.Seasonal[i]
			}
		}
		last = d
	}

	out.Trend = last.Trend
	out.Remainder = last.Remainder
	return out, nil
}

// Deseasonalized returns trend plus remainder (or their product for the
// multiplicative model): the series with every seasonal component removed.
func (m *MultiDecomposition) Deseasonalized() []float64 {
	out := make([]float64, len(m.Trend))
	for i := range out {
		if m.Model == Additive {
			out[i] = m.Trend[i] + m.Remainder[i]
		} else {
			out[i] = m.Trend[i] * m.Remainder[i]
		}
	}
	return out
}

// SeasonalStrength returns the strength of the component at the given period,
// or an error when the period was not part of the decomposition.
func (m *MultiDecomposition) SeasonalStrength(period int) (float64, error) {
	seasonal, ok := m.Seasonals[period]
	if !ok {
		return 0, errors.NewValidationError(errors.CodeInvalidPeriod,
			fmt.Sprintf("no seasonal component for period %d", period))
	}
	return seasonalStrength(seasonal, m.Remainder), nil
}
