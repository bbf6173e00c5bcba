package forecast

import (
	"fmt"
	"math"

	"github.com/gridseer/gridseer/pkg/errors"
)

func init() {
	Register(&seasonalNaive{})
	Register(&drift{})
}

// seasonalNaive repeats the most recent full seasonal cycle. For 5-minute
// energy readings the weekly cycle is the natural choice, so the longest
// configured period that fits the data wins.
type seasonalNaive struct{}

func (f *seasonalNaive) Name() string { return "seasonal_naive" }

func (f *seasonalNaive) Forecast(values []float64, horizon int, cfg Config) (*Result, error) {
	if err := validateForecastArgs(values, horizon, 4, f.Name()); err != nil {
		return nil, err
	}

	period := 0
	for _, p := range cfg.periodsWithin(len(values)) {
		period = p
	}
	if period == 0 {
		return nil, errors.NewProcessingError(errors.CodeInsufficientData,
			fmt.Sprintf("%s: no configured seasonal period has two full cycles in %d points",
				f.Name(), len(values)))
	}

	n := len(values)
	result := &Result{
		Method: f.Name(),
		Points: make([]float64, horizon),
		Fitted: make([]float64, n),
		Params: map[string]float64{"period": float64(period)},
	}
	for h := 0; h < horizon; h++ {
		result.Points[h] = values[n-period+h%period]
	}
	for t := 0; t < n; t++ {
		if t < period {
			result.Fitted[t] = math.NaN()
			continue
		}
		result.Fitted[t] = values[t-period]
	}

	applyInterval(result, residualStd(values, result.Fitted), cfg.confidence())
	return result, nil
}

// drift extends the line from the first to the last observation.
type drift struct{}

func (f *drift) Name() string { return "drift" }

func (f *drift) Forecast(values []float64, horizon int, cfg Config) (*Result, error) {
	if err := validateForecastArgs(values, horizon, 2, f.Name()); err != nil {
		return nil, err
	}

	n := len(values)
	slope := (values[n-1] - values[0]) / float64(n-1)

	result := &Result{
		Method: f.Name(),
		Points: make([]float64, horizon),
		Fitted: make([]float64, n),
		Params: map[string]float64{"slope": slope},
	}
	for h := 0; h < horizon; h++ {
		result.Points[h] = values[n-1] + float64(h+1)*slope
	}
	result.Fitted[0] = math.NaN()
	for t := 1; t < n; t++ {
		result.Fitted[t] = values[t-1] + slope
	}

	applyInterval(result, residualStd(values, result.Fitted), cfg.confidence())
	return result, nil
}
