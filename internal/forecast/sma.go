package forecast

import (
	"fmt"
	"math"

	"github.com/gridseer/gridseer/pkg/errors"
	"github.com/gridseer/gridseer/pkg/models"
)

func init() {
	Register(&movingAverage{})
}

// movingAverage forecasts the mean of the trailing window, held flat.
type movingAverage struct{}

func (f *movingAverage) Name() string { return "sma" }

func (f *movingAverage) Forecast(values []float64, horizon int, cfg Config) (*Result, error) {
	window := cfg.Window
	if window <= 0 {
		window = models.PointsPerDay
	}
	if err := validateForecastArgs(values, horizon, 2, f.Name()); err != nil {
		return nil, err
	}
	if len(values) <= window {
		return nil, errors.NewProcessingError(errors.CodeInsufficientData,
			fmt.Sprintf("%s: window %d needs more than %d points", f.Name(), window, len(values)))
	}

	n := len(values)
	result := &Result{
		Method: f.Name(),
		Points: make([]float64, horizon),
		Fitted: make([]float64, n),
		Params: map[string]float64{"window": float64(window)},
	}

	// One rolling sum serves both the one-step fits and the final mean:
	// entering step t it covers the window ending just before t.
	sum := 0.0
	for t := 0; t < n; t++ {
		if t >= window {
			result.Fitted[t] = sum / float64(window)
			sum -= values[t-window]
		} else {
			result.Fitted[t] = math.NaN()
		}
		sum += values[t]
	}

	mean := sum / float64(window)
	for h := 0; h < horizon; h++ {
		result.Points[h] = mean
	}

	applyInterval(result, residualStd(values, result.Fitted), cfg.confidence())
	return result, nil
}
