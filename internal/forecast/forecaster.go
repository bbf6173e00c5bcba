// Package forecast implements the univariate forecasting methods and the
// holdout tournament that picks the best one for a series.
package forecast

import (
	"fmt"
	"math"
	"sort"

	"github.com/gridseer/gridseer/internal/stats"
	"github.com/gridseer/gridseer/pkg/errors"
	"github.com/gridseer/gridseer/pkg/models"
)

// Forecaster is one univariate forecasting method.
type Forecaster interface {
	// Name returns the method name used in registries, flags, and reports.
	Name() string
	// Forecast fits the method on values and predicts horizon steps ahead.
	Forecast(values []float64, horizon int, cfg Config) (*Result, error)
}

// Config controls fitting. Zero smoothing factors mean "optimize by grid
// search"; an empty period list disables seasonal methods.
type Config struct {
	// SeasonalPeriods in steps, ascending. Holt-Winters uses the shortest,
	// seasonal naive the longest, stl all of them.
	SeasonalPeriods []int
	// Window is the trailing window for the moving-average method.
	Window int
	// Alpha, Beta, Gamma are the level, trend, and seasonal smoothing
	// factors. Zero selects grid-search optimization.
	Alpha, Beta, Gamma float64
	// DampedTrend dampens trend extrapolation with factor Phi.
	DampedTrend bool
	// Phi is the damping factor, defaulting to 0.98.
	Phi float64
	// Confidence for prediction intervals, defaulting to 0.95.
	Confidence float64
}

// DefaultConfig returns the configuration for 5-minute energy readings:
// daily and weekly seasonality, a one-day moving-average window, optimized
// smoothing factors, and 95% intervals.
func DefaultConfig() Config {
	return Config{
		SeasonalPeriods: []int{models.PointsPerDay, models.PointsPerWeek},
		Window:          models.PointsPerDay,
		Confidence:      0.95,
	}
}

func (c Config) confidence() float64 {
	if c.Confidence <= 0 || c.Confidence >= 1 {
		return 0.95
	}
	return c.Confidence
}

func (c Config) phi() float64 {
	if c.Phi <= 0 || c.Phi >= 1 {
		return 0.98
	}
	return c.Phi
}

// periodsWithin returns the configured periods with at least two full cycles
// in a series of length n, ascending.
func (c Config) periodsWithin(n int) []int {
	var out []int
	for _, p := range c.SeasonalPeriods {
		if p >= 2 && n >= 2*p {
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

// Result is one fitted forecast.
type Result struct {
	Method string    `json:"method"`
	Points []float64 `json:"points"`
	Lower  []float64 `json:"lower"`
	Upper  []float64 `json:"upper"`
	// Fitted holds one-step-ahead fits on the training data; NaN marks
	// warmup positions with no fit.
	Fitted []float64          `json:"-"`
	Params map[string]float64 `json:"params,omitempty"`
}

// registry of available methods, populated by init() in each method file.
var registry = make(map[string]Forecaster)

// Register adds a method to the registry.
func Register(f Forecaster) {
	registry[f.Name()] = f
}

// Get returns a method by name.
func Get(name string) (Forecaster, error) {
	f, ok := registry[name]
	if !ok {
		return nil, errors.NewNotFoundError(errors.CodeDataNotFound,
			fmt.Sprintf("unknown forecasting method %q, have: %v", name, List()))
	}
	return f, nil
}

// List returns the registered method names, sorted.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// zScore maps a confidence level to its normal quantile.
func zScore(confidence float64) float64 {
	switch {
	case confidence >= 0.99:
		return 2.576
	case confidence >= 0.95:
		return 1.96
	case confidence >= 0.90:
		return 1.645
	default:
		return 1.96
	}
}

// residualStd returns the sample standard deviation of one-step residuals,
// skipping warmup positions where fitted is NaN.
func residualStd(values, fitted []float64) float64 {
	var residuals []float64
	for i := range fitted {
		if math.IsNaN(fitted[i]) {
			continue
		}
		residuals = append(residuals, values[i]-fitted[i])
	}
	return stats.StdDev(residuals)
}

// applyInterval fills Lower and Upper around Points. The margin widens with
// the square root of the forecast step.
func applyInterval(r *Result, sigma, confidence float64) {
	z := zScore(confidence)
	r.Lower = make([]float64, len(r.Points))
	r.Upper = make([]float64, len(r.Points))
	for h := range r.Points {
		margin := z * sigma * math.Sqrt(float64(h+1))
		r.Lower[h] = r.Points[h] - margin
		r.Upper[h] = r.Points[h] + margin
	}
}

// validateForecastArgs applies the checks shared by every method.
func validateForecastArgs(values []float64, horizon, minLen int, method string) error {
	if horizon < 1 {
		return errors.NewValidationError(errors.CodeOutOfRange,
			fmt.Sprintf("%s: horizon must be at least 1, got %d", method, horizon))
	}
	if len(values) < minLen {
		return errors.NewProcessingError(errors.CodeInsufficientData,
			fmt.Sprintf("%s: need at least %d points, got %d", method, minLen, len(values)))
	}
	return nil
}
