package forecast

import (
	"fmt"

	"github.com/gridseer/gridseer/internal/decompose"
	"github.com/gridseer/gridseer/pkg/errors"
)

func init() {
	Register(&stl{})
}

// stl decomposes the series into trend plus one seasonal component per
// configured period, forecasts the deseasonalized part with a damped Holt
// trend, and extends each seasonal component by repeating its cycle.
type stl struct{}

func (f *stl) Name() string { return "stl" }

func (f *stl) Forecast(values []float64, horizon int, cfg Config) (*Result, error) {
	if err := validateForecastArgs(values, horizon, 4, f.Name()); err != nil {
		return nil, err
	}
	periods := cfg.periodsWithin(len(values))
	if len(periods) == 0 {
		return nil, errors.NewProcessingError(errors.CodeInsufficientData,
			fmt.Sprintf("%s: no configured seasonal period has two full cycles in %d points",
				f.Name(), len(values)))
	}

	md, err := decompose.MultiSeasonal(values, periods, decompose.Additive)
	if err != nil {
		return nil, err
	}

	trendCfg := cfg
	trendCfg.SeasonalPeriods = nil
	trendCfg.DampedTrend = true
	base, err := (&holt{}).Forecast(md.Deseasonalized(), horizon, trendCfg)
	if err != nil {
		return nil, err
	}

	n := len(values)
	result := &Result{
		Method: f.Name(),
		Points: make([]float64, horizon),
		Fitted: make([]float64, n),
		Params: map[string]float64{"periods": float64(len(periods))},
	}
	for k, v := range base.Params {
		result.Params[k] = v
	}

	// The seasonal components are periodic by construction, so indexing them
	// at (n+h) mod p extends each cycle past the end of the data.
	for h := 0; h < horizon; h++ {
		result.Points[h] = base.Points[h]
		for _, p := range periods {
			result.Points[h] += md.Seasonals[p][(n+h)%p]
		}
	}
	for t := 0; t < n; t++ {
		result.Fitted[t] = base.Fitted[t]
		for _, p := range periods {
			result.Fitted[t] += md.Seasonals[p][t]
		}
	}

	applyInterval(result, residualStd(values, result.Fitted), cfg.confidence())
	return result, nil
}
