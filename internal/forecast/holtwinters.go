package forecast

import (
	"fmt"
	"math"

	"github.com/gridseer/gridseer/pkg/errors"
)

func init() {
	Register(&holtWinters{})
}

// holtWinters is additive triple exponential smoothing on the shortest
// configured seasonal period (daily for 5-minute readings). Unset smoothing
// factors are grid-searched on training SSE.
type holtWinters struct{}

func (f *holtWinters) Name() string { return "holt_winters" }

func (f *holtWinters) Forecast(values []float64, horizon int, cfg Config) (*Result, error) {
	if err := validateForecastArgs(values, horizon, 4, f.Name()); err != nil {
		return nil, err
	}

	periods := cfg.periodsWithin(len(values))
	if len(periods) == 0 {
		return nil, errors.NewProcessingError(errors.CodeInsufficientData,
			fmt.Sprintf("%s: no configured seasonal period has two full cycles in %d points",
				f.Name(), len(values)))
	}
	period := periods[0]

	alphas := []float64{cfg.Alpha}
	if cfg.Alpha <= 0 {
		alphas = gridRange(0.1, 0.9, 0.1)
	}
	betas := []float64{cfg.Beta}
	if cfg.Beta <= 0 {
		betas = gridRange(0.05, 0.5, 0.05)
	}
	gammas := []float64{cfg.Gamma}
	if cfg.Gamma <= 0 {
		gammas = gridRange(0.05, 0.5, 0.05)
	}
	phi := 1.0
	if cfg.DampedTrend {
		phi = cfg.phi()
	}

	bestSSE := math.Inf(1)
	var bestAlpha, bestBeta, bestGamma float64
	for _, alpha := range alphas {
		for _, beta := range betas {
			for _, gamma := range gammas {
				st := fitHoltWinters(values, period, alpha, beta, gamma, phi, false)
				if st.sse < bestSSE {
					bestSSE = st.sse
					bestAlpha, bestBeta, bestGamma = alpha, beta, gamma
				}
			}
		}
	}

	st := fitHoltWinters(values, period, bestAlpha, bestBeta, bestGamma, phi, true)

	result := &Result{
		Method: f.Name(),
		Points: make([]float64, horizon),
		Fitted: st.fitted,
		Params: map[string]float64{
			"alpha":  bestAlpha,
			"beta":   bestBeta,
			"gamma":  bestGamma,
			"period": float64(period),
		},
	}
	if cfg.DampedTrend {
		result.Params["phi"] = phi
	}

	n := len(values)
	phiSum := 0.0
	phiPow := 1.0
	for h := 0; h < horizon; h++ {
		phiPow *= phi
		phiSum += phiPow
		result.Points[h] = st.level + phiSum*st.trend + st.seasonal[(n+h)%period]
	}

	applyInterval(result, residualStd(values, st.fitted), cfg.confidence())
	return result, nil
}

type hwState struct {
	level    float64
	trend    float64
	seasonal []float64
	fitted   []float64
	sse      float64
}

// fitHoltWinters runs the additive recursion. Level starts at the mean of
// the first cycle, trend at the averaged cycle-over-cycle change, and the
// seasonal state at the first cycle's deviations from the initial level.
// The first cycle only seeds the state, so fits begin one period in.
func fitHoltWinters(values []float64, period int, alpha, beta, gamma, phi float64, needFitted bool) hwState {
	n := len(values)
	st := hwState{seasonal: make([]float64, period)}

	for i := 0; i < period; i++ {
		st.level += values[i]
	}
	st.level /= float64(period)
	for i := 0; i < period && period+i < n; i++ {
		st.trend += values[period+i] - values[i]
	}
	st.trend /= float64(period) * float64(period)
	for i := 0; i < period; i++ {
		st.seasonal[i] = values[i] - st.level
	}

	if needFitted {
		st.fitted = make([]float64, n)
		for i := 0; i < period; i++ {
			st.fitted[i] = math.NaN()
		}
	}

	for t := period; t < n; t++ {
		idx := t % period
		pred := st.level + phi*st.trend + st.seasonal[idx]
		if needFitted {
			st.fitted[t] = pred
		}
		diff := values[t] - pred
		st.sse += diff * diff

		newLevel := alpha*(values[t]-st.seasonal[idx]) + (1-alpha)*(st.level+phi*st.trend)
		st.trend = beta*(newLevel-st.level) + (1-beta)*phi*st.trend
		st.seasonal[idx] = gamma*(values[t]-newLevel) + (1-gamma)*st.seasonal[idx]
		st.level = newLevel
	}

	return st
}
