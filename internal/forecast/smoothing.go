package forecast

import (
	"math"
)

func init() {
	Register(&simpleSmoothing{})
	Register(&holt{})
}

// simpleSmoothing is simple exponential smoothing: a flat forecast of the
// smoothed level. Alpha is grid-searched on training SSE when unset.
type simpleSmoothing struct{}

func (f *simpleSmoothing) Name() string { return "ses" }

func (f *simpleSmoothing) Forecast(values []float64, horizon int, cfg Config) (*Result, error) {
	if err := validateForecastArgs(values, horizon, 3, f.Name()); err != nil {
		return nil, err
	}

	alphas := []float64{cfg.Alpha}
	if cfg.Alpha <= 0 {
		alphas = gridRange(0.05, 0.95, 0.05)
	}

	bestSSE := math.Inf(1)
	var bestAlpha, bestLevel float64
	var bestFitted []float64
	for _, alpha := range alphas {
		level, fitted, sse := fitSES(values, alpha)
		if sse < bestSSE {
			bestSSE, bestAlpha, bestLevel, bestFitted = sse, alpha, level, fitted
		}
	}

	result := &Result{
		Method: f.Name(),
		Points: make([]float64, horizon),
		Fitted: bestFitted,
		Params: map[string]float64{"alpha": bestAlpha},
	}
	for h := range result.Points {
		result.Points[h] = bestLevel
	}

	applyInterval(result, residualStd(values, bestFitted), cfg.confidence())
	return result, nil
}

func fitSES(values []float64, alpha float64) (level float64, fitted []float64, sse float64) {
	fitted = make([]float64, len(values))
	fitted[0] = math.NaN()
	level = values[0]
	for t := 1; t < len(values); t++ {
		fitted[t] = level
		diff := values[t] - level
		sse += diff * diff
		level = alpha*values[t] + (1-alpha)*level
	}
	return level, fitted, sse
}

// holt is trend-corrected exponential smoothing with optional damping.
type holt struct{}

func (f *holt) Name() string { return "holt" }

func (f *holt) Forecast(values []float64, horizon int, cfg Config) (*Result, error) {
	if err := validateForecastArgs(values, horizon, 4, f.Name()); err != nil {
		return nil, err
	}

	alphas := []float64{cfg.Alpha}
	if cfg.Alpha <= 0 {
		alphas = gridRange(0.1, 0.9, 0.1)
	}
	betas := []float64{cfg.Beta}
	if cfg.Beta <= 0 {
		betas = gridRange(0.05, 0.5, 0.05)
	}
	phi := 1.0
	if cfg.DampedTrend {
		phi = cfg.phi()
	}

	bestSSE := math.Inf(1)
	var bestAlpha, bestBeta, bestLevel, bestTrend float64
	var bestFitted []float64
	for _, alpha := range alphas {
		for _, beta := range betas {
			level, trend, fitted, sse := fitHolt(values, alpha, beta, phi)
			if sse < bestSSE {
				bestSSE, bestAlpha, bestBeta = sse, alpha, beta
				bestLevel, bestTrend, bestFitted = level, trend, fitted
			}
		}
	}

	result := &Result{
		Method: f.Name(),
		Points: make([]float64, horizon),
		Fitted: bestFitted,
		Params: map[string]float64{"alpha": bestAlpha, "beta": bestBeta},
	}
	if cfg.DampedTrend {
		result.Params["phi"] = phi
	}
	phiSum := 0.0
	phiPow := 1.0
	for h := 0; h < horizon; h++ {
		phiPow *= phi
		phiSum += phiPow
		result.Points[h] = bestLevel + phiSum*bestTrend
	}

	applyInterval(result, residualStd(values, bestFitted), cfg.confidence())
	return result, nil
}

func fitHolt(values []float64, alpha, beta, phi float64) (level, trend float64, fitted []float64, sse float64) {
	fitted = make([]float64, len(values))
	fitted[0] = math.NaN()
	level = values[0]
	trend = values[1] - values[0]
	for t := 1; t < len(values); t++ {
		pred := level + phi*trend
		fitted[t] = pred
		diff := values[t] - pred
		sse += diff * diff
		newLevel := alpha*values[t] + (1-alpha)*pred
		trend = beta*(newLevel-level) + (1-beta)*phi*trend
		level = newLevel
	}
	return level, trend, fitted, sse
}

// gridRange returns {from, from+step, ..., to} inclusive of both ends.
func gridRange(from, to, step float64) []float64 {
	var out []float64
	for v := from; v <= to+step/2; v += step {
		out = append(out, v)
	}
	return out
}
