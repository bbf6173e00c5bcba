package forecast

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/gridseer/gridseer/internal/stats"
)

func init() {
	Register(&arima{})
}

// arima fits ARIMA(p,d,q): the series is differenced until its lag-1
// autocorrelation drops, then AR and MA coefficients are estimated with the
// two-stage Hannan-Rissanen regression (long-AR residuals as MA regressors),
// and the order is selected by AIC over a small grid.
type arima struct{}

const (
	arimaMaxP   = 3
	arimaMaxQ   = 2
	arimaMaxD   = 2
	arimaMinLen = 30
)

func (f *arima) Name() string { return "arima" }

type arimaFit struct {
	p, q   int
	phi    []float64
	theta  []float64
	res    []float64 // regression residuals, aligned to z[t0:]
	sigma2 float64
	aic    float64
}

func (f *arima) Forecast(values []float64, horizon int, cfg Config) (*Result, error) {
	if err := validateForecastArgs(values, horizon, arimaMinLen, f.Name()); err != nil {
		return nil, err
	}

	// Difference while the series still behaves like a random walk.
	d := 0
	stages := [][]float64{values}
	for d < arimaMaxD {
		r1, err := stats.AutoCorrelation(stages[d], 1)
		if err != nil || r1 <= 0.9 {
			break
		}
		stages = append(stages, diff(stages[d]))
		d++
	}

	w := stages[d]
	mu := stats.Mean(w)
	z := make([]float64, len(w))
	for i, v := range w {
		z[i] = v - mu
	}

	pLong := len(z) / 5
	if pLong > 20 {
		pLong = 20
	}
	if pLong < arimaMaxP+arimaMaxQ {
		pLong = arimaMaxP + arimaMaxQ
	}
	eHat, err := longARResiduals(z, pLong)
	if err != nil {
		return nil, err
	}

	// Fits share the regression window so AIC values are comparable.
	t0 := pLong + arimaMaxP
	best := fitWhiteNoise(z, t0)
	for p := 0; p <= arimaMaxP; p++ {
		for q := 0; q <= arimaMaxQ; q++ {
			if p == 0 && q == 0 {
				continue
			}
			fit, ok := fitHannanRissanen(z, eHat, p, q, t0)
			if ok && fit.aic < best.aic {
				best = fit
			}
		}
	}

	// Iterate the recursion forward with future shocks at zero.
	zExt := make([]float64, len(z), len(z)+horizon)
	copy(zExt, z)
	eExt := make([]float64, len(eHat), len(eHat)+horizon)
	copy(eExt, eHat)
	for h := 0; h < horizon; h++ {
		t := len(zExt)
		next := 0.0
		for i, c := range best.phi {
			next += c * zExt[t-1-i]
		}
		for j, c := range best.theta {
			if t-1-j < len(z) {
				next += c * eExt[t-1-j]
			}
		}
		zExt = append(zExt, next)
		eExt = append(eExt, 0)
	}

	// Back to the original scale: add the mean, then undo the differencing.
	points := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		points[h] = zExt[len(z)+h] + mu
	}
	for k := d; k >= 1; k-- {
		acc := stages[k-1][len(stages[k-1])-1]
		for i := range points {
			acc += points[i]
			points[i] = acc
		}
	}

	fitted := make([]float64, len(values))
	for i := range fitted {
		fitted[i] = math.NaN()
	}
	for i, r := range best.res {
		orig := t0 + i + d
		fitted[orig] = values[orig] - r
	}

	result := &Result{
		Method: f.Name(),
		Points: points,
		Fitted: fitted,
		Params: map[string]float64{
			"p": float64(best.p),
			"d": float64(d),
			"q": float64(best.q),
		},
	}
	applyInterval(result, math.Sqrt(best.sigma2), cfg.confidence())
	return result, nil
}

// fitWhiteNoise scores the (0,0) model: the differenced series is noise
// around its mean.
func fitWhiteNoise(z []float64, t0 int) arimaFit {
	res := make([]float64, len(z)-t0)
	copy(res, z[t0:])
	sigma2 := meanSquare(res)
	return arimaFit{
		res:    res,
		sigma2: sigma2,
		aic:    aic(len(res), sigma2, 0),
	}
}

// fitHannanRissanen regresses z[t] on its own lags and on long-AR residual
// lags. Returns ok=false when the design matrix is unusable.
func fitHannanRissanen(z, eHat []float64, p, q, t0 int) (arimaFit, bool) {
	rows := len(z) - t0
	cols := p + q
	if rows < cols+5 {
		return arimaFit{}, false
	}

	X := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		t := t0 + i
		y.SetVec(i, z[t])
		for j := 0; j < p; j++ {
			X.Set(i, j, z[t-1-j])
		}
		for j := 0; j < q; j++ {
			X.Set(i, p+j, eHat[t-1-j])
		}
	}

	var qr mat.QR
	qr.Factorize(X)
	coef := mat.NewVecDense(cols, nil)
	if err := qr.SolveVecTo(coef, false, y); err != nil {
		return arimaFit{}, false
	}

	fit := arimaFit{
		p:     p,
		q:     q,
		phi:   make([]float64, p),
		theta: make([]float64, q),
		res:   make([]float64, rows),
	}
	for j := 0; j < p; j++ {
		fit.phi[j] = coef.AtVec(j)
	}
	for j := 0; j < q; j++ {
		fit.theta[j] = coef.AtVec(p + j)
	}

	for i := 0; i < rows; i++ {
		pred := 0.0
		for j := 0; j < cols; j++ {
			pred += X.At(i, j) * coef.AtVec(j)
		}
		fit.res[i] = y.AtVec(i) - pred
	}
	fit.sigma2 = meanSquare(fit.res)
	fit.aic = aic(rows, fit.sigma2, p+q)
	return fit, true
}

// longARResiduals fits a high-order AR by Levinson-Durbin on the
// autocorrelations and returns its one-step residuals (zero during warmup).
func longARResiduals(z []float64, pLong int) ([]float64, error) {
	acf, err := stats.ACF(z, pLong)
	if err != nil {
		return nil, err
	}
	r := append([]float64{1}, acf...)
	phi := levinsonDurbin(r, pLong)

	eHat := make([]float64, len(z))
	for t := pLong; t < len(z); t++ {
		pred := 0.0
		for i, c := range phi {
			pred += c * z[t-1-i]
		}
		eHat[t] = z[t] - pred
	}
	return eHat, nil
}

// levinsonDurbin solves the Yule-Walker equations for AR(p) coefficients
// given autocorrelations r[0..p].
func levinsonDurbin(r []float64, p int) []float64 {
	phi := make([]float64, p+1)
	prev := make([]float64, p+1)
	e := r[0]
	for k := 1; k <= p; k++ {
		acc := r[k]
		for j := 1; j < k; j++ {
			acc -= prev[j] * r[k-j]
		}
		if e == 0 {
			e = 1e-12
		}
		kappa := acc / e
		phi[k] = kappa
		for j := 1; j < k; j++ {
			phi[j] = prev[j] - kappa*prev[k-j]
		}
		e *= 1 - kappa*kappa
		copy(prev, phi)
	}
	return phi[1 : p+1]
}

func diff(values []float64) []float64 {
	out := make([]float64, len(values)-1)
	for i := range out {
		out[i] = values[i+1] - values[i]
	}
	return out
}

func meanSquare(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v * v
	}
	return sum / float64(len(values))
}

func aic(n int, sigma2 float64, k int) float64 {
	if sigma2 < 1e-12 {
		sigma2 = 1e-12
	}
	return float64(n)*math.Log(sigma2) + 2*float64(k+1)
}
