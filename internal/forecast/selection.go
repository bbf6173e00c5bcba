package forecast

import (
	"fmt"
	"math"
	"sort"

	"github.com/gridseer/gridseer/internal/stats"
	"github.com/gridseer/gridseer/pkg/errors"
	"github.com/gridseer/gridseer/pkg/models"
)

// DefaultTestLen returns the holdout length for a series of n points: a
// quarter of the data, at most one week.
func DefaultTestLen(n int) int {
	testLen := n / 4
	if testLen > models.PointsPerWeek {
		testLen = models.PointsPerWeek
	}
	if testLen < 1 {
		testLen = 1
	}
	return testLen
}

// Holdout splits values into a training head and a test tail of testLen
// points. The test tail may take at most half the data.
func Holdout(values []float64, testLen int) (train, test []float64, err error) {
	if testLen < 1 {
		return nil, nil, errors.NewValidationError(errors.CodeOutOfRange,
			fmt.Sprintf("holdout length must be at least 1, got %d", testLen))
	}
	if testLen > len(values)/2 {
		return nil, nil, errors.NewValidationError(errors.CodeOutOfRange,
			fmt.Sprintf("holdout length %d exceeds half of %d points", testLen, len(values)))
	}
	cut := len(values) - testLen
	return values[:cut], values[cut:], nil
}

// ModelScore is one method's holdout accuracy. Err is set when the method
// could not produce a forecast, and such scores rank last.
type ModelScore struct {
	Method  string             `json:"method"`
	Metrics stats.Metrics      `json:"metrics"`
	Params  map[string]float64 `json:"params,omitempty"`
	Err     string             `json:"error,omitempty"`
}

func (s ModelScore) failed() bool { return s.Err != "" }

// Comparison ranks the candidate methods on a holdout split, best first.
type Comparison struct {
	// Metric is the ranking metric actually used. It can differ from the
	// requested one: MAPE falls back to RMSE when every actual in the test
	// window is zero.
	Metric  string       `json:"metric"`
	TestLen int          `json:"test_len"`
	Scores  []ModelScore `json:"scores"`
	Best    string       `json:"best"`
}

// Compare fits each method on the training head, scores it on the test tail,
// and ranks the scores. An empty method list means every registered method.
func Compare(values []float64, methods []string, cfg Config, testLen int, metric string) (*Comparison, error) {
	if metric == "" {
		metric = stats.MetricMAPE
	}
	if !stats.ValidMetric(metric) {
		return nil, errors.NewValidationError(errors.CodeInvalidMetric,
			fmt.Sprintf("unknown accuracy metric %q, have: mae, rmse, mape, smape", metric))
	}
	if len(methods) == 0 {
		methods = List()
	}

	candidates := make([]Forecaster, 0, len(methods))
	for _, name := range methods {
		f, err := Get(name)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, f)
	}

	train, test, err := Holdout(values, testLen)
	if err != nil {
		return nil, err
	}

	comparison := &Comparison{
		Metric:  metric,
		TestLen: testLen,
		Scores:  make([]ModelScore, 0, len(candidates)),
	}
	succeeded := 0
	for _, f := range candidates {
		score := ModelScore{Method: f.Name()}
		result, err := f.Forecast(train, len(test), cfg)
		if err == nil {
			score.Params = result.Params
			score.Metrics, err = stats.Accuracy(test, result.Points)
		}
		if err != nil {
			score.Err = err.Error()
			score.Metrics = stats.Metrics{
				MAE:   math.NaN(),
				RMSE:  math.NaN(),
				MAPE:  math.NaN(),
				SMAPE: math.NaN(),
			}
		} else {
			succeeded++
		}
		comparison.Scores = append(comparison.Scores, score)
	}
	if succeeded == 0 {
		return nil, errors.WrapError(errors.ErrAllModelsFailed, errors.ErrorTypeProcessing,
			errors.CodeSelectionFailed,
			fmt.Sprintf("all %d candidate methods failed on a %d/%d split",
				len(candidates), len(train), len(test)))
	}

	// MAPE is undefined when the test window is all zeros; fall back to RMSE
	// so the ranking stays meaningful.
	if metric == stats.MetricMAPE {
		usable := false
		for _, s := range comparison.Scores {
			if !s.failed() && !math.IsNaN(s.Metrics.MAPE) {
				usable = true
				break
			}
		}
		if !usable {
			comparison.Metric = stats.MetricRMSE
		}
	}

	rankScores(comparison.Scores, comparison.Metric)
	comparison.Best = comparison.Scores[0].Method
	return comparison, nil
}

// rankScores orders scores by the primary metric ascending, breaking ties on
// RMSE. Failed methods and NaN metrics sort last.
func rankScores(scores []ModelScore, metric string) {
	sort.SliceStable(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.failed() != b.failed() {
			return !a.failed()
		}
		av, bv := a.Metrics.Value(metric), b.Metrics.Value(metric)
		if math.IsNaN(av) != math.IsNaN(bv) {
			return !math.IsNaN(av)
		}
		if av != bv {
			return av < bv
		}
		ar, br := a.Metrics.RMSE, b.Metrics.RMSE
		if math.IsNaN(ar) != math.IsNaN(br) {
			return !math.IsNaN(ar)
		}
		return ar < br
	})
}

// BestForecast runs the holdout comparison and refits the winning method on
// the full series to forecast the unknown horizon.
func BestForecast(values []float64, methods []string, cfg Config, horizon, testLen int, metric string) (*Result, *Comparison, error) {
	comparison, err := Compare(values, methods, cfg, testLen, metric)
	if err != nil {
		return nil, nil, err
	}
	winner, err := Get(comparison.Best)
	if err != nil {
		return nil, nil, err
	}
	result, err := winner.Forecast(values, horizon, cfg)
	if err != nil {
		return nil, comparison, errors.WrapError(err, errors.ErrorTypeProcessing,
			errors.CodeForecastFailed,
			fmt.Sprintf("refit of winning method %q on the full series failed", comparison.Best))
	}
	return result, comparison, nil
}
