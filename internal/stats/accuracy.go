package stats

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/gridseer/gridseer/pkg/errors"
)

// Metrics holds holdout accuracy measures for one forecast. Lower is better
// for all of them. MAPE is NaN when every actual is zero.
type Metrics struct {
	MAE   float64 `json:"mae"`
	RMSE  float64 `json:"rmse"`
	MAPE  float64 `json:"mape"`
	SMAPE float64 `json:"smape"`
}

// MarshalJSON encodes undefined metrics as null. encoding/json rejects NaN,
// and failed fits carry NaN scores through reports.
func (m Metrics) MarshalJSON() ([]byte, error) {
	enc := struct {
		MAE   *float64 `json:"mae"`
		RMSE  *float64 `json:"rmse"`
		MAPE  *float64 `json:"mape"`
		SMAPE *float64 `json:"smape"`
	}{
		MAE:   finiteOrNil(m.MAE),
		RMSE:  finiteOrNil(m.RMSE),
		MAPE:  finiteOrNil(m.MAPE),
		SMAPE: finiteOrNil(m.SMAPE),
	}
	return json.Marshal(enc)
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Metric names accepted by the selection workflow.
const (
	MetricMAE   = "mae"
	MetricRMSE  = "rmse"
	MetricMAPE  = "mape"
	MetricSMAPE = "smape"
)

// ValidMetric reports whether name is a known accuracy metric.
func ValidMetric(name string) bool {
	switch name {
	case MetricMAE, MetricRMSE, MetricMAPE, MetricSMAPE:
		return true
	}
	return false
}

// Value returns the named metric.
func (m Metrics) Value(name string) float64 {
	switch name {
	case MetricMAE:
		return m.MAE
	case MetricRMSE:
		return m.RMSE
	case MetricMAPE:
		return m.MAPE
	case MetricSMAPE:
		return m.SMAPE
	}
	return math.NaN()
}

// Accuracy scores predicted against actual.
func Accuracy(actual, predicted []float64) (Metrics, error) {
	if len(actual) != len(predicted) {
		return Metrics{}, errors.NewValidationError(errors.CodeInvalidInput,
			fmt.Sprintf("actual has %d values, predicted has %d", len(actual), len(predicted)))
	}
	if len(actual) == 0 {
		return Metrics{}, errors.NewValidationError(errors.CodeInsufficientData,
			"cannot score an empty window")
	}

	return Metrics{
		MAE:   MAE(actual, predicted),
		RMSE:  RMSE(actual, predicted),
		MAPE:  MAPE(actual, predicted),
		SMAPE: SMAPE(actual, predicted),
	}, nil
}

// MAE returns the mean absolute error.
func MAE(actual, predicted []float64) float64 {
	sum := 0.0
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

// RMSE returns the root mean squared error.
func RMSE(actual, predicted []float64) float64 {
	sum := 0.0
	for i := range actual {
		diff := actual[i] - predicted[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(actual)))
}

// MAPE returns the mean absolute percentage error. Zero actuals are skipped;
// the result is NaN when every actual is zero.
func MAPE(actual, predicted []float64) float64 {
	sum := 0.0
	count := 0
	for i := range actual {
		if actual[i] == 0 {
			continue
		}
		sum += math.Abs((actual[i] - predicted[i]) / actual[i])
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count) * 100
}

// SMAPE returns the symmetric mean absolute percentage error. Pairs where
// both values are zero contribute nothing.
func SMAPE(actual, predicted []float64) float64 {
	sum := 0.0
	for i := range actual {
		denom := (math.Abs(actual[i]) + math.Abs(predicted[i])) / 2
		if denom == 0 {
			continue
		}
		sum += math.Abs(actual[i]-predicted[i]) / denom
	}
	return sum / float64(len(actual)) * 100
}
