package stats

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccuracy(t *testing.T) {
	actual := []float64{100, 200, 300}
	predicted := []float64{110, 190, 330}

	m, err := Accuracy(actual, predicted)
	require.NoError(t, err)

	assert.InDelta(t, 50.0/3.0, m.MAE, 1e-9)
	assert.InDelta(t, math.Sqrt(1100.0/3.0), m.RMSE, 1e-9)
	assert.InDelta(t, 25.0/3.0, m.MAPE, 1e-9)
	assert.InDelta(t, 8.0586, m.SMAPE, 1e-3)
}

func TestAccuracyValidation(t *testing.T) {
	_, err := Accuracy([]float64{1, 2}, []float64{1})
	assert.Error(t, err, "length mismatch")

	_, err = Accuracy(nil, nil)
	assert.Error(t, err, "empty window")
}

func TestMAPESkipsZeroActuals(t *testing.T) {
	mape := MAPE([]float64{0, 100}, []float64{5, 110})
	assert.InDelta(t, 10.0, mape, 1e-9, "zero actual skipped, only the 10%% error counts")

	assert.True(t, math.IsNaN(MAPE([]float64{0, 0}, []float64{1, 1})),
		"all-zero actuals have no defined MAPE")
}

func TestPerfectForecastScoresZero(t *testing.T) {
	actual := []float64{5, 6, 7, 8}

	m, err := Accuracy(actual, actual)
	require.NoError(t, err)
	assert.Zero(t, m.MAE)
	assert.Zero(t, m.RMSE)
	assert.Zero(t, m.MAPE)
	assert.Zero(t, m.SMAPE)
}

func TestMetricsValue(t *testing.T) {
	m := Metrics{MAE: 1, RMSE: 2, MAPE: 3, SMAPE: 4}

	assert.Equal(t, 1.0, m.Value(MetricMAE))
	assert.Equal(t, 2.0, m.Value(MetricRMSE))
	assert.Equal(t, 3.0, m.Value(MetricMAPE))
	assert.Equal(t, 4.0, m.Value(MetricSMAPE))
	assert.True(t, math.IsNaN(m.Value("r2")))
}

func TestValidMetric(t *testing.T) {
	assert.True(t, ValidMetric("mape"))
	assert.True(t, ValidMetric("rmse"))
	assert.False(t, ValidMetric("accuracy"))
}

func TestMetricsMarshalNaNAsNull(t *testing.T) {
	m := Metrics{MAE: 1.5, RMSE: 2, MAPE: math.NaN(), SMAPE: math.Inf(1)}

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mae":1.5,"rmse":2,"mape":null,"smape":null}`, string(out))
}
