// Package report assembles the artifacts of one analysis run: a JSON
// summary, per-target forecast CSVs, and an HTML chart page. Everything is
// written into the run's output directory; nothing is served.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/components"

	"github.com/gridseer/gridseer/internal/dataset"
	"github.com/gridseer/gridseer/internal/forecast"
	"github.com/gridseer/gridseer/internal/stats"
	"github.com/gridseer/gridseer/internal/visualization"
	"github.com/gridseer/gridseer/pkg/errors"
	"github.com/gridseer/gridseer/pkg/models"
)

// FieldSummary pairs one column with its descriptive statistics. Outliers
// counts readings outside the IQR fences the run was configured with.
type FieldSummary struct {
	Field    string        `json:"field"`
	Missing  int           `json:"missing"`
	Outliers int           `json:"outliers"`
	Summary  stats.Summary `json:"summary"`
}

// PeriodStrength reports how pronounced one seasonal period is.
type PeriodStrength struct {
	Period   int     `json:"period"`
	Strength float64 `json:"strength"`
}

// Seasonality lists the detected periods of one column.
type Seasonality struct {
	Field   string           `json:"field"`
	Periods []PeriodStrength `json:"periods"`
}

// Target bundles the tournament outcome and the chosen forecast for one
// forecast series.
type Target struct {
	Field      string               `json:"field"`
	Comparison *forecast.Comparison `json:"comparison"`
	Forecast   *forecast.Result     `json:"forecast"`
	Residuals  *ResidualCheck       `json:"residuals,omitempty"`
}

// ResidualCheck is a Ljung-Box verdict on the winner's one-step residuals.
// WhiteNoise means the test found no leftover autocorrelation at the 5%
// level, i.e. the method squeezed the structure out of the series.
type ResidualCheck struct {
	Lags       int     `json:"lags"`
	Statistic  float64 `json:"statistic"`
	PValue     float64 `json:"p_value"`
	WhiteNoise bool    `json:"white_noise"`
}

// maxResidualLags caps the Ljung-Box pooling window at two hours of
// readings.
const maxResidualLags = 2 * models.PointsPerHour

// CheckResiduals runs a Ljung-Box test on the one-step residuals of a fitted
// forecast. It returns nil when the fit carries too few residuals to test.
func CheckResiduals(values []float64, result *forecast.Result) *ResidualCheck {
	if result == nil || len(result.Fitted) != len(values) {
		return nil
	}
	residuals := make([]float64, 0, len(values))
	for i, fit := range result.Fitted {
		if !math.IsNaN(fit) && !math.IsNaN(values[i]) {
			residuals = append(residuals, values[i]-fit)
		}
	}

	lags := len(residuals) / 5
	if lags > maxResidualLags {
		lags = maxResidualLags
	}
	if lags < 1 {
		return nil
	}
	q, p, err := stats.LjungBox(residuals, lags)
	if err != nil {
		return nil
	}
	return &ResidualCheck{
		Lags:       lags,
		Statistic:  q,
		PValue:     p,
		WhiteNoise: p > 0.05,
	}
}

// Report is the JSON artifact of one run.
type Report struct {
	RunID       string               `json:"run_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Input       string               `json:"input"`
	Interval    string               `json:"interval"`
	Start       time.Time            `json:"start"`
	End         time.Time            `json:"end"`
	Rows        int                  `json:"rows"`
	Fields      []FieldSummary       `json:"fields"`
	Cleaning    *dataset.CleanResult `json:"cleaning,omitempty"`
	Seasonality []Seasonality        `json:"seasonality,omitempty"`
	Targets     []Target             `json:"targets,omitempty"`
}

// Build assembles the report metadata and per-field summaries for one run.
// Cleaning, seasonality, and targets are optional; commands pass what their
// stage of the pipeline produced. k sets the IQR fences behind the per-field
// outlier counts.
func Build(runID, input string, frame *models.Frame, k float64, cleaning *dataset.CleanResult, seasonality []Seasonality, targets []Target) (*Report, error) {
	if frame.Len() == 0 {
		return nil, errors.NewValidationError(errors.CodeInvalidInput,
			"cannot report on an empty frame")
	}

	r := &Report{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Input:       input,
		Interval:    frame.Interval.String(),
		Start:       frame.Start(),
		End:         frame.End(),
		Rows:        frame.Len(),
		Cleaning:    cleaning,
		Seasonality: seasonality,
		Targets:     targets,
	}
	for _, f := range frame.Fields {
		present := make([]float64, 0, frame.Len())
		for _, v := range frame.Values[f] {
			if !math.IsNaN(v) {
				present = append(present, v)
			}
		}
		s, err := stats.Describe(present)
		if err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeValidation, errors.CodeInvalidInput,
				fmt.Sprintf("cannot summarize column %q", f))
		}
		fs := FieldSummary{
			Field:   f,
			Missing: frame.MissingCount(f),
			Summary: s,
		}
		if idx, err := stats.DetectOutliers(present, k); err == nil {
			fs.Outliers = len(idx)
		}
		r.Fields = append(r.Fields, fs)
	}
	return r, nil
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(r *Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
			"failed to encode the report")
	}
	return nil
}

// WriteForecastCSV writes the forecast horizon as timestamp,value,lower,upper
// rows. Timestamps continue the history grid.
func WriteForecastCSV(history *models.TimeSeries, result *forecast.Result, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "value", "lower", "upper"}); err != nil {
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
			"failed to write the forecast header")
	}
	for i, ts := range history.FutureTimestamps(len(result.Points)) {
		row := []string{
			ts.Format(time.RFC3339),
			formatValue(result.Points[i]),
			formatValue(boundAt(result.Lower, i)),
			formatValue(boundAt(result.Upper, i)),
		}
		if err := cw.Write(row); err != nil {
			return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
				"failed to write a forecast row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
			"failed to flush the forecast")
	}
	return nil
}

// RenderHTML writes the run's chart page next to the other artifacts.
func RenderHTML(r *Report, charters []components.Charter, path string) error {
	title := fmt.Sprintf("gridseer run %s", r.RunID)
	return visualization.RenderPage(path, title, charters...)
}

func boundAt(bounds []float64, i int) float64 {
	if i >= len(bounds) {
		return math.NaN()
	}
	return bounds[i]
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
