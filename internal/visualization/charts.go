// Package visualization renders the exploratory charts: interactive HTML
// pages via go-echarts and static PNG images via gonum/plot. Both sides share
// the same data extraction so the two formats always agree.
package visualization

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/gridseer/gridseer/internal/decompose"
	"github.com/gridseer/gridseer/internal/forecast"
	"github.com/gridseer/gridseer/internal/stats"
	"github.com/gridseer/gridseer/pkg/errors"
	"github.com/gridseer/gridseer/pkg/models"
)

const (
	chartWidth  = "1200px"
	chartHeight = "400px"

	timeLabelFormat = "01-02 15:04"
)

func timeLabels(stamps []time.Time) []string {
	out := make([]string, len(stamps))
	for i, ts := range stamps {
		out[i] = ts.Format(timeLabelFormat)
	}
	return out
}

// lineData converts values, leaving gaps at missing readings.
func lineData(values []float64) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = opts.LineData{Value: nil}
			continue
		}
		out[i] = opts.LineData{Value: v}
	}
	return out
}

// dropMissing filters NaN readings so the stats helpers see a dense series.
func dropMissing(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// padSeries places values at offset on an axis of total points, with gaps
// elsewhere. Forecast series start where the history ends.
func padSeries(values []float64, offset, total int) []opts.LineData {
	out := make([]opts.LineData, total)
	for i := range out {
		out[i] = opts.LineData{Value: nil}
	}
	for i, v := range values {
		if offset+i >= total {
			break
		}
		if !math.IsNaN(v) {
			out[offset+i] = opts.LineData{Value: v}
		}
	}
	return out
}

func newLine(title, subtitle string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	return line
}

// OverviewChart draws every reading column on one zoomable chart.
func OverviewChart(frame *models.Frame) (*charts.Line, error) {
	if frame.Len() == 0 {
		return nil, errors.NewValidationError(errors.CodeInvalidInput,
			"cannot chart an empty frame")
	}
	subtitle := fmt.Sprintf("%s to %s, %s interval",
		frame.Start().Format("2006-01-02 15:04"),
		frame.End().Format("2006-01-02 15:04"),
		frame.Interval)
	line := newLine("Energy readings ("+models.DefaultUnit+")", subtitle)
	line.SetXAxis(timeLabels(frame.Timestamps))
	for _, f := range frame.Fields {
		line.AddSeries(f, lineData(frame.Values[f]))
	}
	return line, nil
}

// BoxplotChart summarizes each column as min/Q1/median/Q3/max whiskers with
// the IQR outlier candidates overlaid as scatter points.
func BoxplotChart(frame *models.Frame, k float64) (*charts.BoxPlot, error) {
	if frame.Len() == 0 {
		return nil, errors.NewValidationError(errors.CodeInvalidInput,
			"cannot chart an empty frame")
	}

	box := charts.NewBoxPlot()
	box.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Distribution by field",
			Subtitle: fmt.Sprintf("whiskers at min/max, outliers beyond %.1f IQR", k),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	box.SetXAxis(frame.Fields)

	data := make([]opts.BoxPlotData, 0, len(frame.Fields))
	var points []opts.ScatterData
	for _, f := range frame.Fields {
		present := dropMissing(frame.Values[f])
		s, err := stats.Describe(present)
		if err != nil {
			return nil, err
		}
		data = append(data, opts.BoxPlotData{
			Name:  f,
			Value: []float64{s.Min, s.Q1, s.Median, s.Q3, s.Max},
		})

		lower, upper, err := stats.IQRBounds(present, k)
		if err != nil {
			continue // column too short for fences
		}
		for _, v := range frame.Values[f] {
			if v < lower || v > upper { // NaN compares false, gaps skipped
				points = append(points, opts.ScatterData{Value: []interface{}{f, v}})
			}
		}
	}
	box.AddSeries("readings", data)
	if len(points) > 0 {
		scatter := charts.NewScatter()
		scatter.AddSeries("outliers", points,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
		box.Overlap(scatter)
	}
	return box, nil
}

// DecompositionCharts builds the small multiples for one decomposed series:
// observed, trend, one chart per seasonal period, and the remainder.
func DecompositionCharts(field string, stamps []time.Time, values []float64, md *decompose.MultiDecomposition) ([]components.Charter, error) {
	if len(stamps) != len(values) || len(stamps) != len(md.Trend) {
		return nil, errors.NewValidationError(errors.CodeInvalidInput,
			fmt.Sprintf("decomposition of %d points does not match %d timestamps",
				len(md.Trend), len(stamps)))
	}
	labels := timeLabels(stamps)

	add := func(title string, series []float64) *charts.Line {
		line := newLine(fmt.Sprintf("%s: %s", field, title), "")
		line.SetXAxis(labels)
		line.AddSeries(title, lineData(series))
		return line
	}

	out := []components.Charter{
		add("observed", values),
		add("trend", md.Trend),
	}
	for _, period := range md.Periods {
		out = append(out, add(fmt.Sprintf("seasonal (period %d)", period), md.Seasonals[period]))
	}
	out = append(out, add("remainder", md.Remainder))
	return out, nil
}

// ForecastChart draws the history tail, the forecast, and the prediction
// interval bounds as dashed lines.
func ForecastChart(field string, history *models.TimeSeries, result *forecast.Result) (*charts.Line, error) {
	if history.Len() == 0 {
		return nil, errors.NewValidationError(errors.CodeInvalidInput,
			"cannot chart a forecast without history")
	}
	n := history.Len()
	total := n + len(result.Points)
	labels := timeLabels(append(history.Timestamps(), history.FutureTimestamps(len(result.Points))...))

	line := newLine(
		fmt.Sprintf("%s forecast: %s", field, result.Method),
		fmt.Sprintf("%d steps ahead", len(result.Points)),
	)
	line.SetXAxis(labels)
	line.AddSeries("history", padSeries(history.Values(), 0, total))
	line.AddSeries("forecast", padSeries(result.Points, n, total))
	line.AddSeries("lower", padSeries(result.Lower, n, total),
		charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))
	line.AddSeries("upper", padSeries(result.Upper, n, total),
		charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))
	return line, nil
}

// ComparisonChart draws the holdout tournament scores, best first.
func ComparisonChart(cmp *forecast.Comparison) (*charts.Bar, error) {
	if len(cmp.Scores) == 0 {
		return nil, errors.NewValidationError(errors.CodeInvalidInput,
			"comparison has no scores to chart")
	}

	names := make([]string, 0, len(cmp.Scores))
	values := make([]opts.BarData, 0, len(cmp.Scores))
	for _, s := range cmp.Scores {
		names = append(names, s.Method)
		v := s.Metrics.Value(cmp.Metric)
		if math.IsNaN(v) {
			values = append(values, opts.BarData{Value: nil})
			continue
		}
		values = append(values, opts.BarData{Value: v})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Holdout accuracy by method",
			Subtitle: fmt.Sprintf("metric: %s, test window: %d points, best: %s", cmp.Metric, cmp.TestLen, cmp.Best),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).AddSeries(cmp.Metric, values,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar, nil
}

// RenderPage assembles charts into one self-contained HTML page at path.
func RenderPage(path, title string, charters ...components.Charter) error {
	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(charters...)

	file, err := os.Create(path)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
			fmt.Sprintf("failed to create %s", path))
	}
	defer file.Close()
	if err := page.Render(file); err != nil {
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
			fmt.Sprintf("failed to render %s", path))
	}
	return nil
}
