package visualization

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/gridseer/gridseer/internal/forecast"
	"github.com/gridseer/gridseer/pkg/errors"
	"github.com/gridseer/gridseer/pkg/models"
)

// palette cycles through the line colors for static charts.
var palette = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
}

var intervalGray = color.RGBA{R: 128, G: 128, B: 128, A: 255}

const (
	pngWidth  = 14 * vg.Inch
	pngHeight = 6 * vg.Inch
)

func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time"
	p.Y.Label.Text = models.DefaultUnit
	p.X.Tick.Marker = plot.TimeTicks{Format: timeLabelFormat}
	p.Legend.Top = true
	return p
}

// xys pairs timestamps in seconds with values, dropping missing readings so
// plotter.NewLine never sees a NaN.
func xys(stamps []float64, values []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		pts = append(pts, plotter.XY{X: stamps[i], Y: v})
	}
	return pts
}

func frameSeconds(frame *models.Frame) []float64 {
	out := make([]float64, len(frame.Timestamps))
	for i, ts := range frame.Timestamps {
		out[i] = float64(ts.Unix())
	}
	return out
}

func addLine(p *plot.Plot, label string, pts plotter.XYs, c color.RGBA, dashed bool) error {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeInternal, errors.CodeInternalError,
			fmt.Sprintf("failed to build the %s line", label))
	}
	line.Color = c
	line.Width = vg.Points(1)
	if dashed {
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	}
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}

// SeriesPNG writes one static line chart with every column of the frame.
func SeriesPNG(frame *models.Frame, path string) error {
	if frame.Len() == 0 {
		return errors.NewValidationError(errors.CodeInvalidInput,
			"cannot chart an empty frame")
	}
	p := newPlot("Energy readings")
	seconds := frameSeconds(frame)
	for i, f := range frame.Fields {
		if err := addLine(p, f, xys(seconds, frame.Values[f]), palette[i%len(palette)], false); err != nil {
			return err
		}
	}
	return savePlot(p, path)
}

// ForecastPNG writes a static chart of the history tail, the forecast, and
// the prediction interval bounds.
func ForecastPNG(field string, history *models.TimeSeries, result *forecast.Result, path string) error {
	if history.Len() == 0 {
		return errors.NewValidationError(errors.CodeInvalidInput,
			"cannot chart a forecast without history")
	}
	p := newPlot(fmt.Sprintf("%s forecast: %s", field, result.Method))

	histSeconds := make([]float64, history.Len())
	for i, ts := range history.Timestamps() {
		histSeconds[i] = float64(ts.Unix())
	}
	futureSeconds := make([]float64, len(result.Points))
	for i, ts := range history.FutureTimestamps(len(result.Points)) {
		futureSeconds[i] = float64(ts.Unix())
	}

	if err := addLine(p, "history", xys(histSeconds, history.Values()), palette[0], false); err != nil {
		return err
	}
	if err := addLine(p, "forecast", xys(futureSeconds, result.Points), palette[1], false); err != nil {
		return err
	}
	if err := addLine(p, "lower", xys(futureSeconds, result.Lower), intervalGray, true); err != nil {
		return err
	}
	if err := addLine(p, "upper", xys(futureSeconds, result.Upper), intervalGray, true); err != nil {
		return err
	}
	return savePlot(p, path)
}

func savePlot(p *plot.Plot, path string) error {
	if err := p.Save(pngWidth, pngHeight, path); err != nil {
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
			fmt.Sprintf("failed to save %s", path))
	}
	return nil
}
