package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gridseer/gridseer/internal/dataset"
	"github.com/gridseer/gridseer/internal/forecast"
	"github.com/gridseer/gridseer/internal/report"
	"github.com/gridseer/gridseer/internal/stats"
	"github.com/gridseer/gridseer/internal/visualization"
	"github.com/gridseer/gridseer/pkg/models"
)

type ForecastOptions struct {
	InputFile     string
	Series        []string
	Horizon       int
	Holdout       int
	Metric        string
	Methods       []string
	IQRMultiplier float64
	Confidence    float64
	OutputDir     string
	ChartFormat   string
	Sheet         string
	Table         string
}

func NewForecastCmd() *cobra.Command {
	opts := &ForecastOptions{}

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Pick the most accurate method per series and forecast ahead",
		Long: `Clean each requested series, hold out its trailing window, score every
candidate forecasting method against that window, refit the winner on the full
series, and forecast the horizon. The default horizon is one week of 5-minute
readings (2016 points).`,
		Example: `  # Week-ahead demand and import forecasts with defaults
  gridseer forecast -i readings.csv -o out/

  # A custom tournament on demand only
  gridseer forecast -i readings.csv --series demand --methods ses,holt,arima \
    --holdout 576 --metric rmse`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForecast(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "Input file (.csv, .xlsx, .db) (required)")
	cmd.Flags().StringSliceVar(&opts.Series, "series", []string{models.FieldDemand, models.FieldImport}, "Series to forecast")
	cmd.Flags().IntVar(&opts.Horizon, "horizon", models.PointsPerWeek, "Steps to forecast")
	cmd.Flags().IntVar(&opts.Holdout, "holdout", 0, "Holdout window in readings (default sized from the data)")
	cmd.Flags().StringVar(&opts.Metric, "metric", stats.MetricMAPE, "Selection metric (mae, rmse, mape, smape)")
	cmd.Flags().StringSliceVar(&opts.Methods, "methods", nil, "Candidate methods (default all registered)")
	cmd.Flags().Float64VarP(&opts.IQRMultiplier, "iqr-multiplier", "k", stats.DefaultIQRMultiplier, "IQR fence multiplier for cleaning")
	cmd.Flags().Float64Var(&opts.Confidence, "confidence", 0.95, "Prediction interval confidence (0.80, 0.95, 0.99)")
	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "", "Directory for forecast CSV, JSON, and charts")
	cmd.Flags().StringVar(&opts.ChartFormat, "chart-format", "", "Chart format (html, png)")
	cmd.Flags().StringVar(&opts.Sheet, "sheet", "", "Workbook sheet to read (default first sheet)")
	cmd.Flags().StringVar(&opts.Table, "table", "", "SQLite table to read (default readings)")

	cmd.MarkFlagRequired("input")

	return cmd
}

func runForecast(cmd *cobra.Command, opts *ForecastOptions) error {
	cfg := cliConfig()
	runID := uuid.NewString()
	logger := logrus.WithField("run_id", runID)

	horizon := intOrConfig(cmd, "horizon", opts.Horizon, cfg.Forecast.Horizon)
	holdout := intOrConfig(cmd, "holdout", opts.Holdout, cfg.Forecast.Holdout)
	metric := stringOrConfig(cmd, "metric", opts.Metric, cfg.Forecast.Metric)
	methods := sliceOrConfig(cmd, "methods", opts.Methods, cfg.Forecast.Methods)
	k := floatOrConfig(cmd, "iqr-multiplier", opts.IQRMultiplier, cfg.Cleaning.IQRMultiplier)
	confidence := floatOrConfig(cmd, "confidence", opts.Confidence, cfg.Forecast.Confidence)
	chartFormat := stringOrConfig(cmd, "chart-format", opts.ChartFormat, cfg.ChartFormat)
	if chartFormat == "" {
		chartFormat = chartHTML
	}

	dopts := datasetOptions(opts.Sheet, opts.Table)
	frame, _, err := loadFrame(opts.InputFile, dopts)
	if err != nil {
		return err
	}
	fields, err := selectFields(frame, opts.Series)
	if err != nil {
		return err
	}

	cleaned, cleanResult, err := dataset.Clean(frame, k, dopts)
	if err != nil {
		return err
	}

	fcfg := forecast.DefaultConfig()
	fcfg.Confidence = confidence

	var targets []report.Target
	for _, field := range fields {
		values := cleaned.Values[field]
		testLen := holdout
		if testLen <= 0 {
			testLen = forecast.DefaultTestLen(len(values))
		}
		logger.WithFields(logrus.Fields{
			"field":    field,
			"test_len": testLen,
			"metric":   metric,
		}).Info("Scoring candidate methods against the holdout")

		result, cmp, err := forecast.BestForecast(values, methods, fcfg, horizon, testLen, metric)
		if err != nil {
			return err
		}
		residuals := report.CheckResiduals(values, result)
		printComparison(os.Stdout, field, cmp)
		printResidualCheck(os.Stdout, residuals)
		targets = append(targets, report.Target{
			Field:      field,
			Comparison: cmp,
			Forecast:   result,
			Residuals:  residuals,
		})
	}

	if opts.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	r, err := report.Build(runID, opts.InputFile, cleaned, k, cleanResult, nil, targets)
	if err != nil {
		return err
	}
	if err := writeReportJSON(r, filepath.Join(opts.OutputDir, "forecast.json")); err != nil {
		return err
	}

	var charters []components.Charter
	for _, target := range targets {
		history, err := cleaned.Series(target.Field)
		if err != nil {
			return err
		}

		csvFile, err := os.Create(filepath.Join(opts.OutputDir, target.Field+"_forecast.csv"))
		if err != nil {
			return fmt.Errorf("failed to create forecast CSV: %w", err)
		}
		err = report.WriteForecastCSV(history, target.Forecast, csvFile)
		csvFile.Close()
		if err != nil {
			return err
		}

		tail := historyTail(history)
		switch chartFormat {
		case chartHTML:
			fc, err := visualization.ForecastChart(target.Field, tail, target.Forecast)
			if err != nil {
				return err
			}
			cc, err := visualization.ComparisonChart(target.Comparison)
			if err != nil {
				return err
			}
			charters = append(charters, fc, cc)
		case chartPNG:
			png := filepath.Join(opts.OutputDir, target.Field+"_forecast.png")
			if err := visualization.ForecastPNG(target.Field, tail, target.Forecast, png); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported chart format: %s", chartFormat)
		}
	}
	if len(charters) > 0 {
		page := filepath.Join(opts.OutputDir, "forecast.html")
		if err := visualization.RenderPage(page, "gridseer forecast", charters...); err != nil {
			return err
		}
	}

	fmt.Printf("\nForecast artifacts written to %s\n", opts.OutputDir)
	return nil
}

// historyTail trims long histories to the last week so forecast charts stay
// readable.
func historyTail(history *models.TimeSeries) *models.TimeSeries {
	if history.Len() <= models.PointsPerWeek {
		return history
	}
	return history.Slice(history.Len()-models.PointsPerWeek, history.Len())
}

func printComparison(w io.Writer, field string, cmp *forecast.Comparison) {
	fmt.Fprintf(w, "\n%s: ranked by %s over the last %d readings\n", field, cmp.Metric, cmp.TestLen)
	fmt.Fprintf(w, "%-16s %12s %12s %11s %11s\n", "METHOD", "MAE", "RMSE", "MAPE", "SMAPE")
	for _, s := range cmp.Scores {
		if s.Err != "" {
			fmt.Fprintf(w, "%-16s failed: %s\n", s.Method, s.Err)
			continue
		}
		fmt.Fprintf(w, "%-16s %12.3f %12.3f %10.2f%% %10.2f%%\n",
			s.Method, s.Metrics.MAE, s.Metrics.RMSE, s.Metrics.MAPE, s.Metrics.SMAPE)
	}
	fmt.Fprintf(w, "best: %s\n", cmp.Best)
}

func printResidualCheck(w io.Writer, rc *report.ResidualCheck) {
	if rc == nil {
		return
	}
	verdict := "no leftover structure"
	if !rc.WhiteNoise {
		verdict = "structure remains"
	}
	fmt.Fprintf(w, "residuals: Ljung-Box Q=%.2f over %d lags, p=%.3f (%s)\n",
		rc.Statistic, rc.Lags, rc.PValue, verdict)
}

func writeReportJSON(r *report.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report JSON: %w", err)
	}
	defer f.Close()
	return report.WriteJSON(r, f)
}
