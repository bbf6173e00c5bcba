package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gridseer/gridseer/internal/dataset"
	"github.com/gridseer/gridseer/internal/decompose"
	"github.com/gridseer/gridseer/internal/forecast"
	"github.com/gridseer/gridseer/internal/report"
	"github.com/gridseer/gridseer/internal/stats"
	"github.com/gridseer/gridseer/internal/visualization"
	"github.com/gridseer/gridseer/pkg/models"
)

type ReportOptions struct {
	InputFile     string
	OutputDir     string
	Series        []string
	Horizon       int
	Holdout       int
	Metric        string
	Methods       []string
	IQRMultiplier float64
	Confidence    float64
	StaticCharts  bool
	Sheet         string
	Table         string
}

func NewReportCmd() *cobra.Command {
	opts := &ReportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run the whole analysis and write a self-contained report",
		Long: `Run the full pipeline on one spreadsheet: summarize and chart the raw
readings, clip outliers, decompose the forecast series, score every
forecasting method against a holdout window, and forecast the week ahead with
the best one per series. Everything lands in one output directory:
report.html, report.json, and a forecast CSV per series.`,
		Example: `  # The full run with defaults (demand and import, week ahead)
  gridseer report -i readings.csv -o out/

  # Also write static PNG charts
  gridseer report -i readings.xlsx -o out/ --png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "Input file (.csv, .xlsx, .db) (required)")
	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "gridseer-report", "Output directory")
	cmd.Flags().StringSliceVar(&opts.Series, "series", []string{models.FieldDemand, models.FieldImport}, "Series to forecast")
	cmd.Flags().IntVar(&opts.Horizon, "horizon", models.PointsPerWeek, "Steps to forecast")
	cmd.Flags().IntVar(&opts.Holdout, "holdout", 0, "Holdout window in readings (default sized from the data)")
	cmd.Flags().StringVar(&opts.Metric, "metric", stats.MetricMAPE, "Selection metric (mae, rmse, mape, smape)")
	cmd.Flags().StringSliceVar(&opts.Methods, "methods", nil, "Candidate methods (default all registered)")
	cmd.Flags().Float64VarP(&opts.IQRMultiplier, "iqr-multiplier", "k", stats.DefaultIQRMultiplier, "IQR fence multiplier for cleaning")
	cmd.Flags().Float64Var(&opts.Confidence, "confidence", 0.95, "Prediction interval confidence (0.80, 0.95, 0.99)")
	cmd.Flags().BoolVar(&opts.StaticCharts, "png", false, "Also write static PNG charts")
	cmd.Flags().StringVar(&opts.Sheet, "sheet", "", "Workbook sheet to read (default first sheet)")
	cmd.Flags().StringVar(&opts.Table, "table", "", "SQLite table to read (default readings)")

	cmd.MarkFlagRequired("input")

	return cmd
}

func runReport(cmd *cobra.Command, opts *ReportOptions) error {
	cfg := cliConfig()
	runID := uuid.NewString()
	logger := logrus.WithField("run_id", runID)

	horizon := intOrConfig(cmd, "horizon", opts.Horizon, cfg.Forecast.Horizon)
	holdout := intOrConfig(cmd, "holdout", opts.Holdout, cfg.Forecast.Holdout)
	metric := stringOrConfig(cmd, "metric", opts.Metric, cfg.Forecast.Metric)
	methods := sliceOrConfig(cmd, "methods", opts.Methods, cfg.Forecast.Methods)
	k := floatOrConfig(cmd, "iqr-multiplier", opts.IQRMultiplier, cfg.Cleaning.IQRMultiplier)
	confidence := floatOrConfig(cmd, "confidence", opts.Confidence, cfg.Forecast.Confidence)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	dopts := datasetOptions(opts.Sheet, opts.Table)
	frame, fill, err := loadFrame(opts.InputFile, dopts)
	if err != nil {
		return err
	}
	fields, err := selectFields(frame, opts.Series)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"rows":   frame.Len(),
		"filled": fill.Total(),
		"fields": fields,
	}).Info("Loaded readings")

	// The exploratory charts show the data as loaded, outliers included.
	overview, err := visualization.OverviewChart(frame)
	if err != nil {
		return err
	}
	boxplot, err := visualization.BoxplotChart(frame, k)
	if err != nil {
		return err
	}
	charters := []components.Charter{overview, boxplot}

	cleaned, cleanResult, err := dataset.Clean(frame, k, dopts)
	if err != nil {
		return err
	}

	fcfg := forecast.DefaultConfig()
	fcfg.Confidence = confidence
	candidates := []int{models.PointsPerDay, models.PointsPerWeek}

	var seasonality []report.Seasonality
	var targets []report.Target
	for _, field := range fields {
		values := cleaned.Values[field]

		detected, err := decompose.DetectPeriods(values, candidates)
		if err != nil {
			return err
		}
		accepted := decompose.AcceptedPeriods(detected)
		s := report.Seasonality{Field: field}
		for _, dp := range detected {
			if dp.Accepted {
				s.Periods = append(s.Periods, report.PeriodStrength{Period: dp.Period, Strength: dp.Strength})
			}
		}
		seasonality = append(seasonality, s)

		if len(accepted) > 0 {
			md, err := decompose.MultiSeasonal(values, accepted, decompose.Additive)
			if err != nil {
				return err
			}
			dcharts, err := visualization.DecompositionCharts(field, cleaned.Timestamps, values, md)
			if err != nil {
				return err
			}
			charters = append(charters, dcharts...)
		} else {
			logger.WithField("field", field).Warn("No seasonal period detected, skipping decomposition")
		}

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

		history, err := cleaned.Series(field)
		if err != nil {
			return err
		}
		tail := historyTail(history)

		cc, err := visualization.ComparisonChart(cmp)
		if err != nil {
			return err
		}
		fc, err := visualization.ForecastChart(field, tail, result)
		if err != nil {
			return err
		}
		charters = append(charters, cc, fc)

		csvFile, err := os.Create(filepath.Join(opts.OutputDir, field+"_forecast.csv"))
		if err != nil {
			return fmt.Errorf("failed to create forecast CSV: %w", err)
		}
		err = report.WriteForecastCSV(history, result, csvFile)
		csvFile.Close()
		if err != nil {
			return err
		}

		if opts.StaticCharts {
			png := filepath.Join(opts.OutputDir, field+"_forecast.png")
			if err := visualization.ForecastPNG(field, tail, result, png); err != nil {
				return err
			}
		}
	}

	r, err := report.Build(runID, opts.InputFile, cleaned, k, cleanResult, seasonality, targets)
	if err != nil {
		return err
	}
	if err := writeReportJSON(r, filepath.Join(opts.OutputDir, "report.json")); err != nil {
		return err
	}
	if err := report.RenderHTML(r, charters, filepath.Join(opts.OutputDir, "report.html")); err != nil {
		return err
	}
	if opts.StaticCharts {
		if err := visualization.SeriesPNG(frame, filepath.Join(opts.OutputDir, "overview.png")); err != nil {
			return err
		}
	}

	fmt.Printf("\nReport written to %s\n", filepath.Join(opts.OutputDir, "report.html"))
	return nil
}
