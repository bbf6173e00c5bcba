package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gridseer/gridseer/internal/dataset"
	"github.com/gridseer/gridseer/internal/decompose"
	"github.com/gridseer/gridseer/internal/report"
	"github.com/gridseer/gridseer/internal/stats"
	"github.com/gridseer/gridseer/internal/visualization"
	"github.com/gridseer/gridseer/pkg/models"
)

type AnalyzeOptions struct {
	InputFile     string
	Fields        []string
	From          string
	To            string
	Sheet         string
	Table         string
	IQRMultiplier float64
	Periods       []int
	ChartsDir     string
	ChartFormat   string
	OutputFormat  string
	OutputFile    string
}

func NewAnalyzeCmd() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Summarize energy readings and their seasonality",
		Long: `Load a spreadsheet of energy readings, regularize it onto its 5-minute
grid, fill the gaps, and report per-field statistics, outlier counts, and the
seasonal periods present in each series.`,
		Example: `  # Summarize a CSV export
  gridseer analyze --input readings.csv

  # Restrict to two fields and write charts next to the summary
  gridseer analyze --input readings.xlsx --fields demand,import --charts out/

  # JSON summary for scripting
  gridseer analyze --input readings.csv --format json --output summary.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "Input file (.csv, .xlsx, .db) (required)")
	cmd.Flags().StringSliceVar(&opts.Fields, "fields", nil, "Fields to analyze (default all present)")
	cmd.Flags().StringVar(&opts.From, "from", "", "Drop readings before this time (RFC3339 or 2006-01-02)")
	cmd.Flags().StringVar(&opts.To, "to", "", "Drop readings at or after this time")
	cmd.Flags().StringVar(&opts.Sheet, "sheet", "", "Workbook sheet to read (default first sheet)")
	cmd.Flags().StringVar(&opts.Table, "table", "", "SQLite table to read (default readings)")
	cmd.Flags().Float64VarP(&opts.IQRMultiplier, "iqr-multiplier", "k", stats.DefaultIQRMultiplier, "IQR fence multiplier for outlier counts")
	cmd.Flags().IntSliceVar(&opts.Periods, "periods", []int{models.PointsPerDay, models.PointsPerWeek}, "Candidate seasonal periods in readings")
	cmd.Flags().StringVar(&opts.ChartsDir, "charts", "", "Directory for overview and boxplot charts")
	cmd.Flags().StringVar(&opts.ChartFormat, "chart-format", "", "Chart format (html, png)")
	cmd.Flags().StringVar(&opts.OutputFormat, "format", "text", "Output format (text, json)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "Output file (- for stdout)")

	cmd.MarkFlagRequired("input")

	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *AnalyzeOptions) error {
	cfg := cliConfig()
	k := floatOrConfig(cmd, "iqr-multiplier", opts.IQRMultiplier, cfg.Cleaning.IQRMultiplier)
	chartFormat := stringOrConfig(cmd, "chart-format", opts.ChartFormat, cfg.ChartFormat)
	if chartFormat == "" {
		chartFormat = chartHTML
	}

	frame, fill, err := loadFrame(opts.InputFile, datasetOptions(opts.Sheet, opts.Table))
	if err != nil {
		return err
	}
	frame, err = windowFrame(frame, opts.From, opts.To)
	if err != nil {
		return err
	}
	fields, err := selectFields(frame, opts.Fields)
	if err != nil {
		return err
	}
	frame = subFrame(frame, fields)

	detected := make(map[string][]decompose.DetectedPeriod, len(fields))
	var seasonality []report.Seasonality
	for _, field := range fields {
		d, err := decompose.DetectPeriods(frame.Values[field], opts.Periods)
		if err != nil {
			return err
		}
		detected[field] = d

		s := report.Seasonality{Field: field}
		for _, dp := range d {
			if dp.Accepted {
				s.Periods = append(s.Periods, report.PeriodStrength{Period: dp.Period, Strength: dp.Strength})
			}
		}
		seasonality = append(seasonality, s)
	}

	r, err := report.Build(uuid.NewString(), opts.InputFile, frame, k, nil, seasonality, nil)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(opts.OutputFile)
	if err != nil {
		return err
	}
	defer closeOut()

	switch opts.OutputFormat {
	case "json":
		if err := report.WriteJSON(r, out); err != nil {
			return err
		}
	case "text":
		writeAnalysisText(out, r, detected, fill, k)
	default:
		return fmt.Errorf("unsupported output format: %s", opts.OutputFormat)
	}

	if opts.ChartsDir == "" {
		return nil
	}
	return writeAnalysisCharts(frame, k, opts.ChartsDir, chartFormat)
}

func writeAnalysisText(w io.Writer, r *report.Report, detected map[string][]decompose.DetectedPeriod, fill dataset.FillReport, k float64) {
	fmt.Fprintf(w, "Analysis of %s\n", r.Input)
	fmt.Fprintf(w, "Rows: %d (%s to %s, %s interval)\n",
		r.Rows, r.Start.Format("2006-01-02 15:04"), r.End.Format("2006-01-02 15:04"), r.Interval)
	if fill.Total() > 0 {
		fmt.Fprintf(w, "Interpolated readings: %d\n", fill.Total())
	}

	for _, fs := range r.Fields {
		s := fs.Summary
		fmt.Fprintf(w, "\n%s:\n", fs.Field)
		fmt.Fprintf(w, "  mean %.2f  std %.2f  min %.2f  q1 %.2f  median %.2f  q3 %.2f  max %.2f\n",
			s.Mean, s.StdDev, s.Min, s.Q1, s.Median, s.Q3, s.Max)
		fmt.Fprintf(w, "  readings %d, filled %d, outliers beyond %.1f IQR: %d\n",
			s.Count, fs.Missing, k, fs.Outliers)

		if len(detected[fs.Field]) == 0 {
			fmt.Fprintf(w, "  seasonality: no candidate period fits the data\n")
			continue
		}
		fmt.Fprintf(w, "  seasonality:\n")
		for _, dp := range detected[fs.Field] {
			verdict := "rejected"
			if dp.Accepted {
				verdict = "accepted"
			}
			fmt.Fprintf(w, "    period %d: strength %.3f, acf %.3f (%s)\n",
				dp.Period, dp.Strength, dp.ACF, verdict)
		}
	}
}

func writeAnalysisCharts(frame *models.Frame, k float64, dir, format string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create charts directory: %w", err)
	}

	switch format {
	case chartHTML:
		overview, err := visualization.OverviewChart(frame)
		if err != nil {
			return err
		}
		box, err := visualization.BoxplotChart(frame, k)
		if err != nil {
			return err
		}
		return visualization.RenderPage(filepath.Join(dir, "analyze.html"), "gridseer analyze", overview, box)
	case chartPNG:
		return visualization.SeriesPNG(frame, filepath.Join(dir, "overview.png"))
	default:
		return fmt.Errorf("unsupported chart format: %s", format)
	}
}
