package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gridseer/gridseer/internal/dataset"
	"github.com/gridseer/gridseer/internal/decompose"
	"github.com/gridseer/gridseer/internal/visualization"
	"github.com/gridseer/gridseer/pkg/errors"
	"github.com/gridseer/gridseer/pkg/models"
)

type DecomposeOptions struct {
	InputFile   string
	Field       string
	Periods     []int
	Model       string
	OutputDir   string
	ChartFormat string
	Sheet       string
	Table       string
}

func NewDecomposeCmd() *cobra.Command {
	opts := &DecomposeOptions{}

	cmd := &cobra.Command{
		Use:   "decompose",
		Short: "Split one series into trend, seasonal, and remainder parts",
		Long: `Decompose one reading series into a trend, one seasonal component per
period, and a remainder. Periods are detected from the data unless passed
explicitly; for 5-minute readings the daily period is 288 and the weekly one
is 2016.`,
		Example: `  # Decompose demand on its detected periods
  gridseer decompose -i readings.csv --field demand -o out/

  # Force daily and weekly components
  gridseer decompose -i readings.csv --field import --periods 288,2016 -o out/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecompose(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "Input file (.csv, .xlsx, .db) (required)")
	cmd.Flags().StringVar(&opts.Field, "field", models.FieldDemand, "Field to decompose")
	cmd.Flags().IntSliceVar(&opts.Periods, "periods", nil, "Seasonal periods in readings (default detected)")
	cmd.Flags().StringVar(&opts.Model, "model", "additive", "Decomposition model (additive, multiplicative)")
	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "", "Directory for the component CSV and chart")
	cmd.Flags().StringVar(&opts.ChartFormat, "chart-format", "", "Chart format (html, png)")
	cmd.Flags().StringVar(&opts.Sheet, "sheet", "", "Workbook sheet to read (default first sheet)")
	cmd.Flags().StringVar(&opts.Table, "table", "", "SQLite table to read (default readings)")

	cmd.MarkFlagRequired("input")

	return cmd
}

func runDecompose(cmd *cobra.Command, opts *DecomposeOptions) error {
	cfg := cliConfig()
	chartFormat := stringOrConfig(cmd, "chart-format", opts.ChartFormat, cfg.ChartFormat)
	if chartFormat == "" {
		chartFormat = chartHTML
	}

	frame, _, err := loadFrame(opts.InputFile, datasetOptions(opts.Sheet, opts.Table))
	if err != nil {
		return err
	}
	if _, err := selectFields(frame, []string{opts.Field}); err != nil {
		return err
	}
	values := frame.Values[opts.Field]

	model, err := decompose.ParseModel(opts.Model)
	if err != nil {
		return err
	}

	periods := opts.Periods
	if len(periods) == 0 {
		detected, err := decompose.DetectPeriods(values, []int{models.PointsPerDay, models.PointsPerWeek})
		if err != nil {
			return err
		}
		periods = decompose.AcceptedPeriods(detected)
		if len(periods) == 0 {
			return errors.NewProcessingError(errors.CodeDecomposeFailed,
				fmt.Sprintf("no seasonal period detected in %s; pass --periods explicitly", opts.Field))
		}
	}

	md, err := decompose.MultiSeasonal(values, periods, model)
	if err != nil {
		return err
	}

	fmt.Printf("Decomposition of %s (%s model, periods %v)\n", opts.Field, model, md.Periods)
	for _, p := range md.Periods {
		strength, _ := md.SeasonalStrength(p)
		fmt.Printf("- period %d: seasonal strength %.3f\n", p, strength)
	}

	if opts.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	components := componentsFrame(frame, values, md)
	csvPath := filepath.Join(opts.OutputDir, opts.Field+"_components.csv")
	if err := dataset.WriteCSVFile(components, csvPath); err != nil {
		return err
	}

	switch chartFormat {
	case chartHTML:
		charters, err := visualization.DecompositionCharts(opts.Field, frame.Timestamps, values, md)
		if err != nil {
			return err
		}
		page := filepath.Join(opts.OutputDir, opts.Field+"_decomposition.html")
		if err := visualization.RenderPage(page, "gridseer decompose "+opts.Field, charters...); err != nil {
			return err
		}
	case chartPNG:
		png := filepath.Join(opts.OutputDir, opts.Field+"_decomposition.png")
		if err := visualization.SeriesPNG(components, png); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported chart format: %s", chartFormat)
	}

	fmt.Printf("Components written to %s\n", opts.OutputDir)
	return nil
}

// componentsFrame lays the decomposition out as columns on the source grid,
// ready for the canonical CSV writer.
func componentsFrame(frame *models.Frame, values []float64, md *decompose.MultiDecomposition) *models.Frame {
	out := models.NewFrame(frame.Interval)
	out.Timestamps = frame.Timestamps
	out.AddColumn("observed", values)
	out.AddColumn("trend", md.Trend)
	for _, p := range md.Periods {
		out.AddColumn(fmt.Sprintf("seasonal_%d", p), md.Seasonals[p])
	}
	out.AddColumn("remainder", md.Remainder)
	return out
}
