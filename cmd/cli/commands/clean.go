package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridseer/gridseer/internal/dataset"
	"github.com/gridseer/gridseer/internal/stats"
)

type CleanOptions struct {
	InputFile     string
	OutputFile    string
	IQRMultiplier float64
	Sheet         string
	Table         string
}

func NewCleanCmd() *cobra.Command {
	opts := &CleanOptions{}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clip outlier readings to their IQR fences",
		Long: `Load readings, fill the gaps, clip every field to the Q1-k*IQR and
Q3+k*IQR fences, and write the cleaned series as canonical CSV. Rows are never
dropped; spikes are moved to the nearest fence so the time grid stays intact.`,
		Example: `  # Clean with the conventional 1.5 fences
  gridseer clean -i readings.csv -o cleaned.csv

  # Wider fences keep more of the original spikes
  gridseer clean -i readings.csv -o cleaned.csv -k 3.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "Input file (.csv, .xlsx, .db) (required)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "Cleaned CSV file (- for stdout)")
	cmd.Flags().Float64VarP(&opts.IQRMultiplier, "iqr-multiplier", "k", stats.DefaultIQRMultiplier, "IQR fence multiplier")
	cmd.Flags().StringVar(&opts.Sheet, "sheet", "", "Workbook sheet to read (default first sheet)")
	cmd.Flags().StringVar(&opts.Table, "table", "", "SQLite table to read (default readings)")

	cmd.MarkFlagRequired("input")

	return cmd
}

func runClean(cmd *cobra.Command, opts *CleanOptions) error {
	cfg := cliConfig()
	k := floatOrConfig(cmd, "iqr-multiplier", opts.IQRMultiplier, cfg.Cleaning.IQRMultiplier)

	dopts := datasetOptions(opts.Sheet, opts.Table)
	frame, _, err := loadFrame(opts.InputFile, dopts)
	if err != nil {
		return err
	}

	cleaned, result, err := dataset.Clean(frame, k, dopts)
	if err != nil {
		return err
	}
	if err := dataset.WriteCSVFile(cleaned, opts.OutputFile); err != nil {
		return err
	}

	// The clip report goes to stderr when the CSV occupies stdout.
	dest := os.Stdout
	if opts.OutputFile == "" || opts.OutputFile == "-" {
		dest = os.Stderr
	}
	fmt.Fprintf(dest, "Clipped %d of %d readings with fences at %.1f IQR\n",
		result.Total(), cleaned.Len()*len(cleaned.Fields), k)
	for _, field := range cleaned.Fields {
		r := result.Fields[field]
		if r.Total() == 0 {
			continue
		}
		fmt.Fprintf(dest, "- %s: %d low, %d high, kept within [%.2f, %.2f]\n",
			field, r.ClippedLow, r.ClippedHigh, r.LowerBound, r.UpperBound)
	}
	return nil
}
