package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gridseer/gridseer/cmd/cli/config"
	"github.com/gridseer/gridseer/internal/dataset"
	"github.com/gridseer/gridseer/pkg/errors"
	"github.com/gridseer/gridseer/pkg/models"
)

// Chart output formats.
const (
	chartHTML = "html"
	chartPNG  = "png"
)

var cfgFile string

// SetConfigFile records the --config flag so commands can load file defaults.
func SetConfigFile(path string) {
	cfgFile = path
}

// cliConfig loads the config file, falling back to the built-in defaults when
// it cannot be read.
func cliConfig() *config.CLIConfig {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		logrus.WithError(err).Warn("Failed to load config, using built-in defaults")
		return config.Default()
	}
	return cfg
}

// Flag-or-config resolution: an explicitly set flag wins, otherwise the
// config file value applies.

func floatOrConfig(cmd *cobra.Command, flag string, flagValue, cfgValue float64) float64 {
	if cmd.Flags().Changed(flag) || cfgValue == 0 {
		return flagValue
	}
	return cfgValue
}

func intOrConfig(cmd *cobra.Command, flag string, flagValue, cfgValue int) int {
	if cmd.Flags().Changed(flag) || cfgValue == 0 {
		return flagValue
	}
	return cfgValue
}

func stringOrConfig(cmd *cobra.Command, flag, flagValue, cfgValue string) string {
	if cmd.Flags().Changed(flag) || cfgValue == "" {
		return flagValue
	}
	return cfgValue
}

func sliceOrConfig(cmd *cobra.Command, flag string, flagValue, cfgValue []string) []string {
	if cmd.Flags().Changed(flag) || len(cfgValue) == 0 {
		return flagValue
	}
	return cfgValue
}

func datasetOptions(sheet, table string) dataset.Options {
	return dataset.Options{
		Sheet:  sheet,
		Table:  table,
		Logger: logrus.StandardLogger(),
	}
}

// loadFrame runs the shared input pipeline: load the file, regularize it onto
// its grid, and interpolate the gaps.
func loadFrame(input string, opts dataset.Options) (*models.Frame, dataset.FillReport, error) {
	frame, err := dataset.Load(input, opts)
	if err != nil {
		return nil, nil, err
	}
	frame, err = dataset.Regularize(frame, opts)
	if err != nil {
		return nil, nil, err
	}
	fill, err := dataset.Interpolate(frame, opts)
	if err != nil {
		return nil, nil, err
	}
	return frame, fill, nil
}

// selectFields validates the requested columns, defaulting to every column
// present in the frame.
func selectFields(frame *models.Frame, fields []string) ([]string, error) {
	if len(fields) == 0 {
		return frame.Fields, nil
	}
	for _, f := range fields {
		if !frame.HasField(f) {
			return nil, errors.NewValidationError(errors.CodeMissingField,
				fmt.Sprintf("unknown field %q, have: %s", f, strings.Join(frame.Fields, ", ")))
		}
	}
	return fields, nil
}

// subFrame restricts the frame to the named columns. Columns share storage
// with the original.
func subFrame(frame *models.Frame, fields []string) *models.Frame {
	if len(fields) == len(frame.Fields) {
		return frame
	}
	out := models.NewFrame(frame.Interval)
	out.Timestamps = frame.Timestamps
	for _, f := range fields {
		out.Fields = append(out.Fields, f)
		out.Values[f] = frame.Values[f]
	}
	return out
}

// windowFrame trims the frame to the optional --from/--to bounds.
func windowFrame(frame *models.Frame, from, to string) (*models.Frame, error) {
	var fromTime, toTime time.Time
	var err error

	if from != "" {
		fromTime, err = parseTime(from)
		if err != nil {
			return nil, fmt.Errorf("invalid from time: %w", err)
		}
	}
	if to != "" {
		toTime, err = parseTime(to)
		if err != nil {
			return nil, fmt.Errorf("invalid to time: %w", err)
		}
	}
	if from == "" && to == "" {
		return frame, nil
	}

	trimmed := frame.Window(fromTime, toTime)
	if trimmed.Len() == 0 {
		return nil, errors.NewValidationError(errors.CodeInvalidTimeRange,
			fmt.Sprintf("no readings between %q and %q", from, to))
	}
	return trimmed, nil
}

func parseTime(timeStr string) (time.Time, error) {
	// Try parsing as RFC3339 first
	if t, err := time.Parse(time.RFC3339, timeStr); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", timeStr)
}

// openOutput opens path for writing, treating "-" and "" as stdout.
func openOutput(path string) (*os.File, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
