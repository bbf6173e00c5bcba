// Package dataset loads spreadsheet exports of 5-minute energy readings into
// frames, puts them onto the interval grid, fills missing readings, and
// writes cleaned copies back out. CSV, XLSX, and SQLite inputs share the
// column rules: a timestamp column plus the canonical reading columns, with
// demand and import required.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gridseer/gridseer/pkg/errors"
	"github.com/gridseer/gridseer/pkg/models"
)

// Options control loading and regularization.
type Options struct {
	// Sheet selects the worksheet for .xlsx input; empty means the first.
	Sheet string
	// Table is the table read from SQLite input, defaulting to "readings".
	Table string
	// Interval forces the reading spacing. Zero lets Regularize infer it
	// from the data; loaders stamp the 5-minute default until then.
	Interval time.Duration
	// MaxGap is the largest interior gap Regularize bridges with missing
	// rows, defaulting to one day.
	MaxGap time.Duration
	// Logger defaults to the standard logger.
	Logger *logrus.Logger
}

func (o Options) logger() *logrus.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logrus.StandardLogger()
}

func (o Options) interval() time.Duration {
	if o.Interval > 0 {
		return o.Interval
	}
	return models.DefaultInterval
}

func (o Options) maxGap() time.Duration {
	if o.MaxGap > 0 {
		return o.MaxGap
	}
	return 24 * time.Hour
}

func (o Options) table() string {
	if o.Table != "" {
		return o.Table
	}
	return "readings"
}

// Load reads a readings file, dispatching on the extension.
func Load(path string, opts Options) (*models.Frame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path, opts)
	case ".xlsx":
		return LoadXLSX(path, opts)
	case ".db", ".sqlite", ".sqlite3":
		return LoadSQLite(path, opts)
	default:
		return nil, errors.NewValidationError(errors.CodeUnsupportedInput,
			fmt.Sprintf("unsupported input %q: want .csv, .xlsx, .db, or .sqlite", filepath.Base(path)))
	}
}

// timestampLayouts are tried in order on the timestamp column.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"02/01/2006 15:04",
}

func parseTimestamp(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, cell); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", cell)
}

// requiredFields are the forecast targets; loading fails without them.
var requiredFields = []string{models.FieldDemand, models.FieldImport}

// columnMap resolves header names to column positions.
type columnMap struct {
	timestamp int
	fields    map[string]int
}

// mapHeader matches header names case-insensitively. Extra columns are
// ignored; canonical reading columns other than demand and import may be
// absent.
func mapHeader(header []string) (*columnMap, error) {
	canonical := make(map[string]bool)
	for _, f := range models.CanonicalFields() {
		canonical[f] = true
	}

	cm := &columnMap{timestamp: -1, fields: make(map[string]int)}
	seen := make(map[string]int)
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if prev, dup := seen[key]; dup {
			return nil, errors.NewValidationError(errors.CodeInvalidFormat,
				fmt.Sprintf("duplicate column %q at positions %d and %d", key, prev+1, i+1))
		}
		seen[key] = i

		switch {
		case key == "timestamp" || key == "time" || key == "datetime":
			cm.timestamp = i
		case canonical[key]:
			cm.fields[key] = i
		}
	}
	if cm.timestamp == -1 {
		return nil, errors.NewValidationError(errors.CodeMissingField,
			"missing timestamp column (accepted names: timestamp, time, datetime)")
	}
	for _, f := range requiredFields {
		if _, ok := cm.fields[f]; !ok {
			return nil, errors.NewValidationError(errors.CodeMissingField,
				fmt.Sprintf("missing required column %q", f))
		}
	}
	return cm, nil
}

// presentFields returns the matched reading columns in canonical order.
func (cm *columnMap) presentFields() []string {
	var out []string
	for _, f := range models.CanonicalFields() {
		if _, ok := cm.fields[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// frameFromRows converts raw rows into a frame. firstLine is the 1-based
// line number of the first data row, for log messages.
func frameFromRows(rows [][]string, cm *columnMap, opts Options, firstLine int) (*models.Frame, error) {
	if len(rows) == 0 {
		return nil, errors.NewValidationError(errors.CodeInvalidInput,
			"no data rows after the header")
	}
	log := opts.logger()
	fields := cm.presentFields()

	timestamps := make([]time.Time, 0, len(rows))
	columns := make(map[string][]float64, len(fields))
	for _, f := range fields {
		columns[f] = make([]float64, 0, len(rows))
	}

	skipped := 0
	for i, row := range rows {
		line := firstLine + i
		if cm.timestamp >= len(row) {
			log.WithField("line", line).Warn("Skipping short row without a timestamp cell")
			skipped++
			continue
		}
		ts, err := parseTimestamp(row[cm.timestamp])
		if err != nil {
			log.WithError(err).WithField("line", line).Warn("Skipping row with unparseable timestamp")
			skipped++
			continue
		}
		timestamps = append(timestamps, ts)
		for _, f := range fields {
			columns[f] = append(columns[f], parseCell(row, cm.fields[f], f, line, log))
		}
	}
	if len(timestamps) == 0 {
		return nil, errors.NewValidationError(errors.CodeInvalidInput,
			fmt.Sprintf("no usable rows: all %d were skipped", skipped))
	}
	if skipped > 0 {
		log.WithField("skipped_rows", skipped).Warn("Some rows could not be parsed")
	}

	frame := models.NewFrame(opts.interval())
	frame.Timestamps = timestamps
	for _, f := range fields {
		if err := frame.AddColumn(f, columns[f]); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

// parseCell reads one numeric cell. Blank and malformed cells become missing
// readings for interpolation to fill.
func parseCell(row []string, col int, field string, line int, log *logrus.Logger) float64 {
	cell := ""
	if col < len(row) {
		cell = strings.TrimSpace(row[col])
	}
	if cell == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		log.WithFields(logrus.Fields{"line": line, "column": field}).
			Warn("Unparseable numeric cell treated as missing")
		return math.NaN()
	}
	return v
}

// LoadCSV reads a CSV export.
func LoadCSV(path string, opts Options) (*models.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeReadFailed,
			fmt.Sprintf("failed to open %s", path))
	}
	defer file.Close()
	return ReadCSV(file, opts)
}

// ReadCSV reads CSV readings from r.
func ReadCSV(r io.Reader, opts Options) (*models.Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // row lengths are validated per line
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeReadFailed,
			"failed to read CSV")
	}
	if len(records) == 0 {
		return nil, errors.NewValidationError(errors.CodeInvalidInput,
			"empty input: no header row")
	}

	cm, err := mapHeader(records[0])
	if err != nil {
		return nil, err
	}
	frame, err := frameFromRows(records[1:], cm, opts, 2)
	if err != nil {
		return nil, err
	}

	opts.logger().WithFields(logrus.Fields{
		"rows":   frame.Len(),
		"fields": strings.Join(frame.Fields, ","),
	}).Info("Loaded CSV readings")
	return frame, nil
}
