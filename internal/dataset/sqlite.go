package dataset

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/gridseer/gridseer/pkg/errors"
	"github.com/gridseer/gridseer/pkg/models"
)

// LoadSQLite reads readings from a local SQLite database, as produced by
// data-logger exports. The table needs the same wide layout as the CSV: a
// timestamp column plus one column per reading field. Timestamps may be
// stored as text in any accepted layout or as unix seconds.
func LoadSQLite(path string, opts Options) (*models.Frame, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeReadFailed,
			fmt.Sprintf("failed to open database %s", path))
	}
	defer db.Close()

	table := opts.table()
	names, err := tableColumns(db, table)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, errors.NewNotFoundError(errors.CodeDataNotFound,
			fmt.Sprintf("table %q not found in %s", table, path))
	}

	cm, err := mapHeader(names)
	if err != nil {
		return nil, err
	}
	fields := cm.presentFields()

	selected := make([]string, 0, len(fields)+1)
	selected = append(selected, quoteIdent(names[cm.timestamp]))
	for _, f := range fields {
		selected = append(selected, quoteIdent(names[cm.fields[f]]))
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(selected, ", "), quoteIdent(table), quoteIdent(names[cm.timestamp]))

	rows, err := db.Query(query)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeReadFailed,
			fmt.Sprintf("failed to query table %q", table))
	}
	defer rows.Close()

	log := opts.logger()
	var timestamps []time.Time
	columns := make(map[string][]float64, len(fields))
	skipped := 0
	rowNum := 0
	for rows.Next() {
		rowNum++
		var rawTS any
		values := make([]sql.NullFloat64, len(fields))
		dest := make([]any, 0, len(fields)+1)
		dest = append(dest, &rawTS)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeReadFailed,
				fmt.Sprintf("failed to scan row %d of table %q", rowNum, table))
		}

		ts, err := sqliteTimestamp(rawTS)
		if err != nil {
			log.WithError(err).WithField("row", rowNum).Warn("Skipping row with unreadable timestamp")
			skipped++
			continue
		}
		timestamps = append(timestamps, ts)
		for i, f := range fields {
			v := math.NaN()
			if values[i].Valid {
				v = values[i].Float64
			}
			columns[f] = append(columns[f], v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeReadFailed,
			fmt.Sprintf("failed while reading table %q", table))
	}
	if len(timestamps) == 0 {
		return nil, errors.NewValidationError(errors.CodeInvalidInput,
			fmt.Sprintf("table %q has no usable rows", table))
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
	log.WithFields(logrus.Fields{
		"table": table,
		"rows":  frame.Len(),
	}).Info("Loaded SQLite readings")
	return frame, nil
}

// tableColumns lists the column names of a table, empty when the table does
// not exist.
func tableColumns(db *sql.DB, table string) ([]string, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeReadFailed,
			fmt.Sprintf("failed to inspect table %q", table))
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeReadFailed,
				fmt.Sprintf("failed to inspect table %q", table))
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func sqliteTimestamp(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case string:
		return parseTimestamp(v)
	case []byte:
		return parseTimestamp(string(v))
	case int64:
		return time.Unix(v, 0).UTC(), nil
	case float64:
		return time.Unix(int64(v), 0).UTC(), nil
	case time.Time:
		return v, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", raw)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
