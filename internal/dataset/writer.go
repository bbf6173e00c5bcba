package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/gridseer/gridseer/pkg/errors"
	"github.com/gridseer/gridseer/pkg/models"
)

// WriteCSV writes the frame in the canonical layout: RFC3339 timestamps,
// full-precision values, missing readings as empty cells.
func WriteCSV(frame *models.Frame, w io.Writer) error {
	writer := csv.NewWriter(w)

	header := append([]string{"timestamp"}, frame.Fields...)
	if err := writer.Write(header); err != nil {
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
			"failed to write CSV header")
	}

	record := make([]string, len(header))
	for i, ts := range frame.Timestamps {
		record[0] = ts.Format(time.RFC3339)
		for j, f := range frame.Fields {
			v := frame.Values[f][i]
			if math.IsNaN(v) {
				record[j+1] = ""
				continue
			}
			record[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
				fmt.Sprintf("failed to write row %d", i+1))
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
			"failed to flush CSV")
	}
	return nil
}

// WriteCSVFile writes the frame to path; "-" or empty means stdout.
func WriteCSVFile(frame *models.Frame, path string) error {
	if path == "" || path == "-" {
		return WriteCSV(frame, os.Stdout)
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
			fmt.Sprintf("failed to create %s", path))
	}
	defer file.Close()
	return WriteCSV(frame, file)
}
