package dataset

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/gridseer/gridseer/pkg/errors"
	"github.com/gridseer/gridseer/pkg/models"
)

// LoadXLSX reads readings from a spreadsheet workbook. Cells arrive as the
// displayed strings, so the CSV header and cell rules apply unchanged.
func LoadXLSX(path string, opts Options) (*models.Frame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeReadFailed,
			fmt.Sprintf("failed to open workbook %s", path))
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeReadFailed,
			fmt.Sprintf("failed to read sheet %q", sheet))
	}
	if len(rows) == 0 {
		return nil, errors.NewValidationError(errors.CodeInvalidInput,
			fmt.Sprintf("sheet %q is empty", sheet))
	}

	cm, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}
	frame, err := frameFromRows(rows[1:], cm, opts, 2)
	if err != nil {
		return nil, err
	}

	opts.logger().WithFields(logrus.Fields{
		"sheet": sheet,
		"rows":  frame.Len(),
	}).Info("Loaded workbook readings")
	return frame, nil
}
