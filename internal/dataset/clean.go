package dataset

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gridseer/gridseer/internal/stats"
	"github.com/gridseer/gridseer/pkg/errors"
	"github.com/gridseer/gridseer/pkg/models"
)

// CleanResult records one cleaning run: the IQR multiplier and, per field,
// the bounds used and the readings moved to them.
type CleanResult struct {
	Multiplier float64                     `json:"multiplier"`
	Fields     map[string]stats.ClipReport `json:"fields"`
}

// Total returns the number of clipped readings across all fields.
func (r *CleanResult) Total() int {
	n := 0
	for _, report := range r.Fields {
		n += report.Total()
	}
	return n
}

// Clean clips IQR outliers in every column and returns a cleaned copy with
// the per-field report. The frame must be interpolated first; missing
// readings would skew the quartiles.
func Clean(frame *models.Frame, k float64, opts Options) (*models.Frame, *CleanResult, error) {
	log := opts.logger()
	out := frame.Copy()
	result := &CleanResult{
		Multiplier: k,
		Fields:     make(map[string]stats.ClipReport, len(out.Fields)),
	}

	for _, f := range out.Fields {
		if out.MissingCount(f) > 0 {
			return nil, nil, errors.NewValidationError(errors.CodeInvalidInput,
				fmt.Sprintf("column %q still has missing readings; interpolate before cleaning", f))
		}
		clipped, report, err := stats.ClipOutliers(out.Values[f], k)
		if err != nil {
			return nil, nil, err
		}
		out.Values[f] = clipped
		result.Fields[f] = report
		if report.Total() > 0 {
			log.WithFields(logrus.Fields{
				"field": f,
				"low":   report.ClippedLow,
				"high":  report.ClippedHigh,
				"lower": report.LowerBound,
				"upper": report.UpperBound,
			}).Info("Clipped outlier readings")
		}
	}
	return out, result, nil
}
