package dataset

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gridseer/gridseer/pkg/errors"
	"github.com/gridseer/gridseer/pkg/models"
)

// Regularize puts a frame onto the reading-interval grid: rows are sorted by
// timestamp, duplicated timestamps keep their last reading, and interior gaps
// are filled with missing rows. Readings off the grid or gaps longer than
// MaxGap are errors. The input frame is left untouched.
func Regularize(frame *models.Frame, opts Options) (*models.Frame, error) {
	if frame.Len() == 0 {
		return nil, errors.NewValidationError(errors.CodeInvalidInput, "dataset is empty")
	}
	if frame.Len() == 1 {
		return nil, errors.NewProcessingError(errors.CodeInsufficientData,
			"cannot infer a reading interval from a single row")
	}
	log := opts.logger()

	order := make([]int, frame.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return frame.Timestamps[order[a]].Before(frame.Timestamps[order[b]])
	})

	kept := make([]int, 0, len(order))
	duplicates := 0
	for _, idx := range order {
		if n := len(kept); n > 0 && frame.Timestamps[kept[n-1]].Equal(frame.Timestamps[idx]) {
			kept[n-1] = idx
			duplicates++
			continue
		}
		kept = append(kept, idx)
	}
	if duplicates > 0 {
		log.WithField("duplicates", duplicates).Warn("Duplicated timestamps collapsed, keeping the last reading")
	}
	if len(kept) == 1 {
		return nil, errors.NewProcessingError(errors.CodeInsufficientData,
			"cannot infer a reading interval from a single distinct timestamp")
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = inferInterval(frame.Timestamps, kept)
	}
	if interval != models.DefaultInterval {
		log.WithField("interval", interval.String()).Info("Readings are not on the 5-minute default interval")
	}

	maxGap := opts.maxGap()
	for i := 1; i < len(kept); i++ {
		gap := frame.Timestamps[kept[i]].Sub(frame.Timestamps[kept[i-1]])
		if gap > maxGap {
			return nil, errors.NewProcessingError(errors.CodeInvalidTimeRange,
				fmt.Sprintf("gap of %s before %s exceeds the maximum %s",
					gap, frame.Timestamps[kept[i]].Format(time.RFC3339), maxGap))
		}
	}

	out := models.NewFrame(interval)
	columns := make(map[string][]float64, len(frame.Fields))

	inserted := 0
	cursor := 0
	end := frame.Timestamps[kept[len(kept)-1]]
	for ts := frame.Timestamps[kept[0]]; !ts.After(end); ts = ts.Add(interval) {
		if cursor < len(kept) {
			actual := frame.Timestamps[kept[cursor]]
			if actual.Before(ts) {
				return nil, errors.NewValidationError(errors.CodeInvalidTimeRange,
					fmt.Sprintf("reading at %s is not on the %s grid",
						actual.Format(time.RFC3339), interval))
			}
			if actual.Equal(ts) {
				out.Timestamps = append(out.Timestamps, ts)
				for _, f := range frame.Fields {
					columns[f] = append(columns[f], frame.Values[f][kept[cursor]])
				}
				cursor++
				continue
			}
		}
		out.Timestamps = append(out.Timestamps, ts)
		for _, f := range frame.Fields {
			columns[f] = append(columns[f], math.NaN())
		}
		inserted++
	}
	if cursor != len(kept) {
		return nil, errors.NewValidationError(errors.CodeInvalidTimeRange,
			fmt.Sprintf("reading at %s is not on the %s grid",
				frame.Timestamps[kept[cursor]].Format(time.RFC3339), interval))
	}

	for _, f := range frame.Fields {
		if err := out.AddColumn(f, columns[f]); err != nil {
			return nil, err
		}
	}
	if inserted > 0 {
		log.WithFields(logrus.Fields{
			"inserted": inserted,
			"rows":     out.Len(),
		}).Info("Inserted missing rows for interior gaps")
	}
	return out, nil
}

// inferInterval returns the smallest positive spacing between consecutive
// distinct timestamps.
func inferInterval(timestamps []time.Time, kept []int) time.Duration {
	min := time.Duration(0)
	for i := 1; i < len(kept); i++ {
		gap := timestamps[kept[i]].Sub(timestamps[kept[i-1]])
		if gap > 0 && (min == 0 || gap < min) {
			min = gap
		}
	}
	return min
}

// FillReport counts interpolated readings per field.
type FillReport map[string]int

// Total returns the number of filled readings across all fields.
func (r FillReport) Total() int {
	n := 0
	for _, c := range r {
		n += c
	}
	return n
}

// Interpolate fills missing readings in place: interior runs by linear
// interpolation between the nearest known neighbors, leading and trailing
// runs with the nearest known value. A column with no readings at all is an
// error.
func Interpolate(frame *models.Frame, opts Options) (FillReport, error) {
	log := opts.logger()
	report := make(FillReport, len(frame.Fields))
	for _, f := range frame.Fields {
		if frame.MissingCount(f) == frame.Len() {
			return nil, errors.NewProcessingError(errors.CodeInsufficientData,
				fmt.Sprintf("column %q has no numeric readings", f))
		}
		filled := interpolateColumn(frame.Values[f])
		report[f] = filled
		if filled > 0 {
			log.WithFields(logrus.Fields{
				"field":  f,
				"filled": filled,
			}).Info("Interpolated missing readings")
		}
	}
	return report, nil
}

func interpolateColumn(values []float64) int {
	n := len(values)
	filled := 0
	prev := -1 // index of the last known value
	for i := 0; i <= n; i++ {
		if i < n && math.IsNaN(values[i]) {
			continue
		}
		if i-prev > 1 {
			switch {
			case prev == -1 && i == n: // nothing known, leave the run missing
			case prev == -1: // leading run takes the first known value
				for j := 0; j < i; j++ {
					values[j] = values[i]
					filled++
				}
			case i == n: // trailing run takes the last known value
				for j := prev + 1; j < n; j++ {
					values[j] = values[prev]
					filled++
				}
			default:
				span := float64(i - prev)
				for j := prev + 1; j < i; j++ {
					frac := float64(j-prev) / span
					values[j] = values[prev] + frac*(values[i]-values[prev])
					filled++
				}
			}
		}
		prev = i
	}
	return filled
}
