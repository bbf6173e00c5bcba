package decompose

import (
	"math"
	"sort"

	"github.com/gridseer/gridseer/internal/stats"
	"github.com/gridseer/gridseer/pkg/errors"
)

// StrengthThreshold is the minimum seasonal strength for a candidate period
// to count as present in the data.
const StrengthThreshold = 0.1

// DetectedPeriod scores one candidate seasonal period.
type DetectedPeriod struct {
	Period   int     `json:"period"`
	Strength float64 `json:"strength"`
	ACF      float64 `json:"acf"`
	Accepted bool    `json:"accepted"`
}

// DetectPeriods scores each candidate period on the series and returns the
// results strongest first. A candidate is accepted when its seasonal strength
// clears StrengthThreshold and the autocorrelation at the seasonal lag clears
// the 2/sqrt(n) critical value. Candidates longer than half the series are
// skipped: there is not a full pair of cycles to compare.
func DetectPeriods(values []float64, candidates []int) ([]DetectedPeriod, error) {
	if len(values) == 0 {
		return nil, errors.NewValidationError(errors.CodeInsufficientData,
			"cannot detect seasonality in an empty series")
	}

	critical := 2 / math.Sqrt(float64(len(values)))

	var out []DetectedPeriod
	for _, period := range candidates {
		if period < 2 || len(values) < 2*period {
			continue
		}

		d, err := Classical(values, period, Additive)
		if err != nil {
			return nil, err
		}
		acf, err := stats.AutoCorrelation(values, period)
		if err != nil {
			return nil, err
		}

		dp := DetectedPeriod{
			Period:   period,
			Strength: d.Strength(),
			ACF:      acf,
		}
		dp.Accepted = dp.Strength >= StrengthThreshold && acf > critical
		out = append(out, dp)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Strength > out[j].Strength })
	return out, nil
}

// AcceptedPeriods filters detection results down to the accepted period
// lengths, shortest first, ready to feed MultiSeasonal.
func AcceptedPeriods(detected []DetectedPeriod) []int {
	var periods []int
	for _, d := range detected {
		if d.Accepted {
			periods = append(periods, d.Period)
		}
	}
	sort.Ints(periods)
	return periods
}
