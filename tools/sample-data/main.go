// Command sample-data writes a synthetic spreadsheet of 5-minute energy
// readings for trying out the gridseer CLI: a demand curve with daily and
// weekly cycles, solar that follows the sun, wind that wanders, and the
// import balance that closes the books. Gaps and spikes are sprinkled in so
// the cleaning stages have something to do.
package main

import (
	"flag"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gridseer/gridseer/internal/dataset"
	"github.com/gridseer/gridseer/pkg/models"
)

func main() {
	var (
		days    = flag.Int("days", 28, "Days of readings to generate")
		output  = flag.String("output", "readings.csv", "Output CSV file (- for stdout)")
		start   = flag.String("start", "2024-03-01", "First day (YYYY-MM-DD)")
		seed    = flag.Int64("seed", 1, "Random seed")
		gaps    = flag.Float64("gaps", 0.002, "Fraction of readings left blank")
		spikes  = flag.Int("spikes", 8, "Number of outlier spikes per field pair")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	day, err := time.Parse("2006-01-02", *start)
	if err != nil {
		log.Fatalf("Invalid start day: %v", err)
	}

	frame := generate(day, *days, rand.New(rand.NewSource(*seed)), *gaps, *spikes)

	logger.WithFields(logrus.Fields{
		"days":   *days,
		"rows":   frame.Len(),
		"output": *output,
	}).Info("Writing sample readings")

	if err := dataset.WriteCSVFile(frame, *output); err != nil {
		log.Fatalf("Failed to write readings: %v", err)
	}
}

func generate(start time.Time, days int, rng *rand.Rand, gapRate float64, spikes int) *models.Frame {
	n := days * models.PointsPerDay
	frame := models.NewFrame(models.DefaultInterval)
	frame.Timestamps = make([]time.Time, n)

	demand := make([]float64, n)
	generation := make([]float64, n)
	imp := make([]float64, n)
	solar := make([]float64, n)
	wind := make([]float64, n)
	other := make([]float64, n)

	windLevel := 250.0
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * models.DefaultInterval)
		frame.Timestamps[i] = ts

		dayFrac := float64(i%models.PointsPerDay) / float64(models.PointsPerDay)
		weekend := ts.Weekday() == time.Saturday || ts.Weekday() == time.Sunday

		// Demand peaks in the evening and sags overnight; weekends run lower.
		d := 5000 + 900*math.Sin(2*math.Pi*(dayFrac-0.3)) + 300*math.Sin(4*math.Pi*dayFrac)
		if weekend {
			d -= 400
		}
		demand[i] = d + rng.NormFloat64()*60

		// Solar is a midday bell, zero outside daylight.
		s := 0.0
		if dayFrac > 0.25 && dayFrac < 0.8 {
			s = 800 * math.Sin(math.Pi*(dayFrac-0.25)/0.55)
		}
		solar[i] = math.Max(0, s+rng.NormFloat64()*20)

		// Wind wanders between calm and strong.
		windLevel += rng.NormFloat64() * 8
		windLevel = math.Max(0, math.Min(600, windLevel))
		wind[i] = windLevel

		other[i] = 50 + rng.NormFloat64()*5
		generation[i] = 3600 + solar[i] + wind[i] + other[i] + rng.NormFloat64()*40
		imp[i] = demand[i] - generation[i] + rng.NormFloat64()*30
	}

	// Blank out a few readings and plant spikes so clean has work to do.
	columns := [][]float64{demand, generation, imp, solar, wind, other}
	for _, col := range columns {
		for i := range col {
			if rng.Float64() < gapRate {
				col[i] = math.NaN()
			}
		}
	}
	for s := 0; s < spikes; s++ {
		i := rng.Intn(n)
		demand[i] *= 2.5
		j := rng.Intn(n)
		imp[j] -= 4000
	}

	for _, field := range models.CanonicalFields() {
		var col []float64
		switch field {
		case models.FieldDemand:
			col = demand
		case models.FieldGeneration:
			col = generation
		case models.FieldImport:
			col = imp
		case models.FieldSolar:
			col = solar
		case models.FieldWind:
			col = wind
		case models.FieldOther:
			col = other
		}
		if err := frame.AddColumn(field, col); err != nil {
			log.Fatalf("Failed to add %s: %v", field, err)
		}
	}
	return frame
}
