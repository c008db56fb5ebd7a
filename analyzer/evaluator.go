package analyzer

import (
	"github.com/montanaflynn/stats"

	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

// rangeOutcome is the raw result of checking a series against its range
type rangeOutcome struct {
	fraction float64 // in-range readings / total readings
	belowPct float64 // % of readings under min
	abovePct float64 // % of readings over max
}

// evaluateRange counts readings against [min, max]. Boundary values count
// as in-range. The caller guarantees at least one reading.
func evaluateRange(readings []models.Reading, rng models.OptimalRange) rangeOutcome {
	var in, below, above int
	for _, r := range readings {
		switch {
		case r.Value < rng.Min:
			below++
		case r.Value > rng.Max:
			above++
		default:
			in++
		}
	}
	total := float64(len(readings))
	return rangeOutcome{
		fraction: float64(in) / total,
		belowPct: float64(below) / total * 100,
		abovePct: float64(above) / total * 100,
	}
}

// statusFor maps an in-range fraction to its status label using the
// configured thresholds. Thresholds are inclusive lower bounds.
func (a *Analyzer) statusFor(fraction float64) string {
	switch {
	case fraction >= a.thresholds.OptimalFraction:
		return models.StatusOptimal
	case fraction >= a.thresholds.AcceptableFraction:
		return models.StatusAcceptable
	default:
		return models.StatusSuboptimal
	}
}

// seriesStats summarizes the raw values. Population standard deviation, so
// a single reading yields 0 and never NaN.
func seriesStats(readings []models.Reading) models.SeriesStats {
	values := make([]float64, len(readings))
	for i, r := range readings {
		values[i] = r.Value
	}
	min, _ := stats.Min(values)
	max, _ := stats.Max(values)
	mean, _ := stats.Mean(values)
	median, _ := stats.Median(values)
	sd, _ := stats.StandardDeviation(values)
	variance, _ := stats.Variance(values)
	return models.SeriesStats{
		Count:    len(readings),
		Min:      round2(min),
		Max:      round2(max),
		Mean:     round2(mean),
		Median:   round2(median),
		StdDev:   round2(sd),
		Variance: round2(variance),
	}
}
