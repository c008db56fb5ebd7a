package analyzer

import (
	"github.com/montanaflynn/stats"

	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

const hoursPerDay = 24

// classifyTrend fits a regression line through value-over-elapsed-days and
// classifies the slope, normalized by the optimal range span so the same
// thresholds work for temperature and lux alike. Fewer readings than
// MinTrendSamples degrade to a stable, low-confidence result instead of
// failing; trend is advisory, scoring is not.
func (a *Analyzer) classifyTrend(readings []models.Reading, rng models.OptimalRange) (trend string, lowConfidence bool) {
	if len(readings) < a.thresholds.MinTrendSamples || len(readings) < 2 {
		return models.TrendStable, true
	}

	t0 := readings[0].Timestamp
	series := make(stats.Series, len(readings))
	for i, r := range readings {
		series[i] = stats.Coordinate{
			X: r.Timestamp.Sub(t0).Hours() / hoursPerDay,
			Y: r.Value,
		}
	}

	elapsed := series[len(series)-1].X - series[0].X
	if elapsed <= 0 {
		// All readings share one instant; no slope to speak of.
		return models.TrendStable, false
	}

	fitted, err := stats.LinearRegression(series)
	if err != nil {
		return models.TrendStable, true
	}
	slope := (fitted[len(fitted)-1].Y - fitted[0].Y) / elapsed

	span := rng.Max - rng.Min
	if span <= 0 {
		// Degenerate range; classify on the raw slope per day.
		span = 1
	}
	rate := slope / span

	switch {
	case rate > a.thresholds.RisingRate:
		return models.TrendRising, false
	case rate < a.thresholds.FallingRate:
		return models.TrendFalling, false
	default:
		return models.TrendStable, false
	}
}
