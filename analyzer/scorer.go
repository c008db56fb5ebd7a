package analyzer

import (
	"fmt"
	"math"
	"sort"

	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

// Aggregate band boundaries (documented four-tier table)
const (
	bandExcellentMin = 80
	bandGoodMin      = 60
	bandAcceptableMin = 40
)

// Per-status contribution anchors. Acceptable spans 40..79 and suboptimal
// 0..39 so per-parameter contributions line up with the aggregate bands.
const (
	contributionOptimal       = 100
	contributionAcceptableMin = 40
	contributionAcceptableMax = 79
	contributionSuboptimalMax = 39
)

// contribution maps an in-range fraction to a 0-100 score. Optimal pins to
// 100; the other two statuses interpolate linearly across their fraction
// interval, using the configured thresholds as interval edges.
func (a *Analyzer) contribution(fraction float64) float64 {
	opt := a.thresholds.OptimalFraction
	acc := a.thresholds.AcceptableFraction
	switch {
	case fraction >= opt:
		return contributionOptimal
	case fraction >= acc:
		span := opt - acc
		if span <= 0 {
			return contributionAcceptableMax
		}
		return contributionAcceptableMin +
			(fraction-acc)/span*(contributionAcceptableMax-contributionAcceptableMin)
	default:
		if acc <= 0 {
			return 0
		}
		return fraction / acc * contributionSuboptimalMax
	}
}

// BandFor maps an overall score to its qualitative growth band.
func BandFor(score float64) string {
	switch {
	case score >= bandExcellentMin:
		return models.BandExcellent
	case score >= bandGoodMin:
		return models.BandGood
	case score >= bandAcceptableMin:
		return models.BandAcceptable
	default:
		return models.BandDeficient
	}
}

// aggregate computes the weighted average of contributions. Weights default
// to 1 per parameter and come from the profile when overridden; they are
// normalized in place so each assessment reports its effective weight.
func aggregate(assessments []models.ParameterAssessment, weights map[string]float64) float64 {
	var totalWeight float64
	raw := make([]float64, len(assessments))
	for i, as := range assessments {
		w := 1.0
		if ov, ok := weights[as.Parameter]; ok && ov > 0 {
			w = ov
		}
		raw[i] = w
		totalWeight += w
	}

	var score float64
	for i := range assessments {
		w := raw[i] / totalWeight
		assessments[i].Weight = round3(w)
		score += w * assessments[i].Contribution
	}
	return clamp(score, 0, 100)
}

// recommend builds the ranked recommendation list for every parameter that
// is not optimal, worst contribution first, ties broken by parameter name.
func recommend(assessments []models.ParameterAssessment, ranges map[string]models.OptimalRange) []models.Recommendation {
	recs := []models.Recommendation{}
	for _, as := range assessments {
		if as.Status == models.StatusOptimal {
			continue
		}
		rng := ranges[as.Parameter]
		dir, bound := direction(as.Stats.Mean, rng)
		recs = append(recs, models.Recommendation{
			Parameter:    as.Parameter,
			Direction:    dir,
			Action:       actionText(as, rng, dir, bound),
			ObservedMean: as.Stats.Mean,
			TargetBound:  bound,
			Contribution: as.Contribution,
		})
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Contribution != recs[j].Contribution {
			return recs[i].Contribution < recs[j].Contribution
		}
		return recs[i].Parameter < recs[j].Parameter
	})
	return recs
}

// direction picks increase or decrease by comparing the observed mean with
// the nearer bound of the optimal range.
func direction(mean float64, rng models.OptimalRange) (string, float64) {
	switch {
	case mean < rng.Min:
		return models.DirectionIncrease, rng.Min
	case mean > rng.Max:
		return models.DirectionDecrease, rng.Max
	case mean-rng.Min <= rng.Max-mean:
		return models.DirectionIncrease, rng.Min
	default:
		return models.DirectionDecrease, rng.Max
	}
}

func actionText(as models.ParameterAssessment, rng models.OptimalRange, dir string, bound float64) string {
	head := actionHead(as.Parameter, dir)
	if dir == models.DirectionIncrease {
		return fmt.Sprintf("%s. Below the optimal minimum %.1f%s for %.1f%% of readings (average %.1f%s).",
			head, bound, rng.Unit, as.BelowRangePct, as.Stats.Mean, rng.Unit)
	}
	return fmt.Sprintf("%s. Above the optimal maximum %.1f%s for %.1f%% of readings (average %.1f%s).",
		head, bound, rng.Unit, as.AboveRangePct, as.Stats.Mean, rng.Unit)
}

func actionHead(param, dir string) string {
	increase := dir == models.DirectionIncrease
	switch param {
	case models.ParamTemperature:
		if increase {
			return "Increase the temperature"
		}
		return "Reduce the temperature"
	case models.ParamHumidity:
		if increase {
			return "Increase the humidity"
		}
		return "Reduce the humidity"
	case models.ParamLight:
		if increase {
			return "Increase light exposure"
		}
		return "Reduce light exposure"
	case models.ParamSoilMoisture:
		if increase {
			return "Increase watering"
		}
		return "Reduce watering"
	default:
		if increase {
			return "Increase " + param
		}
		return "Reduce " + param
	}
}

// ---- rounding helpers ----

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
