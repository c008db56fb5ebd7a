// Package analyzer holds the pure analysis core: range evaluation, trend
// classification and growth scoring. It performs no I/O; collaborators feed
// it a profile plus readings and serialize the report it returns.
package analyzer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

// Thresholds are the tunable constants of the analysis. The defaults follow
// the documented Mycodo guidance; override via configuration, not code.
type Thresholds struct {
	OptimalFraction    float64 // status optimal at or above this in-range fraction
	AcceptableFraction float64 // status acceptable at or above this fraction
	RisingRate         float64 // normalized slope per day above which trend is rising
	FallingRate        float64 // normalized slope per day below which trend is falling
	MinTrendSamples    int     // fewer readings flag the trend as low confidence
}

// DefaultThresholds returns the documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		OptimalFraction:    0.9,
		AcceptableFraction: 0.6,
		RisingRate:         0.05,
		FallingRate:        -0.05,
		MinTrendSamples:    2,
	}
}

// Analyzer evaluates plant profiles against sensor series. Safe for
// concurrent use; it holds no mutable state.
type Analyzer struct {
	thresholds Thresholds
}

func New(t Thresholds) *Analyzer {
	return &Analyzer{thresholds: t}
}

// ProfileParameters returns the profile's parameter names in the fixed
// order used throughout a report (sorted ascending).
func ProfileParameters(p models.PlantProfile) []string {
	params := make([]string, 0, len(p.OptimalRanges))
	for name := range p.OptimalRanges {
		params = append(params, name)
	}
	sort.Strings(params)
	return params
}

// Analyze produces a GrowthReport for one profile from the supplied series.
// Validation runs before any per-parameter work: a profile without
// parameters or with a min > max range fails fast. A missing or empty
// series for any parameter aborts the whole analysis; partial reports
// would silently bias the weighted aggregate. Identical inputs always
// produce identical reports.
func (a *Analyzer) Analyze(profile models.PlantProfile, series map[string][]models.Reading) (models.GrowthReport, error) {
	params := ProfileParameters(profile)
	if len(params) == 0 {
		return models.GrowthReport{}, fmt.Errorf("profile %q: %w", profile.Name, ErrEmptyProfile)
	}
	for _, p := range params {
		if rng := profile.OptimalRanges[p]; rng.Min > rng.Max {
			return models.GrowthReport{}, fmt.Errorf("parameter %s [%g, %g]: %w", p, rng.Min, rng.Max, ErrInvalidRange)
		}
	}

	// Parameters are independent; evaluate them concurrently and join on
	// the fixed ordering so the report never depends on goroutine timing.
	assessments := make([]models.ParameterAssessment, len(params))
	errs := make([]error, len(params))
	var wg sync.WaitGroup
	for i, p := range params {
		wg.Add(1)
		go func(slot int, param string) {
			defer wg.Done()
			assessments[slot], errs[slot] = a.assessParameter(param, profile.OptimalRanges[param], series[param])
		}(i, p)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return models.GrowthReport{}, err
		}
	}

	score := aggregate(assessments, profile.Weights)
	return models.GrowthReport{
		Profile:         profile.Name,
		PlantType:       profile.Type,
		OverallScore:    round2(score),
		Band:            BandFor(score),
		Assessments:     assessments,
		Recommendations: recommend(assessments, profile.OptimalRanges),
	}, nil
}

// assessParameter runs evaluator, trend detector and per-parameter scoring
// for one series. Status, trend and contribution all derive from the raw
// fraction; rounding happens only on the reported fields.
func (a *Analyzer) assessParameter(name string, rng models.OptimalRange, readings []models.Reading) (models.ParameterAssessment, error) {
	if len(readings) == 0 {
		return models.ParameterAssessment{}, fmt.Errorf("parameter %s: %w", name, ErrInsufficientData)
	}

	outcome := evaluateRange(readings, rng)
	trend, lowConfidence := a.classifyTrend(readings, rng)

	return models.ParameterAssessment{
		Parameter:          name,
		Unit:               rng.Unit,
		InRangeFraction:    round3(outcome.fraction),
		Status:             a.statusFor(outcome.fraction),
		Trend:              trend,
		LowConfidenceTrend: lowConfidence,
		BelowRangePct:      round2(outcome.belowPct),
		AboveRangePct:      round2(outcome.abovePct),
		Contribution:       round2(a.contribution(outcome.fraction)),
		Stats:              seriesStats(readings),
	}, nil
}
