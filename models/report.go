package models

import "time"

// Status labels assigned per parameter by the condition evaluator
const (
	StatusOptimal    = "optimal"
	StatusAcceptable = "acceptable"
	StatusSuboptimal = "suboptimal"
)

// Trend labels assigned per parameter by the trend detector
const (
	TrendRising  = "rising"
	TrendFalling = "falling"
	TrendStable  = "stable"
)

// Growth bands derived from the overall score
const (
	BandExcellent  = "excellent"  // 80-100
	BandGood       = "good"       // 60-79
	BandAcceptable = "acceptable" // 40-59
	BandDeficient  = "deficient"  // 0-39
)

// Recommendation directions
const (
	DirectionIncrease = "increase"
	DirectionDecrease = "decrease"
)

// SeriesStats summarizes the readings of one parameter over the window
type SeriesStats struct {
	Count    int     `json:"count" bson:"count"`
	Min      float64 `json:"min" bson:"min"`
	Max      float64 `json:"max" bson:"max"`
	Mean     float64 `json:"mean" bson:"mean"`
	Median   float64 `json:"median" bson:"median"`
	StdDev   float64 `json:"std_dev" bson:"std_dev"`
	Variance float64 `json:"variance" bson:"variance"`
}

// ParameterAssessment is the evaluated state of one profile parameter
type ParameterAssessment struct {
	Parameter          string      `json:"parameter" bson:"parameter"`
	Unit               string      `json:"unit,omitempty" bson:"unit,omitempty"`
	InRangeFraction    float64     `json:"in_range_fraction" bson:"in_range_fraction"`
	Status             string      `json:"status" bson:"status"` // "optimal", "acceptable", "suboptimal"
	Trend              string      `json:"trend" bson:"trend"`   // "rising", "falling", "stable"
	LowConfidenceTrend bool        `json:"low_confidence_trend,omitempty" bson:"low_confidence_trend,omitempty"`
	BelowRangePct      float64     `json:"below_range_pct" bson:"below_range_pct"`
	AboveRangePct      float64     `json:"above_range_pct" bson:"above_range_pct"`
	Contribution       float64     `json:"contribution" bson:"contribution"` // 0-100
	Weight             float64     `json:"weight" bson:"weight"`             // normalized aggregation weight
	Stats              SeriesStats `json:"stats" bson:"stats"`
}

// Recommendation is a corrective suggestion for an underperforming parameter
type Recommendation struct {
	Parameter    string  `json:"parameter" bson:"parameter"`
	Direction    string  `json:"direction" bson:"direction"` // "increase", "decrease"
	Action       string  `json:"action" bson:"action"`
	ObservedMean float64 `json:"observed_mean" bson:"observed_mean"`
	TargetBound  float64 `json:"target_bound" bson:"target_bound"` // nearer bound of the optimal range
	Contribution float64 `json:"contribution" bson:"contribution"`
}

// GrowthReport is the full result of analyzing one profile over a window.
// It carries no wall-clock fields so identical inputs serialize identically;
// run timing lives on AnalysisRun.
type GrowthReport struct {
	Profile         string                `json:"profile" bson:"profile"`
	PlantType       string                `json:"plant_type" bson:"plant_type"`
	OverallScore    float64               `json:"overall_score" bson:"overall_score"` // 0-100
	Band            string                `json:"band" bson:"band"`                   // "excellent", "good", "acceptable", "deficient"
	Assessments     []ParameterAssessment `json:"assessments" bson:"assessments"`
	Recommendations []Recommendation      `json:"recommendations" bson:"recommendations"`
}

// Run lifecycle states
const (
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// Run triggers
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
	TriggerCLI       = "cli"
)

// AnalysisRun records one analysis invocation for history and auditing
type AnalysisRun struct {
	ID         string        `json:"id" bson:"id"`
	Profile    string        `json:"profile" bson:"profile"`
	WindowDays int           `json:"window_days" bson:"window_days"`
	Window     Window        `json:"window" bson:"window"`
	Trigger    string        `json:"trigger" bson:"trigger"` // "scheduled", "manual", "cli"
	StartedAt  time.Time     `json:"started_at" bson:"started_at"`
	FinishedAt time.Time     `json:"finished_at" bson:"finished_at"`
	Status     string        `json:"status" bson:"status"` // "completed", "failed"
	Error      string        `json:"error,omitempty" bson:"error,omitempty"`
	Report     *GrowthReport `json:"report,omitempty" bson:"report,omitempty"`
}
