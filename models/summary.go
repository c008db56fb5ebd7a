package models

import "time"

// ScoreSummary aggregates the scores of completed runs for one profile
// over a trailing number of days.
type ScoreSummary struct {
	Profile  string    `json:"profile" bson:"_id"`
	Days     int       `json:"days" bson:"-"`
	Runs     int       `json:"runs" bson:"runs"`
	AvgScore float64   `json:"avg_score" bson:"avg_score"`
	MinScore float64   `json:"min_score" bson:"min_score"`
	MaxScore float64   `json:"max_score" bson:"max_score"`
	FirstRun time.Time `json:"first_run" bson:"first_run"`
	LastRun  time.Time `json:"last_run" bson:"last_run"`
}
