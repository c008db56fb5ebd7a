package models

import "time"

// Reading is a single point sample from a sensor
type Reading struct {
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Value     float64   `json:"value" bson:"value"`
}

// Window is the absolute time span covered by an analysis
type Window struct {
	From time.Time `json:"from" bson:"from"`
	To   time.Time `json:"to" bson:"to"`
}

// Contains reports whether t falls inside the window (inclusive bounds)
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}
