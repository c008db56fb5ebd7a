package analyzer

import "errors"

// Sentinel errors returned by Analyze. Callers match with errors.Is.
var (
	// ErrInsufficientData means a profile parameter has no readings in the
	// window. The whole analysis fails rather than skewing the aggregate.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidRange means a profile optimal range has min > max.
	ErrInvalidRange = errors.New("invalid optimal range")

	// ErrEmptyProfile means the profile defines no parameters to assess.
	ErrEmptyProfile = errors.New("profile defines no parameters")
)
