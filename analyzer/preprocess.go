package analyzer

import (
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

const (
	// Gaps (NaN values) are interpolated only when they make up less than
	// this fraction of the series; beyond it they are dropped outright.
	maxGapFraction = 0.2

	// Outlier filtering needs more samples than this to be meaningful.
	outlierMinSamples = 10

	// Fences sit at quartile ± this multiple of the IQR. Wide on purpose;
	// greenhouse sensors spike on power cycles, not on slow drift.
	iqrFenceMultiplier = 3.0
)

// CleanReadings prepares a raw series for analysis: sorts by timestamp,
// drops duplicate timestamps (first wins), fills or drops NaN gaps, and
// filters extreme outliers with an IQR fence. The input is not modified.
func CleanReadings(readings []models.Reading) []models.Reading {
	if len(readings) == 0 {
		return nil
	}

	out := make([]models.Reading, len(readings))
	copy(out, readings)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	deduped := make([]models.Reading, 0, len(out))
	for i, r := range out {
		if i > 0 && r.Timestamp.Equal(out[i-1].Timestamp) {
			continue
		}
		deduped = append(deduped, r)
	}

	filled := fillGaps(deduped)
	return filterOutliers(filled)
}

// fillGaps linearly interpolates interior NaN values when the gap fraction
// is small; otherwise, and for leading/trailing gaps, NaN readings are
// dropped.
func fillGaps(readings []models.Reading) []models.Reading {
	gaps := 0
	for _, r := range readings {
		if math.IsNaN(r.Value) {
			gaps++
		}
	}
	if gaps == 0 {
		return readings
	}

	interpolate := float64(gaps)/float64(len(readings)) < maxGapFraction
	out := make([]models.Reading, 0, len(readings))
	for i, r := range readings {
		if !math.IsNaN(r.Value) {
			out = append(out, r)
			continue
		}
		if !interpolate {
			continue
		}
		prev, prevOK := lastValid(readings, i)
		next, nextOK := nextValid(readings, i)
		if !prevOK || !nextOK {
			continue
		}
		span := float64(next - prev)
		t := float64(i-prev) / span
		value := readings[prev].Value + t*(readings[next].Value-readings[prev].Value)
		out = append(out, models.Reading{Timestamp: r.Timestamp, Value: value})
	}
	return out
}

func lastValid(readings []models.Reading, from int) (int, bool) {
	for i := from - 1; i >= 0; i-- {
		if !math.IsNaN(readings[i].Value) {
			return i, true
		}
	}
	return 0, false
}

func nextValid(readings []models.Reading, from int) (int, bool) {
	for i := from + 1; i < len(readings); i++ {
		if !math.IsNaN(readings[i].Value) {
			return i, true
		}
	}
	return 0, false
}

// filterOutliers drops readings outside quartile fences. Series at or below
// outlierMinSamples pass through untouched.
func filterOutliers(readings []models.Reading) []models.Reading {
	if len(readings) <= outlierMinSamples {
		return readings
	}
	values := make([]float64, len(readings))
	for i, r := range readings {
		values[i] = r.Value
	}
	q, err := stats.Quartile(values)
	if err != nil {
		return readings
	}
	iqr := q.Q3 - q.Q1
	lower := q.Q1 - iqrFenceMultiplier*iqr
	upper := q.Q3 + iqrFenceMultiplier*iqr

	out := make([]models.Reading, 0, len(readings))
	for _, r := range readings {
		if r.Value < lower || r.Value > upper {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ResampleReadings reduces a series to per-interval bucket means, stamped
// at the bucket start. A non-positive interval returns the input as is.
// The input must already be sorted by timestamp.
func ResampleReadings(readings []models.Reading, interval time.Duration) []models.Reading {
	if interval <= 0 || len(readings) == 0 {
		return readings
	}

	out := make([]models.Reading, 0, len(readings))
	var bucketStart time.Time
	var sum float64
	var n int

	flush := func() {
		if n > 0 {
			out = append(out, models.Reading{Timestamp: bucketStart, Value: sum / float64(n)})
		}
		sum, n = 0, 0
	}

	for _, r := range readings {
		b := r.Timestamp.Truncate(interval)
		if n > 0 && !b.Equal(bucketStart) {
			flush()
		}
		bucketStart = b
		sum += r.Value
		n++
	}
	flush()
	return out
}
