package analyzer

import (
	"testing"
	"time"

	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

func TestTrendRising(t *testing.T) {
	a := New(DefaultThresholds())
	rng := models.OptimalRange{Min: 20, Max: 26}
	trend, low := a.classifyTrend(series(18, 19, 21, 23, 25), rng)
	if trend != models.TrendRising {
		t.Fatalf("expected rising, got %s", trend)
	}
	if low {
		t.Fatal("five readings should not be low confidence")
	}
}

func TestTrendFalling(t *testing.T) {
	a := New(DefaultThresholds())
	rng := models.OptimalRange{Min: 20, Max: 26}
	trend, _ := a.classifyTrend(series(25, 23, 21, 19, 18), rng)
	if trend != models.TrendFalling {
		t.Fatalf("expected falling, got %s", trend)
	}
}

func TestTrendStableOnFlatSeries(t *testing.T) {
	a := New(DefaultThresholds())
	rng := models.OptimalRange{Min: 20, Max: 26}
	trend, low := a.classifyTrend(series(22, 22, 22, 22), rng)
	if trend != models.TrendStable || low {
		t.Fatalf("expected stable with full confidence, got %s (low=%v)", trend, low)
	}
}

func TestTrendThresholdBoundary(t *testing.T) {
	a := New(DefaultThresholds())
	rng := models.OptimalRange{Min: 0, Max: 100} // span 100

	slow := []models.Reading{
		{Timestamp: testBase, Value: 50},
		{Timestamp: testBase.Add(24 * time.Hour), Value: 54}, // 4 units/day = 0.04 normalized
	}
	if trend, _ := a.classifyTrend(slow, rng); trend != models.TrendStable {
		t.Fatalf("0.04/day should be stable, got %s", trend)
	}

	fast := []models.Reading{
		{Timestamp: testBase, Value: 50},
		{Timestamp: testBase.Add(24 * time.Hour), Value: 56}, // 6 units/day = 0.06 normalized
	}
	if trend, _ := a.classifyTrend(fast, rng); trend != models.TrendRising {
		t.Fatalf("0.06/day should be rising, got %s", trend)
	}
}

func TestTrendLowConfidenceSingleReading(t *testing.T) {
	a := New(DefaultThresholds())
	rng := models.OptimalRange{Min: 20, Max: 26}
	trend, low := a.classifyTrend(series(22), rng)
	if trend != models.TrendStable {
		t.Fatalf("expected stable, got %s", trend)
	}
	if !low {
		t.Fatal("single reading must flag low confidence")
	}
}

func TestTrendSameInstantReadings(t *testing.T) {
	a := New(DefaultThresholds())
	rng := models.OptimalRange{Min: 20, Max: 26}
	readings := []models.Reading{
		{Timestamp: testBase, Value: 20},
		{Timestamp: testBase, Value: 22},
		{Timestamp: testBase, Value: 24},
	}
	trend, _ := a.classifyTrend(readings, rng)
	if trend != models.TrendStable {
		t.Fatalf("zero elapsed time should classify stable, got %s", trend)
	}
}

func TestTrendDegenerateRangeUsesRawSlope(t *testing.T) {
	a := New(DefaultThresholds())
	rng := models.OptimalRange{Min: 22, Max: 22} // zero span
	readings := []models.Reading{
		{Timestamp: testBase, Value: 20},
		{Timestamp: testBase.Add(24 * time.Hour), Value: 21}, // 1 unit/day raw
	}
	trend, _ := a.classifyTrend(readings, rng)
	if trend != models.TrendRising {
		t.Fatalf("raw slope 1/day should be rising, got %s", trend)
	}
}
