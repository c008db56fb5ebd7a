package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

func TestMemorySourceWindowFilter(t *testing.T) {
	source := NewMemorySource()

	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	source.Put("sensor-a", []models.Reading{
		{Timestamp: base, Value: 1},
		{Timestamp: base.Add(time.Hour), Value: 2},
		{Timestamp: base.Add(2 * time.Hour), Value: 3},
	})

	window := models.Window{From: base.Add(30 * time.Minute), To: base.Add(90 * time.Minute)}
	readings, err := source.FetchSeries(context.Background(), "sensor-a", window)
	if err != nil {
		t.Fatalf("FetchSeries: %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("expected 1 reading in window, got %d", len(readings))
	}
	if readings[0].Value != 2 {
		t.Fatalf("expected the middle reading, got value %v", readings[0].Value)
	}
}

func TestMemorySourceUnknownSensor(t *testing.T) {
	source := NewMemorySource()

	window := models.Window{From: time.Now().Add(-time.Hour), To: time.Now()}
	_, err := source.FetchSeries(context.Background(), "ghost", window)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestMemorySourcePutCopies(t *testing.T) {
	source := NewMemorySource()

	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	readings := []models.Reading{{Timestamp: base, Value: 10}}
	source.Put("sensor-a", readings)

	// Mutating the caller's slice must not leak into the store
	readings[0].Value = 99

	window := models.Window{From: base.Add(-time.Minute), To: base.Add(time.Minute)}
	got, err := source.FetchSeries(context.Background(), "sensor-a", window)
	if err != nil {
		t.Fatalf("FetchSeries: %v", err)
	}
	if got[0].Value != 10 {
		t.Fatalf("stored reading mutated: got %v, want 10", got[0].Value)
	}
}
