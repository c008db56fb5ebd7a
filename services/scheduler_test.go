package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jorge1125/mycodo-plant-analyzer/analyzer"
	"github.com/jorge1125/mycodo-plant-analyzer/config"
	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

func testConfig() *config.Config {
	return &config.Config{
		Analysis: config.AnalysisConfig{
			WindowDays:         7,
			OptimalFraction:    0.9,
			AcceptableFraction: 0.6,
			RisingRate:         0.05,
			FallingRate:        -0.05,
			MinTrendSamples:    2,
			ResampleMinutes:    60,
		},
		Scheduler: config.SchedulerConfig{Enabled: false},
		Cache:     config.CacheConfig{TTL: 300},
		Redis:     config.RedisConfig{Enabled: false},
		MongoDB:   config.MongoDBConfig{Enabled: false},
		Notifications: config.NotificationConfig{
			MinBand:         models.BandAcceptable,
			CooldownMinutes: 60,
		},
	}
}

func testProfiles() map[string]models.PlantProfile {
	return map[string]models.PlantProfile{
		"tomato": {
			Name:           "tomato",
			Type:           "vegetable",
			BaseGrowthRate: 1.2,
			SensorMapping: map[string]string{
				"temperature": "sensor-temp",
				"humidity":    "sensor-hum",
			},
			OptimalRanges: map[string]models.OptimalRange{
				"temperature": {Min: 20, Max: 26, Unit: "°C"},
				"humidity":    {Min: 60, Max: 80, Unit: "%"},
			},
		},
	}
}

func newTestScheduler(t *testing.T, source SeriesSource) (*Scheduler, *HistoryService, *CacheService) {
	t.Helper()

	cfg := testConfig()
	cache := NewCacheService(cfg)
	t.Cleanup(cache.Stop)
	history := NewHistoryService(cfg, nil)
	notify := NewNotifyService(cfg, nil, nil, nil)

	return NewScheduler(cfg, source, testProfiles(), history, cache, notify), history, cache
}

// hourly generates n readings one hour apart ending near now, all at value.
func hourly(n int, value float64) []models.Reading {
	start := time.Now().Add(-time.Duration(n) * time.Hour)
	readings := make([]models.Reading, n)
	for i := range readings {
		readings[i] = models.Reading{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Value:     value,
		}
	}
	return readings
}

func TestRunProfileCompletes(t *testing.T) {
	source := NewMemorySource()
	source.Put("sensor-temp", hourly(72, 23))
	source.Put("sensor-hum", hourly(72, 70))

	s, history, cache := newTestScheduler(t, source)

	run, err := s.RunProfile(context.Background(), "tomato", 3, models.TriggerManual)
	if err != nil {
		t.Fatalf("RunProfile: %v", err)
	}

	if run.Status != models.RunCompleted {
		t.Fatalf("expected status %q, got %q", models.RunCompleted, run.Status)
	}
	if run.ID == "" {
		t.Fatal("expected a run ID")
	}
	if run.Trigger != models.TriggerManual {
		t.Fatalf("expected trigger %q, got %q", models.TriggerManual, run.Trigger)
	}
	if run.WindowDays != 3 {
		t.Fatalf("expected window of 3 days, got %d", run.WindowDays)
	}
	if run.Report == nil {
		t.Fatal("completed run has no report")
	}
	if run.Report.OverallScore != 100 {
		t.Fatalf("all readings in range, expected score 100, got %.2f", run.Report.OverallScore)
	}
	if run.Report.Band != models.BandExcellent {
		t.Fatalf("expected band %q, got %q", models.BandExcellent, run.Report.Band)
	}
	if len(run.Report.Recommendations) != 0 {
		t.Fatalf("expected no recommendations, got %d", len(run.Report.Recommendations))
	}

	latest, err := history.LatestRun(context.Background(), "tomato")
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if latest == nil || latest.ID != run.ID {
		t.Fatalf("history did not record the run: %+v", latest)
	}

	cached, stale, found := cache.GetLatestRun("tomato", false)
	if !found {
		t.Fatal("expected the run to be cached")
	}
	if stale {
		t.Fatal("fresh cache entry reported stale")
	}
	if cached.ID != run.ID {
		t.Fatalf("cached run %s, want %s", cached.ID, run.ID)
	}
}

func TestRunProfileUnknown(t *testing.T) {
	s, _, _ := newTestScheduler(t, NewMemorySource())

	run, err := s.RunProfile(context.Background(), "orchid", 0, models.TriggerManual)
	if !errors.Is(err, ErrUnknownProfile) {
		t.Fatalf("expected ErrUnknownProfile, got %v", err)
	}
	if run != nil {
		t.Fatalf("expected no run for unknown profile, got %+v", run)
	}
}

func TestRunProfileNoDataFails(t *testing.T) {
	s, history, cache := newTestScheduler(t, NewMemorySource())

	run, err := s.RunProfile(context.Background(), "tomato", 0, models.TriggerScheduled)
	if !errors.Is(err, analyzer.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if run == nil {
		t.Fatal("failed runs must still be returned")
	}
	if run.Status != models.RunFailed {
		t.Fatalf("expected status %q, got %q", models.RunFailed, run.Status)
	}
	if run.Error == "" {
		t.Fatal("failed run has no error message")
	}
	if run.Report != nil {
		t.Fatalf("failed run should have no report, got %+v", run.Report)
	}

	// Failures are recorded for auditing but never cached
	runs, err := history.GetRuns(context.Background(), "tomato", 10)
	if err != nil {
		t.Fatalf("GetRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != models.RunFailed {
		t.Fatalf("expected one failed run in history, got %+v", runs)
	}
	if _, _, found := cache.GetLatestRun("tomato", true); found {
		t.Fatal("failed run must not be cached")
	}
}

func TestRunProfileDefaultWindow(t *testing.T) {
	source := NewMemorySource()
	source.Put("sensor-temp", hourly(48, 23))
	source.Put("sensor-hum", hourly(48, 70))

	s, _, _ := newTestScheduler(t, source)

	run, err := s.RunProfile(context.Background(), "tomato", 0, models.TriggerManual)
	if err != nil {
		t.Fatalf("RunProfile: %v", err)
	}
	if run.WindowDays != 7 {
		t.Fatalf("expected configured default of 7 days, got %d", run.WindowDays)
	}
	if window := run.Window.To.Sub(run.Window.From); window != 7*24*time.Hour {
		t.Fatalf("window span %v, want %v", window, 7*24*time.Hour)
	}
}

func TestProfileNamesSorted(t *testing.T) {
	cfg := testConfig()
	profiles := testProfiles()
	profiles["basil"] = models.PlantProfile{Name: "basil"}
	profiles["zucchini"] = models.PlantProfile{Name: "zucchini"}

	cache := NewCacheService(cfg)
	t.Cleanup(cache.Stop)
	s := NewScheduler(cfg, NewMemorySource(), profiles, NewHistoryService(cfg, nil), cache, NewNotifyService(cfg, nil, nil, nil))

	names := s.ProfileNames()
	want := []string{"basil", "tomato", "zucchini"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
