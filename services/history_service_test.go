package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

func completedRun(id string, score float64, finished time.Time) *models.AnalysisRun {
	return &models.AnalysisRun{
		ID:         id,
		Profile:    "tomato",
		Status:     models.RunCompleted,
		FinishedAt: finished,
		Report: &models.GrowthReport{
			Profile:      "tomato",
			OverallScore: score,
		},
	}
}

func TestHistoryKeepsRecentWindow(t *testing.T) {
	hs := NewHistoryService(testConfig(), nil)
	ctx := context.Background()

	for i := 1; i <= recentRunsPerProfile+5; i++ {
		run := completedRun(fmt.Sprintf("run-%d", i), 80, time.Now())
		hs.RecordRun(ctx, run)
	}

	runs, err := hs.GetRuns(ctx, "tomato", 100)
	if err != nil {
		t.Fatalf("GetRuns: %v", err)
	}
	if len(runs) != recentRunsPerProfile {
		t.Fatalf("expected window of %d runs, got %d", recentRunsPerProfile, len(runs))
	}
	// Newest first, oldest entries dropped
	if runs[0].ID != fmt.Sprintf("run-%d", recentRunsPerProfile+5) {
		t.Fatalf("expected newest run first, got %s", runs[0].ID)
	}
	if runs[len(runs)-1].ID != "run-6" {
		t.Fatalf("expected run-6 as the oldest survivor, got %s", runs[len(runs)-1].ID)
	}
}

func TestLatestRunSkipsFailures(t *testing.T) {
	hs := NewHistoryService(testConfig(), nil)
	ctx := context.Background()

	hs.RecordRun(ctx, completedRun("run-ok", 75, time.Now().Add(-time.Hour)))
	hs.RecordRun(ctx, &models.AnalysisRun{
		ID:         "run-bad",
		Profile:    "tomato",
		Status:     models.RunFailed,
		Error:      "insufficient data",
		FinishedAt: time.Now(),
	})

	latest, err := hs.LatestRun(ctx, "tomato")
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if latest == nil {
		t.Fatal("expected a completed run")
	}
	if latest.ID != "run-ok" {
		t.Fatalf("expected run-ok, got %s", latest.ID)
	}
}

func TestLatestRunEmptyHistory(t *testing.T) {
	hs := NewHistoryService(testConfig(), nil)

	latest, err := hs.LatestRun(context.Background(), "tomato")
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected nil for a profile with no runs, got %+v", latest)
	}
}

func TestGetRunsRangeInMemory(t *testing.T) {
	hs := NewHistoryService(testConfig(), nil)
	ctx := context.Background()

	base := time.Now().Add(-72 * time.Hour)
	for i := 0; i < 4; i++ {
		hs.RecordRun(ctx, completedRun(fmt.Sprintf("run-%d", i), 70, base.Add(time.Duration(i)*24*time.Hour)))
	}

	// Middle two days only
	runs, err := hs.GetRunsRange(ctx, "tomato", base.Add(12*time.Hour), base.Add(60*time.Hour))
	if err != nil {
		t.Fatalf("GetRunsRange: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs in range, got %d", len(runs))
	}
	if runs[0].ID != "run-1" || runs[1].ID != "run-2" {
		t.Fatalf("expected run-1 then run-2 (oldest first), got %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestScoreSummaryInMemory(t *testing.T) {
	hs := NewHistoryService(testConfig(), nil)
	ctx := context.Background()

	now := time.Now()
	hs.RecordRun(ctx, completedRun("run-1", 60, now.Add(-48*time.Hour)))
	hs.RecordRun(ctx, completedRun("run-2", 90, now.Add(-24*time.Hour)))
	hs.RecordRun(ctx, completedRun("run-3", 75, now.Add(-time.Hour)))
	hs.RecordRun(ctx, &models.AnalysisRun{
		ID:         "run-bad",
		Profile:    "tomato",
		Status:     models.RunFailed,
		FinishedAt: now,
	})

	summary, err := hs.GetScoreSummary(ctx, "tomato", 30)
	if err != nil {
		t.Fatalf("GetScoreSummary: %v", err)
	}
	if summary == nil {
		t.Fatal("expected a summary")
	}
	if summary.Runs != 3 {
		t.Fatalf("failed runs must not count: expected 3, got %d", summary.Runs)
	}
	if summary.AvgScore != 75 {
		t.Fatalf("expected average 75, got %v", summary.AvgScore)
	}
	if summary.MinScore != 60 || summary.MaxScore != 90 {
		t.Fatalf("expected min 60 max 90, got %v and %v", summary.MinScore, summary.MaxScore)
	}
	if !summary.FirstRun.Before(summary.LastRun) {
		t.Fatalf("first run %v should precede last run %v", summary.FirstRun, summary.LastRun)
	}
}

func TestScoreSummaryNoCompletedRuns(t *testing.T) {
	hs := NewHistoryService(testConfig(), nil)

	summary, err := hs.GetScoreSummary(context.Background(), "tomato", 30)
	if err != nil {
		t.Fatalf("GetScoreSummary: %v", err)
	}
	if summary != nil {
		t.Fatalf("expected nil summary without runs, got %+v", summary)
	}
}

func TestScoreSummaryRespectsCutoff(t *testing.T) {
	hs := NewHistoryService(testConfig(), nil)
	ctx := context.Background()

	hs.RecordRun(ctx, completedRun("run-old", 20, time.Now().AddDate(0, 0, -40)))
	hs.RecordRun(ctx, completedRun("run-new", 80, time.Now().Add(-time.Hour)))

	summary, err := hs.GetScoreSummary(ctx, "tomato", 30)
	if err != nil {
		t.Fatalf("GetScoreSummary: %v", err)
	}
	if summary == nil || summary.Runs != 1 {
		t.Fatalf("expected only the recent run, got %+v", summary)
	}
	if summary.AvgScore != 80 {
		t.Fatalf("expected average 80, got %v", summary.AvgScore)
	}
}
