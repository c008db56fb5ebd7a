package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jorge1125/mycodo-plant-analyzer/config"
	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

// Hot window kept in memory per profile
const recentRunsPerProfile = 20

// HistoryService records analysis runs. Every run lands in a small
// in-memory window for quick access; MongoDB, when enabled, keeps the
// long tail and powers range queries and score summaries.
type HistoryService struct {
	cfg      *config.Config
	mongo    *MongoDBService
	stopChan chan struct{}
	mutex    sync.RWMutex

	recentRuns map[string][]models.AnalysisRun
}

func NewHistoryService(cfg *config.Config, mongo *MongoDBService) *HistoryService {
	return &HistoryService{
		cfg:        cfg,
		mongo:      mongo,
		stopChan:   make(chan struct{}),
		recentRuns: make(map[string][]models.AnalysisRun),
	}
}

// Start launches the daily retention sweep when MongoDB is active.
func (hs *HistoryService) Start() {
	log.Println("Starting History Service...")

	if !hs.mongo.Enabled() || hs.cfg.MongoDB.RetentionDays <= 0 {
		return
	}

	ticker := time.NewTicker(24 * time.Hour)

	go func() {
		for {
			select {
			case <-ticker.C:
				hs.sweepOldRuns()
			case <-hs.stopChan:
				ticker.Stop()
				return
			}
		}
	}()
}

func (hs *HistoryService) Stop() {
	close(hs.stopChan)
}

func (hs *HistoryService) sweepOldRuns() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	retention := time.Duration(hs.cfg.MongoDB.RetentionDays) * 24 * time.Hour
	if err := hs.mongo.DeleteOldRuns(ctx, retention); err != nil {
		log.Printf("Run retention sweep failed: %v", err)
	}
}

// RecordRun stores a finished run in the in-memory window and MongoDB.
func (hs *HistoryService) RecordRun(ctx context.Context, run *models.AnalysisRun) {
	if run == nil {
		return
	}

	hs.mutex.Lock()
	runs := append(hs.recentRuns[run.Profile], *run)
	if len(runs) > recentRunsPerProfile {
		runs = runs[len(runs)-recentRunsPerProfile:]
	}
	hs.recentRuns[run.Profile] = runs
	hs.mutex.Unlock()

	if hs.mongo.Enabled() {
		if err := hs.mongo.InsertRun(ctx, run); err != nil {
			log.Printf("Error saving run %s to MongoDB: %v", run.ID, err)
		}
	}
}

// LatestRun returns the most recent completed run for a profile, or nil
// when the profile has never completed one.
func (hs *HistoryService) LatestRun(ctx context.Context, profile string) (*models.AnalysisRun, error) {
	if run := hs.latestInMemory(profile); run != nil {
		return run, nil
	}

	// Cold start: the in-memory window is empty until the first run
	if hs.mongo.Enabled() {
		return hs.mongo.GetLatestRun(ctx, profile)
	}

	return nil, nil
}

func (hs *HistoryService) latestInMemory(profile string) *models.AnalysisRun {
	hs.mutex.RLock()
	defer hs.mutex.RUnlock()

	runs := hs.recentRuns[profile]
	for i := len(runs) - 1; i >= 0; i-- {
		if runs[i].Status == models.RunCompleted {
			run := runs[i]
			return &run
		}
	}
	return nil
}

// GetRuns returns recent runs for a profile, newest first.
// If MongoDB is available, uses it. Otherwise falls back to in-memory.
func (hs *HistoryService) GetRuns(ctx context.Context, profile string, limit int) ([]models.AnalysisRun, error) {
	if limit <= 0 {
		limit = 20
	}

	if hs.mongo.Enabled() {
		runs, err := hs.mongo.GetRuns(ctx, profile, limit)
		if err != nil {
			log.Printf("Error fetching run history from MongoDB: %v", err)
			// Fallback to in-memory
			return hs.getInMemoryRuns(profile, limit), nil
		}
		return runs, nil
	}

	return hs.getInMemoryRuns(profile, limit), nil
}

func (hs *HistoryService) getInMemoryRuns(profile string, limit int) []models.AnalysisRun {
	hs.mutex.RLock()
	defer hs.mutex.RUnlock()

	runs := hs.recentRuns[profile]
	if limit > len(runs) {
		limit = len(runs)
	}

	start := len(runs) - limit
	result := make([]models.AnalysisRun, limit)
	copy(result, runs[start:])

	// Reverse to get newest first
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return result
}

// GetRunsRange returns runs for a profile between two instants, oldest first.
func (hs *HistoryService) GetRunsRange(ctx context.Context, profile string, start, end time.Time) ([]models.AnalysisRun, error) {
	if hs.mongo.Enabled() {
		runs, err := hs.mongo.GetRunsRange(ctx, profile, start, end)
		if err != nil {
			log.Printf("Error fetching runs range from MongoDB: %v", err)
		} else {
			return runs, nil
		}
	}

	hs.mutex.RLock()
	defer hs.mutex.RUnlock()

	result := make([]models.AnalysisRun, 0)
	for _, run := range hs.recentRuns[profile] {
		if run.FinishedAt.Before(start) || run.FinishedAt.After(end) {
			continue
		}
		result = append(result, run)
	}
	return result, nil
}

// GetScoreSummary aggregates completed-run scores over the trailing days.
// MongoDB gives the full period; without it the summary degrades to the
// in-memory window.
func (hs *HistoryService) GetScoreSummary(ctx context.Context, profile string, days int) (*models.ScoreSummary, error) {
	if days <= 0 {
		days = 30
	}

	if hs.mongo.Enabled() {
		summary, err := hs.mongo.GetProfileScoreSummary(ctx, profile, days)
		if err == nil {
			return summary, nil
		}
		log.Printf("Error aggregating score summary from MongoDB: %v", err)
	}

	cutoff := time.Now().AddDate(0, 0, -days)

	hs.mutex.RLock()
	defer hs.mutex.RUnlock()

	summary := &models.ScoreSummary{Profile: profile, Days: days}
	for _, run := range hs.recentRuns[profile] {
		if run.Status != models.RunCompleted || run.Report == nil {
			continue
		}
		if run.FinishedAt.Before(cutoff) {
			continue
		}

		score := run.Report.OverallScore
		if summary.Runs == 0 {
			summary.MinScore = score
			summary.MaxScore = score
			summary.FirstRun = run.FinishedAt
		}
		summary.Runs++
		summary.AvgScore += score
		if score < summary.MinScore {
			summary.MinScore = score
		}
		if score > summary.MaxScore {
			summary.MaxScore = score
		}
		summary.LastRun = run.FinishedAt
	}

	if summary.Runs == 0 {
		return nil, nil
	}
	summary.AvgScore /= float64(summary.Runs)
	return summary, nil
}
