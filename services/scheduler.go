package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jorge1125/mycodo-plant-analyzer/analyzer"
	"github.com/jorge1125/mycodo-plant-analyzer/config"
	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

// ErrUnknownProfile indicates a run was requested for a profile that is not
// configured.
var ErrUnknownProfile = errors.New("unknown profile")

// Scheduler runs the analysis pipeline: fetch series, clean, score, then
// hand the run to history, cache, and notifications. Runs fire on a timer
// and on demand from the API and CLI.
type Scheduler struct {
	cfg      *config.Config
	source   SeriesSource
	profiles map[string]models.PlantProfile
	analyzer *analyzer.Analyzer
	history  *HistoryService
	cache    *CacheService
	notify   *NotifyService

	runMutex sync.Mutex
	stopChan chan struct{}
}

func NewScheduler(cfg *config.Config, source SeriesSource, profiles map[string]models.PlantProfile, history *HistoryService, cache *CacheService, notify *NotifyService) *Scheduler {
	thresholds := analyzer.Thresholds{
		OptimalFraction:    cfg.Analysis.OptimalFraction,
		AcceptableFraction: cfg.Analysis.AcceptableFraction,
		RisingRate:         cfg.Analysis.RisingRate,
		FallingRate:        cfg.Analysis.FallingRate,
		MinTrendSamples:    cfg.Analysis.MinTrendSamples,
	}

	return &Scheduler{
		cfg:      cfg,
		source:   source,
		profiles: profiles,
		analyzer: analyzer.New(thresholds),
		history:  history,
		cache:    cache,
		notify:   notify,
		stopChan: make(chan struct{}),
	}
}

// Start launches the periodic analysis loop.
func (s *Scheduler) Start() {
	if !s.cfg.Scheduler.Enabled {
		log.Println("Scheduler disabled in configuration")
		return
	}

	log.Printf("Starting Scheduler (every %dh)...", s.cfg.Scheduler.IntervalHours)
	ticker := time.NewTicker(s.cfg.SchedulerInterval())

	go func() {
		if s.cfg.Scheduler.RunOnStart {
			s.RunAll(context.Background(), models.TriggerScheduled)
		}

		for {
			select {
			case <-ticker.C:
				s.RunAll(context.Background(), models.TriggerScheduled)
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	close(s.stopChan)
}

// RunAll analyzes every configured profile with the default window.
func (s *Scheduler) RunAll(ctx context.Context, trigger string) {
	names := s.ProfileNames()
	log.Printf("Analyzing %d profiles (%s)", len(names), trigger)

	for _, name := range names {
		if _, err := s.RunProfile(ctx, name, 0, trigger); err != nil {
			log.Printf("Analysis of %s failed: %v", name, err)
		}
	}
}

// ProfileNames returns the configured profile names in sorted order.
func (s *Scheduler) ProfileNames() []string {
	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profile returns one configured profile.
func (s *Scheduler) Profile(name string) (models.PlantProfile, bool) {
	p, ok := s.profiles[name]
	return p, ok
}

// RunProfile analyzes one profile over a trailing window of days (0 uses
// the configured default). The run is recorded whether it succeeds or
// fails; the returned error mirrors run.Error for failed runs.
func (s *Scheduler) RunProfile(ctx context.Context, name string, days int, trigger string) (*models.AnalysisRun, error) {
	profile, ok := s.profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", name, ErrUnknownProfile)
	}

	if days <= 0 {
		days = s.cfg.Analysis.WindowDays
	}

	// One run at a time keeps scheduled and manual triggers from
	// overlapping on the same export files
	s.runMutex.Lock()
	defer s.runMutex.Unlock()

	started := time.Now()
	window := models.Window{From: started.AddDate(0, 0, -days), To: started}

	run := &models.AnalysisRun{
		ID:         uuid.NewString(),
		Profile:    name,
		WindowDays: days,
		Window:     window,
		Trigger:    trigger,
		StartedAt:  started,
	}

	report, err := s.analyze(ctx, profile, window)
	run.FinishedAt = time.Now()

	if err != nil {
		run.Status = models.RunFailed
		run.Error = err.Error()
	} else {
		run.Status = models.RunCompleted
		run.Report = &report
	}

	s.history.RecordRun(ctx, run)
	if run.Status == models.RunCompleted {
		s.cache.SetLatestRun(run)
	}
	s.notify.NotifyRun(run)

	if err != nil {
		log.Printf("Run %s for %s failed after %s: %v", run.ID, name, run.FinishedAt.Sub(run.StartedAt), err)
		return run, err
	}

	log.Printf("Run %s for %s completed in %s: score %.1f (%s)",
		run.ID, name, run.FinishedAt.Sub(run.StartedAt), report.OverallScore, report.Band)
	return run, nil
}

// analyze pulls, cleans, and scores the series for every mapped parameter.
func (s *Scheduler) analyze(ctx context.Context, profile models.PlantProfile, window models.Window) (models.GrowthReport, error) {
	series := make(map[string][]models.Reading, len(profile.OptimalRanges))

	for _, param := range analyzer.ProfileParameters(profile) {
		sensorID, ok := profile.SensorMapping[param]
		if !ok || sensorID == "" {
			// Analyze reports the unmapped parameter as insufficient data
			continue
		}

		readings, err := s.source.FetchSeries(ctx, sensorID, window)
		if err != nil {
			if errors.Is(err, ErrNoData) {
				continue
			}
			return models.GrowthReport{}, fmt.Errorf("fetch %s: %w", param, err)
		}

		cleaned := analyzer.CleanReadings(readings)
		series[param] = analyzer.ResampleReadings(cleaned, s.cfg.ResampleInterval())
	}

	return s.analyzer.Analyze(profile, series)
}
