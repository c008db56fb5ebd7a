package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/jorge1125/mycodo-plant-analyzer/config"
	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

// NotifyService fans a finished run out to the configured channels.
// Discord and webhook deliveries are band gated and rate limited per
// profile; the MQTT state topic gets every completed run.
type NotifyService struct {
	cfg        *config.Config
	mongo      *MongoDBService
	discordBot *DiscordBotService
	mqtt       *MQTTService

	mutex    sync.RWMutex
	lastSent map[string]time.Time
	history  []*models.Notification
}

func NewNotifyService(cfg *config.Config, mongo *MongoDBService, discordBot *DiscordBotService, mqtt *MQTTService) *NotifyService {
	return &NotifyService{
		cfg:        cfg,
		mongo:      mongo,
		discordBot: discordBot,
		mqtt:       mqtt,
		lastSent:   make(map[string]time.Time),
		history:    make([]*models.Notification, 0),
	}
}

// NotifyRun dispatches notifications for a finished run.
func (ns *NotifyService) NotifyRun(run *models.AnalysisRun) {
	if run == nil {
		return
	}

	if run.Status == models.RunFailed {
		ns.notifyFailure(run)
		return
	}
	if run.Report == nil {
		return
	}

	// The MQTT topic is a retained state feed. Publish every completed run
	// so subscribers see recoveries, not just problems.
	if ns.mqtt != nil && ns.mqtt.enabled {
		ok := true
		if err := ns.mqtt.PublishReport(run); err != nil {
			log.Printf("MQTT publish error: %v", err)
			ok = false
		}
		ns.record(run, models.ChannelMQTT, summaryLine(run), ok)
	}

	// Human-facing channels only fire at or below the configured band
	if bandRank(run.Report.Band) > bandRank(ns.cfg.Notifications.MinBand) {
		return
	}

	if ns.inCooldown(run.Profile) {
		log.Printf("Notification for %s suppressed (cooldown active)", run.Profile)
		return
	}
	ns.markSent(run.Profile)

	if ns.discordBot != nil && ns.discordBot.enabled {
		ok := true
		if err := ns.discordBot.SendReport(run); err != nil {
			log.Printf("Discord notification error: %v", err)
			ok = false
		}
		ns.record(run, models.ChannelDiscord, summaryLine(run), ok)
	}

	if ns.cfg.Notifications.WebhookURL != "" {
		ok := ns.sendWebhook(run)
		ns.record(run, models.ChannelWebhook, summaryLine(run), ok)
	}
}

func (ns *NotifyService) notifyFailure(run *models.AnalysisRun) {
	if ns.discordBot == nil || !ns.discordBot.enabled {
		return
	}

	if ns.inCooldown(run.Profile) {
		return
	}
	ns.markSent(run.Profile)

	ok := true
	if err := ns.discordBot.SendRunFailure(run); err != nil {
		log.Printf("Discord failure notice error: %v", err)
		ok = false
	}
	ns.record(run, models.ChannelDiscord, "analysis failed: "+run.Error, ok)
}

func (ns *NotifyService) sendWebhook(run *models.AnalysisRun) bool {
	url := ns.cfg.Notifications.WebhookURL

	payload := map[string]interface{}{
		"profile":         run.Profile,
		"plant_type":      run.Report.PlantType,
		"overall_score":   run.Report.OverallScore,
		"band":            run.Report.Band,
		"window_days":     run.WindowDays,
		"run_id":          run.ID,
		"finished_at":     run.FinishedAt,
		"recommendations": run.Report.Recommendations,
	}

	jsonData, _ := json.Marshal(payload)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		log.Printf("Webhook error: %v", err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (ns *NotifyService) record(run *models.AnalysisRun, channel, message string, success bool) {
	n := &models.Notification{
		ID:      fmt.Sprintf("notif_%d", time.Now().UnixNano()),
		Profile: run.Profile,
		Channel: channel,
		Message: message,
		SentAt:  time.Now(),
		Success: success,
	}
	if run.Report != nil {
		n.Band = run.Report.Band
		n.Score = run.Report.OverallScore
	}

	ns.mutex.Lock()
	ns.history = append(ns.history, n)
	if len(ns.history) > 1000 {
		ns.history = ns.history[len(ns.history)-1000:]
	}
	ns.mutex.Unlock()

	if ns.mongo.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := ns.mongo.InsertNotification(ctx, n); err != nil {
			log.Printf("Failed to persist notification to MongoDB: %v", err)
		}
	}
}

// GetHistory returns recent notifications, newest first.
func (ns *NotifyService) GetHistory(limit int) []*models.Notification {
	ns.mutex.RLock()
	defer ns.mutex.RUnlock()

	if limit <= 0 || limit > len(ns.history) {
		limit = len(ns.history)
	}

	start := len(ns.history) - limit
	result := make([]*models.Notification, limit)
	copy(result, ns.history[start:])

	// Reverse to get newest first
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return result
}

func (ns *NotifyService) inCooldown(profile string) bool {
	cooldown := time.Duration(ns.cfg.Notifications.CooldownMinutes) * time.Minute
	if cooldown <= 0 {
		return false
	}

	ns.mutex.RLock()
	defer ns.mutex.RUnlock()
	last, ok := ns.lastSent[profile]
	return ok && time.Since(last) < cooldown
}

func (ns *NotifyService) markSent(profile string) {
	ns.mutex.Lock()
	ns.lastSent[profile] = time.Now()
	ns.mutex.Unlock()
}

func summaryLine(run *models.AnalysisRun) string {
	return fmt.Sprintf("%s scored %.1f (%s) over the last %d days",
		run.Profile, run.Report.OverallScore, run.Report.Band, run.WindowDays)
}

// Band order for threshold gating, worst first
func bandRank(band string) int {
	switch band {
	case models.BandDeficient:
		return 0
	case models.BandAcceptable:
		return 1
	case models.BandGood:
		return 2
	case models.BandExcellent:
		return 3
	default:
		return 0
	}
}
