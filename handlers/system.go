package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jorge1125/mycodo-plant-analyzer/config"
	"github.com/jorge1125/mycodo-plant-analyzer/services"
	"github.com/jorge1125/mycodo-plant-analyzer/utils"
)

type Handler struct {
	Cfg       *config.Config
	Scheduler *services.Scheduler
	Cache     *services.CacheService
	History   *services.HistoryService
	Notify    *services.NotifyService
	Mongo     *services.MongoDBService

	startedAt time.Time
}

func NewHandler(cfg *config.Config, scheduler *services.Scheduler, cache *services.CacheService, history *services.HistoryService, notify *services.NotifyService, mongo *services.MongoDBService) *Handler {
	return &Handler{
		Cfg:       cfg,
		Scheduler: scheduler,
		Cache:     cache,
		History:   history,
		Notify:    notify,
		Mongo:     mongo,
		startedAt: time.Now(),
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// GetHealth returns OK
func (h *Handler) GetHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// GetStatus returns backend status
func (h *Handler) GetStatus(c echo.Context) error {
	status := map[string]interface{}{
		"status":        "running",
		"uptime":        time.Since(h.startedAt).Round(time.Second).String(),
		"profiles":      len(h.Scheduler.ProfileNames()),
		"data_source":   h.Cfg.DataSource.Method,
		"cache_mode":    string(h.Cache.GetCacheMode()),
		"mongo_enabled": h.Mongo.Enabled(),
		"scheduler":     h.Cfg.Scheduler.Enabled,
		"timestamp":     time.Now(),
	}

	if h.Cfg.Mycodo.Version != "" {
		versionStatus, needsUpgrade, _ := utils.CheckVersionStatus(h.Cfg.Mycodo.Version, nil)
		status["mycodo_version"] = h.Cfg.Mycodo.Version
		status["mycodo_version_status"] = versionStatus
		status["mycodo_needs_upgrade"] = needsUpgrade
	}

	return c.JSON(http.StatusOK, status)
}

// GetDatabaseStats returns MongoDB collection statistics
func (h *Handler) GetDatabaseStats(c echo.Context) error {
	stats, err := h.Mongo.GetDatabaseStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, stats)
}
