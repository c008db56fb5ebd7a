package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

// GetLatestReport godoc
// @Summary Get the latest completed report for a profile
// @Description Serves from cache when possible, falling back to run history
// @Tags reports
// @Produce json
// @Success 200 {object} models.AnalysisRun
// @Failure 404 {object} ErrorResponse
// @Router /api/profiles/{name}/report [get]
func (h *Handler) GetLatestReport(c echo.Context) error {
	name := c.Param("name")

	if _, ok := h.Scheduler.Profile(name); !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "profile not found"})
	}

	// Cache first
	if run, stale, found := h.Cache.GetLatestRun(name, true); found {
		if stale {
			c.Response().Header().Set("X-Data-Stale", "true")
		}
		return c.JSON(http.StatusOK, run)
	}

	// Fallback to history (in-memory window, then MongoDB)
	run, err := h.History.LatestRun(c.Request().Context(), name)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	if run == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "no completed analysis for this profile"})
	}

	// Repopulate the cache for the next reader
	h.Cache.SetLatestRun(run)

	return c.JSON(http.StatusOK, run)
}

// GetRuns godoc
func (h *Handler) GetRuns(c echo.Context) error {
	name := c.Param("name")

	if _, ok := h.Scheduler.Profile(name); !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "profile not found"})
	}

	limit := 20
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	runs, err := h.History.GetRuns(c.Request().Context(), name, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, runs)
}

// GetScoreSummary godoc
func (h *Handler) GetScoreSummary(c echo.Context) error {
	name := c.Param("name")

	if _, ok := h.Scheduler.Profile(name); !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "profile not found"})
	}

	days := 30
	if daysStr := c.QueryParam("days"); daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 {
			days = d
		}
	}

	summary, err := h.History.GetScoreSummary(c.Request().Context(), name, days)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	if summary == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "no completed runs in this period"})
	}

	return c.JSON(http.StatusOK, summary)
}

// GetNotifications godoc
func (h *Handler) GetNotifications(c echo.Context) error {
	profile := c.QueryParam("profile")

	limit := 50
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	// MongoDB holds the full log; the in-memory ring covers the rest
	if h.Mongo.Enabled() {
		notifications, err := h.Mongo.GetNotifications(c.Request().Context(), profile, limit)
		if err == nil {
			return c.JSON(http.StatusOK, notifications)
		}
	}

	recent := h.Notify.GetHistory(limit)
	if profile == "" {
		return c.JSON(http.StatusOK, recent)
	}

	filtered := make([]*models.Notification, 0, len(recent))
	for _, n := range recent {
		if n.Profile == profile {
			filtered = append(filtered, n)
		}
	}
	return c.JSON(http.StatusOK, filtered)
}
