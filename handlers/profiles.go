package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/jorge1125/mycodo-plant-analyzer/analyzer"
	"github.com/jorge1125/mycodo-plant-analyzer/models"
	"github.com/jorge1125/mycodo-plant-analyzer/services"
)

// GetProfiles godoc
// @Summary List configured plant profiles
// @Description Returns every configured profile in name order
// @Tags profiles
// @Produce json
// @Success 200 {array} models.PlantProfile
// @Router /api/profiles [get]
func (h *Handler) GetProfiles(c echo.Context) error {
	names := h.Scheduler.ProfileNames()

	profiles := make([]models.PlantProfile, 0, len(names))
	for _, name := range names {
		if p, ok := h.Scheduler.Profile(name); ok {
			profiles = append(profiles, p)
		}
	}

	return c.JSON(http.StatusOK, profiles)
}

// GetProfile godoc
func (h *Handler) GetProfile(c echo.Context) error {
	name := c.Param("name")

	profile, ok := h.Scheduler.Profile(name)
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "profile not found"})
	}

	return c.JSON(http.StatusOK, profile)
}

// AnalyzeProfile godoc
// @Summary Run an analysis now
// @Description Analyzes the profile over the trailing window and returns the run
// @Tags profiles
// @Produce json
// @Param name path string true "Profile name"
// @Param days query int false "Window in days (default: configured window)"
// @Success 200 {object} models.AnalysisRun
// @Failure 404 {object} ErrorResponse
// @Router /api/profiles/{name}/analyze [post]
func (h *Handler) AnalyzeProfile(c echo.Context) error {
	name := c.Param("name")

	days := 0
	if daysStr := c.QueryParam("days"); daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 {
			days = d
		}
	}

	run, err := h.Scheduler.RunProfile(c.Request().Context(), name, days, models.TriggerManual)
	if err != nil {
		if errors.Is(err, services.ErrUnknownProfile) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		}

		// Failed runs are still recorded; return them with the error
		status := http.StatusInternalServerError
		if errors.Is(err, analyzer.ErrInsufficientData) ||
			errors.Is(err, analyzer.ErrInvalidRange) ||
			errors.Is(err, analyzer.ErrEmptyProfile) {
			status = http.StatusBadRequest
		}
		return c.JSON(status, map[string]interface{}{
			"error": err.Error(),
			"run":   run,
		})
	}

	return c.JSON(http.StatusOK, run)
}
