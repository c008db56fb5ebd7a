package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// GetRunHistory godoc
// @Summary Get analysis runs for a profile over a time range
// @Description Returns runs between from and to (RFC 3339), oldest first.
// @Description Without explicit bounds the trailing days window is used.
// @Tags reports
// @Produce json
// @Param name path string true "Profile name"
// @Param from query string false "Range start (RFC 3339)"
// @Param to query string false "Range end (RFC 3339)"
// @Param days query int false "Trailing window in days (default 7)"
// @Success 200 {array} models.AnalysisRun
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/profiles/{name}/history [get]
func (h *Handler) GetRunHistory(c echo.Context) error {
	name := c.Param("name")

	if _, ok := h.Scheduler.Profile(name); !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "profile not found"})
	}

	days := 7
	if daysStr := c.QueryParam("days"); daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 {
			days = d
		}
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)

	if fromStr := c.QueryParam("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid 'from' timestamp, want RFC 3339"})
		}
		start = from
	}
	if toStr := c.QueryParam("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid 'to' timestamp, want RFC 3339"})
		}
		end = to
	}

	if start.After(end) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "'from' must precede 'to'"})
	}

	runs, err := h.History.GetRunsRange(c.Request().Context(), name, start, end)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, runs)
}
