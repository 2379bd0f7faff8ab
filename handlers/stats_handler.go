package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"zone-alerts-vms/be/models"
	"zone-alerts-vms/be/repository"
	"zone-alerts-vms/be/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultStatsWindow = 30 * 24 * time.Hour
	maxStatsDays       = 366
	xlsxContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	errBadDate       = errors.New("invalid date format, use YYYY-MM-DD")
	errReversedRange = errors.New("end_date must be on or after start_date")
	errRangeTooLong  = fmt.Errorf("date range must not exceed %d days", maxStatsDays)
)

type StatsHandler struct {
	stats  *repository.StatsRepository
	alerts *repository.AlertRepository
	now    func() time.Time
	logger *zap.Logger
}

func NewStatsHandler(stats *repository.StatsRepository, alerts *repository.AlertRepository, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		stats:  stats,
		alerts: alerts,
		now:    time.Now,
		logger: logger,
	}
}

func (h *StatsHandler) DailyCount(c *gin.Context, user *models.User) {
	rng, ok := h.dateRange(c)
	if !ok {
		return
	}
	counts, err := h.stats.DailyAlertCounts(c.Request.Context(), user.ID, rng)
	if err != nil {
		respondError(c, h.logger, err, "daily alert counts")
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *StatsHandler) PersonCount(c *gin.Context, user *models.User) {
	rng, ok := h.dateRange(c)
	if !ok {
		return
	}
	counts, err := h.stats.DailyPersonCounts(c.Request.Context(), user.ID, rng)
	if err != nil {
		respondError(c, h.logger, err, "daily person counts")
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *StatsHandler) AlertsByZone(c *gin.Context, user *models.User) {
	rng, ok := h.dateRange(c)
	if !ok {
		return
	}
	counts, err := h.stats.AlertsByZone(c.Request.Context(), user.ID, rng)
	if err != nil {
		respondError(c, h.logger, err, "alerts by zone")
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *StatsHandler) HourlyDistribution(c *gin.Context, user *models.User) {
	rng, ok := h.dateRange(c)
	if !ok {
		return
	}
	counts, err := h.stats.HourlyDistribution(c.Request.Context(), user.ID, rng)
	if err != nil {
		respondError(c, h.logger, err, "hourly distribution")
		return
	}
	c.JSON(http.StatusOK, counts)
}

// DailyAlerts lists the caller's alerts on one UTC day.
func (h *StatsHandler) DailyAlerts(c *gin.Context, user *models.User) {
	day, err := time.Parse(repository.DateLayout, c.Param("date"))
	if err != nil {
		badRequest(c, errBadDate)
		return
	}

	alerts, err := h.alerts.ListBetween(c.Request.Context(), user.ID, day, day.AddDate(0, 0, 1))
	if err != nil {
		respondError(c, h.logger, err, "daily alerts")
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (h *StatsHandler) Export(c *gin.Context, user *models.User) {
	rng, ok := h.dateRange(c)
	if !ok {
		return
	}

	rows, err := h.stats.ReportRows(c.Request.Context(), user.ID, rng)
	if err != nil {
		respondError(c, h.logger, err, "loading report rows")
		return
	}
	data, err := services.BuildAlertReport(rows)
	if err != nil {
		respondError(c, h.logger, err, "building report")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+services.AlertReportFilename(rng)+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// dateRange reads start_date and end_date, defaulting to the last 30 days.
// Ranges longer than maxStatsDays are rejected.
func (h *StatsHandler) dateRange(c *gin.Context) (repository.DateRange, bool) {
	now := h.now().UTC()
	from, err := queryDate(c, "start_date", now.Add(-defaultStatsWindow))
	if err != nil {
		badRequest(c, err)
		return repository.DateRange{}, false
	}
	to, err := queryDate(c, "end_date", now)
	if err != nil {
		badRequest(c, err)
		return repository.DateRange{}, false
	}
	if to.Before(from) {
		badRequest(c, errReversedRange)
		return repository.DateRange{}, false
	}
	if !to.Before(from.AddDate(0, 0, maxStatsDays)) {
		badRequest(c, errRangeTooLong)
		return repository.DateRange{}, false
	}
	return repository.DateRange{From: from, To: to}, true
}

func queryDate(c *gin.Context, key string, fallback time.Time) (time.Time, error) {
	value := c.Query(key)
	if value == "" {
		return time.Date(fallback.Year(), fallback.Month(), fallback.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(repository.DateLayout, value)
	if err != nil {
		return time.Time{}, errBadDate
	}
	return t, nil
}
