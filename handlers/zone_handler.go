package handlers

import (
	"fmt"
	"net/http"
	"time"

	"zone-alerts-vms/be/models"
	"zone-alerts-vms/be/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	defaultScheduleStart = "00:00"
	defaultScheduleEnd   = "23:59:59"
)

type ZoneHandler struct {
	zones  *repository.ZoneRepository
	logger *zap.Logger
}

func NewZoneHandler(zones *repository.ZoneRepository, logger *zap.Logger) *ZoneHandler {
	return &ZoneHandler{
		zones:  zones,
		logger: logger,
	}
}

type ZoneRequest struct {
	CameraID       uint           `json:"camera_id" binding:"required"`
	Coords         []models.Point `json:"coords" binding:"required,min=3"`
	Type           string         `json:"type" binding:"required,oneof=critical warning info"`
	AlertThreshold int            `json:"alert_threshold" binding:"required,min=1"`
	ScheduleStart  string         `json:"schedule_start"`
	ScheduleEnd    string         `json:"schedule_end"`
	AlertTelegram  string         `json:"alert_telegram" binding:"max=255"`
	AlertEmail     string         `json:"alert_email" binding:"omitempty,email,max=255"`
}

type CreateZonesRequest struct {
	Zones []ZoneRequest `json:"zones" binding:"required,min=1,dive"`
}

type UpdateZoneRequest struct {
	Coords         []models.Point `json:"coords" binding:"omitempty,min=3"`
	Type           *string        `json:"type" binding:"omitempty,oneof=critical warning info"`
	AlertThreshold *int           `json:"alert_threshold" binding:"omitempty,min=1"`
	ScheduleStart  *string        `json:"schedule_start"`
	ScheduleEnd    *string        `json:"schedule_end"`
	AlertTelegram  *string        `json:"alert_telegram" binding:"omitempty,max=255"`
	AlertEmail     *string        `json:"alert_email" binding:"omitempty,max=255,eq=|email"`
}

func (h *ZoneHandler) GetZones(c *gin.Context, user *models.User) {
	zones, err := h.zones.List(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.logger, err, "listing zones")
		return
	}
	c.JSON(http.StatusOK, zones)
}

func (h *ZoneHandler) GetCameraZones(c *gin.Context, user *models.User) {
	cameraID, ok := pathID(c, "camera_id")
	if !ok {
		return
	}

	zones, err := h.zones.ListByCamera(c.Request.Context(), user.ID, cameraID)
	if err != nil {
		respondError(c, h.logger, err, "listing camera zones")
		return
	}
	c.JSON(http.StatusOK, zones)
}

func (h *ZoneHandler) GetZone(c *gin.Context, user *models.User) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	zone, err := h.zones.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		respondError(c, h.logger, err, "loading zone")
		return
	}
	c.JSON(http.StatusOK, zone)
}

// CreateZones stores a batch of zones that may span several cameras. One
// camera the caller does not own rejects the whole batch.
func (h *ZoneHandler) CreateZones(c *gin.Context, user *models.User) {
	var req CreateZonesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	zones := make([]models.Zone, 0, len(req.Zones))
	for i, z := range req.Zones {
		zone, err := z.toModel()
		if err != nil {
			badRequest(c, fmt.Errorf("zones[%d]: %w", i, err))
			return
		}
		zones = append(zones, zone)
	}

	created, err := h.zones.CreateBatch(c.Request.Context(), user.ID, zones)
	if err != nil {
		respondError(c, h.logger, err, "creating zones")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *ZoneHandler) UpdateZone(c *gin.Context, user *models.User) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	changes := repository.ZoneChanges{
		Coords:         req.Coords,
		Type:           req.Type,
		AlertThreshold: req.AlertThreshold,
		AlertTelegram:  req.AlertTelegram,
		AlertEmail:     req.AlertEmail,
	}
	var err error
	if changes.ScheduleStart, err = optionalClock(req.ScheduleStart); err != nil {
		badRequest(c, fmt.Errorf("schedule_start: %w", err))
		return
	}
	if changes.ScheduleEnd, err = optionalClock(req.ScheduleEnd); err != nil {
		badRequest(c, fmt.Errorf("schedule_end: %w", err))
		return
	}

	zone, err := h.zones.Update(c.Request.Context(), user.ID, id, changes)
	if err != nil {
		respondError(c, h.logger, err, "updating zone")
		return
	}
	c.JSON(http.StatusOK, zone)
}

func (h *ZoneHandler) DeleteZone(c *gin.Context, user *models.User) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.zones.Delete(c.Request.Context(), user.ID, id); err != nil {
		respondError(c, h.logger, err, "deleting zone")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Zone deleted"})
}

func (z ZoneRequest) toModel() (models.Zone, error) {
	start, err := parseClock(orDefault(z.ScheduleStart, defaultScheduleStart))
	if err != nil {
		return models.Zone{}, fmt.Errorf("schedule_start: %w", err)
	}
	end, err := parseClock(orDefault(z.ScheduleEnd, defaultScheduleEnd))
	if err != nil {
		return models.Zone{}, fmt.Errorf("schedule_end: %w", err)
	}

	zone := models.Zone{
		CameraID:       z.CameraID,
		Coords:         z.Coords,
		Type:           z.Type,
		AlertThreshold: z.AlertThreshold,
		ScheduleStart:  start,
		ScheduleEnd:    end,
	}
	if z.AlertTelegram != "" {
		zone.AlertTelegram = &z.AlertTelegram
	}
	if z.AlertEmail != "" {
		zone.AlertEmail = &z.AlertEmail
	}
	return zone, nil
}

// parseClock accepts HH:MM or HH:MM:SS.
func parseClock(s string) (datatypes.Time, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return datatypes.NewTime(t.Hour(), t.Minute(), t.Second(), 0), nil
		}
	}
	return 0, fmt.Errorf("invalid time %q, use HH:MM or HH:MM:SS", s)
}

func optionalClock(s *string) (*datatypes.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := parseClock(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
