package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"zone-alerts-vms/be/models"
	"zone-alerts-vms/be/repository"
	"zone-alerts-vms/be/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AlertHandler struct {
	alerts    *repository.AlertRepository
	zones     *repository.ZoneRepository
	blobs     services.BlobStore
	notifier  services.Dispatcher
	uploadDir string
	logger    *zap.Logger
}

// NewAlertHandler wires alert storage and side effects. notifier may be nil,
// in which case no chat notifications are sent.
func NewAlertHandler(alerts *repository.AlertRepository, zones *repository.ZoneRepository, blobs services.BlobStore, notifier services.Dispatcher, uploadDir string, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{
		alerts:    alerts,
		zones:     zones,
		blobs:     blobs,
		notifier:  notifier,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

func (h *AlertHandler) GetAlerts(c *gin.Context, user *models.User) {
	alerts, err := h.alerts.List(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.logger, err, "listing alerts")
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (h *AlertHandler) GetAlert(c *gin.Context, user *models.User) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	alert, err := h.alerts.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		respondError(c, h.logger, err, "loading alert")
		return
	}
	c.JSON(http.StatusOK, alert)
}

// CreateAlert takes a multipart form with a "video" clip and "zone_id".
// Storage and chat delivery are best effort; the alert row is written
// regardless of their outcome.
func (h *AlertHandler) CreateAlert(c *gin.Context, user *models.User) {
	ctx := c.Request.Context()

	zoneID, err := strconv.ParseUint(c.PostForm("zone_id"), 10, 32)
	if err != nil || zoneID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "zone_id is required"})
		return
	}
	personCount, err := strconv.Atoi(c.DefaultPostForm("person_count", "1"))
	if err != nil || personCount < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "person_count must be a positive integer"})
		return
	}
	file, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "video file is required"})
		return
	}

	zone, err := h.zones.Get(ctx, user.ID, uint(zoneID))
	if err != nil {
		respondError(c, h.logger, err, "loading zone")
		return
	}

	tempPath := filepath.Join(h.uploadDir, uuid.NewString()+".mp4")
	if err := c.SaveUploadedFile(file, tempPath); err != nil {
		respondError(c, h.logger, err, "saving clip")
		return
	}
	keepClip := false
	defer func() {
		if !keepClip {
			h.removeClip(tempPath)
		}
	}()

	now := time.Now().UTC()
	alert := &models.Alert{
		ZoneID:      zone.ID,
		AlertTime:   now,
		PersonCount: personCount,
	}

	blobName := services.ClipBlobName(user.ID, now)
	url, err := h.blobs.Upload(ctx, tempPath, blobName)
	switch {
	case err == nil:
		alert.VideoURL = url
		alert.VideoBlob = blobName
	case errors.Is(err, services.ErrBlobDisabled):
		h.logger.Debug("clip not stored, blob storage disabled")
	default:
		h.logger.Warn("clip upload failed", zap.Uint("zone_id", zone.ID), zap.Error(err))
	}

	if err := h.alerts.Create(ctx, user.ID, alert); err != nil {
		respondError(c, h.logger, err, "creating alert")
		return
	}

	if h.notifier != nil && zone.AlertTelegram != nil {
		n := services.Notification{
			ChatID:    *zone.AlertTelegram,
			Text:      alertMessage(zone, alert),
			VideoPath: tempPath,
		}
		if err := h.notifier.Dispatch(ctx, n); err != nil {
			h.logger.Warn("notification not queued", zap.Uint("alert_id", alert.ID), zap.Error(err))
		} else {
			keepClip = true
		}
	}

	c.JSON(http.StatusCreated, alert)
}

func (h *AlertHandler) DeleteAlert(c *gin.Context, user *models.User) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	alert, err := h.alerts.Delete(c.Request.Context(), user.ID, id)
	if err != nil {
		respondError(c, h.logger, err, "deleting alert")
		return
	}

	if alert.VideoBlob != "" {
		if err := h.blobs.Delete(c.Request.Context(), alert.VideoBlob); err != nil {
			h.logger.Warn("clip not deleted", zap.String("blob", alert.VideoBlob), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Alert deleted"})
}

func (h *AlertHandler) removeClip(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		h.logger.Warn("failed to remove temp clip", zap.String("path", path), zap.Error(err))
	}
}

func alertMessage(zone *models.Zone, alert *models.Alert) string {
	return fmt.Sprintf("Alert: %d person(s) detected in %s zone %d (camera %d) at %s UTC",
		alert.PersonCount, zone.Type, zone.ID, zone.CameraID, alert.AlertTime.Format("2006-01-02 15:04:05"))
}
