package handlers

import (
	"net/http"

	"zone-alerts-vms/be/models"
	"zone-alerts-vms/be/repository"
	"zone-alerts-vms/be/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CameraHandler struct {
	cameras     *repository.CameraRepository
	rtspService *services.RTSPService
	logger      *zap.Logger
}

func NewCameraHandler(cameras *repository.CameraRepository, rtspService *services.RTSPService, logger *zap.Logger) *CameraHandler {
	return &CameraHandler{
		cameras:     cameras,
		rtspService: rtspService,
		logger:      logger,
	}
}

type CreateCameraRequest struct {
	Name      string `json:"camera_name" binding:"required,max=100"`
	IPAddress string `json:"ip_address" binding:"required,max=45"`
	Username  string `json:"username" binding:"required,max=50"`
	Password  string `json:"password" binding:"required"`
	RTSPUrl   string `json:"rtsp_url"`
	Location  string `json:"location" binding:"max=100"`
	Status    string `json:"status" binding:"omitempty,oneof=active inactive"`
}

type UpdateCameraRequest struct {
	Name      *string `json:"camera_name" binding:"omitempty,min=1,max=100"`
	IPAddress *string `json:"ip_address" binding:"omitempty,min=1,max=45"`
	Username  *string `json:"username" binding:"omitempty,min=1,max=50"`
	Password  *string `json:"password" binding:"omitempty,min=1"`
	RTSPUrl   *string `json:"rtsp_url"`
	Location  *string `json:"location" binding:"omitempty,max=100"`
	Status    *string `json:"status" binding:"omitempty,oneof=active inactive"`
}

func (h *CameraHandler) GetCameras(c *gin.Context, user *models.User) {
	cameras, err := h.cameras.List(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.logger, err, "listing cameras")
		return
	}
	c.JSON(http.StatusOK, cameras)
}

func (h *CameraHandler) GetCamera(c *gin.Context, user *models.User) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	camera, err := h.cameras.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		respondError(c, h.logger, err, "loading camera")
		return
	}
	c.JSON(http.StatusOK, camera)
}

func (h *CameraHandler) CreateCamera(c *gin.Context, user *models.User) {
	var req CreateCameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	camera := &models.Camera{
		Name:      req.Name,
		IPAddress: req.IPAddress,
		Username:  req.Username,
		Password:  req.Password,
		RTSPUrl:   req.RTSPUrl,
		Location:  req.Location,
		Status:    req.Status,
	}
	if err := h.cameras.Create(c.Request.Context(), user.ID, camera); err != nil {
		respondError(c, h.logger, err, "creating camera")
		return
	}

	c.JSON(http.StatusCreated, camera)
}

func (h *CameraHandler) UpdateCamera(c *gin.Context, user *models.User) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateCameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	camera, err := h.cameras.Update(c.Request.Context(), user.ID, id, repository.CameraChanges{
		Name:      req.Name,
		IPAddress: req.IPAddress,
		Username:  req.Username,
		Password:  req.Password,
		RTSPUrl:   req.RTSPUrl,
		Location:  req.Location,
		Status:    req.Status,
	})
	if err != nil {
		respondError(c, h.logger, err, "updating camera")
		return
	}

	c.JSON(http.StatusOK, camera)
}

func (h *CameraHandler) DeleteCamera(c *gin.Context, user *models.User) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.cameras.Delete(c.Request.Context(), user.ID, id); err != nil {
		respondError(c, h.logger, err, "deleting camera")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Camera deleted successfully"})
}

// ProbeCamera dials the camera's stream. An unreachable camera is still a
// 200; the body says so.
func (h *CameraHandler) ProbeCamera(c *gin.Context, user *models.User) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	creds, err := h.cameras.Credentials(c.Request.Context(), user.ID, id)
	if err != nil {
		respondError(c, h.logger, err, "loading camera credentials")
		return
	}

	c.JSON(http.StatusOK, h.rtspService.Probe(c.Request.Context(), id, creds))
}
