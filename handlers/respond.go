package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"zone-alerts-vms/be/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps repository errors to HTTP. Anything unexpected is
// logged and answered with a generic 500.
func respondError(c *gin.Context, logger *zap.Logger, err error, action string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Email is already registered"})
	default:
		logger.Error(action, zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// pathID reads a positive numeric path parameter, answering 400 otherwise.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}
