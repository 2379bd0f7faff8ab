package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"zone-alerts-vms/be/auth"
	"zone-alerts-vms/be/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const identityKey = "identity"

// TokenValidator is the part of auth.TokenCodec the guard needs.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*models.User, error)
}

// AuthedHandler is a protected operation. The caller's identity is always
// its first argument.
type AuthedHandler func(c *gin.Context, user *models.User)

// AuthMiddleware resolves the bearer token to a user or ends the request.
// metrics may be nil.
func AuthMiddleware(validator TokenValidator, log *zap.Logger, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authenticate(c, validator)
		if err != nil {
			status, message, reason := authFailure(err)
			if status == http.StatusInternalServerError {
				log.Error("token validation failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
			} else {
				log.Debug("request rejected", zap.String("reason", reason), zap.String("path", c.Request.URL.Path))
			}
			metrics.AuthFailure(reason)
			c.AbortWithStatusJSON(status, gin.H{"error": message})
			return
		}

		c.Set(identityKey, user)
		c.Next()
	}
}

// Authed adapts a protected operation to gin. Routes using it must sit
// behind AuthMiddleware.
func Authed(h AuthedHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token is missing!"})
			return
		}
		h(c, user)
	}
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

func authenticate(c *gin.Context, validator TokenValidator) (*models.User, error) {
	token, err := BearerToken(c.GetHeader("Authorization"))
	if err != nil {
		return nil, err
	}
	return validator.Validate(c.Request.Context(), token)
}

// BearerToken extracts the token from an Authorization header value. The
// "Bearer " prefix is optional.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		header = strings.TrimSpace(header[len(prefix):])
	}
	if header == "" {
		return "", auth.ErrMissingToken
	}
	return header, nil
}

func authFailure(err error) (status int, message, reason string) {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized, "Token is missing!", "missing"
	case errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized, "Token has expired!", "expired"
	case errors.Is(err, auth.ErrTokenInvalid):
		return http.StatusUnauthorized, "Token is invalid!", "invalid"
	case errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound, "User not found!", "user_not_found"
	default:
		return http.StatusInternalServerError, "An error occurred while processing the token!", "internal"
	}
}
