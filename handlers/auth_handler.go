package handlers

import (
	"errors"
	"net/http"

	"zone-alerts-vms/be/auth"
	"zone-alerts-vms/be/models"
	"zone-alerts-vms/be/repository"
	"zone-alerts-vms/be/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	users  *repository.UserRepository
	tokens *auth.TokenCodec
	logger *zap.Logger
}

func NewAuthHandler(users *repository.UserRepository, tokens *auth.TokenCodec, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=50"`
	Lastname string `json:"lastname" binding:"required,max=50"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		respondError(c, h.logger, err, "hashing password")
		return
	}

	user := &models.User{
		Name:     req.Name,
		Lastname: req.Lastname,
		Email:    req.Email,
		Password: hash,
	}
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		respondError(c, h.logger, err, "creating user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully!"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		respondError(c, h.logger, err, "loading user")
		return
	}
	if user == nil || !utils.CheckPassword(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password!"})
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		respondError(c, h.logger, err, "issuing token")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Message: "Login successful!", Token: token})
}

func (h *AuthHandler) CurrentUser(c *gin.Context, user *models.User) {
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) ChangePassword(c *gin.Context, user *models.User) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if !utils.CheckPassword(req.OldPassword, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Old password is incorrect!"})
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		respondError(c, h.logger, err, "hashing password")
		return
	}
	if err := h.users.UpdatePassword(c.Request.Context(), user.ID, hash); err != nil {
		respondError(c, h.logger, err, "updating password")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully!"})
}

func (h *AuthHandler) DeleteAccount(c *gin.Context, user *models.User) {
	if err := h.users.Delete(c.Request.Context(), user.ID); err != nil {
		respondError(c, h.logger, err, "deleting account")
		return
	}

	h.logger.Info("account deleted", zap.Uint("user_id", user.ID))
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully!"})
}

// Logout is stateless; the client drops its token and it expires on its own.
func (h *AuthHandler) Logout(c *gin.Context, user *models.User) {
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful!"})
}
