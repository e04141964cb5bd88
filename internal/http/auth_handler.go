package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"staff-directory/internal/service"
)

// AuthHandler mantiene dependencias para los endpoints de autenticación.
type AuthHandler struct {
	logger   *zap.Logger
	authServ *service.AuthService
	userServ *service.UserService
}

// NewAuthHandler crea una instancia de AuthHandler con sus dependencias.
func NewAuthHandler(logger *zap.Logger, authServ *service.AuthService, userServ *service.UserService) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		authServ: authServ,
		userServ: userServ,
	}
}

// Login maneja POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, profile, err := h.authServ.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		case errors.Is(err, service.ErrUserInactive):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user inactive"})
		case errors.Is(err, service.ErrNeedsPasswordSetup):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "password setup required"})
		default:
			h.logger.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not login"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": token, "user": profile})
}

// Logout maneja POST /auth/logout. Los tokens son stateless: el servidor no
// revoca nada, el cliente descarta su copia.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Me maneja GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userId":   claims.UserID,
		"email":    claims.Email,
		"username": claims.Username,
		"role":     claims.Role,
	})
}

// Refresh maneja POST /auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	token, err := h.authServ.Refresh(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserInactive) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user inactive or not found"})
			return
		}
		h.logger.Error("refresh failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": token})
}

// CheckFirstLogin maneja POST /auth/check-first-login.
func (h *AuthHandler) CheckFirstLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid check-first-login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	required, err := h.authServ.CheckFirstLogin(c.Request.Context(), req.Username)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrUserInactive):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user inactive"})
		default:
			h.logger.Error("check first login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check first login"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"requiresPasswordSetup": required})
}

// SetFirstPassword maneja POST /auth/set-first-password.
func (h *AuthHandler) SetFirstPassword(c *gin.Context) {
	var req struct {
		Username   string `json:"username" binding:"required"`
		Password   string `json:"password" binding:"required,min=6"`
		SecureCode string `json:"secureCode" binding:"required,len=6,numeric"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid set-first-password request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, profile, err := h.authServ.SetFirstPassword(c.Request.Context(), req.Username, req.Password, req.SecureCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrUserInactive):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user inactive"})
		case errors.Is(err, service.ErrAlreadyHasPassword):
			c.JSON(http.StatusForbidden, gin.H{"error": "user already has a password, use the normal login flow"})
		case errors.Is(err, service.ErrCodeNotGenerated):
			c.JSON(http.StatusForbidden, gin.H{"error": "verification code was not generated, request a new invite"})
		case errors.Is(err, service.ErrCodeExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "verification code expired"})
		case errors.Is(err, service.ErrCodeInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid verification code"})
		default:
			h.logger.Error("set first password failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not set password"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": token, "user": profile})
}

// ResendInvite maneja POST /auth/resend-invite.
func (h *AuthHandler) ResendInvite(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid resend-invite request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.userServ.ResendInvite(c.Request.Context(), req.Username); err != nil {
		switch {
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrUserInactive):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user inactive"})
		case errors.Is(err, service.ErrAlreadyHasPassword):
			c.JSON(http.StatusForbidden, gin.H{"error": "user already has a password"})
		case errors.Is(err, service.ErrEmailSendFailure):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email delivery unavailable"})
		default:
			h.logger.Error("resend invite failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resend invite"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "invite_sent"})
}
