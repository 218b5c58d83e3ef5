package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/apnisec/backend/internal/apperr"
	"github.com/apnisec/backend/internal/model"
	"github.com/apnisec/backend/internal/service"
)

const refreshCookieName = "refreshToken"

type CookieConfig struct {
	Secure bool
	MaxAge int
}

type AuthHandler struct {
	svc       *service.AuthService
	cookieCfg CookieConfig
	logger    *zap.Logger
}

func NewAuthHandler(svc *service.AuthService, cookieCfg CookieConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, cookieCfg: cookieCfg, logger: logger}
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "Email, password and optional name"
// @Success 201 {object} model.AuthResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, apperr.Validation("Invalid request body"))
		return
	}

	result, err := h.svc.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	c.JSON(http.StatusCreated, model.AuthResponse{
		User:        result.User,
		AccessToken: result.AccessToken,
	})
}

// Login godoc
// @Summary Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Email and password"
// @Success 200 {object} model.AuthResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, apperr.Validation("Invalid request body"))
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	c.JSON(http.StatusOK, model.AuthResponse{
		User:        result.User,
		AccessToken: result.AccessToken,
	})
}

// Logout godoc
// @Summary Logout and clear the refresh token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.MessageResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		writeError(c, h.logger, apperr.Authentication("No authentication token provided"))
		return
	}

	if err := h.svc.Logout(c.Request.Context(), user.ID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, model.MessageResponse{Message: "Logged out successfully"})
}

// Refresh godoc
// @Summary Exchange the refresh cookie for a new token pair
// @Tags auth
// @Produce json
// @Success 200 {object} model.AuthResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookieName)
	if err != nil || refreshToken == "" {
		writeError(c, h.logger, apperr.Authentication("No refresh token provided"))
		return
	}

	result, err := h.svc.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	c.JSON(http.StatusOK, model.AuthResponse{
		User:        result.User,
		AccessToken: result.AccessToken,
	})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, token, h.cookieCfg.MaxAge, "/", "", h.cookieCfg.Secure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, "", -1, "/", "", h.cookieCfg.Secure, true)
}
