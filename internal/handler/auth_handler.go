// Package handler provides HTTP handlers for API endpoints.
package handler

import (
	"net/http"

	"livepoll/internal/redis"
	"livepoll/internal/services"
	"livepoll/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthHandler handles authentication HTTP endpoints.
type AuthHandler struct {
	service *services.AuthService
	cache   *redis.CacheStore
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(service *services.AuthService, cache *redis.CacheStore) *AuthHandler {
	return &AuthHandler{service: service, cache: cache}
}

// Register handles user registration.
func (h *AuthHandler) Register(c *gin.Context) {
	var req httpdto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	res, err := h.service.Register(c.Request.Context(), services.RegisterInput{
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(toAuthResponse(res)))
}

// Login handles user authentication.
func (h *AuthHandler) Login(c *gin.Context) {
	var req httpdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), services.LoginInput{
		Identity: req.Identity,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(toAuthResponse(res)))
}

// Refresh handles token refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req httpdto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	res, err := h.service.Refresh(c.Request.Context(), services.RefreshInput{
		SessionID:    req.SessionID,
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(toAuthResponse(res)))
}

// Logout revokes a session and drops it from the session cache, so the
// access token stops working before the cache TTL would expire it. Without a
// body the caller's own session is revoked.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req httpdto.LogoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
			return
		}
	}
	if req.SessionID == "" {
		if current, ok := services.SessionIDFromContext(c.Request.Context()); ok {
			req.SessionID = current.String()
		}
	}

	if err := h.service.Logout(c.Request.Context(), req.SessionID); err != nil {
		writeError(c, err)
		return
	}

	if h.cache != nil {
		if sessionID, err := uuid.Parse(req.SessionID); err == nil {
			_ = h.cache.InvalidateSession(c.Request.Context(), sessionID)
		}
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// LogoutAll handles logout from all sessions.
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	if err := h.service.LogoutAll(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}

	// Every cached session of the user must go, not just the caller's,
	// or the user's other devices keep passing the cache until its TTL.
	if h.cache != nil {
		_ = h.cache.InvalidateUserSessions(c.Request.Context(), userID)
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func toAuthResponse(res services.AuthResponse) httpdto.AuthResponse {
	return httpdto.AuthResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
		SessionID:    res.SessionID,
		User: httpdto.AuthUserDTO{
			ID:          res.User.ID,
			DisplayName: res.User.DisplayName,
			Username:    res.User.Username,
			Email:       res.User.Email,
			Role:        res.User.Role,
		},
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(services.HTTPStatus(err), httpdto.NewErrorResponse(err.Error(), services.ErrorCode(err)))
}
