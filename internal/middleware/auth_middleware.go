package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"livepoll/internal/redis"
	"livepoll/internal/services"
	"livepoll/internal/transport/httpdto"
	"livepoll/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthMiddleware validates the bearer token and session, then stores the
// caller's identity on the request context. The session lookup goes through
// the redis cache first; cache misses fall back to the database and prime
// the cache for the next request.
func AuthMiddleware(service *services.AuthService, cache *redis.CacheStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c)
		claims, err := service.ParseAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		sessionID, err := uuid.Parse(claims.SessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		if !sessionValid(c, cache, service, sessionID, userID) {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		ctx := services.WithIdentity(c.Request.Context(), userID, sessionID, claims.Role)
		ctx = context.WithValue(ctx, logger.UserIdKey, userID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func sessionValid(c *gin.Context, cache *redis.CacheStore, service *services.AuthService, sessionID, userID uuid.UUID) bool {
	if cache != nil {
		cached, err := cache.GetSession(c.Request.Context(), sessionID)
		if err == nil && cached != nil {
			return cached.UserID == userID && time.Now().Before(cached.ExpiresAt)
		}
	}

	session, err := service.ValidateSession(c.Request.Context(), sessionID, userID)
	if err != nil {
		return false
	}
	if cache != nil {
		_ = cache.SetSessionFromEntity(c.Request.Context(), session)
	}
	return true
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
