package server

import (
	"net/http"
	"time"

	"invest-settlement-go/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	headerUserId = "X-User-Id"
	headerRole   = "X-User-Role"

	ctxUserId  = "user_id"
	ctxIsAdmin = "is_admin"

	roleAdmin = "admin"
)

// identity extracts the caller's identity set by the upstream auth gateway.
// Authentication itself happens before requests reach this service.
func identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxUserId, c.GetHeader(headerUserId))
		c.Set(ctxIsAdmin, c.GetHeader(headerRole) == roleAdmin)
		c.Next()
	}
}

func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxUserId) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "missing user identity"})
			return
		}
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxUserId) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "missing user identity"})
			return
		}
		if !c.GetBool(ctxIsAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{Error: "admin role required"})
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		zap.L().Info("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

func callerIdentity(c *gin.Context) (userId string, isAdmin bool) {
	return c.GetString(ctxUserId), c.GetBool(ctxIsAdmin)
}
