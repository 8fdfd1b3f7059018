package middleware

import (
	"net/http"
	"strings"

	"imgvault/internal/models"
	"imgvault/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// OwnerHeader carries the authenticated user identity set by the
	// upstream auth layer
	OwnerHeader = "X-User-ID"
	// OwnerKey is the context key for the owner identity
	OwnerKey = "owner"
)

// RequireOwner middleware extracts the caller identity from the X-User-ID
// header. Authentication itself happens upstream; this service only refuses
// requests that arrive without an identity.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := c.GetHeader(OwnerHeader)
		if owner == "" {
			logger.WarnWithContext(c.Request.Context(), "Request without user identity",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
				zap.String("request_id", c.GetString(RequestIDKey)))

			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "Missing user identity",
				Message: "Request must carry an X-User-ID header",
				Code:    http.StatusUnauthorized,
			})
			c.Abort()
			return
		}

		// ':' is a segment separator in repository index keys; an identity
		// carrying it could read across owner boundaries
		if strings.Contains(owner, ":") {
			logger.WarnWithContext(c.Request.Context(), "Rejected malformed user identity",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
				zap.String("request_id", c.GetString(RequestIDKey)))

			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid user identity",
				Message: "X-User-ID must not contain ':'",
				Code:    http.StatusBadRequest,
			})
			c.Abort()
			return
		}

		c.Set(OwnerKey, owner)

		ctx := logger.WithOwnerID(c.Request.Context(), owner)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
