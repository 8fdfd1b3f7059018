package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"imgvault/internal/models"
	"imgvault/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestSizeLimit middleware limits the size of incoming request bodies.
// The limit leaves headroom over the image ceiling for multipart framing;
// the validator enforces the exact per-image byte limit afterwards.
func RequestSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		if contentLengthStr := c.Request.Header.Get("Content-Length"); contentLengthStr != "" {
			contentLength, err := strconv.ParseInt(contentLengthStr, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, models.ErrorResponse{
					Error:   "Invalid Content-Length",
					Message: "Content-Length header contains invalid value",
					Code:    http.StatusBadRequest,
				})
				c.Abort()
				return
			}

			if contentLength > maxSize {
				logger.WarnWithContext(c.Request.Context(), "Request size exceeds limit",
					zap.Int64("content_length", contentLength),
					zap.Int64("max_size", maxSize),
					zap.String("client_ip", c.ClientIP()),
					zap.String("request_id", c.GetString(RequestIDKey)))

				c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
					Error:   "Request too large",
					Message: fmt.Sprintf("Request size %d bytes exceeds maximum allowed size of %d bytes", contentLength, maxSize),
					Code:    http.StatusRequestEntityTooLarge,
				})
				c.Abort()
				return
			}
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)

		c.Next()
	}
}
