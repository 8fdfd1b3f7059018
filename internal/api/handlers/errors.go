package handlers

import (
	"net/http"

	"imgvault/internal/models"
	"imgvault/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleServiceError maps service-layer errors onto HTTP responses.
// Expected rejections (validation, quota) are client errors; missing
// resources are 404; everything else is a server-side failure.
func handleServiceError(c *gin.Context, err error, requestID, operation string) {
	ctx := c.Request.Context()

	switch e := err.(type) {
	case models.ValidationError:
		logger.WarnWithContext(ctx, "Validation error",
			zap.String("kind", string(e.Kind)),
			zap.String("message", e.Message),
			zap.String("request_id", requestID),
			zap.String("operation", operation))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Validation failed",
			Message: e.Error(),
			Code:    http.StatusBadRequest,
		})

	case models.QuotaExceededError:
		logger.WarnWithContext(ctx, "Quota exceeded",
			zap.String("reason", string(e.Reason)),
			zap.String("owner", e.Owner),
			zap.String("request_id", requestID),
			zap.String("operation", operation))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Quota exceeded",
			Message: e.Error(),
			Code:    http.StatusBadRequest,
		})

	case models.NotFoundError:
		logger.WarnWithContext(ctx, "Resource not found",
			zap.String("resource", e.Resource),
			zap.String("id", e.ID),
			zap.String("request_id", requestID),
			zap.String("operation", operation))
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Not found",
			Message: e.Error(),
			Code:    http.StatusNotFound,
		})

	case models.ProcessingError:
		logger.ErrorWithContext(ctx, "Processing error",
			zap.String("operation_type", e.Operation),
			zap.String("reason", e.Reason),
			zap.String("request_id", requestID),
			zap.String("operation", operation))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Processing failed",
			Message: e.Error(),
			Code:    http.StatusInternalServerError,
		})

	case models.StorageError:
		logger.ErrorWithContext(ctx, "Storage error",
			zap.String("storage_operation", e.Operation),
			zap.String("backend", e.Backend),
			zap.String("reason", e.Reason),
			zap.String("request_id", requestID),
			zap.String("operation", operation))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Storage failure",
			Message: "Failed to access image storage",
			Code:    http.StatusInternalServerError,
		})

	default:
		logger.ErrorWithContext(ctx, "Unknown error",
			zap.Error(err),
			zap.String("request_id", requestID),
			zap.String("operation", operation))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Internal server error",
			Message: "An unexpected error occurred",
			Code:    http.StatusInternalServerError,
		})
	}
}
