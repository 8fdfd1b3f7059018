package handlers

import (
	"net/http"

	"imgvault/internal/api/middleware"
	"imgvault/internal/config"
	"imgvault/internal/service"

	"github.com/gin-gonic/gin"
)

// QuotaHandler handles quota usage HTTP requests
type QuotaHandler struct {
	quota service.QuotaService
	cfg   *config.QuotaConfig
}

// NewQuotaHandler creates a new quota handler
func NewQuotaHandler(quota service.QuotaService, cfg *config.QuotaConfig) *QuotaHandler {
	return &QuotaHandler{quota: quota, cfg: cfg}
}

// Usage reports the caller's usage against the configured limits
// GET /api/v1/quota
func (h *QuotaHandler) Usage(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString(middleware.RequestIDKey)
	owner := c.GetString(middleware.OwnerKey)

	snapshot, err := h.quota.Snapshot(ctx, owner)
	if err != nil {
		handleServiceError(c, err, requestID, "quota usage")
		return
	}

	c.JSON(http.StatusOK, snapshot.ToQuotaResponse(h.cfg.MaxImagesPerUser, h.cfg.MaxStorageBytes))
}
