package handlers

import (
	"net/http"

	"imgvault/internal/service"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check HTTP requests
type HealthHandler struct {
	health service.HealthService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(health service.HealthService) *HealthHandler {
	return &HealthHandler{health: health}
}

// Health handles health check requests
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	resp := h.health.CheckHealth(c.Request.Context())

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, resp)
}
