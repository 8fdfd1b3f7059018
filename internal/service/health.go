package service

import (
	"context"
	"time"

	"imgvault/internal/models"
	"imgvault/internal/repository"
	"imgvault/internal/storage"
	"imgvault/pkg/logger"

	"go.uber.org/zap"
)

// HealthServiceImpl implements the HealthService interface
type HealthServiceImpl struct {
	repo  repository.AssetRepository
	store storage.BlobStore
}

// NewHealthService creates a new health service
func NewHealthService(repo repository.AssetRepository, store storage.BlobStore) HealthService {
	return &HealthServiceImpl{repo: repo, store: store}
}

// CheckHealth probes the repository and blob storage
func (s *HealthServiceImpl) CheckHealth(ctx context.Context) *models.HealthResponse {
	logger.DebugWithContext(ctx, "Starting health check")

	services := make(map[string]string)
	status := "healthy"

	if err := s.repo.Health(ctx); err != nil {
		logger.WarnWithContext(ctx, "Repository health check failed",
			zap.Error(err))
		services["repository"] = "unhealthy: " + err.Error()
		status = "degraded"
	} else {
		services["repository"] = "connected"
	}

	if err := s.store.Health(ctx); err != nil {
		logger.WarnWithContext(ctx, "Storage health check failed",
			zap.Error(err))
		services["storage"] = "unhealthy: " + err.Error()
		status = "degraded"
	} else {
		services["storage"] = "connected"
	}

	return &models.HealthResponse{
		Status:    status,
		Services:  services,
		Timestamp: time.Now(),
	}
}
