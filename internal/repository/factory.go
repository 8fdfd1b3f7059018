package repository

import (
	"fmt"

	"imgvault/internal/config"
	"imgvault/pkg/logger"

	"go.uber.org/zap"
)

// RepoType represents the type of repository implementation
type RepoType string

const (
	RepoTypeBadger RepoType = "badger"
	RepoTypeRedis  RepoType = "redis"
)

// NewAssetRepository creates the asset repository selected by REPO_TYPE.
// BadgerDB is embedded and needs no external service; Redis suits
// deployments that already run one.
func NewAssetRepository(cfg *config.Config) (AssetRepository, error) {
	logger.Info("Initializing asset repository",
		zap.String("type", cfg.Repo.Type))

	switch RepoType(cfg.Repo.Type) {
	case RepoTypeBadger:
		repo, err := NewBadgerAssetRepository(cfg.Repo.Directory)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize BadgerDB repository: %w", err)
		}
		return repo, nil

	case RepoTypeRedis:
		repo, err := NewRedisAssetRepository(&cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis repository: %w", err)
		}
		return repo, nil

	default:
		return nil, fmt.Errorf("unsupported repository type: %s", cfg.Repo.Type)
	}
}
