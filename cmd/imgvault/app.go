package main

import (
	"fmt"

	"imgvault/internal/config"
	"imgvault/internal/repository"
	"imgvault/internal/service"
	"imgvault/internal/storage"
	"imgvault/pkg/logger"
)

// app bundles the wired-up backends and services shared by every command
type app struct {
	cfg       *config.Config
	repo      repository.AssetRepository
	store     storage.BlobStore
	validator service.ImageValidator
	cropper   service.AvatarCropper
	quota     service.QuotaService
	content   service.ContentService
	avatars   service.AvatarService
	lifecycle service.LifecycleService
	health    service.HealthService
}

// newApp loads configuration and wires every service
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	repo, err := repository.NewAssetRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	store, err := storage.NewBlobStore(cfg)
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	validator := service.NewImageValidator(&cfg.Image)
	cropper, err := service.NewAvatarCropper(&cfg.Avatar)
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to initialize avatar cropper: %w", err)
	}

	quota := service.NewQuotaService(repo, &cfg.Quota)

	a := &app{
		cfg:       cfg,
		repo:      repo,
		store:     store,
		validator: validator,
		cropper:   cropper,
		quota:     quota,
		content:   service.NewContentService(repo, store, validator, quota, &cfg.Image),
		avatars:   service.NewAvatarService(repo, store, validator, cropper, &cfg.Avatar),
		lifecycle: service.NewLifecycleService(repo, store, &cfg.Cleanup),
		health:    service.NewHealthService(repo, store),
	}
	return a, nil
}

// close releases backend connections
func (a *app) close() {
	if err := a.repo.Close(); err != nil {
		logger.Error("Failed to close repository: " + err.Error())
	}
}
