package storage

import (
	"fmt"

	"imgvault/internal/config"
)

// NewBlobStore creates a blob store based on the configured backend type
func NewBlobStore(cfg *config.Config) (BlobStore, error) {
	switch cfg.Storage.Type {
	case "s3":
		return NewS3Store(&cfg.S3, cfg.Storage.PublicBaseURL)
	case "local":
		return NewLocalStore(cfg.Local.Directory, cfg.Storage.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}
