package repository

import (
	"context"
	"time"

	"imgvault/internal/models"
)

// AssetRepository defines the interface for image asset metadata operations.
// Quota aggregates are always computed from live records so deletions are
// reflected immediately; implementations must not maintain running counters.
type AssetRepository interface {
	// Store saves a new asset record
	Store(ctx context.Context, asset *models.ImageAsset) error

	// Get retrieves an asset record by ID
	Get(ctx context.Context, id string) (*models.ImageAsset, error)

	// Delete removes an asset record
	Delete(ctx context.Context, id string) error

	// Exists checks if an asset record exists
	Exists(ctx context.Context, id string) (bool, error)

	// SetPost attaches a content asset to a post (the only mutation an
	// asset record undergoes after creation)
	SetPost(ctx context.Context, id, postID string) error

	// ListByOwner retrieves all assets owned by a user
	ListByOwner(ctx context.Context, owner string) ([]*models.ImageAsset, error)

	// CountByOwner counts the user's live content asset records. Avatar
	// assets are replace-in-place singletons and are not quota-metered.
	CountByOwner(ctx context.Context, owner string) (int, error)

	// SumSizeByOwner sums stored byte sizes of the user's live content
	// asset records, mirroring CountByOwner's scope
	SumSizeByOwner(ctx context.Context, owner string) (int64, error)

	// ListByPost retrieves all content assets attached to a post
	ListByPost(ctx context.Context, postID string) ([]*models.ImageAsset, error)

	// ListUnassociated retrieves an owner's content assets with no post
	ListUnassociated(ctx context.Context, owner string) ([]*models.ImageAsset, error)

	// ListUnassociatedBefore retrieves content assets with no post created
	// strictly before the cutoff (the sweep candidate set)
	ListUnassociatedBefore(ctx context.Context, cutoff time.Time) ([]*models.ImageAsset, error)

	// FindByStorageKey retrieves the asset records referencing a storage key
	FindByStorageKey(ctx context.Context, key string) ([]*models.ImageAsset, error)

	// FindAvatar retrieves an owner's avatar asset, if any
	FindAvatar(ctx context.Context, owner string) (*models.ImageAsset, error)

	// Owners lists every user that currently has at least one asset record
	Owners(ctx context.Context) ([]string, error)

	// Health checks repository health
	Health(ctx context.Context) error

	// Close closes the repository connection
	Close() error
}
