package service

import (
	"context"
	"time"

	"imgvault/internal/models"
)

// ImageValidator defines the interface for upload validation
type ImageValidator interface {
	// Validate checks raw upload bytes and returns the probed image info
	Validate(data []byte) (*ImageInfo, error)
}

// AvatarCropper defines the interface for the avatar square-crop transform
type AvatarCropper interface {
	// Crop produces a square avatar from validated image bytes. The
	// offsets are expressed in the client preview coordinate space.
	Crop(data []byte, offsetX, offsetY float64) (*CropResult, error)
}

// ContentService defines the interface for inline content-image uploads
type ContentService interface {
	// Upload runs the full content-image ingestion workflow
	Upload(ctx context.Context, input UploadInput) (*models.UploadResponse, error)

	// DeleteByURL removes the asset referenced by a public URL
	DeleteByURL(ctx context.Context, owner, url string) (*models.DeleteResponse, error)

	// DeletePostImages removes every content asset attached to a post
	DeletePostImages(ctx context.Context, postID string) (int, error)
}

// AvatarService defines the interface for profile avatar management
type AvatarService interface {
	// ReplaceAvatar crops and stores a new avatar, displacing any previous one
	ReplaceAvatar(ctx context.Context, input AvatarInput) (*models.AvatarResponse, error)

	// RemoveAvatar deletes an owner's avatar, if any
	RemoveAvatar(ctx context.Context, owner string) (bool, error)
}

// QuotaService defines the interface for per-user usage limits
type QuotaService interface {
	// CountFor returns the owner's live content image count
	CountFor(ctx context.Context, owner string) (int, error)

	// BytesFor returns the owner's live stored byte total
	BytesFor(ctx context.Context, owner string) (int64, error)

	// CheckBeforeUpload rejects when a limit is already reached or the
	// incoming size would push storage over its ceiling
	CheckBeforeUpload(ctx context.Context, owner string, incomingSize int64) error

	// Snapshot returns the owner's current usage
	Snapshot(ctx context.Context, owner string) (*models.QuotaSnapshot, error)
}

// LifecycleService defines the interface for orphan asset lifecycle
type LifecycleService interface {
	// AssociateWithPost attaches all of an owner's unassociated content
	// assets to the given post
	AssociateWithPost(ctx context.Context, owner, postID string) (int, error)

	// Sweep reclaims unassociated content assets older than the threshold
	Sweep(ctx context.Context, threshold time.Duration, dryRun bool) (*SweepReport, error)

	// RunPeriodic runs Sweep on a fixed interval until ctx is cancelled
	RunPeriodic(ctx context.Context, interval time.Duration)
}

// HealthService defines the interface for health checking
type HealthService interface {
	// CheckHealth probes the repository and blob storage
	CheckHealth(ctx context.Context) *models.HealthResponse
}

// Input/Output Types

// ImageInfo is the result of probing validated upload bytes
type ImageInfo struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// CropResult is the output of the avatar crop transform
type CropResult struct {
	Data   []byte `json:"-"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// UploadInput represents input for a content-image upload
type UploadInput struct {
	Owner    string `json:"owner"`
	Filename string `json:"filename"`
	Data     []byte `json:"-"`
	AltText  string `json:"alt_text"`
}

// AvatarInput represents input for an avatar replacement
type AvatarInput struct {
	Owner    string  `json:"owner"`
	Filename string  `json:"filename"`
	Data     []byte  `json:"-"`
	OffsetX  float64 `json:"offset_x"`
	OffsetY  float64 `json:"offset_y"`
}

// SweepCandidate identifies one orphaned asset a sweep would reclaim
type SweepCandidate struct {
	ID               string    `json:"id"`
	Owner            string    `json:"owner"`
	OriginalFilename string    `json:"original_filename"`
	Size             int64     `json:"size"`
	CreatedAt        time.Time `json:"created_at"`
}

// SweepReport summarizes one orphan sweep run. Candidates lists every
// asset the run considered, so a dry run shows exactly what a real run
// would delete.
type SweepReport struct {
	DryRun     bool             `json:"dry_run"`
	Cutoff     time.Time        `json:"cutoff"`
	Candidates []SweepCandidate `json:"candidates"`
	Deleted    int              `json:"deleted"`
	Failed     int              `json:"failed"`
	BytesFreed int64            `json:"bytes_freed"`
}
