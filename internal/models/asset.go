package models

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// AssetKind distinguishes profile avatars from inline post images
type AssetKind string

const (
	KindAvatar  AssetKind = "avatar"
	KindContent AssetKind = "content"
)

// Image formats the service accepts and stores
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatWEBP = "webp"
)

// ImageAsset represents one stored image file and its metadata record.
// Size, Width, Height and Format describe the stored (post-transform)
// bytes, not the original upload.
type ImageAsset struct {
	ID               string    `json:"id" redis:"id"`
	Owner            string    `json:"owner" redis:"owner"`
	Kind             AssetKind `json:"kind" redis:"kind"`
	StorageKey       string    `json:"storage_key" redis:"storage_key"`
	OriginalFilename string    `json:"original_filename" redis:"original_filename"`
	Size             int64     `json:"size" redis:"size"`
	Width            int       `json:"width" redis:"width"`
	Height           int       `json:"height" redis:"height"`
	Format           string    `json:"format" redis:"format"`
	CreatedAt        time.Time `json:"created_at" redis:"created_at"`
	PostID           *string   `json:"post_id,omitempty" redis:"post_id"`
	AltText          string    `json:"alt_text,omitempty" redis:"alt_text"`
}

// QuotaSnapshot is a derived view of an owner's live usage. It is computed
// on demand from asset records and never persisted or cached.
type QuotaSnapshot struct {
	Owner      string `json:"owner"`
	ImageCount int    `json:"image_count"`
	TotalBytes int64  `json:"total_bytes"`
}

// UploadResponse is returned after a successful content-image upload.
// Location is the public URL the editor embeds inline.
type UploadResponse struct {
	Location string `json:"location"`
}

// AvatarResponse is returned after a successful avatar replacement
type AvatarResponse struct {
	Location string `json:"location"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// DeleteResponse reports the outcome of a delete-by-URL request
type DeleteResponse struct {
	Deleted int    `json:"deleted"`
	Message string `json:"message"`
}

// QuotaResponse reports an owner's usage against the configured limits
type QuotaResponse struct {
	Owner          string  `json:"owner"`
	ImageCount     int     `json:"image_count"`
	MaxImages      int     `json:"max_images"`
	TotalBytes     int64   `json:"total_bytes"`
	MaxBytes       int64   `json:"max_bytes"`
	ImagePercent   float64 `json:"image_percent"`
	StoragePercent float64 `json:"storage_percent"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Services  map[string]string `json:"services"`
	Timestamp time.Time         `json:"timestamp"`
}

// Methods for ImageAsset

// IsOrphan reports whether a content asset has not yet been attached to a
// post. Avatar assets are never orphans; they replace in place.
func (a *ImageAsset) IsOrphan() bool {
	return a.Kind == KindContent && a.PostID == nil
}

// AssociatedWith reports whether the asset is attached to the given post
func (a *ImageAsset) AssociatedWith(postID string) bool {
	return a.PostID != nil && *a.PostID == postID
}

// Extension returns the canonical file extension for the stored format
func (a *ImageAsset) Extension() string {
	return ExtensionForFormat(a.Format)
}

var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// IsValidUUID checks if the ID is a valid UUID format
func (a *ImageAsset) IsValidUUID() bool {
	return uuidRegex.MatchString(a.ID)
}

// IsValidFormat checks if the stored format is one of the canonical formats
func (a *ImageAsset) IsValidFormat() bool {
	switch a.Format {
	case FormatJPEG, FormatPNG, FormatWEBP:
		return true
	}
	return false
}

// Validate validates the ImageAsset record
func (a *ImageAsset) Validate() error {
	if a.ID == "" {
		return ValidationError{Kind: CorruptImage, Message: "ID is required"}
	}
	if !a.IsValidUUID() {
		return ValidationError{Kind: CorruptImage, Message: "ID must be a valid UUID"}
	}
	if a.Owner == "" {
		return ValidationError{Kind: CorruptImage, Message: "owner is required"}
	}
	// ':' separates segments in repository index keys
	if strings.Contains(a.Owner, ":") {
		return ValidationError{Kind: CorruptImage, Message: "owner must not contain ':'"}
	}
	if a.Kind != KindAvatar && a.Kind != KindContent {
		return ValidationError{Kind: CorruptImage, Message: fmt.Sprintf("unknown asset kind %q", a.Kind)}
	}
	if a.StorageKey == "" {
		return ValidationError{Kind: CorruptImage, Message: "storage key is required"}
	}
	if !a.IsValidFormat() {
		return ValidationError{Kind: UnsupportedFormat, Message: fmt.Sprintf("unsupported format %q", a.Format)}
	}
	if a.Size <= 0 {
		return ValidationError{Kind: InvalidDimensions, Message: "size must be positive"}
	}
	if a.Width <= 0 || a.Height <= 0 {
		return ValidationError{Kind: InvalidDimensions, Message: "width and height must be positive"}
	}
	if a.Kind == KindAvatar && a.PostID != nil {
		return ValidationError{Kind: CorruptImage, Message: "avatar assets cannot reference a post"}
	}
	return nil
}

// ToQuotaResponse builds the usage report for an owner
func (q QuotaSnapshot) ToQuotaResponse(maxImages int, maxBytes int64) QuotaResponse {
	resp := QuotaResponse{
		Owner:      q.Owner,
		ImageCount: q.ImageCount,
		MaxImages:  maxImages,
		TotalBytes: q.TotalBytes,
		MaxBytes:   maxBytes,
	}
	if maxImages > 0 {
		resp.ImagePercent = float64(q.ImageCount) / float64(maxImages) * 100
	}
	if maxBytes > 0 {
		resp.StoragePercent = float64(q.TotalBytes) / float64(maxBytes) * 100
	}
	return resp
}

// Utility functions

// ExtensionForFormat returns the canonical file extension for a format
func ExtensionForFormat(format string) string {
	switch format {
	case FormatJPEG:
		return "jpg"
	case FormatPNG:
		return "png"
	case FormatWEBP:
		return "webp"
	default:
		return ""
	}
}

// FormatForExtension returns the canonical format for a file extension
func FormatForExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg":
		return FormatJPEG
	case ".png":
		return FormatPNG
	case ".webp":
		return FormatWEBP
	default:
		return ""
	}
}

// ContentTypeForFormat returns the MIME type for a stored format
func ContentTypeForFormat(format string) string {
	switch format {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatWEBP:
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// NewImageAsset creates a new ImageAsset with the creation timestamp set.
// PostID starts nil: content assets begin life unassociated.
func NewImageAsset(id, owner string, kind AssetKind, storageKey, originalFilename, format string, size int64, width, height int) *ImageAsset {
	return &ImageAsset{
		ID:               id,
		Owner:            owner,
		Kind:             kind,
		StorageKey:       storageKey,
		OriginalFilename: originalFilename,
		Size:             size,
		Width:            width,
		Height:           height,
		Format:           format,
		CreatedAt:        time.Now(),
	}
}
