package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"imgvault/internal/config"
	"imgvault/internal/models"
	"imgvault/internal/repository"
	"imgvault/internal/storage"
	"imgvault/pkg/logger"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContentServiceImpl implements the ContentService interface
type ContentServiceImpl struct {
	repo      repository.AssetRepository
	store     storage.BlobStore
	validator ImageValidator
	quota     QuotaService
	cfg       *config.ImageConfig
}

// NewContentService creates a new content-image service
func NewContentService(
	repo repository.AssetRepository,
	store storage.BlobStore,
	validator ImageValidator,
	quota QuotaService,
	cfg *config.ImageConfig,
) ContentService {
	return &ContentServiceImpl{
		repo:      repo,
		store:     store,
		validator: validator,
		quota:     quota,
		cfg:       cfg,
	}
}

// Upload runs the content-image ingestion workflow: quota pre-check,
// validation, re-encode, downscale, store, record. The metadata record is
// written last, so any earlier failure leaves no record and consumes no
// quota. New records start unassociated; attaching to a post happens when
// the post is saved.
func (s *ContentServiceImpl) Upload(ctx context.Context, input UploadInput) (*models.UploadResponse, error) {
	logger.InfoWithContext(ctx, "Starting content image upload",
		zap.String("owner", input.Owner),
		zap.String("filename", input.Filename),
		zap.Int("size", len(input.Data)))

	if err := s.quota.CheckBeforeUpload(ctx, input.Owner, int64(len(input.Data))); err != nil {
		return nil, err
	}

	info, err := s.validator.Validate(input.Data)
	if err != nil {
		return nil, err
	}

	encoded, format, width, height, err := s.reencode(input.Data, info)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	key := fmt.Sprintf("content/%s/%s.%s", input.Owner, id, models.ExtensionForFormat(format))

	contentType := models.ContentTypeForFormat(format)
	if err := s.store.Save(ctx, key, bytes.NewReader(encoded), int64(len(encoded)), contentType); err != nil {
		logger.ErrorWithContext(ctx, "Failed to store content image",
			zap.String("key", key),
			zap.Error(err))
		return nil, models.StorageError{Operation: "save", Backend: "blob", Reason: err.Error()}
	}

	asset := models.NewImageAsset(id, input.Owner, models.KindContent, key,
		input.Filename, format, int64(len(encoded)), width, height)
	asset.AltText = input.AltText

	if err := s.repo.Store(ctx, asset); err != nil {
		// Roll the blob back so a failed record write does not strand
		// an unreferenced object
		if _, delErr := s.store.Delete(ctx, key); delErr != nil {
			logger.ErrorWithContext(ctx, "Failed to roll back stored object",
				zap.String("key", key),
				zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to record content image: %w", err)
	}

	logger.InfoWithContext(ctx, "Content image upload completed",
		zap.String("image_id", id),
		zap.String("owner", input.Owner),
		zap.String("format", format),
		zap.Int("stored_size", len(encoded)))

	return &models.UploadResponse{Location: s.store.URL(key)}, nil
}

// DeleteByURL removes the asset a public URL points at. The storage object
// goes first and the record second, so a crash in between leaves a record
// whose delete can be retried rather than an unreachable object.
func (s *ContentServiceImpl) DeleteByURL(ctx context.Context, owner, url string) (*models.DeleteResponse, error) {
	key, ok := s.store.KeyFromURL(url)
	if !ok {
		return nil, models.NotFoundError{Resource: "image", ID: url}
	}

	assets, err := s.repo.FindByStorageKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to look up assets for key %s: %w", key, err)
	}

	owned := make([]*models.ImageAsset, 0, len(assets))
	for _, asset := range assets {
		if asset.Owner == owner {
			owned = append(owned, asset)
		}
	}

	if len(owned) == 0 {
		if len(assets) > 0 {
			// Records exist but belong to someone else; never delete
			// another owner's object through this path
			return nil, models.NotFoundError{Resource: "image", ID: url}
		}
		// No record at all: reclaim the bare storage object if present
		removed, err := s.store.Delete(ctx, key)
		if err != nil {
			return nil, models.StorageError{Operation: "delete", Backend: "blob", Reason: err.Error()}
		}
		if !removed {
			return nil, models.NotFoundError{Resource: "image", ID: url}
		}
		logger.InfoWithContext(ctx, "Recordless storage object deleted",
			zap.String("owner", owner),
			zap.String("key", key))
		return &models.DeleteResponse{
			Deleted: 1,
			Message: "image deleted",
		}, nil
	}

	if _, err := s.store.Delete(ctx, key); err != nil {
		return nil, models.StorageError{Operation: "delete", Backend: "blob", Reason: err.Error()}
	}

	deleted := 0
	for _, asset := range owned {
		if err := s.repo.Delete(ctx, asset.ID); err != nil {
			logger.ErrorWithContext(ctx, "Failed to delete asset record",
				zap.String("image_id", asset.ID),
				zap.Error(err))
			continue
		}
		deleted++
	}

	logger.InfoWithContext(ctx, "Content image deleted",
		zap.String("owner", owner),
		zap.String("key", key),
		zap.Int("deleted", deleted))

	return &models.DeleteResponse{
		Deleted: deleted,
		Message: "image deleted",
	}, nil
}

// DeletePostImages removes every content asset attached to a post. Absent
// storage objects are tolerated, so a partially completed earlier cascade
// can be re-run safely.
func (s *ContentServiceImpl) DeletePostImages(ctx context.Context, postID string) (int, error) {
	assets, err := s.repo.ListByPost(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to list assets for post %s: %w", postID, err)
	}

	deleted := 0
	for _, asset := range assets {
		if _, err := s.store.Delete(ctx, asset.StorageKey); err != nil {
			logger.ErrorWithContext(ctx, "Failed to delete storage object in post cascade",
				zap.String("image_id", asset.ID),
				zap.String("key", asset.StorageKey),
				zap.Error(err))
			continue
		}
		if err := s.repo.Delete(ctx, asset.ID); err != nil {
			logger.ErrorWithContext(ctx, "Failed to delete asset record in post cascade",
				zap.String("image_id", asset.ID),
				zap.Error(err))
			continue
		}
		deleted++
	}

	logger.InfoWithContext(ctx, "Post image cascade completed",
		zap.String("post_id", postID),
		zap.Int("deleted", deleted))

	return deleted, nil
}

// reencode re-serializes the upload from its decoded pixels, which strips
// EXIF and other embedded metadata, and downscales proportionally when the
// image exceeds the configured dimensions. WebP uploads are normalized to
// PNG since the service stores only encodable formats.
func (s *ContentServiceImpl) reencode(data []byte, info *ImageInfo) ([]byte, string, int, int, error) {
	src, err := decodeAny(data)
	if err != nil {
		return nil, "", 0, 0, models.ProcessingError{Operation: "content_decode", Reason: err.Error()}
	}

	if info.Width > s.cfg.MaxWidth || info.Height > s.cfg.MaxHeight {
		src = imaging.Fit(src, s.cfg.MaxWidth, s.cfg.MaxHeight, imaging.Lanczos)
	}

	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	format := info.Format
	if format == models.FormatWEBP {
		format = models.FormatPNG
	}

	var buf bytes.Buffer
	switch format {
	case models.FormatJPEG:
		flat := src
		if hasAlpha(src) {
			canvas := imaging.New(width, height, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
			flat = imaging.Paste(canvas, src, image.Pt(0, 0))
		}
		if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: s.cfg.JPEGQuality}); err != nil {
			return nil, "", 0, 0, models.ProcessingError{Operation: "content_encode", Reason: err.Error()}
		}
	case models.FormatPNG:
		encoder := &png.Encoder{CompressionLevel: png.DefaultCompression}
		if err := encoder.Encode(&buf, src); err != nil {
			return nil, "", 0, 0, models.ProcessingError{Operation: "content_encode", Reason: err.Error()}
		}
	default:
		return nil, "", 0, 0, models.ProcessingError{
			Operation: "content_encode",
			Reason:    fmt.Sprintf("no encoder for format %q", format),
		}
	}

	return buf.Bytes(), format, width, height, nil
}
