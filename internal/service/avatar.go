package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"imgvault/internal/config"
	"imgvault/internal/models"
	"imgvault/internal/repository"
	"imgvault/internal/storage"
	"imgvault/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvatarServiceImpl implements the AvatarService interface
type AvatarServiceImpl struct {
	repo      repository.AssetRepository
	store     storage.BlobStore
	validator ImageValidator
	cropper   AvatarCropper
	onError   string
}

// NewAvatarService creates a new avatar service
func NewAvatarService(
	repo repository.AssetRepository,
	store storage.BlobStore,
	validator ImageValidator,
	cropper AvatarCropper,
	cfg *config.AvatarConfig,
) AvatarService {
	return &AvatarServiceImpl{
		repo:      repo,
		store:     store,
		validator: validator,
		cropper:   cropper,
		onError:   cfg.OnProcessError,
	}
}

// ReplaceAvatar validates and crops a new avatar, removes the previous one
// and stores the replacement. Once the call returns, the owner has exactly
// one avatar record.
func (s *AvatarServiceImpl) ReplaceAvatar(ctx context.Context, input AvatarInput) (*models.AvatarResponse, error) {
	logger.InfoWithContext(ctx, "Starting avatar replacement",
		zap.String("owner", input.Owner),
		zap.String("filename", input.Filename),
		zap.Int("size", len(input.Data)))

	info, err := s.validator.Validate(input.Data)
	if err != nil {
		return nil, err
	}

	result, err := s.cropper.Crop(input.Data, input.OffsetX, input.OffsetY)
	if err != nil {
		var procErr models.ProcessingError
		if !errors.As(err, &procErr) || s.onError == config.AvatarErrorReject {
			return nil, err
		}

		// Fallback policy: keep the original bytes unprocessed
		logger.WarnWithContext(ctx, "Avatar crop failed, storing original",
			zap.String("owner", input.Owner),
			zap.Error(err))
		result = &CropResult{
			Data:   input.Data,
			Format: info.Format,
			Width:  info.Width,
			Height: info.Height,
		}
	}

	if err := s.removeExisting(ctx, input.Owner); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	ext := models.ExtensionForFormat(result.Format)
	key := fmt.Sprintf("avatars/%s/%s.%s", input.Owner, id, ext)

	contentType := models.ContentTypeForFormat(result.Format)
	if err := s.store.Save(ctx, key, bytes.NewReader(result.Data), int64(len(result.Data)), contentType); err != nil {
		return nil, models.StorageError{Operation: "save", Backend: "blob", Reason: err.Error()}
	}

	asset := models.NewImageAsset(id, input.Owner, models.KindAvatar, key,
		rebaseFilename(input.Filename, ext), result.Format,
		int64(len(result.Data)), result.Width, result.Height)

	if err := s.repo.Store(ctx, asset); err != nil {
		if _, delErr := s.store.Delete(ctx, key); delErr != nil {
			logger.ErrorWithContext(ctx, "Failed to roll back stored avatar",
				zap.String("key", key),
				zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to record avatar: %w", err)
	}

	logger.InfoWithContext(ctx, "Avatar replacement completed",
		zap.String("owner", input.Owner),
		zap.String("image_id", id),
		zap.String("format", result.Format))

	return &models.AvatarResponse{
		Location: s.store.URL(key),
		Width:    result.Width,
		Height:   result.Height,
	}, nil
}

// RemoveAvatar deletes an owner's avatar. Returns false when the owner had
// none, which is not an error.
func (s *AvatarServiceImpl) RemoveAvatar(ctx context.Context, owner string) (bool, error) {
	existing, err := s.repo.FindAvatar(ctx, owner)
	if err != nil {
		var notFound models.NotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up avatar for owner %s: %w", owner, err)
	}
	if existing == nil {
		return false, nil
	}

	if _, err := s.store.Delete(ctx, existing.StorageKey); err != nil {
		return false, models.StorageError{Operation: "delete", Backend: "blob", Reason: err.Error()}
	}
	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		return false, fmt.Errorf("failed to delete avatar record: %w", err)
	}

	logger.InfoWithContext(ctx, "Avatar removed",
		zap.String("owner", owner),
		zap.String("image_id", existing.ID))

	return true, nil
}

// removeExisting clears the previous avatar before a replacement lands.
// An absent storage object is tolerated; the record still goes.
func (s *AvatarServiceImpl) removeExisting(ctx context.Context, owner string) error {
	existing, err := s.repo.FindAvatar(ctx, owner)
	if err != nil {
		var notFound models.NotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to look up avatar for owner %s: %w", owner, err)
	}
	if existing == nil {
		return nil
	}

	if _, err := s.store.Delete(ctx, existing.StorageKey); err != nil {
		return models.StorageError{Operation: "delete", Backend: "blob", Reason: err.Error()}
	}
	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		return fmt.Errorf("failed to delete previous avatar record: %w", err)
	}

	return nil
}

// rebaseFilename swaps a filename's extension for the stored format's, so a
// transparency-free photo.png avatar records as photo.jpg
func rebaseFilename(filename, ext string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if base == "" {
		base = "avatar"
	}
	return base + "." + ext
}
