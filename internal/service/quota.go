package service

import (
	"context"
	"fmt"

	"imgvault/internal/config"
	"imgvault/internal/models"
	"imgvault/internal/repository"
	"imgvault/pkg/logger"

	"go.uber.org/zap"
)

// QuotaServiceImpl implements the QuotaService interface. Aggregates are
// computed from live content asset records on every call, so deletions take
// effect immediately and no counter can drift. The avatar is a
// replace-in-place singleton and stays outside the quota.
type QuotaServiceImpl struct {
	repo     repository.AssetRepository
	maxCount int
	maxBytes int64
}

// NewQuotaService creates a new quota tracker
func NewQuotaService(repo repository.AssetRepository, cfg *config.QuotaConfig) QuotaService {
	return &QuotaServiceImpl{
		repo:     repo,
		maxCount: cfg.MaxImagesPerUser,
		maxBytes: cfg.MaxStorageBytes,
	}
}

// CountFor returns the owner's live content image count
func (q *QuotaServiceImpl) CountFor(ctx context.Context, owner string) (int, error) {
	count, err := q.repo.CountByOwner(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to count assets for owner %s: %w", owner, err)
	}
	return count, nil
}

// BytesFor returns the owner's live stored byte total
func (q *QuotaServiceImpl) BytesFor(ctx context.Context, owner string) (int64, error) {
	total, err := q.repo.SumSizeByOwner(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to sum asset sizes for owner %s: %w", owner, err)
	}
	return total, nil
}

// CheckBeforeUpload rejects when the owner is at the image count limit or
// the incoming upload would push stored bytes over the storage limit. The
// check is not atomic with the upload that follows; concurrent uploads from
// one owner can land slightly over the line, which is an accepted soft
// limit rather than a hard guarantee.
func (q *QuotaServiceImpl) CheckBeforeUpload(ctx context.Context, owner string, incomingSize int64) error {
	count, err := q.CountFor(ctx, owner)
	if err != nil {
		return err
	}
	if count >= q.maxCount {
		logger.InfoWithContext(ctx, "Upload rejected by image count limit",
			zap.String("owner", owner),
			zap.Int("count", count),
			zap.Int("max_count", q.maxCount))
		return models.QuotaExceededError{Reason: models.CountLimit, Owner: owner}
	}

	total, err := q.BytesFor(ctx, owner)
	if err != nil {
		return err
	}
	if total+incomingSize > q.maxBytes {
		logger.InfoWithContext(ctx, "Upload rejected by storage limit",
			zap.String("owner", owner),
			zap.Int64("total_bytes", total),
			zap.Int64("incoming_size", incomingSize),
			zap.Int64("max_bytes", q.maxBytes))
		return models.QuotaExceededError{Reason: models.StorageLimit, Owner: owner}
	}

	return nil
}

// Snapshot returns the owner's current usage
func (q *QuotaServiceImpl) Snapshot(ctx context.Context, owner string) (*models.QuotaSnapshot, error) {
	count, err := q.CountFor(ctx, owner)
	if err != nil {
		return nil, err
	}
	total, err := q.BytesFor(ctx, owner)
	if err != nil {
		return nil, err
	}

	return &models.QuotaSnapshot{
		Owner:      owner,
		ImageCount: count,
		TotalBytes: total,
	}, nil
}
