package service

import (
	"context"
	"fmt"
	"time"

	"imgvault/internal/config"
	"imgvault/internal/repository"
	"imgvault/internal/storage"
	"imgvault/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// LifecycleServiceImpl implements the LifecycleService interface. Content
// assets start unassociated; saving a post claims the author's orphans, and
// the sweep reclaims any that age out before a post ever claims them.
type LifecycleServiceImpl struct {
	repo      repository.AssetRepository
	store     storage.BlobStore
	retention time.Duration
	limiter   *rate.Limiter
}

// NewLifecycleService creates a new orphan lifecycle manager
func NewLifecycleService(
	repo repository.AssetRepository,
	store storage.BlobStore,
	cfg *config.CleanupConfig,
) LifecycleService {
	return &LifecycleServiceImpl{
		repo:      repo,
		store:     store,
		retention: cfg.Retention,
		limiter:   rate.NewLimiter(rate.Limit(cfg.DeletesPerSecond), 1),
	}
}

// AssociateWithPost attaches every unassociated content asset of the owner
// to the post. The query is scoped by owner, so one author saving a post
// can never claim another author's uploads. Assets already attached
// elsewhere are untouched.
func (s *LifecycleServiceImpl) AssociateWithPost(ctx context.Context, owner, postID string) (int, error) {
	orphans, err := s.repo.ListUnassociated(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to list unassociated assets for owner %s: %w", owner, err)
	}

	associated := 0
	for _, asset := range orphans {
		if err := s.repo.SetPost(ctx, asset.ID, postID); err != nil {
			logger.ErrorWithContext(ctx, "Failed to associate asset with post",
				zap.String("image_id", asset.ID),
				zap.String("post_id", postID),
				zap.Error(err))
			continue
		}
		associated++
	}

	if associated > 0 {
		logger.InfoWithContext(ctx, "Associated uploads with post",
			zap.String("owner", owner),
			zap.String("post_id", postID),
			zap.Int("associated", associated))
	}

	return associated, nil
}

// Sweep reclaims content assets that were never attached to a post within
// the threshold. The cutoff is snapshotted once at entry, so assets
// uploaded while the sweep runs can never qualify. Dry runs report the
// candidate set without mutating anything. Real deletions remove the
// storage object before the record and are paced by the configured rate so
// a large backlog cannot saturate the storage backend.
func (s *LifecycleServiceImpl) Sweep(ctx context.Context, threshold time.Duration, dryRun bool) (*SweepReport, error) {
	if threshold <= 0 {
		threshold = s.retention
	}
	cutoff := time.Now().Add(-threshold)

	candidates, err := s.repo.ListUnassociatedBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list sweep candidates: %w", err)
	}

	report := &SweepReport{
		DryRun:     dryRun,
		Cutoff:     cutoff,
		Candidates: make([]SweepCandidate, 0, len(candidates)),
	}
	for _, asset := range candidates {
		report.Candidates = append(report.Candidates, SweepCandidate{
			ID:               asset.ID,
			Owner:            asset.Owner,
			OriginalFilename: asset.OriginalFilename,
			Size:             asset.Size,
			CreatedAt:        asset.CreatedAt,
		})
	}

	logger.InfoWithContext(ctx, "Orphan sweep started",
		zap.Time("cutoff", cutoff),
		zap.Int("candidates", len(candidates)),
		zap.Bool("dry_run", dryRun))

	if dryRun {
		return report, nil
	}

	for _, asset := range candidates {
		if err := s.limiter.Wait(ctx); err != nil {
			return report, err
		}

		if _, err := s.store.Delete(ctx, asset.StorageKey); err != nil {
			logger.ErrorWithContext(ctx, "Sweep failed to delete storage object",
				zap.String("image_id", asset.ID),
				zap.String("key", asset.StorageKey),
				zap.Error(err))
			report.Failed++
			continue
		}
		if err := s.repo.Delete(ctx, asset.ID); err != nil {
			logger.ErrorWithContext(ctx, "Sweep failed to delete asset record",
				zap.String("image_id", asset.ID),
				zap.Error(err))
			report.Failed++
			continue
		}

		report.Deleted++
		report.BytesFreed += asset.Size
	}

	logger.InfoWithContext(ctx, "Orphan sweep completed",
		zap.Int("deleted", report.Deleted),
		zap.Int("failed", report.Failed),
		zap.Int64("bytes_freed", report.BytesFreed))

	return report, nil
}

// RunPeriodic sweeps on a fixed interval until the context is cancelled
func (s *LifecycleServiceImpl) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Periodic orphan sweep scheduled",
		zap.Duration("interval", interval),
		zap.Duration("retention", s.retention))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Periodic orphan sweep stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx, s.retention, false); err != nil {
				logger.Error("Periodic orphan sweep failed", zap.Error(err))
			}
		}
	}
}
