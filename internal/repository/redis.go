package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"imgvault/internal/config"
	"imgvault/internal/models"
	"imgvault/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Redis key layout. Index structures are written in one pipeline with the
// record so they stay consistent with the data.
const (
	redisMetaPrefix   = "asset:meta:"   // asset:meta:<id> -> JSON record
	redisOwnerPrefix  = "asset:owner:"  // asset:owner:<owner> -> set of ids
	redisPostPrefix   = "asset:post:"   // asset:post:<post> -> set of ids
	redisSkeyPrefix   = "asset:skey:"   // asset:skey:<storage-key> -> set of ids
	redisAvatarPrefix = "asset:avatar:" // asset:avatar:<owner> -> id
	redisOrphanZSet   = "asset:orphans" // zset, score = created-at unix nanos
	redisOwnerSet     = "asset:owners"  // set of owners with records
)

// RedisAssetRepository implements AssetRepository using Redis
type RedisAssetRepository struct {
	client *redis.Client
	config *config.RedisConfig
}

// NewRedisAssetRepository creates a new Redis asset repository
func NewRedisAssetRepository(cfg *config.RedisConfig) (*RedisAssetRepository, error) {
	logger.Info("Initializing Redis asset repository",
		zap.String("url", cfg.URL),
		zap.Int("db", cfg.DB),
		zap.Int("pool_size", cfg.PoolSize))

	// Parse Redis URL and create client
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	// Override with config values
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	opt.PoolSize = cfg.PoolSize
	opt.DialTimeout = cfg.Timeout
	opt.ReadTimeout = cfg.Timeout
	opt.WriteTimeout = cfg.Timeout

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis asset repository initialized successfully")
	return &RedisAssetRepository{client: client, config: cfg}, nil
}

// Store saves a new asset record together with its index entries
func (r *RedisAssetRepository) Store(ctx context.Context, asset *models.ImageAsset) error {
	logger.DebugWithContext(ctx, "Storing asset record",
		zap.String("asset_id", asset.ID),
		zap.String("owner", asset.Owner),
		zap.String("kind", string(asset.Kind)))

	if err := asset.Validate(); err != nil {
		return fmt.Errorf("invalid asset record: %w", err)
	}

	data, err := json.Marshal(asset)
	if err != nil {
		return fmt.Errorf("failed to marshal asset record: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, redisMetaPrefix+asset.ID, data, 0)
	pipe.SAdd(ctx, redisOwnerPrefix+asset.Owner, asset.ID)
	pipe.SAdd(ctx, redisOwnerSet, asset.Owner)
	pipe.SAdd(ctx, redisSkeyPrefix+asset.StorageKey, asset.ID)
	if asset.IsOrphan() {
		pipe.ZAdd(ctx, redisOrphanZSet, &redis.Z{
			Score:  float64(asset.CreatedAt.UnixNano()),
			Member: asset.ID,
		})
	}
	if asset.PostID != nil {
		pipe.SAdd(ctx, redisPostPrefix+*asset.PostID, asset.ID)
	}
	if asset.Kind == models.KindAvatar {
		pipe.Set(ctx, redisAvatarPrefix+asset.Owner, asset.ID, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		logger.ErrorWithContext(ctx, "Failed to store asset record",
			zap.String("asset_id", asset.ID),
			zap.Error(err))
		return fmt.Errorf("failed to store asset record: %w", err)
	}

	return nil
}

// Get retrieves an asset record by ID
func (r *RedisAssetRepository) Get(ctx context.Context, id string) (*models.ImageAsset, error) {
	data, err := r.client.Get(ctx, redisMetaPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, models.NotFoundError{Resource: "image", ID: id}
	}
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to get asset record",
			zap.String("asset_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get asset record: %w", err)
	}

	var asset models.ImageAsset
	if err := json.Unmarshal(data, &asset); err != nil {
		return nil, fmt.Errorf("failed to parse asset record: %w", err)
	}
	return &asset, nil
}

// Delete removes an asset record and all its index entries
func (r *RedisAssetRepository) Delete(ctx context.Context, id string) error {
	logger.DebugWithContext(ctx, "Deleting asset record",
		zap.String("asset_id", id))

	asset, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, redisMetaPrefix+id)
	pipe.SRem(ctx, redisOwnerPrefix+asset.Owner, id)
	pipe.SRem(ctx, redisSkeyPrefix+asset.StorageKey, id)
	pipe.ZRem(ctx, redisOrphanZSet, id)
	if asset.PostID != nil {
		pipe.SRem(ctx, redisPostPrefix+*asset.PostID, id)
	}
	if asset.Kind == models.KindAvatar {
		pipe.Del(ctx, redisAvatarPrefix+asset.Owner)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		logger.ErrorWithContext(ctx, "Failed to delete asset record",
			zap.String("asset_id", id),
			zap.Error(err))
		return fmt.Errorf("failed to delete asset record: %w", err)
	}

	// Drop the owner from the report set once their last record is gone
	remaining, err := r.client.SCard(ctx, redisOwnerPrefix+asset.Owner).Result()
	if err == nil && remaining == 0 {
		r.client.SRem(ctx, redisOwnerSet, asset.Owner)
	}

	return nil
}

// Exists checks if an asset record exists
func (r *RedisAssetRepository) Exists(ctx context.Context, id string) (bool, error) {
	count, err := r.client.Exists(ctx, redisMetaPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check asset existence: %w", err)
	}
	return count > 0, nil
}

// SetPost attaches a content asset to a post and retires its orphan entry
func (r *RedisAssetRepository) SetPost(ctx context.Context, id, postID string) error {
	logger.DebugWithContext(ctx, "Associating asset with post",
		zap.String("asset_id", id),
		zap.String("post_id", postID))

	asset, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if asset.Kind != models.KindContent {
		return fmt.Errorf("asset %s is not a content image", id)
	}
	if asset.PostID != nil {
		// Already associated; association happens exactly once
		return nil
	}

	asset.PostID = &postID
	data, err := json.Marshal(asset)
	if err != nil {
		return fmt.Errorf("failed to marshal asset record: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, redisMetaPrefix+id, data, 0)
	pipe.ZRem(ctx, redisOrphanZSet, id)
	pipe.SAdd(ctx, redisPostPrefix+postID, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to associate asset with post: %w", err)
	}
	return nil
}

// ListByOwner retrieves all assets owned by a user
func (r *RedisAssetRepository) ListByOwner(ctx context.Context, owner string) ([]*models.ImageAsset, error) {
	ids, err := r.client.SMembers(ctx, redisOwnerPrefix+owner).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list assets by owner: %w", err)
	}
	return r.fetchAll(ctx, ids)
}

// CountByOwner counts the user's live content asset records. The avatar is
// excluded: it is a replace-in-place singleton, not quota-metered.
func (r *RedisAssetRepository) CountByOwner(ctx context.Context, owner string) (int, error) {
	assets, err := r.ListByOwner(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to count assets by owner: %w", err)
	}
	count := 0
	for _, asset := range assets {
		if asset.Kind == models.KindContent {
			count++
		}
	}
	return count, nil
}

// SumSizeByOwner sums stored byte sizes of the user's live content asset
// records, mirroring CountByOwner's scope
func (r *RedisAssetRepository) SumSizeByOwner(ctx context.Context, owner string) (int64, error) {
	assets, err := r.ListByOwner(ctx, owner)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, asset := range assets {
		if asset.Kind == models.KindContent {
			total += asset.Size
		}
	}
	return total, nil
}

// ListByPost retrieves all content assets attached to a post
func (r *RedisAssetRepository) ListByPost(ctx context.Context, postID string) ([]*models.ImageAsset, error) {
	ids, err := r.client.SMembers(ctx, redisPostPrefix+postID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list assets by post: %w", err)
	}
	return r.fetchAll(ctx, ids)
}

// ListUnassociated retrieves an owner's content assets with no post
func (r *RedisAssetRepository) ListUnassociated(ctx context.Context, owner string) ([]*models.ImageAsset, error) {
	assets, err := r.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	orphans := make([]*models.ImageAsset, 0)
	for _, asset := range assets {
		if asset.IsOrphan() {
			orphans = append(orphans, asset)
		}
	}
	return orphans, nil
}

// ListUnassociatedBefore retrieves the sweep candidate set via the orphan
// sorted set, scored by creation time
func (r *RedisAssetRepository) ListUnassociatedBefore(ctx context.Context, cutoff time.Time) ([]*models.ImageAsset, error) {
	ids, err := r.client.ZRangeByScore(ctx, redisOrphanZSet, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("(%d", cutoff.UnixNano()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to scan orphan index: %w", err)
	}
	return r.fetchAll(ctx, ids)
}

// FindByStorageKey retrieves the asset records referencing a storage key
func (r *RedisAssetRepository) FindByStorageKey(ctx context.Context, key string) ([]*models.ImageAsset, error) {
	ids, err := r.client.SMembers(ctx, redisSkeyPrefix+key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to find assets by storage key: %w", err)
	}
	return r.fetchAll(ctx, ids)
}

// FindAvatar retrieves an owner's avatar asset, if any
func (r *RedisAssetRepository) FindAvatar(ctx context.Context, owner string) (*models.ImageAsset, error) {
	id, err := r.client.Get(ctx, redisAvatarPrefix+owner).Result()
	if err == redis.Nil {
		return nil, models.NotFoundError{Resource: "avatar", ID: owner}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up avatar: %w", err)
	}
	return r.Get(ctx, id)
}

// Owners lists every user that currently has at least one asset record
func (r *RedisAssetRepository) Owners(ctx context.Context) ([]string, error) {
	owners, err := r.client.SMembers(ctx, redisOwnerSet).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	sort.Strings(owners)
	return owners, nil
}

// Health checks repository health
func (r *RedisAssetRepository) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the repository connection
func (r *RedisAssetRepository) Close() error {
	logger.Info("Closing Redis asset repository")
	return r.client.Close()
}

// fetchAll loads records for a set of IDs, skipping any that vanished
// between the index read and the record read
func (r *RedisAssetRepository) fetchAll(ctx context.Context, ids []string) ([]*models.ImageAsset, error) {
	assets := make([]*models.ImageAsset, 0, len(ids))
	for _, id := range ids {
		asset, err := r.Get(ctx, id)
		if err != nil {
			if _, ok := err.(models.NotFoundError); ok {
				continue
			}
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}
