package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"imgvault/internal/models"
	"imgvault/pkg/logger"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Key layout. Secondary index keys are written in the same transaction as
// the metadata record so the indexes never disagree with the data.
const (
	metaPrefix   = "asset:meta:"   // asset:meta:<id> -> JSON record
	ownerPrefix  = "asset:owner:"  // asset:owner:<owner>:<id> -> nil
	orphanPrefix = "asset:orphan:" // asset:orphan:<created-nanos>:<id> -> nil
	postPrefix   = "asset:post:"   // asset:post:<post>:<id> -> nil
	skeyPrefix   = "asset:skey:"   // asset:skey:<storage-key>:<id> -> nil
	avatarPrefix = "asset:avatar:" // asset:avatar:<owner> -> id
)

// BadgerAssetRepository implements AssetRepository using embedded BadgerDB
type BadgerAssetRepository struct {
	db        *badger.DB
	directory string
}

// NewBadgerAssetRepository opens (or creates) the BadgerDB asset repository
func NewBadgerAssetRepository(directory string) (*BadgerAssetRepository, error) {
	logger.Info("Initializing BadgerDB asset repository",
		zap.String("directory", directory))

	// Create directory if it doesn't exist
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create repository directory: %w", err)
	}

	opts := badger.DefaultOptions(directory)
	opts.Logger = &badgerLogger{} // Route BadgerDB logs through zap

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	logger.Info("BadgerDB asset repository initialized successfully")
	return &BadgerAssetRepository{db: db, directory: directory}, nil
}

// Store saves a new asset record together with its index entries
func (b *BadgerAssetRepository) Store(ctx context.Context, asset *models.ImageAsset) error {
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

	err = b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(metaKey(asset.ID)), data); err != nil {
			return err
		}
		if err := txn.Set([]byte(ownerKey(asset.Owner, asset.ID)), nil); err != nil {
			return err
		}
		if err := txn.Set([]byte(skeyKey(asset.StorageKey, asset.ID)), nil); err != nil {
			return err
		}
		if asset.IsOrphan() {
			if err := txn.Set([]byte(orphanKey(asset.CreatedAt, asset.ID)), nil); err != nil {
				return err
			}
		}
		if asset.PostID != nil {
			if err := txn.Set([]byte(postKey(*asset.PostID, asset.ID)), nil); err != nil {
				return err
			}
		}
		if asset.Kind == models.KindAvatar {
			if err := txn.Set([]byte(avatarPrefix+asset.Owner), []byte(asset.ID)); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to store asset record",
			zap.String("asset_id", asset.ID),
			zap.Error(err))
		return fmt.Errorf("failed to store asset record: %w", err)
	}

	return nil
}

// Get retrieves an asset record by ID
func (b *BadgerAssetRepository) Get(ctx context.Context, id string) (*models.ImageAsset, error) {
	var asset models.ImageAsset
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaKey(id)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &asset)
		})
	})

	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, models.NotFoundError{Resource: "image", ID: id}
		}
		logger.ErrorWithContext(ctx, "Failed to get asset record",
			zap.String("asset_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get asset record: %w", err)
	}

	return &asset, nil
}

// Delete removes an asset record and all its index entries
func (b *BadgerAssetRepository) Delete(ctx context.Context, id string) error {
	logger.DebugWithContext(ctx, "Deleting asset record",
		zap.String("asset_id", id))

	err := b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaKey(id)))
		if err != nil {
			return err
		}

		var asset models.ImageAsset
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &asset)
		}); err != nil {
			return err
		}

		keys := [][]byte{
			[]byte(metaKey(id)),
			[]byte(ownerKey(asset.Owner, id)),
			[]byte(skeyKey(asset.StorageKey, id)),
		}
		if asset.IsOrphan() {
			keys = append(keys, []byte(orphanKey(asset.CreatedAt, id)))
		}
		if asset.PostID != nil {
			keys = append(keys, []byte(postKey(*asset.PostID, id)))
		}
		if asset.Kind == models.KindAvatar {
			keys = append(keys, []byte(avatarPrefix+asset.Owner))
		}

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		if err == badger.ErrKeyNotFound {
			return models.NotFoundError{Resource: "image", ID: id}
		}
		logger.ErrorWithContext(ctx, "Failed to delete asset record",
			zap.String("asset_id", id),
			zap.Error(err))
		return fmt.Errorf("failed to delete asset record: %w", err)
	}

	return nil
}

// Exists checks if an asset record exists
func (b *BadgerAssetRepository) Exists(ctx context.Context, id string) (bool, error) {
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(metaKey(id)))
		return err
	})

	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check asset existence: %w", err)
	}
	return true, nil
}

// SetPost attaches a content asset to a post and retires its orphan index
func (b *BadgerAssetRepository) SetPost(ctx context.Context, id, postID string) error {
	logger.DebugWithContext(ctx, "Associating asset with post",
		zap.String("asset_id", id),
		zap.String("post_id", postID))

	err := b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaKey(id)))
		if err != nil {
			return err
		}

		var asset models.ImageAsset
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &asset)
		}); err != nil {
			return err
		}

		if asset.Kind != models.KindContent {
			return fmt.Errorf("asset %s is not a content image", id)
		}
		if asset.PostID != nil {
			// Already associated; association happens exactly once
			return nil
		}

		wasOrphanKey := orphanKey(asset.CreatedAt, id)
		asset.PostID = &postID

		data, err := json.Marshal(&asset)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(metaKey(id)), data); err != nil {
			return err
		}
		if err := txn.Delete([]byte(wasOrphanKey)); err != nil {
			return err
		}
		return txn.Set([]byte(postKey(postID, id)), nil)
	})

	if err != nil {
		if err == badger.ErrKeyNotFound {
			return models.NotFoundError{Resource: "image", ID: id}
		}
		return fmt.Errorf("failed to associate asset with post: %w", err)
	}

	return nil
}

// ListByOwner retrieves all assets owned by a user
func (b *BadgerAssetRepository) ListByOwner(ctx context.Context, owner string) ([]*models.ImageAsset, error) {
	ids, err := b.idsByPrefix(ownerPrefix + owner + ":")
	if err != nil {
		return nil, fmt.Errorf("failed to list assets by owner: %w", err)
	}
	return b.fetchAll(ctx, ids)
}

// CountByOwner counts the user's live content asset records. The avatar is
// excluded: it is a replace-in-place singleton, not quota-metered.
func (b *BadgerAssetRepository) CountByOwner(ctx context.Context, owner string) (int, error) {
	assets, err := b.ListByOwner(ctx, owner)
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
func (b *BadgerAssetRepository) SumSizeByOwner(ctx context.Context, owner string) (int64, error) {
	assets, err := b.ListByOwner(ctx, owner)
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
func (b *BadgerAssetRepository) ListByPost(ctx context.Context, postID string) ([]*models.ImageAsset, error) {
	ids, err := b.idsByPrefix(postPrefix + postID + ":")
	if err != nil {
		return nil, fmt.Errorf("failed to list assets by post: %w", err)
	}
	return b.fetchAll(ctx, ids)
}

// ListUnassociated retrieves an owner's content assets with no post
func (b *BadgerAssetRepository) ListUnassociated(ctx context.Context, owner string) ([]*models.ImageAsset, error) {
	assets, err := b.ListByOwner(ctx, owner)
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

// ListUnassociatedBefore retrieves the sweep candidate set. The orphan index
// is keyed by creation time, so the scan stops at the cutoff.
func (b *BadgerAssetRepository) ListUnassociatedBefore(ctx context.Context, cutoff time.Time) ([]*models.ImageAsset, error) {
	var ids []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		iter := txn.NewIterator(opts)
		defer iter.Close()

		max := orphanKey(cutoff, "")
		for iter.Seek([]byte(orphanPrefix)); iter.ValidForPrefix([]byte(orphanPrefix)); iter.Next() {
			key := string(iter.Item().Key())
			if key >= max {
				break
			}
			if idx := strings.LastIndex(key, ":"); idx >= 0 {
				ids = append(ids, key[idx+1:])
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan orphan index: %w", err)
	}
	return b.fetchAll(ctx, ids)
}

// FindByStorageKey retrieves the asset records referencing a storage key
func (b *BadgerAssetRepository) FindByStorageKey(ctx context.Context, key string) ([]*models.ImageAsset, error) {
	ids, err := b.idsByPrefix(skeyPrefix + key + ":")
	if err != nil {
		return nil, fmt.Errorf("failed to find assets by storage key: %w", err)
	}
	return b.fetchAll(ctx, ids)
}

// FindAvatar retrieves an owner's avatar asset, if any
func (b *BadgerAssetRepository) FindAvatar(ctx context.Context, owner string) (*models.ImageAsset, error) {
	var id string
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(avatarPrefix + owner))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})

	if err == badger.ErrKeyNotFound {
		return nil, models.NotFoundError{Resource: "avatar", ID: owner}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up avatar: %w", err)
	}
	return b.Get(ctx, id)
}

// Owners lists every user that currently has at least one asset record
func (b *BadgerAssetRepository) Owners(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		iter := txn.NewIterator(opts)
		defer iter.Close()

		for iter.Seek([]byte(ownerPrefix)); iter.ValidForPrefix([]byte(ownerPrefix)); iter.Next() {
			key := string(iter.Item().Key())
			rest := strings.TrimPrefix(key, ownerPrefix)
			if idx := strings.LastIndex(rest, ":"); idx > 0 {
				seen[rest[:idx]] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan owner index: %w", err)
	}

	owners := make([]string, 0, len(seen))
	for owner := range seen {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners, nil
}

// Health checks repository health
func (b *BadgerAssetRepository) Health(ctx context.Context) error {
	return b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte("health:check"))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// Close closes the repository
func (b *BadgerAssetRepository) Close() error {
	logger.Info("Closing BadgerDB asset repository")
	return b.db.Close()
}

// Helper methods

// idsByPrefix collects asset IDs from index keys of the form <prefix><id>
func (b *BadgerAssetRepository) idsByPrefix(prefix string) ([]string, error) {
	var ids []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		iter := txn.NewIterator(opts)
		defer iter.Close()

		for iter.Seek([]byte(prefix)); iter.ValidForPrefix([]byte(prefix)); iter.Next() {
			key := string(iter.Item().Key())
			ids = append(ids, key[len(prefix):])
		}
		return nil
	})
	return ids, err
}

// fetchAll loads records for a set of IDs, skipping any that vanished
// between the index scan and the read
func (b *BadgerAssetRepository) fetchAll(ctx context.Context, ids []string) ([]*models.ImageAsset, error) {
	assets := make([]*models.ImageAsset, 0, len(ids))
	for _, id := range ids {
		asset, err := b.Get(ctx, id)
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

// Key builders

func metaKey(id string) string {
	return metaPrefix + id
}

func ownerKey(owner, id string) string {
	return fmt.Sprintf("%s%s:%s", ownerPrefix, owner, id)
}

func orphanKey(createdAt time.Time, id string) string {
	return fmt.Sprintf("%s%020d:%s", orphanPrefix, createdAt.UnixNano(), id)
}

func postKey(postID, id string) string {
	return fmt.Sprintf("%s%s:%s", postPrefix, postID, id)
}

func skeyKey(storageKey, id string) string {
	return fmt.Sprintf("%s%s:%s", skeyPrefix, storageKey, id)
}

// badgerLogger routes BadgerDB's internal logging through zap
type badgerLogger struct{}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	logger.Error(fmt.Sprintf("BadgerDB: "+format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	logger.Warn(fmt.Sprintf("BadgerDB: "+format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf("BadgerDB: "+format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf("BadgerDB: "+format, args...))
}
