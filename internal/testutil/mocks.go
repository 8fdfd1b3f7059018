package testutil

import (
	"bytes"
	"context"
	"io"
	"time"

	"imgvault/internal/models"
)

// MockAssetRepository is a mock implementation of repository.AssetRepository
type MockAssetRepository struct {
	StoreFunc                  func(ctx context.Context, asset *models.ImageAsset) error
	GetFunc                    func(ctx context.Context, id string) (*models.ImageAsset, error)
	DeleteFunc                 func(ctx context.Context, id string) error
	ExistsFunc                 func(ctx context.Context, id string) (bool, error)
	SetPostFunc                func(ctx context.Context, id, postID string) error
	ListByOwnerFunc            func(ctx context.Context, owner string) ([]*models.ImageAsset, error)
	CountByOwnerFunc           func(ctx context.Context, owner string) (int, error)
	SumSizeByOwnerFunc         func(ctx context.Context, owner string) (int64, error)
	ListByPostFunc             func(ctx context.Context, postID string) ([]*models.ImageAsset, error)
	ListUnassociatedFunc       func(ctx context.Context, owner string) ([]*models.ImageAsset, error)
	ListUnassociatedBeforeFunc func(ctx context.Context, cutoff time.Time) ([]*models.ImageAsset, error)
	FindByStorageKeyFunc       func(ctx context.Context, key string) ([]*models.ImageAsset, error)
	FindAvatarFunc             func(ctx context.Context, owner string) (*models.ImageAsset, error)
	OwnersFunc                 func(ctx context.Context) ([]string, error)
	HealthFunc                 func(ctx context.Context) error
	CloseFunc                  func() error
}

func (m *MockAssetRepository) Store(ctx context.Context, asset *models.ImageAsset) error {
	if m.StoreFunc != nil {
		return m.StoreFunc(ctx, asset)
	}
	return nil
}

func (m *MockAssetRepository) Get(ctx context.Context, id string) (*models.ImageAsset, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, models.NotFoundError{Resource: "image", ID: id}
}

func (m *MockAssetRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockAssetRepository) Exists(ctx context.Context, id string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, id)
	}
	return false, nil
}

func (m *MockAssetRepository) SetPost(ctx context.Context, id, postID string) error {
	if m.SetPostFunc != nil {
		return m.SetPostFunc(ctx, id, postID)
	}
	return nil
}

func (m *MockAssetRepository) ListByOwner(ctx context.Context, owner string) ([]*models.ImageAsset, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, owner)
	}
	return nil, nil
}

func (m *MockAssetRepository) CountByOwner(ctx context.Context, owner string) (int, error) {
	if m.CountByOwnerFunc != nil {
		return m.CountByOwnerFunc(ctx, owner)
	}
	return 0, nil
}

func (m *MockAssetRepository) SumSizeByOwner(ctx context.Context, owner string) (int64, error) {
	if m.SumSizeByOwnerFunc != nil {
		return m.SumSizeByOwnerFunc(ctx, owner)
	}
	return 0, nil
}

func (m *MockAssetRepository) ListByPost(ctx context.Context, postID string) ([]*models.ImageAsset, error) {
	if m.ListByPostFunc != nil {
		return m.ListByPostFunc(ctx, postID)
	}
	return nil, nil
}

func (m *MockAssetRepository) ListUnassociated(ctx context.Context, owner string) ([]*models.ImageAsset, error) {
	if m.ListUnassociatedFunc != nil {
		return m.ListUnassociatedFunc(ctx, owner)
	}
	return nil, nil
}

func (m *MockAssetRepository) ListUnassociatedBefore(ctx context.Context, cutoff time.Time) ([]*models.ImageAsset, error) {
	if m.ListUnassociatedBeforeFunc != nil {
		return m.ListUnassociatedBeforeFunc(ctx, cutoff)
	}
	return nil, nil
}

func (m *MockAssetRepository) FindByStorageKey(ctx context.Context, key string) ([]*models.ImageAsset, error) {
	if m.FindByStorageKeyFunc != nil {
		return m.FindByStorageKeyFunc(ctx, key)
	}
	return nil, nil
}

func (m *MockAssetRepository) FindAvatar(ctx context.Context, owner string) (*models.ImageAsset, error) {
	if m.FindAvatarFunc != nil {
		return m.FindAvatarFunc(ctx, owner)
	}
	return nil, nil
}

func (m *MockAssetRepository) Owners(ctx context.Context) ([]string, error) {
	if m.OwnersFunc != nil {
		return m.OwnersFunc(ctx)
	}
	return nil, nil
}

func (m *MockAssetRepository) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

func (m *MockAssetRepository) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// MockBlobStore is a mock implementation of storage.BlobStore
type MockBlobStore struct {
	SaveFunc       func(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	DeleteFunc     func(ctx context.Context, key string) (bool, error)
	ExistsFunc     func(ctx context.Context, key string) (bool, error)
	OpenFunc       func(ctx context.Context, key string) (io.ReadCloser, error)
	URLFunc        func(key string) string
	KeyFromURLFunc func(url string) (string, bool)
	HealthFunc     func(ctx context.Context) error
}

func (m *MockBlobStore) Save(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, key, reader, size, contentType)
	}
	return nil
}

func (m *MockBlobStore) Delete(ctx context.Context, key string) (bool, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	return true, nil
}

func (m *MockBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, key)
	}
	return false, nil
}

func (m *MockBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, key)
	}
	return nil, nil
}

func (m *MockBlobStore) URL(key string) string {
	if m.URLFunc != nil {
		return m.URLFunc(key)
	}
	return "http://localhost:8080/media/" + key
}

func (m *MockBlobStore) KeyFromURL(url string) (string, bool) {
	if m.KeyFromURLFunc != nil {
		return m.KeyFromURLFunc(url)
	}
	return "", false
}

func (m *MockBlobStore) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// MemoryBlobStore is an in-memory BlobStore for tests that need real
// save/delete semantics rather than per-call stubs
type MemoryBlobStore struct {
	Objects map[string][]byte
	BaseURL string
}

// NewMemoryBlobStore creates an empty in-memory blob store
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{
		Objects: make(map[string][]byte),
		BaseURL: "http://localhost:8080/media",
	}
}

func (m *MemoryBlobStore) Save(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.Objects[key] = data
	return nil
}

func (m *MemoryBlobStore) Delete(ctx context.Context, key string) (bool, error) {
	if _, ok := m.Objects[key]; !ok {
		return false, nil
	}
	delete(m.Objects, key)
	return true, nil
}

func (m *MemoryBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.Objects[key]
	return ok, nil
}

func (m *MemoryBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.Objects[key]
	if !ok {
		return nil, models.NotFoundError{Resource: "object", ID: key}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryBlobStore) URL(key string) string {
	return m.BaseURL + "/" + key
}

func (m *MemoryBlobStore) KeyFromURL(url string) (string, bool) {
	prefix := m.BaseURL + "/"
	if len(url) <= len(prefix) || url[:len(prefix)] != prefix {
		return "", false
	}
	return url[len(prefix):], true
}

func (m *MemoryBlobStore) Health(ctx context.Context) error {
	return nil
}
