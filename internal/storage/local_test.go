package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), "http://localhost:8080/media")
	require.NoError(t, err)
	return store
}

func TestLocalStore_SaveAndOpen(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()

	data := []byte("fake image bytes")
	err := store.Save(ctx, "content/abc.jpg", bytes.NewReader(data), int64(len(data)), "image/jpeg")
	require.NoError(t, err)

	rc, err := store.Open(ctx, "content/abc.jpg")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestLocalStore_SaveOverwrites(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a.png", bytes.NewReader([]byte("one")), 3, "image/png"))
	require.NoError(t, store.Save(ctx, "a.png", bytes.NewReader([]byte("two")), 3, "image/png"))

	rc, err := store.Open(ctx, "a.png")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))
}

func TestLocalStore_Delete(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()

	t.Run("removes existing object", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "x.jpg", bytes.NewReader([]byte("x")), 1, "image/jpeg"))

		removed, err := store.Delete(ctx, "x.jpg")
		require.NoError(t, err)
		assert.True(t, removed)

		exists, err := store.Exists(ctx, "x.jpg")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("absent key is not an error", func(t *testing.T) {
		removed, err := store.Delete(ctx, "never-stored.jpg")
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("delete twice", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "y.jpg", bytes.NewReader([]byte("y")), 1, "image/jpeg"))

		removed, err := store.Delete(ctx, "y.jpg")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = store.Delete(ctx, "y.jpg")
		require.NoError(t, err)
		assert.False(t, removed)
	})
}

func TestLocalStore_Exists(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "nope.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Save(ctx, "yep.jpg", bytes.NewReader([]byte("y")), 1, "image/jpeg"))

	exists, err = store.Exists(ctx, "yep.jpg")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalStore_KeyConfinement(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		key  string
	}{
		{"empty key", ""},
		{"parent traversal", "../escape.jpg"},
		{"embedded traversal", "content/../../escape.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Save(ctx, tt.key, bytes.NewReader([]byte("x")), 1, "image/jpeg")
			assert.Error(t, err)

			_, err = store.Open(ctx, tt.key)
			assert.Error(t, err)
		})
	}
}

func TestLocalStore_URLRoundTrip(t *testing.T) {
	store := newTestLocalStore(t)

	url := store.URL("content/abc.jpg")
	assert.Equal(t, "http://localhost:8080/media/content/abc.jpg", url)

	key, ok := store.KeyFromURL(url)
	assert.True(t, ok)
	assert.Equal(t, "content/abc.jpg", key)

	_, ok = store.KeyFromURL("http://elsewhere.example/content/abc.jpg")
	assert.False(t, ok)

	_, ok = store.KeyFromURL("http://localhost:8080/media/")
	assert.False(t, ok)
}

func TestLocalStore_NestedKeys(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()

	err := store.Save(ctx, "avatars/u1/profile.png", bytes.NewReader([]byte("p")), 1, "image/png")
	require.NoError(t, err)

	exists, err := store.Exists(ctx, "avatars/u1/profile.png")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalStore_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://localhost:8080/media")
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), "a.jpg", bytes.NewReader([]byte("a")), 1, "image/jpeg"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".upload-")
	}
	_, err = os.Stat(filepath.Join(dir, "a.jpg"))
	assert.NoError(t, err)
}

func TestLocalStore_Health(t *testing.T) {
	store := newTestLocalStore(t)
	assert.NoError(t, store.Health(context.Background()))
}
