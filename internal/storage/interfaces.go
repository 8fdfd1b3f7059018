package storage

import (
	"context"
	"io"
)

// BlobStore is the gateway to the bytes behind asset records. Higher-level
// lifecycle code (avatar replacement, post cascade, orphan sweep) relies on
// Delete being idempotent: deleting an absent key reports false, never an
// error, and callers treat that as a normal outcome.
type BlobStore interface {
	// Save writes bytes at the given key, creating parent structure as needed
	Save(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Delete removes the object at key if present. Returns true when an
	// object was removed, false when there was nothing to remove.
	Delete(ctx context.Context, key string) (bool, error)

	// Exists checks if an object exists at key
	Exists(ctx context.Context, key string) (bool, error)

	// Open returns the object's bytes as a stream
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// URL returns the public URL under which the object is served
	URL(key string) string

	// KeyFromURL resolves a public URL back to a storage key. Returns
	// false when the URL does not belong to this store.
	KeyFromURL(url string) (string, bool)

	// Health checks storage backend health
	Health(ctx context.Context) error
}
