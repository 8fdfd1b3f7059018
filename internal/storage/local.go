package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"imgvault/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LocalStore implements BlobStore on the local filesystem. Writes go to a
// temp file in the target directory first and are renamed into place, so a
// crash mid-write never leaves a partial object at a live key.
type LocalStore struct {
	baseDir string // Absolute, with trailing separator
	baseURL string
}

// NewLocalStore creates a local filesystem blob store rooted at baseDir
func NewLocalStore(baseDir, publicBaseURL string) (*LocalStore, error) {
	absDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory %q: %w", baseDir, err)
	}

	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %q: %w", absDir, err)
	}

	// Probe writability up front so misconfiguration fails at startup
	probe := filepath.Join(absDir, ".write-probe-"+uuid.New().String())
	f, err := os.Create(probe)
	if err != nil {
		return nil, fmt.Errorf("storage directory %q is not writable: %w", absDir, err)
	}
	_ = f.Close()
	_ = os.Remove(probe)

	logger.Info("Local storage initialized",
		zap.String("directory", absDir))

	return &LocalStore{
		baseDir: absDir + string(os.PathSeparator),
		baseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}, nil
}

// Save writes an object under the base directory
func (l *LocalStore) Save(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	dstPath, err := l.resolve(key)
	if err != nil {
		return err
	}

	logger.DebugWithContext(ctx, "Writing object to local storage",
		zap.String("key", key),
		zap.Int64("size", size))

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dstPath), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %q: %w", key, err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, reader); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write object %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file for %q: %w", key, err)
	}

	if err := os.Rename(tmpPath, dstPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move object into place at %q: %w", key, err)
	}

	return nil
}

// Delete removes an object if present; absent keys are a normal outcome
func (l *LocalStore) Delete(ctx context.Context, key string) (bool, error) {
	path, err := l.resolve(key)
	if err != nil {
		return false, err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			logger.DebugWithContext(ctx, "Object already absent",
				zap.String("key", key))
			return false, nil
		}
		return false, fmt.Errorf("failed to delete object %q: %w", key, err)
	}
	return true, nil
}

// Exists checks if an object exists at key
func (l *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	path, err := l.resolve(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object %q: %w", key, err)
	}
	return true, nil
}

// Open returns the object's bytes as a stream
func (l *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object not found: %s", key)
		}
		return nil, fmt.Errorf("failed to open object %q: %w", key, err)
	}
	return file, nil
}

// URL returns the public URL for an object
func (l *LocalStore) URL(key string) string {
	return l.baseURL + "/" + key
}

// KeyFromURL resolves a public URL back to a storage key
func (l *LocalStore) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, l.baseURL+"/") {
		return "", false
	}
	key := strings.TrimPrefix(url, l.baseURL+"/")
	if key == "" {
		return "", false
	}
	return key, true
}

// Health checks that the base directory is still writable
func (l *LocalStore) Health(ctx context.Context) error {
	probe := filepath.Join(l.baseDir, ".write-probe-"+uuid.New().String())
	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("local storage not writable: %w", err)
	}
	_ = f.Close()
	_ = os.Remove(probe)
	return nil
}

// resolve maps a storage key to an absolute path confined to the base
// directory, rejecting traversal attempts
func (l *LocalStore) resolve(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}

	path := filepath.Join(l.baseDir, filepath.FromSlash(key))
	if !strings.HasPrefix(path, l.baseDir) {
		return "", fmt.Errorf("storage key escapes base directory: %q", key)
	}
	return path, nil
}
