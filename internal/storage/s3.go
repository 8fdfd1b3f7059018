package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"imgvault/internal/config"
	"imgvault/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// S3Store implements BlobStore for AWS S3 and S3-compatible storage
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	config   *config.S3Config
	bucket   string
	baseURL  string
}

// NewS3Store creates a new S3 blob store
func NewS3Store(cfg *config.S3Config, publicBaseURL string) (*S3Store, error) {
	logger.Info("Initializing S3 storage",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("region", cfg.Region),
		zap.String("bucket", cfg.Bucket),
		zap.Bool("use_ssl", cfg.UseSSL))

	awsConfig, err := createAWSConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "https://s3.amazonaws.com" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO and custom endpoints
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024
		u.Concurrency = 3
	})

	store := &S3Store{
		client:   client,
		uploader: uploader,
		config:   cfg,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimSuffix(publicBaseURL, "/"),
	}

	// Test connection
	if err := store.Health(context.Background()); err != nil {
		return nil, fmt.Errorf("S3 health check failed: %w", err)
	}

	logger.Info("S3 storage initialized successfully")
	return store, nil
}

// Save uploads an object to S3
func (s *S3Store) Save(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	logger.DebugWithContext(ctx, "Uploading object to S3",
		zap.String("key", key),
		zap.Int64("size", size),
		zap.String("content_type", contentType))

	uploadInput := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        reader,
		ContentType: aws.String(contentType),
	}

	// Stored images are immutable; replacement always writes a new key
	if strings.HasPrefix(contentType, "image/") {
		uploadInput.CacheControl = aws.String("public, max-age=31536000, immutable")
	}

	if _, err := s.uploader.Upload(ctx, uploadInput); err != nil {
		logger.ErrorWithContext(ctx, "Failed to upload object to S3",
			zap.String("key", key),
			zap.Int64("size", size),
			zap.Error(err))
		return fmt.Errorf("failed to upload object: %w", err)
	}

	logger.DebugWithContext(ctx, "Object uploaded to S3 successfully",
		zap.String("key", key),
		zap.Int64("size", size))

	return nil
}

// Delete removes an object from S3 if present. S3's DeleteObject succeeds
// on absent keys, so presence is probed first to report the boolean.
func (s *S3Store) Delete(ctx context.Context, key string) (bool, error) {
	logger.DebugWithContext(ctx, "Deleting object from S3",
		zap.String("key", key))

	existed, err := s.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	if !existed {
		return false, nil
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		logger.ErrorWithContext(ctx, "Failed to delete object from S3",
			zap.String("key", key),
			zap.Error(err))
		return false, fmt.Errorf("failed to delete object: %w", err)
	}

	return true, nil
}

// Exists checks if an object exists in S3
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

// Open returns the object's bytes as a stream
func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("object not found: %s", key)
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return result.Body, nil
}

// URL returns the public URL for an object
func (s *S3Store) URL(key string) string {
	return s.baseURL + "/" + key
}

// KeyFromURL resolves a public URL back to a storage key
func (s *S3Store) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return "", false
	}
	key := strings.TrimPrefix(url, s.baseURL+"/")
	if key == "" {
		return "", false
	}
	return key, true
}

// Health checks storage service health
func (s *S3Store) Health(ctx context.Context) error {
	// Check if we can list bucket (basic connectivity test)
	_, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("S3 health check failed: %w", err)
	}

	// Test write permissions with a health check object
	healthKey := fmt.Sprintf("health-check/%d", time.Now().Unix())

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(healthKey),
		Body:        strings.NewReader("health-check"),
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("S3 write test failed: %w", err)
	}

	// Clean up test object
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(healthKey),
	})
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to cleanup health check object",
			zap.String("key", healthKey),
			zap.Error(err))
		// Not a critical error for health check
	}

	return nil
}

// Helper functions

// createAWSConfig creates AWS configuration
func createAWSConfig(cfg *config.S3Config) (aws.Config, error) {
	// Static credentials provider
	credProvider := credentials.NewStaticCredentialsProvider(
		cfg.AccessKey,
		cfg.SecretKey,
		"", // session token not needed for static credentials
	)

	awsConfig, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credProvider),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return aws.Config{}, err
	}

	return awsConfig, nil
}

// isNotFoundError checks if the error is a "not found" error
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	return strings.Contains(err.Error(), "404") ||
		strings.Contains(err.Error(), "NoSuchKey") ||
		strings.Contains(err.Error(), "Not Found")
}
