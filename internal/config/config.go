package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Repo    RepoConfig
	Redis   RedisConfig
	Storage StorageConfig
	S3      S3Config
	Local   LocalStorageConfig
	Image   ImageConfig
	Avatar  AvatarConfig
	Quota   QuotaConfig
	Cleanup CleanupConfig
	Logger  LoggerConfig
	CORS    CORSConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port    string
	GinMode string
}

// RepoConfig selects the metadata repository backend
type RepoConfig struct {
	Type      string // "badger" or "redis"
	Directory string // Directory for BadgerDB files (only used when type=badger)
}

// RedisConfig holds Redis database configuration
type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
	Timeout  time.Duration
}

// StorageConfig selects the blob storage backend
type StorageConfig struct {
	Type          string // "local" or "s3"
	PublicBaseURL string // Base URL under which stored objects are served
}

// S3Config holds S3 storage configuration
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// LocalStorageConfig holds local filesystem storage configuration
type LocalStorageConfig struct {
	Directory string
}

// ImageConfig holds upload validation and content re-encoding configuration
type ImageConfig struct {
	MaxUploadBytes int64 // Hard byte ceiling for a single upload
	MaxWidth       int   // Content images wider than this are downscaled
	MaxHeight      int   // Content images taller than this are downscaled
	MaxPixels      int64 // Decoded width*height ceiling (pixel bomb guard)
	JPEGQuality    int
}

// AvatarConfig holds avatar cropping configuration
type AvatarConfig struct {
	Size           int     // Target square edge in pixels
	PreviewWidth   float64 // Width of the client crop preview, for offset scaling
	JPEGQuality    int
	FlattenColor   string // Hex background used when alpha is flattened to JPEG
	OnProcessError string // "reject" or "original"
}

// QuotaConfig holds per-user and per-post limits
type QuotaConfig struct {
	MaxImagesPerUser int
	MaxStorageBytes  int64
	MaxImagesPerPost int
}

// CleanupConfig holds orphan sweep configuration
type CleanupConfig struct {
	Retention        time.Duration // Age after which unassociated images are reclaimed
	DeletesPerSecond float64       // Pacing for sweep deletions
	Interval         time.Duration // Periodic in-process sweep interval (0 disables)
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json", "console"
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	Enabled          bool
	AllowAllOrigins  bool
	AllowedOrigins   []string
	AllowCredentials bool
}

// AvatarOnProcessError policies
const (
	AvatarErrorReject   = "reject"
	AvatarErrorOriginal = "original"
)

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "release"),
		},
		Repo: RepoConfig{
			Type:      getEnv("REPO_TYPE", "badger"),
			Directory: getEnv("REPO_DIRECTORY", "./data/meta"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
			Timeout:  time.Duration(getEnvInt("REDIS_TIMEOUT", 5)) * time.Second,
		},
		Storage: StorageConfig{
			Type:          getEnv("STORAGE_TYPE", "local"),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080/media"),
		},
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", "https://s3.amazonaws.com"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Bucket:    getEnv("S3_BUCKET", ""),
			Region:    getEnv("S3_REGION", "us-east-1"),
			UseSSL:    getEnvBool("S3_USE_SSL", true),
		},
		Local: LocalStorageConfig{
			Directory: getEnv("LOCAL_STORAGE_PATH", "./data/media"),
		},
		Image: ImageConfig{
			MaxUploadBytes: int64(getEnvInt("IMAGE_MAX_UPLOAD_MB", 2)) * 1024 * 1024,
			MaxWidth:       getEnvInt("IMAGE_MAX_WIDTH", 2560),
			MaxHeight:      getEnvInt("IMAGE_MAX_HEIGHT", 2560),
			MaxPixels:      int64(getEnvInt("IMAGE_MAX_PIXELS", 40_000_000)),
			JPEGQuality:    getEnvInt("IMAGE_JPEG_QUALITY", 90),
		},
		Avatar: AvatarConfig{
			Size:           getEnvInt("AVATAR_SIZE", 300),
			PreviewWidth:   getEnvFloat("AVATAR_PREVIEW_WIDTH", 250),
			JPEGQuality:    getEnvInt("AVATAR_JPEG_QUALITY", 95),
			FlattenColor:   getEnv("AVATAR_FLATTEN_COLOR", "#FFFFFF"),
			OnProcessError: getEnv("AVATAR_ON_PROCESS_ERROR", AvatarErrorReject),
		},
		Quota: QuotaConfig{
			MaxImagesPerUser: getEnvInt("MAX_IMAGES_PER_USER", 200),
			MaxStorageBytes:  int64(getEnvInt("MAX_STORAGE_PER_USER_MB", 400)) * 1024 * 1024,
			MaxImagesPerPost: getEnvInt("MAX_IMAGES_PER_POST", 20),
		},
		Cleanup: CleanupConfig{
			Retention:        time.Duration(getEnvInt("ORPHANED_IMAGE_CLEANUP_HOURS", 24)) * time.Hour,
			DeletesPerSecond: getEnvFloat("SWEEP_DELETES_PER_SECOND", 20),
			Interval:         getEnvDuration("SWEEP_INTERVAL", 0),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		CORS: CORSConfig{
			Enabled:          getEnvBool("CORS_ENABLED", true),
			AllowAllOrigins:  getEnvBool("CORS_ALLOW_ALL_ORIGINS", false),
			AllowedOrigins:   getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", false),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate server configuration
	if c.Server.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	// Validate repository configuration
	validRepoTypes := []string{"badger", "redis"}
	if !contains(validRepoTypes, c.Repo.Type) {
		return fmt.Errorf("REPO_TYPE must be one of: %s", strings.Join(validRepoTypes, ", "))
	}
	if c.Repo.Type == "badger" && c.Repo.Directory == "" {
		return fmt.Errorf("REPO_DIRECTORY is required when REPO_TYPE=badger")
	}
	if c.Repo.Type == "redis" && c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required when REPO_TYPE=redis")
	}

	// Validate storage configuration
	validStorageTypes := []string{"local", "s3"}
	if !contains(validStorageTypes, c.Storage.Type) {
		return fmt.Errorf("STORAGE_TYPE must be one of: %s", strings.Join(validStorageTypes, ", "))
	}
	if c.Storage.Type == "s3" {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_TYPE=s3")
		}
		if c.S3.AccessKey == "" {
			return fmt.Errorf("S3_ACCESS_KEY is required when STORAGE_TYPE=s3")
		}
		if c.S3.SecretKey == "" {
			return fmt.Errorf("S3_SECRET_KEY is required when STORAGE_TYPE=s3")
		}
	}
	if c.Storage.Type == "local" && c.Local.Directory == "" {
		return fmt.Errorf("LOCAL_STORAGE_PATH is required when STORAGE_TYPE=local")
	}
	if c.Storage.PublicBaseURL == "" {
		return fmt.Errorf("PUBLIC_BASE_URL cannot be empty")
	}

	// Validate image configuration
	if c.Image.MaxUploadBytes <= 0 {
		return fmt.Errorf("IMAGE_MAX_UPLOAD_MB must be positive")
	}
	if c.Image.MaxWidth <= 0 {
		return fmt.Errorf("IMAGE_MAX_WIDTH must be a positive integer")
	}
	if c.Image.MaxHeight <= 0 {
		return fmt.Errorf("IMAGE_MAX_HEIGHT must be a positive integer")
	}
	if c.Image.MaxPixels <= 0 {
		return fmt.Errorf("IMAGE_MAX_PIXELS must be positive")
	}
	if c.Image.JPEGQuality < 1 || c.Image.JPEGQuality > 100 {
		return fmt.Errorf("IMAGE_JPEG_QUALITY must be between 1 and 100")
	}

	// Validate avatar configuration
	if c.Avatar.Size <= 0 {
		return fmt.Errorf("AVATAR_SIZE must be positive")
	}
	if c.Avatar.PreviewWidth <= 0 {
		return fmt.Errorf("AVATAR_PREVIEW_WIDTH must be positive")
	}
	if c.Avatar.JPEGQuality < 1 || c.Avatar.JPEGQuality > 100 {
		return fmt.Errorf("AVATAR_JPEG_QUALITY must be between 1 and 100")
	}
	validPolicies := []string{AvatarErrorReject, AvatarErrorOriginal}
	if !contains(validPolicies, c.Avatar.OnProcessError) {
		return fmt.Errorf("AVATAR_ON_PROCESS_ERROR must be one of: %s", strings.Join(validPolicies, ", "))
	}

	// Validate quota configuration
	if c.Quota.MaxImagesPerUser <= 0 {
		return fmt.Errorf("MAX_IMAGES_PER_USER must be positive")
	}
	if c.Quota.MaxStorageBytes <= 0 {
		return fmt.Errorf("MAX_STORAGE_PER_USER_MB must be positive")
	}
	if c.Quota.MaxImagesPerPost <= 0 {
		return fmt.Errorf("MAX_IMAGES_PER_POST must be positive")
	}

	// Validate cleanup configuration
	if c.Cleanup.Retention <= 0 {
		return fmt.Errorf("ORPHANED_IMAGE_CLEANUP_HOURS must be positive")
	}
	if c.Cleanup.DeletesPerSecond <= 0 {
		return fmt.Errorf("SWEEP_DELETES_PER_SECOND must be positive")
	}

	// Validate logger configuration
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "console"}
	if !contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.GinMode == "debug" || c.Logger.Format == "console"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.GinMode == "release" && c.Logger.Format == "json"
}

// Helper functions for environment variable parsing

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as integer or default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool returns environment variable as boolean or default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvFloat returns environment variable as float64 or default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvStringSlice returns environment variable as string slice or default
func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		// Split by comma and trim spaces
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// contains checks if slice contains value
func contains(slice []string, value string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}
