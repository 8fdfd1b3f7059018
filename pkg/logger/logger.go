package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger *zap.Logger

// Config controls the process-wide logger
type Config struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json", "console"
}

// Context keys for request-scoped log fields
type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	OwnerIDKey   contextKey = "owner_id"
)

var levelNames = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// Init builds the global logger. Unknown levels fall back to info.
func Init(config Config) error {
	level, ok := levelNames[config.Level]
	if !ok {
		level = zapcore.InfoLevel
	}

	var zapConfig zap.Config
	if config.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	built, err := zapConfig.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	globalLogger = built
	return nil
}

// GetLogger returns the global logger, building a production default when
// Init has not run (tests, early startup)
func GetLogger() *zap.Logger {
	if globalLogger == nil {
		globalLogger, _ = zap.NewProduction()
	}
	return globalLogger
}

// Sync flushes buffered log entries
func Sync() error {
	return GetLogger().Sync()
}

// WithContext returns a logger carrying the request-scoped fields found in
// ctx
func WithContext(ctx context.Context) *zap.Logger {
	fields := make([]zap.Field, 0, 2)
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if ownerID := GetOwnerID(ctx); ownerID != "" {
		fields = append(fields, zap.String("owner_id", ownerID))
	}
	if len(fields) == 0 {
		return GetLogger()
	}
	return GetLogger().With(fields...)
}

// WithRequestID stores the request ID in ctx for later log extraction
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID extracts the request ID from ctx, if any
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// WithOwnerID stores the asset owner identity in ctx for later log
// extraction
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, OwnerIDKey, ownerID)
}

// GetOwnerID extracts the asset owner identity from ctx, if any
func GetOwnerID(ctx context.Context) string {
	return stringValue(ctx, OwnerIDKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// Package-level logging on the global logger

func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// Context-aware variants attaching request-scoped fields

func InfoWithContext(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Info(msg, fields...)
}

func ErrorWithContext(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Error(msg, fields...)
}

func DebugWithContext(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Debug(msg, fields...)
}

func WarnWithContext(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Warn(msg, fields...)
}
