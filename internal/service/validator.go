package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"imgvault/internal/config"
	"imgvault/internal/models"
	"imgvault/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/image/webp"
)

// ImageValidatorImpl implements the ImageValidator interface
type ImageValidatorImpl struct {
	maxUploadBytes int64
	maxPixels      int64
}

// NewImageValidator creates a new upload validator
func NewImageValidator(cfg *config.ImageConfig) ImageValidator {
	return &ImageValidatorImpl{
		maxUploadBytes: cfg.MaxUploadBytes,
		maxPixels:      cfg.MaxPixels,
	}
}

// Validate checks raw upload bytes against size, format and resolution
// limits. The size check runs before any decoding, and dimensions come from
// the image header only, so an oversized or bomb-crafted upload is rejected
// without allocating a pixel buffer.
func (v *ImageValidatorImpl) Validate(data []byte) (*ImageInfo, error) {
	if int64(len(data)) > v.maxUploadBytes {
		return nil, models.ValidationError{
			Kind: models.TooLarge,
			Message: fmt.Sprintf("upload is %d bytes, limit is %d bytes",
				len(data), v.maxUploadBytes),
		}
	}

	if len(data) < 12 {
		return nil, models.ValidationError{
			Kind:    models.CorruptImage,
			Message: "file too small to be an image",
		}
	}

	format, err := sniffFormat(data)
	if err != nil {
		return nil, models.ValidationError{
			Kind:    models.UnsupportedFormat,
			Message: err.Error(),
		}
	}

	width, height, err := decodeDimensions(data, format)
	if err != nil {
		// The magic bytes matched but the header does not decode;
		// treat as truncated or renamed garbage
		return nil, models.ValidationError{
			Kind:    models.CorruptImage,
			Message: fmt.Sprintf("cannot decode %s header: %v", format, err),
		}
	}

	if width <= 0 || height <= 0 {
		return nil, models.ValidationError{
			Kind:    models.InvalidDimensions,
			Message: fmt.Sprintf("invalid dimensions %dx%d", width, height),
		}
	}

	if int64(width)*int64(height) > v.maxPixels {
		return nil, models.ValidationError{
			Kind: models.ResolutionExceeded,
			Message: fmt.Sprintf("resolution %dx%d exceeds %d pixel limit",
				width, height, v.maxPixels),
		}
	}

	logger.Debug("Upload validation passed",
		zap.String("format", format),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("size", len(data)))

	return &ImageInfo{Format: format, Width: width, Height: height}, nil
}

// sniffFormat identifies the image format from magic bytes. Only the three
// formats the service stores are accepted; everything else is rejected here
// regardless of file extension.
func sniffFormat(data []byte) (string, error) {
	// JPEG: FF D8 FF
	if bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}) {
		return models.FormatJPEG, nil
	}

	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}) {
		return models.FormatPNG, nil
	}

	// WebP: RIFF....WEBP
	if bytes.HasPrefix(data, []byte{0x52, 0x49, 0x46, 0x46}) &&
		bytes.Equal(data[8:12], []byte{0x57, 0x45, 0x42, 0x50}) {
		return models.FormatWEBP, nil
	}

	return "", fmt.Errorf("unsupported image format")
}

// decodeDimensions reads width and height from the image header
func decodeDimensions(data []byte, format string) (int, int, error) {
	if format == models.FormatWEBP {
		cfg, err := webp.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return 0, 0, err
		}
		return cfg.Width, cfg.Height, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
