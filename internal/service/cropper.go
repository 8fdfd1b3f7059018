package service

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"

	"imgvault/internal/config"
	"imgvault/internal/models"
	"imgvault/pkg/logger"

	"github.com/disintegration/imaging"
	"github.com/icza/gox/imagex/colorx"
	"go.uber.org/zap"
	"golang.org/x/image/webp"
)

// AvatarCropperImpl implements the AvatarCropper interface
type AvatarCropperImpl struct {
	size         int
	previewWidth float64
	jpegQuality  int
	flatten      color.Color
}

// NewAvatarCropper creates a new avatar crop transform
func NewAvatarCropper(cfg *config.AvatarConfig) (AvatarCropper, error) {
	flatten, err := colorx.ParseHexColor(cfg.FlattenColor)
	if err != nil {
		return nil, err
	}

	return &AvatarCropperImpl{
		size:         cfg.Size,
		previewWidth: cfg.PreviewWidth,
		jpegQuality:  cfg.JPEGQuality,
		flatten:      flatten,
	}, nil
}

// Crop extracts the largest square from the image, positioned by the user's
// preview drag offsets, and resizes it to the configured avatar size.
// Sources with transparency come back as PNG; everything else is flattened
// and re-encoded as JPEG, which also drops any metadata from the original.
func (c *AvatarCropperImpl) Crop(data []byte, offsetX, offsetY float64) (*CropResult, error) {
	src, err := decodeAny(data)
	if err != nil {
		return nil, models.ProcessingError{Operation: "avatar_crop", Reason: err.Error()}
	}

	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	box := cropBox(width, height, offsetX, offsetY, c.previewWidth)

	cropped := imaging.Crop(src, box)
	avatar := imaging.Resize(cropped, c.size, c.size, imaging.Lanczos)

	result := &CropResult{Width: c.size, Height: c.size}
	var buf bytes.Buffer

	if hasAlpha(src) {
		result.Format = models.FormatPNG
		encoder := &png.Encoder{CompressionLevel: png.DefaultCompression}
		if err := encoder.Encode(&buf, avatar); err != nil {
			return nil, models.ProcessingError{Operation: "avatar_encode", Reason: err.Error()}
		}
	} else {
		result.Format = models.FormatJPEG
		canvas := imaging.New(c.size, c.size, c.flatten)
		flat := imaging.Paste(canvas, avatar, image.Pt(0, 0))
		if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: c.jpegQuality}); err != nil {
			return nil, models.ProcessingError{Operation: "avatar_encode", Reason: err.Error()}
		}
	}

	result.Data = buf.Bytes()

	logger.Debug("Avatar crop completed",
		zap.Int("source_width", width),
		zap.Int("source_height", height),
		zap.Float64("offset_x", offsetX),
		zap.Float64("offset_y", offsetY),
		zap.String("format", result.Format),
		zap.Int("output_size", len(result.Data)))

	return result, nil
}

// cropBox computes the square crop region in image coordinates. The user
// offsets are scaled from preview space and negated: dragging the preview
// window right moves the crop origin left. The box is clamped by shifting,
// never by shrinking, so it always measures min(width, height) per side.
func cropBox(width, height int, offsetX, offsetY, previewWidth float64) image.Rectangle {
	cropSize := width
	if height < cropSize {
		cropSize = height
	}

	scale := float64(cropSize) / previewWidth
	scaledX := -int(math.Round(offsetX * scale))
	scaledY := -int(math.Round(offsetY * scale))

	centerX := width/2 + scaledX
	centerY := height/2 + scaledY

	left := centerX - cropSize/2
	top := centerY - cropSize/2

	left = clampShift(left, cropSize, width)
	top = clampShift(top, cropSize, height)

	return image.Rect(left, top, left+cropSize, top+cropSize)
}

// clampShift moves a crop edge back inside [0, limit] without resizing
func clampShift(origin, size, limit int) int {
	if origin < 0 {
		return 0
	}
	if origin+size > limit {
		return limit - size
	}
	return origin
}

// decodeAny decodes image bytes, falling back to the webp decoder for the
// one format the standard library cannot handle
func decodeAny(data []byte) (image.Image, error) {
	reader := bytes.NewReader(data)

	img, _, err := image.Decode(reader)
	if err != nil {
		reader.Seek(0, 0)
		if webpImg, webpErr := webp.Decode(reader); webpErr == nil {
			return webpImg, nil
		}
		return nil, err
	}

	return img, nil
}

// hasAlpha reports whether the image carries transparency anywhere
func hasAlpha(img image.Image) bool {
	switch typed := img.(type) {
	case *image.NRGBA, *image.RGBA, *image.NRGBA64, *image.RGBA64:
		return !isOpaque(img)
	case *image.Paletted:
		for _, entry := range typed.Palette {
			if _, _, _, a := entry.RGBA(); a < 0xffff {
				return true
			}
		}
		return false
	default:
		// YCbCr, Gray and friends have no alpha channel
		return false
	}
}

func isOpaque(img image.Image) bool {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a < 0xffff {
				return false
			}
		}
	}
	return true
}
