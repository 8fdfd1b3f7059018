package service

import (
	"bytes"
	"image"
	"testing"

	"imgvault/internal/config"
	"imgvault/internal/models"
	"imgvault/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCropper(t *testing.T) AvatarCropper {
	t.Helper()
	cropper, err := NewAvatarCropper(&config.AvatarConfig{
		Size:           300,
		PreviewWidth:   250,
		JPEGQuality:    95,
		FlattenColor:   "#FFFFFF",
		OnProcessError: config.AvatarErrorReject,
	})
	require.NoError(t, err)
	return cropper
}

func TestCropBox(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		height   int
		offsetX  float64
		offsetY  float64
		expected image.Rectangle
	}{
		{
			name:     "landscape centered",
			width:    400,
			height:   300,
			expected: image.Rect(50, 0, 350, 300),
		},
		{
			name:     "square centered is whole image",
			width:    300,
			height:   300,
			expected: image.Rect(0, 0, 300, 300),
		},
		{
			name:     "portrait centered",
			width:    300,
			height:   500,
			expected: image.Rect(0, 100, 300, 400),
		},
		{
			name:    "rightward preview drag shifts crop left",
			width:   400,
			height:  300,
			offsetX: 25,
			// scale = 300/250 = 1.2; scaled offset = -round(25*1.2) = -30
			expected: image.Rect(20, 0, 320, 300),
		},
		{
			name:    "extreme offset clamps by shifting",
			width:   400,
			height:  300,
			offsetX: -500,
			// Box would run past the right edge; shifted back inside
			expected: image.Rect(100, 0, 400, 300),
		},
		{
			name:     "extreme offset clamps at origin",
			width:    400,
			height:   300,
			offsetX:  500,
			expected: image.Rect(0, 0, 300, 300),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := cropBox(tt.width, tt.height, tt.offsetX, tt.offsetY, 250)
			assert.Equal(t, tt.expected, box)
		})
	}
}

func TestCropBox_AlwaysSquareAndInside(t *testing.T) {
	dims := []struct{ w, h int }{
		{400, 300}, {300, 400}, {301, 299}, {1920, 1080}, {50, 50},
	}
	offsets := []float64{-1000, -125, -1, 0, 1, 125, 1000}

	for _, d := range dims {
		for _, ox := range offsets {
			for _, oy := range offsets {
				box := cropBox(d.w, d.h, ox, oy, 250)

				want := d.w
				if d.h < want {
					want = d.h
				}
				assert.Equal(t, want, box.Dx())
				assert.Equal(t, want, box.Dy())
				assert.True(t, box.Min.X >= 0 && box.Max.X <= d.w,
					"box %v escapes width %d", box, d.w)
				assert.True(t, box.Min.Y >= 0 && box.Max.Y <= d.h,
					"box %v escapes height %d", box, d.h)
			}
		}
	}
}

func TestAvatarCropper_Crop(t *testing.T) {
	cropper := newTestCropper(t)

	t.Run("opaque source becomes JPEG", func(t *testing.T) {
		result, err := cropper.Crop(testutil.CreateJPEG(400, 300), 0, 0)
		require.NoError(t, err)

		assert.Equal(t, models.FormatJPEG, result.Format)
		assert.Equal(t, 300, result.Width)
		assert.Equal(t, 300, result.Height)

		cfg, format, err := image.DecodeConfig(bytes.NewReader(result.Data))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		assert.Equal(t, 300, cfg.Width)
		assert.Equal(t, 300, cfg.Height)
	})

	t.Run("transparent source becomes PNG", func(t *testing.T) {
		result, err := cropper.Crop(testutil.CreatePNGWithAlpha(400, 400), 0, 0)
		require.NoError(t, err)

		assert.Equal(t, models.FormatPNG, result.Format)

		_, format, err := image.DecodeConfig(bytes.NewReader(result.Data))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
	})

	t.Run("opaque PNG becomes JPEG", func(t *testing.T) {
		result, err := cropper.Crop(testutil.CreatePNG(400, 400), 0, 0)
		require.NoError(t, err)
		assert.Equal(t, models.FormatJPEG, result.Format)
	})

	t.Run("undersized source is upscaled to target", func(t *testing.T) {
		result, err := cropper.Crop(testutil.CreateJPEG(100, 80), 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 300, result.Width)
		assert.Equal(t, 300, result.Height)
	})

	t.Run("garbage bytes return processing error", func(t *testing.T) {
		_, err := cropper.Crop([]byte("definitely not an image"), 0, 0)

		var procErr models.ProcessingError
		require.ErrorAs(t, err, &procErr)
		assert.Equal(t, "avatar_crop", procErr.Operation)
	})
}

func TestNewAvatarCropper_InvalidFlattenColor(t *testing.T) {
	_, err := NewAvatarCropper(&config.AvatarConfig{
		Size:         300,
		PreviewWidth: 250,
		JPEGQuality:  95,
		FlattenColor: "not-a-color",
	})
	assert.Error(t, err)
}
