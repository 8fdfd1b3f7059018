package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUUID = "f47ac10b-58cc-4372-a567-0e02b2c3d479"

func validAsset() *ImageAsset {
	return NewImageAsset(testUUID, "writer-42", KindContent,
		"content/writer-42/"+testUUID+".jpg", "photo.jpg", FormatJPEG,
		102400, 1920, 1080)
}

func TestImageAsset_IsOrphan(t *testing.T) {
	t.Run("fresh content asset is an orphan", func(t *testing.T) {
		asset := validAsset()
		assert.True(t, asset.IsOrphan())
	})

	t.Run("associated content asset is not", func(t *testing.T) {
		asset := validAsset()
		post := "post-1"
		asset.PostID = &post
		assert.False(t, asset.IsOrphan())
		assert.True(t, asset.AssociatedWith("post-1"))
		assert.False(t, asset.AssociatedWith("post-2"))
	})

	t.Run("avatars are never orphans", func(t *testing.T) {
		asset := validAsset()
		asset.Kind = KindAvatar
		assert.False(t, asset.IsOrphan())
	})
}

func TestImageAsset_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ImageAsset)
		wantErr bool
	}{
		{"valid content asset", func(a *ImageAsset) {}, false},
		{"valid avatar asset", func(a *ImageAsset) { a.Kind = KindAvatar }, false},
		{"empty ID", func(a *ImageAsset) { a.ID = "" }, true},
		{"malformed UUID", func(a *ImageAsset) { a.ID = "not-a-uuid" }, true},
		{"empty owner", func(a *ImageAsset) { a.Owner = "" }, true},
		{"owner with index separator", func(a *ImageAsset) { a.Owner = "writer:42" }, true},
		{"unknown kind", func(a *ImageAsset) { a.Kind = "thumbnail" }, true},
		{"empty storage key", func(a *ImageAsset) { a.StorageKey = "" }, true},
		{"unknown format", func(a *ImageAsset) { a.Format = "tiff" }, true},
		{"zero size", func(a *ImageAsset) { a.Size = 0 }, true},
		{"zero width", func(a *ImageAsset) { a.Width = 0 }, true},
		{"avatar with post reference", func(a *ImageAsset) {
			a.Kind = KindAvatar
			post := "post-1"
			a.PostID = &post
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asset := validAsset()
			tt.mutate(asset)

			err := asset.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewImageAsset(t *testing.T) {
	before := time.Now()
	asset := validAsset()

	assert.Nil(t, asset.PostID)
	assert.WithinDuration(t, before, asset.CreatedAt, time.Second)
	require.NoError(t, asset.Validate())
}

func TestFormatHelpers(t *testing.T) {
	t.Run("extension round trip", func(t *testing.T) {
		assert.Equal(t, "jpg", ExtensionForFormat(FormatJPEG))
		assert.Equal(t, "png", ExtensionForFormat(FormatPNG))
		assert.Equal(t, "webp", ExtensionForFormat(FormatWEBP))
		assert.Equal(t, "", ExtensionForFormat("tiff"))
	})

	t.Run("format from filename", func(t *testing.T) {
		assert.Equal(t, FormatJPEG, FormatForExtension("photo.jpg"))
		assert.Equal(t, FormatJPEG, FormatForExtension("PHOTO.JPEG"))
		assert.Equal(t, FormatPNG, FormatForExtension("logo.png"))
		assert.Equal(t, FormatWEBP, FormatForExtension("anim.webp"))
		assert.Equal(t, "", FormatForExtension("doc.pdf"))
		assert.Equal(t, "", FormatForExtension("noext"))
	})

	t.Run("content types", func(t *testing.T) {
		assert.Equal(t, "image/jpeg", ContentTypeForFormat(FormatJPEG))
		assert.Equal(t, "application/octet-stream", ContentTypeForFormat("tiff"))
	})
}

func TestQuotaSnapshot_ToQuotaResponse(t *testing.T) {
	snapshot := QuotaSnapshot{Owner: "writer-42", ImageCount: 150, TotalBytes: 300 << 20}

	resp := snapshot.ToQuotaResponse(200, 400<<20)

	assert.InDelta(t, 75.0, resp.ImagePercent, 0.001)
	assert.InDelta(t, 75.0, resp.StoragePercent, 0.001)

	t.Run("zero limits do not divide by zero", func(t *testing.T) {
		resp := snapshot.ToQuotaResponse(0, 0)
		assert.Zero(t, resp.ImagePercent)
		assert.Zero(t, resp.StoragePercent)
	})
}
