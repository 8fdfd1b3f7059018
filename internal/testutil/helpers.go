package testutil

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"time"

	"imgvault/internal/config"
	"imgvault/internal/models"

	"github.com/gin-gonic/gin"
)

// ValidUUID is a valid UUID for testing
const ValidUUID = "f47ac10b-58cc-4372-a567-0e02b2c3d479"

// TestOwner is the default owner identity used in tests
const TestOwner = "writer-42"

// CreateTestRequest creates a test HTTP request
func CreateTestRequest(method, path string, body io.Reader) *http.Request {
	return httptest.NewRequest(method, path, body)
}

// CreateMultipartRequest creates a multipart form request with one file
// field plus arbitrary text fields
func CreateMultipartRequest(method, path string, formData map[string]string, fileField, filename string, fileContent []byte) *http.Request {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for key, value := range formData {
		_ = writer.WriteField(key, value)
	}

	if fileField != "" && filename != "" {
		part, _ := writer.CreateFormFile(fileField, filename)
		_, _ = part.Write(fileContent)
	}

	_ = writer.Close()

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// ParseJSONResponse parses a JSON response body into target
func ParseJSONResponse(resp *httptest.ResponseRecorder, target interface{}) error {
	return json.Unmarshal(resp.Body.Bytes(), target)
}

// SetupTestContext creates a test Gin context with request ID
func SetupTestContext(req *http.Request) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("request_id", "test-request-id")
	return c, w
}

// TestConfig returns a test configuration
func TestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:    "8080",
			GinMode: "test",
		},
		Repo: config.RepoConfig{
			Type:      "badger",
			Directory: "/tmp/test-repo",
		},
		Redis: config.RedisConfig{
			URL:      "redis://localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			Timeout:  5 * time.Second,
		},
		Storage: config.StorageConfig{
			Type:          "local",
			PublicBaseURL: "http://localhost:8080/media",
		},
		Local: config.LocalStorageConfig{
			Directory: "/tmp/test-media",
		},
		Image: config.ImageConfig{
			MaxUploadBytes: 2 * 1024 * 1024,
			MaxWidth:       2560,
			MaxHeight:      2560,
			MaxPixels:      40_000_000,
			JPEGQuality:    85,
		},
		Avatar: config.AvatarConfig{
			Size:           300,
			PreviewWidth:   250,
			JPEGQuality:    95,
			FlattenColor:   "#FFFFFF",
			OnProcessError: config.AvatarErrorReject,
		},
		Quota: config.QuotaConfig{
			MaxImagesPerUser: 200,
			MaxStorageBytes:  400 * 1024 * 1024,
			MaxImagesPerPost: 20,
		},
		Cleanup: config.CleanupConfig{
			Retention:        24 * time.Hour,
			DeletesPerSecond: 1000,
		},
		Logger: config.LoggerConfig{
			Level:  "debug",
			Format: "console",
		},
		CORS: config.CORSConfig{
			Enabled:          true,
			AllowAllOrigins:  true,
			AllowedOrigins:   []string{"*"},
			AllowCredentials: false,
		},
	}
}

// CreateTestAsset creates a content asset record for testing
func CreateTestAsset() *models.ImageAsset {
	return &models.ImageAsset{
		ID:               ValidUUID,
		Owner:            TestOwner,
		Kind:             models.KindContent,
		StorageKey:       "content/" + TestOwner + "/" + ValidUUID + ".jpg",
		OriginalFilename: "photo.jpg",
		Size:             102400,
		Width:            1920,
		Height:           1080,
		Format:           models.FormatJPEG,
		CreatedAt:        time.Now().Add(-time.Hour),
	}
}

// CreateJPEG encodes an opaque test JPEG of the given dimensions
func CreateJPEG(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fillGradient(img)
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	return buf.Bytes()
}

// CreatePNG encodes an opaque test PNG of the given dimensions
func CreatePNG(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fillGradient(img)
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// CreatePNGWithAlpha encodes a test PNG with a transparent region
func CreatePNGWithAlpha(width, height int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	fillGradient(img)
	for y := 0; y < height/2; y++ {
		for x := 0; x < width/2; x++ {
			img.Set(x, y, color.NRGBA{R: 0, G: 0, B: 0, A: 0})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// fillGradient paints a deterministic gradient so encoded bytes are stable
// and visibly non-uniform
func fillGradient(img interface {
	Set(x, y int, c color.Color)
	Bounds() image.Rectangle
}) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8(x % 256),
				G: uint8(y % 256),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
}
