package handlers

import (
	"context"
	"net/http"
	"testing"

	"imgvault/internal/models"
	"imgvault/internal/service"
	"imgvault/internal/testutil"

	"github.com/stretchr/testify/assert"
)

// Local mock to avoid import cycles
type mockAvatarService struct {
	replaceAvatarFunc func(ctx context.Context, input service.AvatarInput) (*models.AvatarResponse, error)
	removeAvatarFunc  func(ctx context.Context, owner string) (bool, error)
}

func (m *mockAvatarService) ReplaceAvatar(ctx context.Context, input service.AvatarInput) (*models.AvatarResponse, error) {
	if m.replaceAvatarFunc != nil {
		return m.replaceAvatarFunc(ctx, input)
	}
	return nil, nil
}

func (m *mockAvatarService) RemoveAvatar(ctx context.Context, owner string) (bool, error) {
	if m.removeAvatarFunc != nil {
		return m.removeAvatarFunc(ctx, owner)
	}
	return false, nil
}

func TestAvatarHandler_Replace(t *testing.T) {
	tests := []struct {
		name           string
		formData       map[string]string
		fileContent    []byte
		filename       string
		setupMock      func(*mockAvatarService)
		expectedStatus int
		expectError    bool
	}{
		{
			name:        "successful replace",
			formData:    map[string]string{"offset_x": "25", "offset_y": "-10"},
			fileContent: testutil.CreateJPEG(400, 300),
			filename:    "me.jpg",
			setupMock: func(mock *mockAvatarService) {
				mock.replaceAvatarFunc = func(ctx context.Context, input service.AvatarInput) (*models.AvatarResponse, error) {
					return &models.AvatarResponse{
						Location: "http://localhost:8080/media/avatars/writer-42/" + testutil.ValidUUID + ".jpg",
						Width:    300,
						Height:   300,
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			expectError:    false,
		},
		{
			name:        "no offsets means centered crop",
			formData:    map[string]string{},
			fileContent: testutil.CreateJPEG(400, 300),
			filename:    "me.jpg",
			setupMock: func(mock *mockAvatarService) {
				mock.replaceAvatarFunc = func(ctx context.Context, input service.AvatarInput) (*models.AvatarResponse, error) {
					assert.Zero(t, input.OffsetX)
					assert.Zero(t, input.OffsetY)
					return &models.AvatarResponse{
						Location: "http://localhost:8080/media/avatars/writer-42/" + testutil.ValidUUID + ".jpg",
						Width:    300,
						Height:   300,
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			expectError:    false,
		},
		{
			name:           "non-numeric offset_x",
			formData:       map[string]string{"offset_x": "sideways"},
			fileContent:    testutil.CreateJPEG(400, 300),
			filename:       "me.jpg",
			setupMock:      func(mock *mockAvatarService) {},
			expectedStatus: http.StatusBadRequest,
			expectError:    true,
		},
		{
			name:           "non-numeric offset_y",
			formData:       map[string]string{"offset_y": "up"},
			fileContent:    testutil.CreateJPEG(400, 300),
			filename:       "me.jpg",
			setupMock:      func(mock *mockAvatarService) {},
			expectedStatus: http.StatusBadRequest,
			expectError:    true,
		},
		{
			name:        "validation rejection",
			formData:    map[string]string{},
			fileContent: []byte("garbage"),
			filename:    "me.jpg",
			setupMock: func(mock *mockAvatarService) {
				mock.replaceAvatarFunc = func(ctx context.Context, input service.AvatarInput) (*models.AvatarResponse, error) {
					return nil, models.ValidationError{
						Kind:    models.CorruptImage,
						Message: "file too small to be an image",
					}
				}
			},
			expectedStatus: http.StatusBadRequest,
			expectError:    true,
		},
		{
			name:        "processing failure",
			formData:    map[string]string{},
			fileContent: testutil.CreateJPEG(400, 300),
			filename:    "me.jpg",
			setupMock: func(mock *mockAvatarService) {
				mock.replaceAvatarFunc = func(ctx context.Context, input service.AvatarInput) (*models.AvatarResponse, error) {
					return nil, models.ProcessingError{
						Operation: "avatar_crop",
						Reason:    "image data could not be decoded",
					}
				}
			},
			expectedStatus: http.StatusInternalServerError,
			expectError:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &mockAvatarService{}
			tt.setupMock(mockService)

			handler := NewAvatarHandler(mockService)

			req := testutil.CreateMultipartRequest("PUT", "/api/v1/profile/avatar", tt.formData, "avatar", tt.filename, tt.fileContent)
			c, w := testutil.SetupTestContext(req)
			setOwner(c)

			handler.Replace(c)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			err := testutil.ParseJSONResponse(w, &response)
			assert.NoError(t, err)

			if tt.expectError {
				assert.Contains(t, response, "error")
			} else {
				assert.Contains(t, response, "location")
				assert.Equal(t, float64(300), response["width"])
				assert.Equal(t, float64(300), response["height"])
			}
		})
	}
}

func TestAvatarHandler_Replace_PassesOffsets(t *testing.T) {
	var captured service.AvatarInput
	mockService := &mockAvatarService{
		replaceAvatarFunc: func(ctx context.Context, input service.AvatarInput) (*models.AvatarResponse, error) {
			captured = input
			return &models.AvatarResponse{Location: "http://localhost:8080/media/avatars/x.jpg", Width: 300, Height: 300}, nil
		},
	}
	handler := NewAvatarHandler(mockService)

	formData := map[string]string{"offset_x": "-37.5", "offset_y": "12"}
	req := testutil.CreateMultipartRequest("PUT", "/api/v1/profile/avatar", formData, "avatar", "face.png", testutil.CreateJPEG(50, 50))
	c, w := testutil.SetupTestContext(req)
	setOwner(c)

	handler.Replace(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testutil.TestOwner, captured.Owner)
	assert.Equal(t, "face.png", captured.Filename)
	assert.Equal(t, -37.5, captured.OffsetX)
	assert.Equal(t, float64(12), captured.OffsetY)
}

func TestAvatarHandler_Replace_MissingFile(t *testing.T) {
	mockService := &mockAvatarService{}
	handler := NewAvatarHandler(mockService)

	req := testutil.CreateTestRequest("PUT", "/api/v1/profile/avatar", nil)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=test")
	c, w := testutil.SetupTestContext(req)
	setOwner(c)

	handler.Replace(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvatarHandler_Remove(t *testing.T) {
	tests := []struct {
		name            string
		setupMock       func(*mockAvatarService)
		expectedStatus  int
		expectedDeleted float64
		expectedMessage string
	}{
		{
			name: "avatar removed",
			setupMock: func(mock *mockAvatarService) {
				mock.removeAvatarFunc = func(ctx context.Context, owner string) (bool, error) {
					assert.Equal(t, testutil.TestOwner, owner)
					return true, nil
				}
			},
			expectedStatus:  http.StatusOK,
			expectedDeleted: 1,
			expectedMessage: "avatar removed",
		},
		{
			name: "no avatar present",
			setupMock: func(mock *mockAvatarService) {
				mock.removeAvatarFunc = func(ctx context.Context, owner string) (bool, error) {
					return false, nil
				}
			},
			expectedStatus:  http.StatusOK,
			expectedDeleted: 0,
			expectedMessage: "no avatar to remove",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &mockAvatarService{}
			tt.setupMock(mockService)

			handler := NewAvatarHandler(mockService)

			req := testutil.CreateTestRequest("DELETE", "/api/v1/profile/avatar", nil)
			c, w := testutil.SetupTestContext(req)
			setOwner(c)

			handler.Remove(c)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			err := testutil.ParseJSONResponse(w, &response)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedDeleted, response["deleted"])
			assert.Equal(t, tt.expectedMessage, response["message"])
		})
	}
}

func TestAvatarHandler_Remove_StorageError(t *testing.T) {
	mockService := &mockAvatarService{
		removeAvatarFunc: func(ctx context.Context, owner string) (bool, error) {
			return false, models.StorageError{Operation: "delete", Backend: "local", Reason: "permission denied"}
		},
	}
	handler := NewAvatarHandler(mockService)

	req := testutil.CreateTestRequest("DELETE", "/api/v1/profile/avatar", nil)
	c, w := testutil.SetupTestContext(req)
	setOwner(c)

	handler.Remove(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
