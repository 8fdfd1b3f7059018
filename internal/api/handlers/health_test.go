package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"imgvault/internal/models"
	"imgvault/internal/testutil"

	"github.com/stretchr/testify/assert"
)

// Local mock to avoid import cycles
type mockHealthService struct {
	checkHealthFunc func(ctx context.Context) *models.HealthResponse
}

func (m *mockHealthService) CheckHealth(ctx context.Context) *models.HealthResponse {
	if m.checkHealthFunc != nil {
		return m.checkHealthFunc(ctx)
	}
	return &models.HealthResponse{Status: "healthy"}
}

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*mockHealthService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "all services healthy",
			setupMock: func(mock *mockHealthService) {
				mock.checkHealthFunc = func(ctx context.Context) *models.HealthResponse {
					return &models.HealthResponse{
						Status: "healthy",
						Services: map[string]string{
							"repository": "healthy",
							"storage":    "healthy",
						},
						Timestamp: time.Now(),
					}
				}
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "healthy",
		},
		{
			name: "repository degraded",
			setupMock: func(mock *mockHealthService) {
				mock.checkHealthFunc = func(ctx context.Context) *models.HealthResponse {
					return &models.HealthResponse{
						Status: "degraded",
						Services: map[string]string{
							"repository": "unhealthy: db closed",
							"storage":    "healthy",
						},
						Timestamp: time.Now(),
					}
				}
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &mockHealthService{}
			tt.setupMock(mockService)

			handler := NewHealthHandler(mockService)

			req := testutil.CreateTestRequest("GET", "/health", nil)
			c, w := testutil.SetupTestContext(req)

			handler.Health(c)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response models.HealthResponse
			err := testutil.ParseJSONResponse(w, &response)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedBody, response.Status)
			assert.Contains(t, response.Services, "repository")
			assert.Contains(t, response.Services, "storage")
		})
	}
}
