package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"imgvault/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCORS_Enabled(t *testing.T) {
	tests := []struct {
		name            string
		config          *config.Config
		origin          string
		method          string
		expectedStatus  int
		expectedHeaders map[string]string
	}{
		{
			name: "allowed origin with credentials",
			config: &config.Config{
				CORS: config.CORSConfig{
					Enabled:          true,
					AllowAllOrigins:  false,
					AllowedOrigins:   []string{"https://example.com"},
					AllowCredentials: true,
				},
			},
			origin:         "https://example.com",
			method:         "GET",
			expectedStatus: http.StatusOK,
			expectedHeaders: map[string]string{
				"Access-Control-Allow-Origin":      "https://example.com",
				"Access-Control-Allow-Credentials": "true",
				"Access-Control-Allow-Methods":     "GET, POST, PUT, DELETE, OPTIONS",
			},
		},
		{
			name: "allowed origin without credentials",
			config: &config.Config{
				CORS: config.CORSConfig{
					Enabled:          true,
					AllowAllOrigins:  false,
					AllowedOrigins:   []string{"https://example.com"},
					AllowCredentials: false,
				},
			},
			origin:         "https://example.com",
			method:         "GET",
			expectedStatus: http.StatusOK,
			expectedHeaders: map[string]string{
				"Access-Control-Allow-Origin":      "https://example.com",
				"Access-Control-Allow-Credentials": "false",
			},
		},
		{
			name: "allow all origins",
			config: &config.Config{
				CORS: config.CORSConfig{
					Enabled:         true,
					AllowAllOrigins: true,
				},
			},
			origin:         "https://anydomain.com",
			method:         "GET",
			expectedStatus: http.StatusOK,
			expectedHeaders: map[string]string{
				"Access-Control-Allow-Origin": "https://anydomain.com",
			},
		},
		{
			name: "wildcard in allowed origins",
			config: &config.Config{
				CORS: config.CORSConfig{
					Enabled:        true,
					AllowedOrigins: []string{"*"},
				},
			},
			origin:         "https://anydomain.com",
			method:         "GET",
			expectedStatus: http.StatusOK,
			expectedHeaders: map[string]string{
				"Access-Control-Allow-Origin": "https://anydomain.com",
			},
		},
		{
			name: "disallowed origin gets no allow header",
			config: &config.Config{
				CORS: config.CORSConfig{
					Enabled:        true,
					AllowedOrigins: []string{"https://example.com"},
				},
			},
			origin:         "https://evil.example.net",
			method:         "GET",
			expectedStatus: http.StatusOK,
			expectedHeaders: map[string]string{
				"Access-Control-Allow-Origin": "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			router := gin.New()
			router.Use(CORS(tt.config))
			router.GET("/test", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			for header, expected := range tt.expectedHeaders {
				assert.Equal(t, expected, w.Header().Get(header), header)
			}
		})
	}
}

func TestCORS_Disabled(t *testing.T) {
	cfg := &config.Config{
		CORS: config.CORSConfig{Enabled: false},
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS(cfg))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_PreflightRequest(t *testing.T) {
	cfg := &config.Config{
		CORS: config.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"https://example.com"},
		},
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS(cfg))
	router.PUT("/profile/avatar", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("OPTIONS", "/profile/avatar", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-User-ID")
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_DevelopmentAllowsAnyOrigin(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: "debug"},
		CORS: config.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"https://example.com"},
		},
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS(cfg))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
