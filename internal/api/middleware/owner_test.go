package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"imgvault/internal/models"
	"imgvault/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireOwner_MissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequireOwner())

	handlerCalled := false
	router.GET("/test", func(c *gin.Context) {
		handlerCalled = true
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, handlerCalled, "handler should not run without an identity")

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Missing user identity", resp.Error)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRequireOwner_ColonInIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequireOwner())

	handlerCalled := false
	router.GET("/test", func(c *gin.Context) {
		handlerCalled = true
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(OwnerHeader, "writer:42")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, handlerCalled, "handler should not run for a malformed identity")

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid user identity", resp.Error)
}

func TestRequireOwner_ValidHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequireOwner())

	router.GET("/test", func(c *gin.Context) {
		owner := c.GetString(OwnerKey)
		assert.Equal(t, "writer-42", owner)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(OwnerHeader, "writer-42")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireOwner_LoggerContextPropagation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequireOwner())

	router.GET("/test", func(c *gin.Context) {
		ownerID := logger.GetOwnerID(c.Request.Context())
		assert.Equal(t, "writer-42", ownerID)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(OwnerHeader, "writer-42")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireOwner_DistinctIdentities(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequireOwner())

	var seen []string
	router.GET("/test", func(c *gin.Context) {
		seen = append(seen, c.GetString(OwnerKey))
		c.Status(http.StatusOK)
	})

	for _, owner := range []string{"alice", "bob"} {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(OwnerHeader, owner)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, []string{"alice", "bob"}, seen)
}
