package handlers

import (
	"io"
	"net/http"

	"imgvault/internal/api/middleware"
	"imgvault/internal/config"
	"imgvault/internal/models"
	"imgvault/internal/service"
	"imgvault/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ImageHandler handles content-image HTTP requests
type ImageHandler struct {
	content service.ContentService
	config  *config.Config
}

// NewImageHandler creates a new content-image handler
func NewImageHandler(content service.ContentService, config *config.Config) *ImageHandler {
	return &ImageHandler{
		content: content,
		config:  config,
	}
}

// Upload handles inline editor image uploads
// POST /api/v1/images
func (h *ImageHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString(middleware.RequestIDKey)
	owner := c.GetString(middleware.OwnerKey)

	logger.InfoWithContext(ctx, "Processing content image upload",
		zap.String("owner", owner),
		zap.String("request_id", requestID),
		zap.String("client_ip", c.ClientIP()))

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		logger.WarnWithContext(ctx, "No image file in request",
			zap.Error(err),
			zap.String("request_id", requestID))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Missing image file",
			Message: "Request must contain an 'image' file field",
			Code:    http.StatusBadRequest,
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to read uploaded file",
			zap.Error(err),
			zap.String("request_id", requestID))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "File read error",
			Message: "Failed to read uploaded file",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	resp, err := h.content.Upload(ctx, service.UploadInput{
		Owner:    owner,
		Filename: header.Filename,
		Data:     data,
		AltText:  c.PostForm("alt"),
	})
	if err != nil {
		handleServiceError(c, err, requestID, "content upload")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// deleteRequest is the body of a delete-by-URL request
type deleteRequest struct {
	URL string `json:"url" binding:"required"`
}

// Delete removes an uploaded image by its public URL
// POST /api/v1/images/delete
func (h *ImageHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString(middleware.RequestIDKey)
	owner := c.GetString(middleware.OwnerKey)

	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: "Request must contain a 'url' field",
			Code:    http.StatusBadRequest,
		})
		return
	}

	resp, err := h.content.DeleteByURL(ctx, owner, req.URL)
	if err != nil {
		handleServiceError(c, err, requestID, "content delete")
		return
	}

	c.JSON(http.StatusOK, resp)
}
