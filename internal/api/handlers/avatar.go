package handlers

import (
	"io"
	"net/http"
	"strconv"

	"imgvault/internal/api/middleware"
	"imgvault/internal/models"
	"imgvault/internal/service"
	"imgvault/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AvatarHandler handles profile avatar HTTP requests
type AvatarHandler struct {
	avatars service.AvatarService
}

// NewAvatarHandler creates a new avatar handler
func NewAvatarHandler(avatars service.AvatarService) *AvatarHandler {
	return &AvatarHandler{avatars: avatars}
}

// Replace crops and stores a new profile avatar
// PUT /api/v1/profile/avatar
func (h *AvatarHandler) Replace(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString(middleware.RequestIDKey)
	owner := c.GetString(middleware.OwnerKey)

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Missing avatar file",
			Message: "Request must contain an 'avatar' file field",
			Code:    http.StatusBadRequest,
		})
		return
	}
	defer file.Close()

	offsetX, err := parseOffset(c.PostForm("offset_x"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid offset",
			Message: "offset_x must be a number",
			Code:    http.StatusBadRequest,
		})
		return
	}
	offsetY, err := parseOffset(c.PostForm("offset_y"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid offset",
			Message: "offset_y must be a number",
			Code:    http.StatusBadRequest,
		})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to read avatar upload",
			zap.Error(err),
			zap.String("request_id", requestID))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "File read error",
			Message: "Failed to read uploaded file",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	resp, err := h.avatars.ReplaceAvatar(ctx, service.AvatarInput{
		Owner:    owner,
		Filename: header.Filename,
		Data:     data,
		OffsetX:  offsetX,
		OffsetY:  offsetY,
	})
	if err != nil {
		handleServiceError(c, err, requestID, "avatar replace")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Remove deletes the caller's avatar
// DELETE /api/v1/profile/avatar
func (h *AvatarHandler) Remove(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString(middleware.RequestIDKey)
	owner := c.GetString(middleware.OwnerKey)

	removed, err := h.avatars.RemoveAvatar(ctx, owner)
	if err != nil {
		handleServiceError(c, err, requestID, "avatar remove")
		return
	}

	message := "no avatar to remove"
	deleted := 0
	if removed {
		message = "avatar removed"
		deleted = 1
	}

	c.JSON(http.StatusOK, models.DeleteResponse{
		Deleted: deleted,
		Message: message,
	})
}

// parseOffset parses an optional preview offset form field; an absent field
// means no drag
func parseOffset(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}
