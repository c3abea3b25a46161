// internal/interfaces/http/handlers/upload.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/upload"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// UploadHandler handles media upload endpoints (admin)
type UploadHandler struct {
	uploadService *upload.Service
	config        *config.Config
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(db *gorm.DB, cfg *config.Config) *UploadHandler {
	return &UploadHandler{
		uploadService: upload.NewService(db, cfg),
		config:        cfg,
	}
}

// Upload pushes a multipart file to the media host and records it
func (h *UploadHandler) Upload(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondBindError(c, err)
		return
	}
	defer file.Close()

	uploaded, err := h.uploadService.Upload(&upload.UploadRequest{
		File:       file,
		Header:     header,
		UploadedBy: userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "File uploaded successfully",
		"data":    uploaded,
	})
}

// GetFile returns a recorded upload
func (h *UploadHandler) GetFile(c *gin.Context) {
	fileID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	file, err := h.uploadService.GetFile(fileID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": file})
}

// ListFiles lists recorded uploads, newest first
func (h *UploadHandler) ListFiles(c *gin.Context) {
	page, limit := pageParams(c)
	files, total, err := h.uploadService.ListFiles(page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"files": files,
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// DeleteFile soft-deletes an upload record
func (h *UploadHandler) DeleteFile(c *gin.Context) {
	fileID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.uploadService.DeleteFile(fileID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}
