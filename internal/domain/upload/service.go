// internal/domain/upload/service.go
package upload

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// maxUploadSize caps accepted files at 10 MB
const maxUploadSize = 10 << 20

var allowedExtensions = map[string]string{
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".webp": KindImage,
	".mp4":  KindVideo,
	".webm": KindVideo,
}

// Service pushes product and review media to the external media host and
// keeps a local record of every upload
type Service struct {
	db         *gorm.DB
	config     *config.Config
	httpClient *http.Client
}

// NewService creates a new upload service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// UploadRequest represents a media upload request
type UploadRequest struct {
	File       multipart.File        `json:"-"`
	Header     *multipart.FileHeader `json:"-"`
	UploadedBy uint                  `json:"uploaded_by"`
}

type hostUploadResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Bytes     int64  `json:"bytes"`
}

// Upload validates the file, pushes it to the media host and records the
// result. A host failure surfaces as a retryable upstream error and
// nothing is persisted.
func (s *Service) Upload(req *UploadRequest) (*UploadedFile, error) {
	kind, err := validateFile(req.Header)
	if err != nil {
		return nil, err
	}

	publicID := s.buildPublicID(req.Header.Filename)
	hostResp, err := s.pushToHost(req.File, req.Header, kind, publicID)
	if err != nil {
		return nil, err
	}

	record := UploadedFile{
		PublicID:     hostResp.PublicID,
		OriginalName: req.Header.Filename,
		URL:          hostResp.SecureURL,
		MimeType:     mimeTypeFor(req.Header.Filename),
		Size:         hostResp.Bytes,
		Kind:         kind,
		UploadedBy:   req.UploadedBy,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}
	return &record, nil
}

// GetFile retrieves one upload record
func (s *Service) GetFile(fileID uint) (*UploadedFile, error) {
	var record UploadedFile
	if err := s.db.First(&record, fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("file %d not found", fileID)
		}
		return nil, fmt.Errorf("failed to retrieve file: %w", err)
	}
	return &record, nil
}

// ListFiles lists upload records, newest first
func (s *Service) ListFiles(page, limit int) ([]UploadedFile, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.Model(&UploadedFile{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count files: %w", err)
	}

	var records []UploadedFile
	offset := (page - 1) * limit
	err := s.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list files: %w", err)
	}
	return records, total, nil
}

// DeleteFile soft-deletes the local record. The host copy is left alone;
// public IDs are never reused.
func (s *Service) DeleteFile(fileID uint) error {
	result := s.db.Delete(&UploadedFile{}, fileID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete file: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("file %d not found", fileID)
	}
	return nil
}

// pushToHost performs the signed multipart upload to the media host
func (s *Service) pushToHost(file multipart.File, header *multipart.FileHeader, kind, publicID string) (*hostUploadResponse, error) {
	media := s.config.External.Media
	if media.CloudName == "" {
		return nil, apperror.Upstream("media host not configured", nil)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	_ = writer.WriteField("public_id", publicID)
	_ = writer.WriteField("timestamp", timestamp)
	_ = writer.WriteField("api_key", media.APIKey)
	_ = writer.WriteField("signature", s.signUpload(publicID, timestamp))

	part, err := writer.CreateFormFile("file", header.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload form: %w", err)
	}

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/%s/upload", media.CloudName, kind)
	httpReq, err := http.NewRequest(http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperror.Upstream("media host unreachable", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Upstream("failed to read media host response", err)
	}
	if resp.StatusCode >= 400 {
		return nil, apperror.Newf(apperror.KindUpstreamFailure, "media host returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var hostResp hostUploadResponse
	if err := json.Unmarshal(respBody, &hostResp); err != nil {
		return nil, apperror.Upstream("failed to parse media host response", err)
	}
	return &hostResp, nil
}

// signUpload computes the media host request signature over the sorted
// upload parameters
func (s *Service) signUpload(publicID, timestamp string) string {
	payload := fmt.Sprintf("public_id=%s&timestamp=%s%s", publicID, timestamp, s.config.External.Media.APISecret)
	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func (s *Service) buildPublicID(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.ToLower(strings.ReplaceAll(base, " ", "-"))
	return fmt.Sprintf("%s/%s-%s", s.config.External.Media.BaseFolder, base, uuid.New().String()[:8])
}

func validateFile(header *multipart.FileHeader) (string, error) {
	if header.Size > maxUploadSize {
		return "", apperror.Validation("file exceeds the %d byte limit", maxUploadSize)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	kind, ok := allowedExtensions[ext]
	if !ok {
		return "", apperror.Validation("unsupported file type %q", ext)
	}
	return kind, nil
}

func mimeTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	}
	return "application/octet-stream"
}
