// internal/domain/upload/entity.go
package upload

import (
	"time"

	"gorm.io/gorm"
)

// UploadedFile records a file pushed to the media host
type UploadedFile struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	PublicID     string         `json:"public_id" gorm:"uniqueIndex;not null;size:255"`
	OriginalName string         `json:"original_name" gorm:"not null;size:255"`
	URL          string         `json:"url" gorm:"not null;size:500"`
	MimeType     string         `json:"mime_type" gorm:"size:100"`
	Size         int64          `json:"size"`
	Kind         string         `json:"kind" gorm:"not null;size:16"`
	UploadedBy   uint           `json:"uploaded_by" gorm:"index"`
	CreatedAt    time.Time      `json:"created_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// File kinds accepted by the media host
const (
	KindImage = "image"
	KindVideo = "video"
)

// TableName overrides the table name
func (UploadedFile) TableName() string {
	return "uploaded_files"
}
