// internal/domain/upload/entity.go
package upload

import (
	"fmt"
	"strings"
	"time"
)

// Storage folders for the two kinds of uploaded media.
const (
	CategoryProfilePictures = "profile_pictures"
	CategoryProducts        = "products"
)

// UploadedFile records a stored media file.
type UploadedFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OriginalName string    `gorm:"not null;size:255" json:"original_name"`
	Filename     string    `gorm:"not null;size:255;uniqueIndex" json:"filename"`
	Path         string    `gorm:"not null;size:500" json:"path"`
	URL          string    `gorm:"not null;size:500" json:"url"`
	MimeType     string    `gorm:"not null;size:100" json:"mime_type"`
	Size         int64     `gorm:"not null" json:"size"`
	Category     string    `gorm:"size:50;index" json:"category"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	UploadedBy   uint      `gorm:"index" json:"uploaded_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName overrides the table name for UploadedFile
func (UploadedFile) TableName() string { return "uploaded_files" }

// IsImage checks if the file is an image
func (f *UploadedFile) IsImage() bool {
	return strings.HasPrefix(f.MimeType, "image/")
}

// GetFormattedSize returns human-readable file size
func (f *UploadedFile) GetFormattedSize() string {
	const unit = 1024
	if f.Size < unit {
		return fmt.Sprintf("%d B", f.Size)
	}

	div, exp := int64(unit), 0
	for n := f.Size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(f.Size)/float64(div), "KMGTPE"[exp])
}

// GetDimensions returns image dimensions as string
func (f *UploadedFile) GetDimensions() string {
	if f.Width > 0 && f.Height > 0 {
		return fmt.Sprintf("%dx%d", f.Width, f.Height)
	}
	return ""
}
