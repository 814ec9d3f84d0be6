// internal/domain/upload/service.go
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"gorm.io/gorm"
)

// Service stores uploaded images on local disk and records them
type Service struct {
	db     *gorm.DB
	config config.StorageConfig
	logger *logrus.Logger
}

// NewService creates a new upload service
func NewService(db *gorm.DB, cfg config.StorageConfig, logger *logrus.Logger) *Service {
	return &Service{
		db:     db,
		config: cfg,
		logger: logger,
	}
}

// SaveImage validates an uploaded image and writes it under category with
// a random name.
func (s *Service) SaveImage(ctx context.Context, header *multipart.FileHeader, category string, uploadedBy uint) (*UploadedFile, error) {
	if header == nil {
		return nil, pkgerrors.Validation("No file uploaded")
	}
	if err := s.validateImageFile(header); err != nil {
		return nil, err
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, s.config.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.config.MaxSize {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "File size exceeds maximum allowed size of %d bytes", s.config.MaxSize)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, pkgerrors.Validation("Uploaded file is not an image")
	}

	width, height := 0, 0
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		width, height = cfg.Width, cfg.Height
	}

	if category == "" {
		category = "general"
	}
	filename := s.generateUniqueFilename(header.Filename)
	relativePath := path.Join(category, filename)
	fullPath := filepath.Join(s.config.LocalPath, filepath.FromSlash(relativePath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	file := UploadedFile{
		OriginalName: filepath.Base(header.Filename),
		Filename:     filename,
		Path:         relativePath,
		URL:          s.URL(relativePath),
		MimeType:     mimeType,
		Size:         int64(len(data)),
		Category:     category,
		Width:        width,
		Height:       height,
		UploadedBy:   uploadedBy,
	}
	if err := s.db.WithContext(ctx).Create(&file).Error; err != nil {
		_ = os.Remove(fullPath)
		return nil, fmt.Errorf("failed to save file info: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"file_id":  file.ID,
		"category": category,
		"size":     file.Size,
	}).Info("Image uploaded")
	return &file, nil
}

// DeleteByURL removes a previously stored file. Unknown URLs are ignored so
// callers can pass whatever a record currently points at.
func (s *Service) DeleteByURL(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}

	var file UploadedFile
	err := s.db.WithContext(ctx).Where("url = ?", url).First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up file: %w", err)
	}

	fullPath := filepath.Join(s.config.LocalPath, filepath.FromSlash(file.Path))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if err := s.db.WithContext(ctx).Delete(&file).Error; err != nil {
		return fmt.Errorf("failed to delete file info: %w", err)
	}
	return nil
}

// URL maps a stored relative path to its public address.
func (s *Service) URL(relativePath string) string {
	return strings.TrimRight(s.config.PublicBaseURL, "/") + "/" + relativePath
}

func (s *Service) validateImageFile(header *multipart.FileHeader) error {
	if header.Size > s.config.MaxSize {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "File size exceeds maximum allowed size of %d bytes", s.config.MaxSize)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	for _, allowed := range s.config.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}
	return pkgerrors.Newf(pkgerrors.CodeValidation, "File type .%s is not allowed", ext)
}

func (s *Service) generateUniqueFilename(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return uuid.New().String() + ext
}
