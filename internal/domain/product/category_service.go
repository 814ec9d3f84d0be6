// internal/domain/product/category_service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/your-org/storefront/internal/config"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"gorm.io/gorm"
)

// CategoryService handles category business logic
type CategoryService struct {
	db     *gorm.DB
	config *config.Config
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB, cfg *config.Config) *CategoryService {
	return &CategoryService{
		db:     db,
		config: cfg,
	}
}

// CategoryRequest represents category create/update data
type CategoryRequest struct {
	Name        string `json:"name" form:"name" binding:"required,max=100"`
	Description string `json:"description" form:"description"`
}

// GetCategories retrieves all categories ordered by name
func (s *CategoryService) GetCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	return categories, nil
}

// GetCategoryBySlug retrieves a category by its slug
func (s *CategoryService) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	var category Category
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("Category not found")
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return &category, nil
}

// CreateCategory creates a category with a slug derived from its name
func (s *CategoryService) CreateCategory(ctx context.Context, req *CategoryRequest) (*Category, error) {
	category := Category{
		Name:        strings.TrimSpace(req.Name),
		Slug:        Slugify(req.Name),
		Description: req.Description,
	}
	if category.Slug == "" {
		return nil, pkgerrors.Validation("Category name must contain letters or digits")
	}

	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "A category with this name already exists")
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &category, nil
}

// UpdateCategory renames or re-describes a category
func (s *CategoryService) UpdateCategory(ctx context.Context, id uint, req *CategoryRequest) (*Category, error) {
	var category Category
	db := s.db.WithContext(ctx)
	if err := db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("Category not found")
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}

	err := db.Model(&category).Updates(map[string]interface{}{
		"name":        strings.TrimSpace(req.Name),
		"slug":        Slugify(req.Name),
		"description": req.Description,
	}).Error
	if err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "A category with this name already exists")
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return &category, nil
}

// DeleteCategory removes a category and, through the foreign key, its products
func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&Category{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.NotFound("Category not found")
	}
	return nil
}

// Slugify lowercases name and joins its alphanumeric runs with hyphens.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
