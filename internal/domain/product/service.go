// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/config"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"gorm.io/gorm"
)

// Service handles catalog queries and product administration
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new product service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// sortOrders whitelists the catalog sort keys.
var sortOrders = map[string]string{
	"price":       "price ASC, id ASC",
	"-price":      "price DESC, id DESC",
	"name":        "name ASC, id ASC",
	"-name":       "name DESC, id DESC",
	"created_at":  "created_at ASC, id ASC",
	"-created_at": "created_at DESC, id DESC",
}

const defaultSort = "-created_at"

// ListQuery represents catalog list parameters
type ListQuery struct {
	Category string `form:"category"`
	Sort     string `form:"sort"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
}

// ListResult is one page of the catalog
type ListResult struct {
	Products         []Product  `json:"products"`
	Categories       []Category `json:"categories"`
	SelectedCategory *Category  `json:"selected_category,omitempty"`
	Sort             string     `json:"sort"`
	Search           string     `json:"search"`
	Pagination       Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// ProductRequest represents product create/update data. Price is a decimal
// string such as "49.99".
type ProductRequest struct {
	Name        string `json:"name" form:"name" binding:"required,max=200"`
	Description string `json:"description" form:"description"`
	Price       string `json:"price" form:"price" binding:"required"`
	CategoryID  uint   `json:"category_id" form:"category_id" binding:"required"`
	Image       string `json:"image" form:"image"`
}

// List returns one page of products filtered by category slug and search
// text, in one of the whitelisted orders. Unknown sort keys fall back to
// newest first; out-of-range pages clamp to the nearest valid page.
func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	db := s.db.WithContext(ctx)
	result := &ListResult{Search: strings.TrimSpace(q.Search), Sort: q.Sort}

	if err := db.Order("name ASC").Find(&result.Categories).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}

	query := db.Model(&Product{}).Preload("Category")

	if q.Category != "" {
		var category Category
		if err := db.Where("slug = ?", q.Category).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.NotFound("Category not found")
			}
			return nil, fmt.Errorf("failed to retrieve category: %w", err)
		}
		result.SelectedCategory = &category
		query = query.Where("category_id = ?", category.ID)
	}

	if result.Search != "" {
		like := "%" + strings.ToLower(result.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	order, ok := sortOrders[q.Sort]
	if !ok {
		result.Sort = defaultSort
		order = sortOrders[defaultSort]
	}

	limit := s.config.Catalog.PageSize
	result.Pagination = paginate(q.Page, limit, total)

	offset := (result.Pagination.Page - 1) * limit
	if err := query.Order(order).Offset(offset).Limit(limit).Find(&result.Products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	return result, nil
}

func paginate(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// Latest returns the newest products for the home page.
func (s *Service) Latest(ctx context.Context, limit int) ([]Product, error) {
	var products []Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Order(sortOrders[defaultSort]).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}
	return products, nil
}

// GetProduct retrieves a single product by ID
func (s *Service) GetProduct(ctx context.Context, id uint) (*Product, error) {
	var product Product
	err := s.db.WithContext(ctx).Preload("Category").First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("Product not found")
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return &product, nil
}

// Related returns other products from the same category.
func (s *Service) Related(ctx context.Context, p *Product, limit int) ([]Product, error) {
	var products []Product
	err := s.db.WithContext(ctx).
		Where("category_id = ? AND id <> ?", p.CategoryID, p.ID).
		Order(sortOrders[defaultSort]).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve related products: %w", err)
	}
	return products, nil
}

// FindByIDs returns the products that still exist among ids, keyed by ID.
// Missing ids are simply absent from the result.
func (s *Service) FindByIDs(ctx context.Context, ids []uint) (map[uint]Product, error) {
	found := make(map[uint]Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	var products []Product
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve products: %w", err)
	}
	for _, p := range products {
		found[p.ID] = p
	}
	return found, nil
}

// CreateProduct creates a new product
func (s *Service) CreateProduct(ctx context.Context, req *ProductRequest) (*Product, error) {
	price, err := ParsePrice(req.Price)
	if err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	product := Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       price,
		CategoryID:  req.CategoryID,
		Image:       req.Image,
	}
	if err := s.db.WithContext(ctx).Omit("Category").Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return s.GetProduct(ctx, product.ID)
}

// UpdateProduct replaces the editable fields of a product. An empty Image
// keeps the current one.
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *ProductRequest) (*Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	price, err := ParsePrice(req.Price)
	if err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":        strings.TrimSpace(req.Name),
		"description": req.Description,
		"price":       price,
		"category_id": req.CategoryID,
	}
	if req.Image != "" {
		updates["image"] = req.Image
	}

	if err := s.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return s.GetProduct(ctx, id)
}

// SetImage points the product at an uploaded image and returns the URL it
// replaced.
func (s *Service) SetImage(ctx context.Context, id uint, url string) (string, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return "", err
	}
	previous := product.Image
	if err := s.db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).Update("image", url).Error; err != nil {
		return "", fmt.Errorf("failed to set product image: %w", err)
	}
	return previous, nil
}

// DeleteProduct removes a product. Cart and wishlist lines referencing it
// go with it through the foreign keys.
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&Product{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.NotFound("Product not found")
	}
	return nil
}

func (s *Service) requireCategory(ctx context.Context, id uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	if count == 0 {
		return pkgerrors.NotFound("Category not found")
	}
	return nil
}

var maxPrice = decimal.RequireFromString("99999999.99")

// ParsePrice parses a decimal price and enforces numeric(10,2) bounds.
func ParsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.Validation("Price must be a decimal number")
	}
	if price.IsNegative() {
		return decimal.Zero, pkgerrors.Validation("Price cannot be negative")
	}
	if price.GreaterThan(maxPrice) {
		return decimal.Zero, pkgerrors.Validation("Price is too large")
	}
	return price.Round(2), nil
}
