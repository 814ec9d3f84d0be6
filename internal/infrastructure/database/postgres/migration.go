// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/upload"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/domain/wishlist"
	"github.com/your-org/storefront/internal/pkg/auth"
	"gorm.io/gorm"
)

// Migration handles schema migration and seed data
type Migration struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger *logrus.Logger) *Migration {
	return &Migration{
		db:     db,
		logger: logger,
	}
}

// Models lists every persisted model in dependency order.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&user.Address{},
		&product.Category{},
		&product.Product{},
		&cart.Cart{},
		&cart.CartItem{},
		&wishlist.Wishlist{},
		&wishlist.WishlistItem{},
		&upload.UploadedFile{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations(ctx context.Context) error {
	m.logger.Info("Running database auto-migrations")

	for _, model := range Models() {
		if err := m.db.WithContext(ctx).AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.logger.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates the composite indexes the catalog and cart queries use
func (m *Migration) CreateIndexes(ctx context.Context) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_category_created ON products(category_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_price ON products(price)",
		"CREATE INDEX IF NOT EXISTS idx_products_name ON products(name)",
		"CREATE INDEX IF NOT EXISTS idx_cart_items_cart_added ON cart_items(cart_id, added_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_wishlist_items_wishlist_added ON wishlist_items(wishlist_id, added_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_addresses_user_created ON addresses(user_id, created_at DESC)",
	}

	for _, stmt := range indexes {
		if err := m.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	m.logger.WithField("count", len(indexes)).Info("Database indexes ensured")
	return nil
}

// SeedCategory is a catalog category to seed.
type SeedCategory struct {
	Name string
}

// SeedProduct is a catalog product to seed, keyed by name.
type SeedProduct struct {
	Name        string
	Description string
	Price       string
	Category    string
}

// SeedUser is an account to seed, keyed by username.
type SeedUser struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Gender      string
	Phone       string
	CountryCode string
	IsAdmin     bool
}

// DefaultCategories is the tile catalog's category list.
var DefaultCategories = []SeedCategory{
	{Name: "Floor Tiles"},
	{Name: "Vitrified Tiles"},
	{Name: "Wall Tiles"},
	{Name: "Mosaic Tiles"},
	{Name: "Bathroom Tiles"},
	{Name: "Kitchen Tiles"},
	{Name: "Living Room Tiles"},
	{Name: "Outdoor Tiles"},
	{Name: "Parking Tiles"},
	{Name: "Stone and Brick Cladding"},
	{Name: "Ceramic Tiles"},
	{Name: "Tile Accessories"},
}

// DefaultProducts is the demo catalog.
var DefaultProducts = []SeedProduct{
	{"Premium Ceramic Floor Tile", "High-quality ceramic floor tile with a glossy finish. Perfect for modern living spaces.", "49.99", "Floor Tiles"},
	{"Classic Vitrified Tile", "Durable vitrified tile ideal for kitchens and bathrooms. Water-resistant and easy to clean.", "59.99", "Vitrified Tiles"},
	{"Elegant Wall Tile", "Modern design wall tile for bathroom and kitchen backsplashes. Available in multiple colors.", "39.99", "Wall Tiles"},
	{"Mosaic Decorative Tile", "Beautiful mosaic tiles for accent walls and artistic installations.", "69.99", "Mosaic Tiles"},
	{"Bathroom Floor Tile", "Slip-resistant bathroom floor tile with superior grip and durability.", "54.99", "Bathroom Tiles"},
	{"Kitchen Backsplash Tile", "Stylish kitchen backsplash tile that complements modern kitchen designs.", "44.99", "Kitchen Tiles"},
	{"Living Room Feature Tile", "Premium feature tile for accent walls in living spaces.", "74.99", "Living Room Tiles"},
	{"Outdoor Patio Tile", "Weather-resistant outdoor tile perfect for patios and decks.", "79.99", "Outdoor Tiles"},
	{"Parking Area Tile", "Heavy-duty tile designed for parking areas and commercial spaces.", "89.99", "Parking Tiles"},
	{"Stone Look Tile", "Realistic stone look tile from our premium stone cladding collection.", "99.99", "Stone and Brick Cladding"},
	{"Marble Effect Ceramic", "Beautiful marble effect ceramic tile for elegant interiors.", "64.99", "Ceramic Tiles"},
	{"Tile Grout - White", "Premium white grout for tile installation and repairs.", "24.99", "Tile Accessories"},
	{"Terracotta Tile", "Rustic terracotta tile with authentic aged appearance.", "84.99", "Floor Tiles"},
	{"Porcelain Tile", "Premium porcelain tile for both indoor and outdoor applications.", "94.99", "Ceramic Tiles"},
	{"Hexagonal Mosaic", "Trendy hexagonal mosaic tile for modern interior designs.", "74.99", "Mosaic Tiles"},
}

// DefaultUsers are the administrator and demo shopper.
var DefaultUsers = []SeedUser{
	{Username: "admin", Email: "admin@test.com", Password: "admin123", FirstName: "Admin", LastName: "User", IsAdmin: true},
	{Username: "kazi", Email: "kazi@example.com", Password: "kazi123", FirstName: "Kazi", LastName: "Mahbub", Gender: user.GenderMale, Phone: "1234567890", CountryCode: "+90"},
}

// SeedInitialData seeds categories, products and users. Existing rows are
// left untouched.
func (m *Migration) SeedInitialData(ctx context.Context, passwords *auth.PasswordManager) error {
	if _, err := m.SeedCategories(ctx, DefaultCategories); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	if _, err := m.SeedProducts(ctx, DefaultProducts); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	if _, err := m.SeedUsers(ctx, DefaultUsers, passwords); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	return nil
}

// SeedCategories creates missing categories by name and reports how many
// were created.
func (m *Migration) SeedCategories(ctx context.Context, categories []SeedCategory) (int, error) {
	created := 0
	for _, c := range categories {
		category := product.Category{Name: c.Name, Slug: product.Slugify(c.Name)}
		result := m.db.WithContext(ctx).
			Where(product.Category{Name: c.Name}).
			Attrs(product.Category{Slug: category.Slug}).
			FirstOrCreate(&category)
		if result.Error != nil {
			return created, fmt.Errorf("category %q: %w", c.Name, result.Error)
		}
		if result.RowsAffected > 0 {
			created++
			m.logger.WithField("category", c.Name).Info("Created category")
		}
	}
	return created, nil
}

// SeedProducts creates missing products by name. Every referenced category
// must already exist.
func (m *Migration) SeedProducts(ctx context.Context, products []SeedProduct) (int, error) {
	created := 0
	for _, p := range products {
		var category product.Category
		if err := m.db.WithContext(ctx).Where("name = ?", p.Category).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return created, fmt.Errorf("product %q: category %q does not exist", p.Name, p.Category)
			}
			return created, err
		}

		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return created, fmt.Errorf("product %q: invalid price %q: %w", p.Name, p.Price, err)
		}

		item := product.Product{}
		result := m.db.WithContext(ctx).Omit("Category").
			Where(product.Product{Name: p.Name}).
			Attrs(product.Product{Description: p.Description, Price: price, CategoryID: category.ID}).
			FirstOrCreate(&item)
		if result.Error != nil {
			return created, fmt.Errorf("product %q: %w", p.Name, result.Error)
		}
		if result.RowsAffected > 0 {
			created++
			m.logger.WithFields(logrus.Fields{"product": p.Name, "price": p.Price}).Info("Created product")
		}
	}
	return created, nil
}

// SeedUsers creates missing accounts by username.
func (m *Migration) SeedUsers(ctx context.Context, users []SeedUser, passwords *auth.PasswordManager) (int, error) {
	created := 0
	for _, u := range users {
		var count int64
		if err := m.db.WithContext(ctx).Model(&user.User{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
			return created, err
		}
		if count > 0 {
			m.logger.WithField("username", u.Username).Debug("User already exists")
			continue
		}

		hashed, err := passwords.HashPassword(u.Password)
		if err != nil {
			return created, fmt.Errorf("user %q: %w", u.Username, err)
		}

		account := user.User{
			Username:    u.Username,
			Email:       u.Email,
			Password:    hashed,
			FirstName:   u.FirstName,
			LastName:    u.LastName,
			Gender:      u.Gender,
			Phone:       u.Phone,
			CountryCode: u.CountryCode,
			IsActive:    true,
			IsAdmin:     u.IsAdmin,
		}
		if err := m.db.WithContext(ctx).Create(&account).Error; err != nil {
			return created, fmt.Errorf("user %q: %w", u.Username, err)
		}
		created++
		m.logger.WithFields(logrus.Fields{"username": u.Username, "admin": u.IsAdmin}).Info("Created user")
	}
	return created, nil
}

// TableCounts reports the row count of every migrated table.
func (m *Migration) TableCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, model := range Models() {
		stmt := &gorm.Statement{DB: m.db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("failed to parse %T: %w", model, err)
		}

		var n int64
		if err := m.db.WithContext(ctx).Model(model).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", stmt.Schema.Table, err)
		}
		counts[stmt.Schema.Table] = n
	}
	return counts, nil
}
