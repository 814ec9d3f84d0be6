// internal/interfaces/http/handlers/services.go
package handlers

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/upload"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/domain/wishlist"
	"github.com/your-org/storefront/internal/infrastructure/session"
	"github.com/your-org/storefront/internal/interfaces/http/view"
	"github.com/your-org/storefront/internal/pkg/auth"
	"github.com/your-org/storefront/internal/pkg/metrics"
	"github.com/your-org/storefront/internal/pkg/pdf"
	"gorm.io/gorm"
)

// Services is the set of domain services shared by the handlers.
type Services struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Metrics  *metrics.Metrics
	Sessions *session.Store
	Views    *view.Renderer
	JWT      *auth.JWTManager

	Products     *product.Service
	Categories   *product.CategoryService
	Carts        *cart.Service
	SessionCarts *cart.SessionCart
	Merger       *cart.Merger
	Wishlists    *wishlist.Service
	Users        *user.Service
	Addresses    *user.AddressService
	Checkout     *checkout.Service
	Uploads      *upload.Service
	Receipts     *pdf.Service
}

// NewServices wires every service against the given stores.
func NewServices(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, m *metrics.Metrics, logger *logrus.Logger) (*Services, error) {
	sessions := session.NewStore(redisClient, cfg.Session)

	views, err := view.New(cfg.Server.TemplatesGlob, sessions, logger)
	if err != nil {
		return nil, err
	}

	products := product.NewService(db, cfg)
	carts := cart.NewService(db, m, logger)
	sessionCarts := cart.NewSessionCart(cart.NewSessionStore(sessions), products, m, logger)
	addresses := user.NewAddressService(db, logger)

	return &Services{
		Config:       cfg,
		Logger:       logger,
		Metrics:      m,
		Sessions:     sessions,
		Views:        views,
		JWT:          auth.NewJWTManager(cfg),
		Products:     products,
		Categories:   product.NewCategoryService(db, cfg),
		Carts:        carts,
		SessionCarts: sessionCarts,
		Merger:       cart.NewMerger(db, sessionCarts, m, logger),
		Wishlists:    wishlist.NewService(db, carts, logger),
		Users:        user.NewService(db, cfg, logger),
		Addresses:    addresses,
		Checkout:     checkout.NewService(sessions, carts, addresses, logger),
		Uploads:      upload.NewService(db, cfg.Storage, logger),
		Receipts:     pdf.NewService(cfg.Receipt),
	}, nil
}
