// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/interfaces/http/handlers"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

// SetupRoutes registers every storefront route on rg. rg must already run
// the session, response mode and optional auth middleware.
func SetupRoutes(rg *gin.RouterGroup, s *handlers.Services) {
	SetupCatalogRoutes(rg, s)
	SetupAuthRoutes(rg, s)
	SetupCartRoutes(rg, s)
	SetupCheckoutRoutes(rg, s)
	SetupWishlistRoutes(rg, s)
	SetupProfileRoutes(rg, s)
	SetupAdminRoutes(rg, s)
}

// SetupCatalogRoutes sets up the public catalog pages
func SetupCatalogRoutes(rg *gin.RouterGroup, s *handlers.Services) {
	productHandler := handlers.NewProductHandler(s)

	rg.GET("/", productHandler.Home)
	rg.GET("/products/", productHandler.ListProducts)
	rg.GET("/product/:id/", productHandler.GetProduct)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, s *handlers.Services) {
	authHandler := handlers.NewAuthHandler(s)

	rg.GET("/login/", authHandler.LoginPage)
	rg.POST("/login/", authHandler.Login)
	rg.GET("/signup/", authHandler.SignupPage)
	rg.POST("/signup/", authHandler.Signup)
	rg.GET("/logout/", authHandler.Logout)
	rg.POST("/logout/", authHandler.Logout)
	rg.POST("/auth/refresh/", authHandler.RefreshToken)
}

// SetupCartRoutes sets up cart routes. Product-keyed routes work for
// everyone; item-keyed routes need a persistent cart.
func SetupCartRoutes(rg *gin.RouterGroup, s *handlers.Services) {
	cartHandler := handlers.NewCartHandler(s)

	cart := rg.Group("/cart")
	{
		cart.GET("/", cartHandler.GetCart)
		cart.POST("/add/:productId/", cartHandler.AddToCart)
		cart.POST("/remove/:productId/", cartHandler.RemoveFromCart)
		cart.POST("/update/:productId/", cartHandler.UpdateCartProduct)
		cart.POST("/clear/", cartHandler.ClearCart)

		items := cart.Group("/items", middleware.RequireAuth())
		{
			items.POST("/:itemId/remove/", cartHandler.RemoveCartItem)
			items.POST("/:itemId/update/", cartHandler.UpdateCartItem)
		}
	}
}

// SetupCheckoutRoutes sets up address, payment and receipt routes
func SetupCheckoutRoutes(rg *gin.RouterGroup, s *handlers.Services) {
	checkoutHandler := handlers.NewCheckoutHandler(s)
	addressHandler := handlers.NewAddressHandler(s)
	invoiceHandler := handlers.NewInvoiceHandler(s)

	checkout := rg.Group("/cart", middleware.RequireAuth())
	{
		checkout.GET("/address/", checkoutHandler.AddressPage)
		checkout.POST("/address/", checkoutHandler.SubmitAddress)
		checkout.GET("/address/get/:id/", addressHandler.GetAddress)
		checkout.POST("/address/update/:id/", addressHandler.UpdateAddress)
		checkout.POST("/address/delete/:id/", addressHandler.DeleteAddress)

		checkout.GET("/payment/", checkoutHandler.PaymentPage)
		checkout.POST("/payment/", checkoutHandler.SubmitPayment)
		checkout.GET("/payment/receipt/", invoiceHandler.GenerateReceipt)
	}
}

// SetupWishlistRoutes sets up wishlist routes
func SetupWishlistRoutes(rg *gin.RouterGroup, s *handlers.Services) {
	wishlistHandler := handlers.NewWishlistHandler(s)

	wishlist := rg.Group("/wishlist", middleware.RequireAuth())
	{
		wishlist.GET("/", wishlistHandler.GetWishlist)
		wishlist.POST("/add/:productId/", wishlistHandler.AddToWishlist)
		wishlist.POST("/remove/:productId/", wishlistHandler.RemoveFromWishlist)
		wishlist.POST("/move/:productId/", wishlistHandler.MoveToCart)
		wishlist.GET("/check/:productId/", wishlistHandler.CheckWishlist)
	}
}

// SetupProfileRoutes sets up the account page
func SetupProfileRoutes(rg *gin.RouterGroup, s *handlers.Services) {
	profileHandler := handlers.NewUserProfileHandler(s)

	profile := rg.Group("/profile", middleware.RequireAuth())
	{
		profile.GET("/", profileHandler.GetProfile)
		profile.POST("/", profileHandler.UpdateProfile)
	}
}

// SetupAdminRoutes sets up admin catalog management
func SetupAdminRoutes(rg *gin.RouterGroup, s *handlers.Services) {
	categoryHandler := handlers.NewCategoryHandler(s)
	productHandler := handlers.NewAdminProductHandler(s)
	uploadHandler := handlers.NewUploadHandler(s)

	admin := rg.Group("/admin", middleware.RequireAuth(), middleware.RequireAdmin())
	{
		categories := admin.Group("/categories")
		{
			categories.GET("", categoryHandler.GetCategories)
			categories.POST("", categoryHandler.CreateCategory)
			categories.PUT("/:id", categoryHandler.UpdateCategory)
			categories.DELETE("/:id", categoryHandler.DeleteCategory)
		}

		products := admin.Group("/products")
		{
			products.GET("", productHandler.ListProducts)
			products.POST("", productHandler.CreateProduct)
			products.PUT("/:id", productHandler.UpdateProduct)
			products.DELETE("/:id", productHandler.DeleteProduct)
			products.POST("/:id/image", uploadHandler.UploadProductImage)
		}
	}
}
