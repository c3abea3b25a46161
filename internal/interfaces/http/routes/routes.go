// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupRoutes registers every API route group
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	SetupAuthRoutes(rg, db, redisClient, cfg)
	SetupUserRoutes(rg, db, cfg)
	SetupLocationRoutes(rg, db)
	SetupCatalogRoutes(rg, db, cfg)
	SetupCartRoutes(rg, db, redisClient, cfg)
	SetupOrderRoutes(rg, db, redisClient, cfg)
	SetupPaymentRoutes(rg, db, redisClient, cfg)
	SetupWishlistRoutes(rg, db, cfg)
	SetupAdminRoutes(rg, db, redisClient, cfg)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, redisClient, cfg)

	auth := rg.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
	}
}

// SetupUserRoutes sets up profile and address book routes
func SetupUserRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	profileHandler := handlers.NewUserProfileHandler(db, cfg)
	addressHandler := handlers.NewUserAddressHandler(db, cfg)

	users := rg.Group("/users")
	users.Use(middleware.AuthMiddleware(cfg))
	{
		users.GET("/profile", profileHandler.GetProfile)
		users.PUT("/profile", profileHandler.UpdateProfile)
		users.PUT("/password", profileHandler.ChangePassword)

		users.GET("/addresses", addressHandler.GetAddresses)
		users.POST("/addresses", addressHandler.CreateAddress)
		users.GET("/addresses/:id", addressHandler.GetAddress)
		users.PUT("/addresses/:id", addressHandler.UpdateAddress)
		users.DELETE("/addresses/:id", addressHandler.DeleteAddress)
		users.PUT("/addresses/:id/default", addressHandler.SetDefaultAddress)
	}
}

// SetupLocationRoutes sets up the public address picker routes
func SetupLocationRoutes(rg *gin.RouterGroup, db *gorm.DB) {
	locationHandler := handlers.NewLocationHandler(db)

	locations := rg.Group("/locations")
	{
		locations.GET("/provinces", locationHandler.GetProvinces)
		locations.GET("/provinces/:id/districts", locationHandler.GetDistricts)
		locations.GET("/districts/:id/wards", locationHandler.GetWards)
	}
}

// SetupCatalogRoutes sets up public product, category and review routes
func SetupCatalogRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	productHandler := handlers.NewProductHandler(db, cfg)
	categoryHandler := handlers.NewCategoryHandler(db, cfg)
	variantHandler := handlers.NewVariantHandler(db, cfg)
	reviewHandler := handlers.NewReviewHandler(db, cfg)

	products := rg.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/:id", productHandler.GetProduct)
		products.GET("/slug/:slug", productHandler.GetProductBySlug)
		products.POST("/:id/resolve-variant", variantHandler.ResolveVariant)
		products.GET("/:id/reviews", reviewHandler.GetProductReviews)

		authed := products.Group("")
		authed.Use(middleware.AuthMiddleware(cfg))
		{
			authed.POST("/:id/reviews", reviewHandler.CreateReview)
		}
	}

	reviews := rg.Group("/reviews")
	reviews.Use(middleware.AuthMiddleware(cfg))
	{
		reviews.DELETE("/:review_id", reviewHandler.DeleteReview)
	}

	categories := rg.Group("/categories")
	{
		categories.GET("", categoryHandler.GetCategoryTree)
		categories.GET("/:id", categoryHandler.GetCategory)
	}
}

// SetupCartRoutes sets up cart routes for users and guest sessions
func SetupCartRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	cartHandler := handlers.NewCartHandler(db, redisClient, cfg)

	cart := rg.Group("/cart")
	cart.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		cart.GET("", cartHandler.GetCart)
		cart.POST("/items", cartHandler.AddToCart)
		cart.PUT("/items/:variant_id", cartHandler.UpdateCartItem)
		cart.DELETE("/items/:variant_id", cartHandler.RemoveFromCart)
		cart.DELETE("", cartHandler.ClearCart)
		cart.GET("/count", cartHandler.GetItemCount)
		cart.GET("/validate", cartHandler.ValidateCart)
	}
}

// SetupOrderRoutes sets up checkout and order lifecycle routes
func SetupOrderRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	checkoutHandler := handlers.NewCheckoutHandler(db, redisClient, cfg)
	orderHandler := handlers.NewOrderHandler(db, redisClient, cfg)
	invoiceHandler := handlers.NewInvoiceHandler(db, redisClient, cfg)

	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.POST("/checkout", checkoutHandler.Checkout)
		orders.GET("", orderHandler.GetOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.GET("/code/:code", orderHandler.GetOrderByCode)
		orders.PUT("/:id/cancel", orderHandler.CancelOrder)
		orders.PUT("/:id/received", orderHandler.ConfirmReceived)
		orders.GET("/:id/invoice", invoiceHandler.DownloadInvoice)
	}
}

// SetupPaymentRoutes sets up gateway payment routes
func SetupPaymentRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	paymentHandler := handlers.NewPaymentHandler(db, redisClient, cfg)

	payments := rg.Group("/payments")
	{
		// The gateway redirects the browser here; no auth, the
		// signature carries the trust
		payments.GET("/vnpay/return", paymentHandler.HandleReturn)
		payments.POST("/vnpay/simulate", paymentHandler.SimulateReturn)

		authed := payments.Group("")
		authed.Use(middleware.AuthMiddleware(cfg))
		{
			authed.POST("/orders/:id/initiate", paymentHandler.InitiatePayment)
		}
	}
}

// SetupWishlistRoutes sets up wishlist routes
func SetupWishlistRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	wishlistHandler := handlers.NewWishlistHandler(db)

	wishlist := rg.Group("/wishlist")
	wishlist.Use(middleware.AuthMiddleware(cfg))
	{
		wishlist.GET("", wishlistHandler.GetWishlist)
		wishlist.POST("/:product_id", wishlistHandler.AddProduct)
		wishlist.DELETE("/:product_id", wishlistHandler.RemoveProduct)
		wishlist.GET("/:product_id/contains", wishlistHandler.Contains)
	}
}

// SetupAdminRoutes sets up the admin management surface
func SetupAdminRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	productHandler := handlers.NewProductHandler(db, cfg)
	categoryHandler := handlers.NewCategoryHandler(db, cfg)
	variantHandler := handlers.NewVariantHandler(db, cfg)
	orderHandler := handlers.NewOrderHandler(db, redisClient, cfg)
	userAdminHandler := handlers.NewUserAdminHandler(db, cfg)
	uploadHandler := handlers.NewUploadHandler(db, cfg)
	analyticsHandler := handlers.NewAnalyticsHandler(db, cfg)

	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware())
	{
		admin.POST("/products", productHandler.CreateProduct)
		admin.PUT("/products/:id", productHandler.UpdateProduct)
		admin.DELETE("/products/:id", productHandler.DeleteProduct)
		admin.POST("/products/:id/images", productHandler.AddImage)
		admin.DELETE("/products/:id/images/:image_id", productHandler.RemoveImage)

		admin.POST("/products/:id/options", variantHandler.CreateOption)
		admin.POST("/products/:id/options/:option_id/values", variantHandler.CreateOptionValue)
		admin.POST("/products/:id/variants", variantHandler.CreateVariant)
		admin.PUT("/products/:id/variants/:variant_id", variantHandler.UpdateVariant)
		admin.DELETE("/products/:id/variants/:variant_id", variantHandler.DeleteVariant)

		admin.POST("/categories", categoryHandler.CreateCategory)
		admin.PUT("/categories/:id", categoryHandler.UpdateCategory)
		admin.DELETE("/categories/:id", categoryHandler.DeleteCategory)

		admin.GET("/orders", orderHandler.AdminGetOrders)
		admin.GET("/orders/:id", orderHandler.AdminGetOrder)
		admin.PUT("/orders/:id/status", orderHandler.AdminUpdateStatus)

		admin.GET("/users", userAdminHandler.ListUsers)
		admin.PUT("/users/:id/active", userAdminHandler.SetUserActive)

		admin.POST("/uploads", uploadHandler.Upload)
		admin.GET("/uploads", uploadHandler.ListFiles)
		admin.GET("/uploads/:id", uploadHandler.GetFile)
		admin.DELETE("/uploads/:id", uploadHandler.DeleteFile)

		admin.GET("/analytics/dashboard", analyticsHandler.GetDashboardStats)
		admin.GET("/analytics/revenue", analyticsHandler.GetRevenueSeries)
		admin.GET("/analytics/top-products", analyticsHandler.GetTopProducts)
	}
}
