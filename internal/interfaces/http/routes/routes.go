// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/retail-backend/internal/config"
	"github.com/your-org/retail-backend/internal/interfaces/http/handlers"
	"github.com/your-org/retail-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)

	auth := rg.Group("/auth")
	{
		// Public auth endpoints
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)

		// Protected auth endpoints
		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.GET("/profile", authHandler.GetProfile)
			protected.PUT("/profile", authHandler.UpdateProfile)
			protected.PUT("/password", authHandler.ChangePassword)
		}
	}
}

// SetupBranchRoutes sets up branch related routes
func SetupBranchRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	branchHandler := handlers.NewBranchHandler(db, cfg)

	branches := rg.Group("/branches")
	branches.Use(middleware.AuthMiddleware(cfg))
	{
		branches.GET("", branchHandler.List)
		branches.POST("", branchHandler.Create)
		branches.GET("/:id", branchHandler.Get)
		branches.PUT("/:id", branchHandler.Update)
		branches.DELETE("/:id", middleware.AdminMiddleware(), branchHandler.Delete)
	}
}

// SetupProductRoutes sets up product catalog routes
func SetupProductRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	productHandler := handlers.NewProductSkuHandler(db, cfg)

	products := rg.Group("/products")
	products.Use(middleware.AuthMiddleware(cfg))
	{
		products.GET("", productHandler.List)
		products.POST("", productHandler.Create)
		products.GET("/:id", productHandler.Get)
		products.PUT("/:id", productHandler.Update)
		products.DELETE("/:id", middleware.AdminMiddleware(), productHandler.Delete)
	}
}

// SetupInventoryRoutes sets up stock position and ledger routes
func SetupInventoryRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	inventoryHandler := handlers.NewInventoryHandler(db, cfg)

	inv := rg.Group("/inventory")
	inv.Use(middleware.AuthMiddleware(cfg))
	{
		inv.GET("/positions", inventoryHandler.ListPositions)
		inv.GET("/position", inventoryHandler.GetPosition)
		inv.GET("/positions/:id/transactions", inventoryHandler.History)
		inv.POST("/transactions", inventoryHandler.PostTransaction)
		inv.POST("/adjust", inventoryHandler.AdjustStock)
		inv.GET("/low-stock", inventoryHandler.LowStock)
	}
}

// SetupPurchaseOrderRoutes sets up purchase order routes
func SetupPurchaseOrderRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	poHandler := handlers.NewPurchaseOrderHandler(db, cfg)

	orders := rg.Group("/purchase-orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.GET("", poHandler.List)
		orders.POST("", poHandler.Create)
		orders.GET("/:id", poHandler.Get)
		orders.PUT("/:id", poHandler.Update)
		orders.DELETE("/:id", poHandler.Delete)

		orders.POST("/:id/items", poHandler.AddItem)
		orders.PUT("/:id/items/:item_id", poHandler.UpdateItem)
		orders.DELETE("/:id/items/:item_id", poHandler.RemoveItem)

		orders.POST("/:id/confirm", poHandler.Confirm)
		orders.POST("/:id/cancel", poHandler.Cancel)
	}
}

// SetupSaleRoutes sets up sale and settlement routes
func SetupSaleRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	saleHandler := handlers.NewSaleHandler(db, cfg)
	invoiceHandler := handlers.NewInvoiceHandler(db, cfg)

	sales := rg.Group("/sales")
	sales.Use(middleware.AuthMiddleware(cfg))
	{
		sales.GET("", saleHandler.List)
		sales.POST("", saleHandler.Create)
		sales.GET("/overdue", saleHandler.ListOverdue)
		sales.GET("/:id", saleHandler.Get)
		sales.PUT("/:id", saleHandler.Update)
		sales.DELETE("/:id", saleHandler.Delete)

		sales.POST("/:id/confirm", saleHandler.Confirm)

		sales.POST("/:id/payments", saleHandler.AddPayment)
		sales.DELETE("/:id/payments/:payment_id", saleHandler.RemovePayment)

		sales.POST("/:id/writeoff", saleHandler.Writeoff)
		sales.POST("/:id/partial-writeoff", saleHandler.PartialWriteoff)
		sales.POST("/:id/close", saleHandler.Close)
		sales.POST("/:id/reopen", saleHandler.Reopen)

		sales.GET("/:id/financial-summary", saleHandler.FinancialSummary)
		sales.GET("/:id/invoice", invoiceHandler.Download)
	}
}

// SetupDashboardRoutes sets up reporting routes
func SetupDashboardRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	analyticsHandler := handlers.NewAnalyticsHandler(db, cfg)

	dashboard := rg.Group("/dashboard")
	dashboard.Use(middleware.AuthMiddleware(cfg))
	{
		dashboard.GET("", analyticsHandler.Dashboard)
		dashboard.GET("/sales-report", analyticsHandler.SalesReport)
		dashboard.GET("/writeoff-report", analyticsHandler.WriteoffReport)
	}
}

// SetupRoutes sets up all application routes
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	SetupAuthRoutes(rg, db, redisClient, cfg)
	SetupBranchRoutes(rg, db, redisClient, cfg)
	SetupProductRoutes(rg, db, redisClient, cfg)
	SetupInventoryRoutes(rg, db, redisClient, cfg)
	SetupPurchaseOrderRoutes(rg, db, redisClient, cfg)
	SetupSaleRoutes(rg, db, redisClient, cfg)
	SetupDashboardRoutes(rg, db, redisClient, cfg)
}
