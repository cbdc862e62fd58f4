package router

import (
	"database/sql"
	"net/http"

	"cafe_backoffice/internal/cache"
	"cafe_backoffice/internal/config"
	"cafe_backoffice/internal/handlers"
	"cafe_backoffice/internal/middleware"
	"cafe_backoffice/internal/repositories"
	"cafe_backoffice/internal/services"
	"cafe_backoffice/internal/storage"

	"github.com/gin-gonic/gin"
)

// Dependencies carries the infrastructure the routes are built on. Images may be
// nil when no object storage is configured, Categories when Redis is off.
type Dependencies struct {
	DB         *sql.DB
	Config     *config.Config
	Categories *cache.CategoryCache
	Images     *storage.S3ImageStore
}

// Handlers groups every HTTP handler mounted under /api/v1.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Catalog  *handlers.CatalogHandler
	Customer *handlers.CustomerHandler
	Order    *handlers.OrderHandler
	Invoice  *handlers.InvoiceHandler
	Report   *handlers.ReportHandler
	Setting  *handlers.SettingHandler
	Storage  *handlers.StorageHandler
}

// Setup wires repositories, services and handlers and registers the routes.
func Setup(engine *gin.Engine, deps Dependencies) {
	db, cfg := deps.DB, deps.Config

	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	productRepo := repositories.NewProductRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	invoiceRepo := repositories.NewInvoiceRepository(db)
	reportRepo := repositories.NewReportRepository(db)
	settingRepo := repositories.NewSettingRepository(db)

	// A nil store must stay a nil interface.
	var images services.ImageStore
	var buckets handlers.BucketManager
	if deps.Images != nil {
		images = deps.Images
		buckets = deps.Images
	}
	categoryCache := deps.Categories
	if categoryCache == nil {
		categoryCache = cache.NewCategoryCache(nil, 0)
	}

	// Initialize Services
	authService := services.NewAuthService(authRepo, db, cfg.JWTSecret, cfg.JWTExpiration)
	settingService := services.NewSettingService(settingRepo, db, cfg.DefaultTaxRate)
	catalogService := services.NewCatalogService(categoryRepo, productRepo, categoryCache, images, db)
	customerService := services.NewCustomerService(customerRepo, orderRepo, db)
	orderService := services.NewOrderService(orderRepo, productRepo, customerRepo, settingService, db)
	invoiceService := services.NewInvoiceService(invoiceRepo, orderRepo, db)
	reportService := services.NewReportService(reportRepo, cfg.Location)

	Register(engine, Handlers{
		Auth:     handlers.NewAuthHandler(authService),
		Catalog:  handlers.NewCatalogHandler(catalogService),
		Customer: handlers.NewCustomerHandler(customerService),
		Order:    handlers.NewOrderHandler(orderService, cfg.Location),
		Invoice:  handlers.NewInvoiceHandler(invoiceService),
		Report:   handlers.NewReportHandler(reportService, cfg.Location),
		Setting:  handlers.NewSettingHandler(settingService),
		Storage:  handlers.NewStorageHandler(buckets),
	}, cfg.JWTSecret)
}

// Register mounts the route groups on engine.
func Register(engine *gin.Engine, h Handlers, jwtSecret string) {
	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := engine.Group("/api/v1")
	SetupPublicAuthRoutes(apiV1.Group("/auth"), h.Auth)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(jwtSecret))
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), h.Auth)
		SetupUserRoutes(authenticated, h.Auth)
		SetupCategoryRoutes(authenticated, h.Catalog)
		SetupProductRoutes(authenticated, h.Catalog)
		SetupCustomerRoutes(authenticated, h.Customer)
		SetupOrderRoutes(authenticated, h.Order)
		SetupInvoiceRoutes(authenticated, h.Invoice)
		SetupReportRoutes(authenticated, h.Report)
		SetupSettingsRoutes(authenticated, h.Setting)
		SetupStorageRoutes(authenticated, h.Storage)
	}
}
