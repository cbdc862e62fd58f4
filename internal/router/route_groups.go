package router

import (
	"cafe_backoffice/internal/handlers"
	"cafe_backoffice/internal/middleware"
	"cafe_backoffice/internal/models"

	"github.com/gin-gonic/gin"
)

var (
	backOffice   = middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff)
	adminOnly    = middleware.RoleAuthMiddleware(models.RoleAdmin)
	kitchenFloor = middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff, models.RoleKitchen)
)

// SetupPublicAuthRoutes sets up the routes reachable without a token.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.Login)
}

// SetupAuthenticatedAuthRoutes sets up the routes about the current session.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/logout", authHandler.Logout)
	group.GET("/me", authHandler.Me)
}

// SetupUserRoutes sets up staff account administration.
func SetupUserRoutes(authenticatedGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	userRoutes := authenticatedGroup.Group("/users")
	userRoutes.Use(adminOnly)
	{
		userRoutes.GET("", authHandler.ListUsers)
		userRoutes.POST("", authHandler.CreateUser)
		userRoutes.PUT("/:id", authHandler.UpdateUser)
	}
}

// SetupCategoryRoutes sets up the category routes.
func SetupCategoryRoutes(authenticatedGroup *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	categoryRoutes := authenticatedGroup.Group("/categories")
	categoryRoutes.Use(backOffice)
	{
		categoryRoutes.POST("", catalogHandler.CreateCategory)
		categoryRoutes.GET("", catalogHandler.ListCategories)
		categoryRoutes.GET("/:id", catalogHandler.GetCategory)
		categoryRoutes.PUT("/:id", catalogHandler.UpdateCategory)
		categoryRoutes.DELETE("/:id", catalogHandler.DeleteCategory)
	}
}

// SetupProductRoutes sets up the product routes.
func SetupProductRoutes(authenticatedGroup *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	productRoutes := authenticatedGroup.Group("/products")
	productRoutes.Use(backOffice)
	{
		productRoutes.POST("", catalogHandler.CreateProduct)
		productRoutes.GET("", catalogHandler.ListProducts)
		productRoutes.GET("/:id", catalogHandler.GetProduct)
		productRoutes.PUT("/:id", catalogHandler.UpdateProduct)
		productRoutes.DELETE("/:id", catalogHandler.DeleteProduct)
		productRoutes.POST("/:id/image", catalogHandler.UploadProductImage)
	}
}

// SetupCustomerRoutes sets up the customer routes.
func SetupCustomerRoutes(authenticatedGroup *gin.RouterGroup, customerHandler *handlers.CustomerHandler) {
	customerRoutes := authenticatedGroup.Group("/customers")
	customerRoutes.Use(backOffice)
	{
		customerRoutes.POST("", customerHandler.CreateCustomer)
		customerRoutes.GET("", customerHandler.ListCustomers)
		customerRoutes.GET("/:id", customerHandler.GetCustomer)
		customerRoutes.PUT("/:id", customerHandler.UpdateCustomer)
		customerRoutes.DELETE("/:id", customerHandler.DeleteCustomer)
		customerRoutes.GET("/:id/orders", customerHandler.GetCustomerOrders)
	}
}

// SetupOrderRoutes sets up the order routes. The kitchen role only reaches the
// board and the status transition.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	{
		orderRoutes.GET("/kitchen", kitchenFloor, orderHandler.KitchenBoard)
		orderRoutes.PATCH("/:id/status", kitchenFloor, orderHandler.UpdateOrderStatus)

		orderRoutes.POST("/checkout", backOffice, orderHandler.Checkout)
		orderRoutes.GET("", backOffice, orderHandler.ListOrders)
		orderRoutes.GET("/:id", backOffice, orderHandler.GetOrder)
		orderRoutes.PUT("/:id", backOffice, orderHandler.UpdateOrder)
		orderRoutes.DELETE("/:id", backOffice, orderHandler.DeleteOrder)
	}
}

// SetupInvoiceRoutes sets up the invoice routes.
func SetupInvoiceRoutes(authenticatedGroup *gin.RouterGroup, invoiceHandler *handlers.InvoiceHandler) {
	invoiceRoutes := authenticatedGroup.Group("/invoices")
	invoiceRoutes.Use(backOffice)
	{
		invoiceRoutes.POST("", invoiceHandler.CreateInvoice)
		invoiceRoutes.GET("", invoiceHandler.ListInvoices)
		invoiceRoutes.GET("/:id", invoiceHandler.GetInvoice)
		invoiceRoutes.POST("/:id/void", invoiceHandler.VoidInvoice)
		invoiceRoutes.POST("/:id/pay", invoiceHandler.MarkInvoicePaid)
	}
}

// SetupReportRoutes sets up the report and dashboard routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	authenticatedGroup.GET("/reports/:type", backOffice, reportHandler.GetReport)
	authenticatedGroup.GET("/dashboard/summary", backOffice, reportHandler.GetDashboardSummary)
}

// SetupSettingsRoutes sets up the application settings routes.
func SetupSettingsRoutes(authenticatedGroup *gin.RouterGroup, settingHandler *handlers.SettingHandler) {
	settingsRoutes := authenticatedGroup.Group("/settings")
	settingsRoutes.Use(adminOnly)
	{
		settingsRoutes.GET("", settingHandler.ListSettings)
		settingsRoutes.POST("", settingHandler.UpsertSetting)
		settingsRoutes.GET("/:key", settingHandler.GetSetting)
		settingsRoutes.DELETE("/:key", settingHandler.DeleteSetting)
	}
}

// SetupStorageRoutes sets up bucket administration.
func SetupStorageRoutes(authenticatedGroup *gin.RouterGroup, storageHandler *handlers.StorageHandler) {
	storageRoutes := authenticatedGroup.Group("/storage/buckets")
	storageRoutes.Use(adminOnly)
	{
		storageRoutes.GET("", storageHandler.ListBuckets)
		storageRoutes.POST("", storageHandler.CreateBucket)
		storageRoutes.DELETE("/:name", storageHandler.DeleteBucket)
	}
}
