package router

import (
	"github.com/gin-gonic/gin"
	"github.com/storepos/backend/internal/domain/identity"
	"github.com/storepos/backend/internal/interfaces/http/handler"
	"github.com/storepos/backend/internal/interfaces/http/middleware"
)

// Handlers are the HTTP handlers behind the till API
type Handlers struct {
	Auth            *handler.AuthHandler
	System          *handler.SystemHandler
	Product         *handler.ProductHandler
	StockAdjustment *handler.StockAdjustmentHandler
	Customer        *handler.CustomerHandler
	Order           *handler.OrderHandler
	Dashboard       *handler.DashboardHandler
	Settings        *handler.SettingsHandler
}

// RegisterProbes mounts the unauthenticated health endpoints at the root and
// under the API prefix
func RegisterProbes(engine *gin.Engine, system *handler.SystemHandler) {
	engine.GET("/health", system.Health)
	engine.GET("/ready", system.Ready)
	engine.GET("/api/v1/health", system.Health)
	engine.GET("/api/v1/ready", system.Ready)
}

// RegisterAPI registers every domain group. loginLimiter throttles sign-in
// attempts per client IP; nil disables it.
func RegisterAPI(r *Router, h Handlers, loginLimiter *middleware.RateLimiter) {
	login := []gin.HandlerFunc{h.Auth.Login}
	if loginLimiter != nil {
		login = append([]gin.HandlerFunc{middleware.RateLimit(loginLimiter)}, login...)
	}
	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", login...).
		GET("/me", h.Auth.Me).
		POST("/logout", h.Auth.Logout)

	productRoutes := NewDomainGroup("products", "/products")
	productRoutes.GET("", h.Product.List).
		POST("/sync", h.Product.Sync).
		GET("/barcode/:code", h.Product.GetByBarcode).
		GET("/:id", h.Product.Get).
		PUT("/:id/price", h.Product.UpdatePrice).
		POST("/:id/stock/push", h.Product.PushStock).
		POST("/:id/stock-adjustments", h.StockAdjustment.Adjust).
		GET("/:id/stock-adjustments", h.StockAdjustment.ListForProduct)

	customerRoutes := NewDomainGroup("customers", "/customers")
	customerRoutes.GET("", h.Customer.List).
		POST("", h.Customer.Create).
		POST("/sync", h.Customer.Sync).
		GET("/:id", h.Customer.Get)

	orderRoutes := NewDomainGroup("orders", "/orders")
	orderRoutes.POST("", h.Order.Create).
		GET("", h.Order.List).
		POST("/quote", h.Order.Quote).
		GET("/unsynced", h.Order.ListUnsynced).
		GET("/upstream", h.Order.Upstream).
		POST("/sync", h.Order.SyncAll).
		GET("/sync/last", h.Order.LastSync).
		GET("/:id", h.Order.Get).
		POST("/:id/sync", h.Order.SyncOne).
		GET("/:id/receipt", h.Order.Receipt).
		POST("/:id/receipt/printed", h.Order.MarkPrinted)

	dashboardRoutes := NewDomainGroup("dashboard", "/dashboard")
	dashboardRoutes.GET("/stats", h.Dashboard.Stats)

	settingsRoutes := NewDomainGroup("settings", "/settings")
	settingsRoutes.Use(middleware.RequireRole(identity.RoleAdmin, identity.RoleManager))
	settingsRoutes.GET("", h.Settings.Get).
		PUT("/upstream", h.Settings.UpdateUpstream).
		POST("/test-connection", h.Settings.TestConnection)

	systemRoutes := NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", h.System.GetSystemInfo)

	r.Register(authRoutes).
		Register(productRoutes).
		Register(customerRoutes).
		Register(orderRoutes).
		Register(dashboardRoutes).
		Register(settingsRoutes).
		Register(systemRoutes)
}
