// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"sitestock/internal/core/numerator"
	"sitestock/internal/domain/auth"
	"sitestock/internal/domain/catalogs/material"
	"sitestock/internal/domain/catalogs/site"
	"sitestock/internal/domain/ledger"
	"sitestock/internal/domain/orders"
	"sitestock/internal/domain/reports"
	"sitestock/internal/infrastructure/http/v1/handlers"
	"sitestock/internal/infrastructure/http/v1/middleware"
	"sitestock/internal/infrastructure/storage/postgres"
	"sitestock/internal/infrastructure/storage/postgres/catalog_repo"
	"sitestock/internal/infrastructure/storage/postgres/ledger_repo"
	"sitestock/internal/infrastructure/storage/postgres/order_repo"
	"sitestock/internal/infrastructure/storage/postgres/report_repo"
	"sitestock/pkg/logger"
)

// Roles allowed to record movements and manage catalogs. Viewers get
// read-only access to everything else.
var writeRoles = []string{string(auth.RoleAdmin), string(auth.RoleForeman)}

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// TxManager manages transactions for all repositories
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// Numerator for catalog and order number generation
	Numerator numerator.Generator

	// Audit records movement and order operations; nil disables auditing
	Audit *postgres.AuditService
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, cfg)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerCatalogRoutes(protected, cfg)
		registerLedgerRoutes(protected, cfg)
		registerOrderRoutes(protected, cfg)
		registerReportRoutes(protected, cfg)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	publicAuth := rg.Group("/auth")

	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))

	authHandler.RegisterRoutes(publicAuth, protectedAuth)
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	catalogs := rg.Group("/catalog")
	baseHandler := handlers.NewBaseHandler()
	write := middleware.RequireRole(writeRoles...)

	// --- MATERIALS ---
	{
		repo := catalog_repo.NewMaterialRepo(cfg.TxManager)
		service := material.NewService(repo, cfg.TxManager, cfg.Numerator)
		handler := handlers.NewMaterialHandler(baseHandler, service)

		g := catalogs.Group("/materials")
		g.GET("", handler.List)
		g.GET("/:id", handler.Get)
		g.POST("", write, handler.Create)
		g.PUT("/:id", write, handler.Update)
		g.DELETE("/:id", write, handler.Archive)
	}

	// --- SITES ---
	{
		repo := catalog_repo.NewSiteRepo(cfg.TxManager)
		service := site.NewService(repo, cfg.TxManager, cfg.Numerator)
		handler := handlers.NewSiteHandler(baseHandler, service)

		g := catalogs.Group("/sites")
		g.GET("", handler.List)
		g.GET("/:id", handler.Get)
		g.POST("", write, handler.Create)
		g.PUT("/:id", write, handler.Update)
		g.DELETE("/:id", write, handler.Archive)
	}
}

// registerLedgerRoutes registers movement log endpoints.
func registerLedgerRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	write := middleware.RequireRole(writeRoles...)

	service := newLedgerService(cfg)
	handler := handlers.NewLedgerHandler(baseHandler, service)

	g := rg.Group("/ledger")
	g.GET("/entries", handler.ListEntries)
	g.GET("/balance", handler.GetBalance)
	g.GET("/balances/:siteId", handler.GetSiteBalances)
	g.POST("/incoming", write, handler.RecordIncoming)
	g.POST("/write-off", write, handler.RecordWriteOff)
	g.POST("/transfers", write, handler.RecordTransfer)
}

// registerOrderRoutes registers purchase order endpoints.
func registerOrderRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	write := middleware.RequireRole(writeRoles...)

	entryRepo := ledger_repo.NewEntryRepo(cfg.TxManager)
	materialRepo := catalog_repo.NewMaterialRepo(cfg.TxManager)
	costing := ledger.NewCosting(entryRepo, materialRepo)
	orderRepo := order_repo.NewOrderRepo(cfg.TxManager)
	service := orders.NewService(orderRepo, entryRepo, materialRepo, costing, cfg.TxManager, cfg.Numerator, auditor(cfg))
	handler := handlers.NewOrderHandler(baseHandler, service)

	g := rg.Group("/orders")
	g.GET("", handler.List)
	g.GET("/:id", handler.Get)
	g.POST("", write, handler.Create)
	g.POST("/:id/mark-ordered", write, handler.MarkOrdered)
	g.POST("/:id/cancel", write, handler.Cancel)
	g.POST("/:id/receive", write, handler.Receive)
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	repo := report_repo.NewReportRepo(cfg.TxManager)
	service := reports.NewService(repo)
	handler := handlers.NewReportsHandler(baseHandler, service)

	g := rg.Group("/reports")
	g.GET("/turnover", handler.GetTurnover)
	g.GET("/transfer-journal", handler.GetTransferJournal)
	g.GET("/stock/:siteId", handler.GetStockList)
}

func newLedgerService(cfg RouterConfig) *ledger.Service {
	entryRepo := ledger_repo.NewEntryRepo(cfg.TxManager)
	materialRepo := catalog_repo.NewMaterialRepo(cfg.TxManager)
	costing := ledger.NewCosting(entryRepo, materialRepo)
	return ledger.NewService(entryRepo, materialRepo, cfg.TxManager, costing, auditor(cfg))
}

// auditor converts the optional audit service to the domain interface,
// keeping a nil service as a nil interface.
func auditor(cfg RouterConfig) ledger.Auditor {
	if cfg.Audit == nil {
		return nil
	}
	return cfg.Audit
}
