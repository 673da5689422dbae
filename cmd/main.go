package main

import (
	"procurement-service/internal/handler"
	mid "procurement-service/internal/middleware"
	"procurement-service/pkg/config"
	"procurement-service/pkg/database"
	"procurement-service/pkg/jwtutil"
	"procurement-service/pkg/logger"
	"procurement-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting procurement-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	err = database.InitDB(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Wire the import and confirmation engines; a broken mappings file
	// fails here instead of on the first upload
	if err := handler.Init(appConfig); err != nil {
		log.Fatal("Failed to initialize engine", zap.Error(err))
	}
	log.Info("Import engine initialized",
		zap.Float64("match_threshold", appConfig.Import.MatchThreshold),
		zap.Int("match_top_k", appConfig.Import.MatchTopK),
		zap.Bool("auto_create", appConfig.Import.AutoCreate),
		zap.Bool("strict_confirm", appConfig.Import.StrictConfirm))

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Import API routes - Apply auth middleware to validate JWT
	importAPI := e.Group("/api/imports", mid.AuthMiddleware)
	importAPI.POST("", handler.CreateImport)
	importAPI.GET("/:id", handler.PreviewImport)
	importAPI.POST("/:id/commit", handler.CommitImport)
	importAPI.POST("/:id/rows/:row_index/link", handler.AcceptImportRowLink)

	// Purchase API routes
	purchaseAPI := e.Group("/api/purchases", mid.AuthMiddleware)
	purchaseAPI.POST("", handler.CreatePurchase)
	purchaseAPI.GET("/:id", handler.GetPurchase)
	purchaseAPI.POST("/:id/confirm", handler.ConfirmPurchase)
	purchaseAPI.POST("/:id/cancel", handler.CancelPurchase)

	// Canonical catalog, read-only
	productAPI := e.Group("/api/products", mid.AuthMiddleware)
	productAPI.GET("", handler.ListProducts)
	productAPI.GET("/:id", handler.GetProduct)

	// Supplier API routes
	supplierAPI := e.Group("/api/suppliers", mid.AuthMiddleware)
	supplierAPI.POST("", handler.CreateSupplier)
	supplierAPI.GET("", handler.ListSuppliers)
	supplierAPI.GET("/:id", handler.GetSupplier)
	supplierAPI.PUT("/:id", handler.UpdateSupplier)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
