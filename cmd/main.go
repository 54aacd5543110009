package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"order-import-service/internal/config"
	"order-import-service/internal/events"
	"order-import-service/internal/handlers"
	"order-import-service/internal/middleware"
	"order-import-service/internal/repository"
	"order-import-service/internal/services"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/rbac"
	"github.com/Tesseract-Nexus/go-shared/secrets"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

// @title Order Import API
// @version 1.0.0
// @description Imports shop order exports (CSV/XLSX) and reconciles them with shops, products and existing orders

// @host localhost:8092
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	// Set Redis password from GCP Secret Manager
	redisOpts.Password = secrets.GetRedisPassword()
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Without Redis the shop cache and the import lock are disabled
	var importRedis *redis.Client
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching and import lock disabled)", err)
	} else {
		importRedis = redisClient
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	// Initialize repository
	importRepo := repository.NewImportRepository(db, importRedis)
	importLock := repository.NewImportLock(importRedis, cfg.ImportLockTTL, logger)

	// Initialize event publisher only if NATS_URL is set
	var orderEvents services.OrderEventPublisher
	if cfg.NATSURL != "" {
		eventsPublisher, err := events.NewPublisher(cfg.NATSURL, cfg.EventsTenantID, logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
		} else {
			defer eventsPublisher.Close()
			orderEvents = eventsPublisher
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}

	// Initialize service and handlers
	importService := services.NewOrderImportService(importRepo, importLock, orderEvents, cfg.MaxReportedErrors, logger)
	importHandler := handlers.NewImportHandler(importService, cfg.MaxUploadBytes(), logger)

	// Initialize OpenTelemetry tracing
	var tracerProvider *tracing.TracerProvider
	if cfg.Environment == "production" {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("order-import-service"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("order-import-service"))
	}
	if err != nil {
		log.Printf("WARNING: Failed to initialize tracing: %v (continuing without tracing)", err)
	} else {
		log.Println("✓ OpenTelemetry tracing initialized")
	}

	// Initialize Prometheus metrics
	metrics := gosharedmw.InitGlobalMetrics("tesseract", "order_import_service")
	log.Println("✓ Prometheus metrics initialized")

	// Initialize RBAC middleware
	rbacMw := rbac.NewMiddlewareWithURL(cfg.StaffServiceURL, nil)
	log.Println("✓ RBAC middleware initialized")

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Add observability middleware (metrics + tracing)
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("order-import-service"))
	router.Use(gosharedmw.CompressionMiddleware())

	// Add CORS middleware
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadinessCheck(importRepo))
	router.GET("/metrics", gosharedmw.Handler())

	// Protected API routes
	api := router.Group("/api/v1")

	if cfg.Environment == "development" {
		api.Use(middleware.DevelopmentAuthMiddleware())
	} else {
		api.Use(gosharedmw.IstioAuth(gosharedmw.IstioAuthConfig{
			RequireAuth:        true,
			AllowLegacyHeaders: true,
			Logger:             logrus.NewEntry(logger).WithField("component", "istio_auth"),
		}))
	}

	// Uploads are rate limited per client IP
	importRateLimit, err := middleware.RateLimit(cfg.ImportRateLimit)
	if err != nil {
		log.Fatal("Failed to configure import rate limit:", err)
	}

	orders := api.Group("/orders")
	{
		orders.GET("/import/template", rbacMw.RequirePermission(rbac.PermissionOrdersRead), importHandler.GetImportTemplate)
		orders.POST("/import", importRateLimit, rbacMw.RequirePermission(rbac.PermissionOrdersCreate), importHandler.ImportOrders)
	}
	api.POST("/shops/:shopId/orders/import", importRateLimit, rbacMw.RequirePermission(rbac.PermissionOrdersCreate), importHandler.ImportShopOrders)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Order import service starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	log.Println("Shutting down order-import-service...")

	// Shutdown tracer provider
	if tracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		} else {
			log.Println("✓ Tracer provider shut down")
		}
	}

	log.Println("Order import service stopped")
}
