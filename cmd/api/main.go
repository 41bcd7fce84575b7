package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/graficaops/envelopamento-api/internal/catalog"
	"github.com/graficaops/envelopamento-api/internal/config"
	"github.com/graficaops/envelopamento-api/internal/database"
	"github.com/graficaops/envelopamento-api/internal/handlers"
	"github.com/graficaops/envelopamento-api/internal/jobs"
	"github.com/graficaops/envelopamento-api/internal/middleware"
	"github.com/graficaops/envelopamento-api/internal/repository"
	"github.com/graficaops/envelopamento-api/internal/services"
	"github.com/graficaops/envelopamento-api/internal/storage"
	"github.com/graficaops/envelopamento-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Envelopamento API
// @version 1.0
// @description REST API for vehicle wrap quotes: draft editing, stock validation, payment and document emission
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry (GlitchTip) when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Initialize storage
	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized local storage")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Parts and products come from the remote catalog when one is configured
	var partCatalog services.PartCatalog = repos.Catalog
	if cfg.CatalogURL != "" {
		partCatalog = catalog.NewClient(cfg.CatalogURL, cfg.CatalogToken, cfg.CatalogTimeout)
		logger.Info("Using remote catalog", "url", cfg.CatalogURL)
	}

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, partCatalog, worker, store, cfg, db)

	// Schedule recurring jobs
	svcs.Job.Start()

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Pending autosaves are flushed when sessions close
	svcs.Sessions.CloseAll()
	logger.Info("Quote sessions closed")

	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Redirect root to swagger
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Catalog
			catalogRoutes := protected.Group("/catalog")
			{
				catalogRoutes.GET("/parts", h.Catalog.Parts)
				catalogRoutes.GET("/products", h.Catalog.Products)
				catalogRoutes.GET("/products/:product_id", h.Catalog.Product)
			}

			// Quote form sessions
			drafts := protected.Group("/drafts")
			{
				drafts.POST("", h.Draft.Create)
				drafts.GET("/:session_id", h.Draft.Show)
				drafts.DELETE("/:session_id", h.Draft.Delete)
				drafts.POST("/:session_id/actions", h.Draft.Mutate)
				drafts.POST("/:session_id/save", h.Draft.Save)
				drafts.POST("/:session_id/reset", h.Draft.Reset)
				drafts.POST("/:session_id/finalize", h.Draft.Finalize)
				drafts.POST("/:session_id/payments/confirm", h.Draft.ConfirmPayment)
				drafts.POST("/:session_id/payments/cancel", h.Draft.CancelPayment)
				drafts.GET("/:session_id/preview", h.Draft.Preview)
			}

			// Persisted quotes
			protected.GET("/quotes/:quote_id", h.Quote.Show)
			protected.GET("/quotes/:quote_id/export", h.Quote.Export)
			protected.GET("/quotes/:quote_id/audits", h.Audit.Index)

			// Maintenance (admin only)
			admin := protected.Group("/jobs")
			admin.Use(middleware.RequireRole("admin"))
			{
				admin.GET("/status", h.Job.Status)
				admin.POST("/purge-drafts", h.Job.PurgeDrafts)
			}
		}
	}

	return router
}
