// @title        Travelenda API
// @version      1.0
// @description  Hotel search, checkout and booking management.
// @BasePath     /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"travelenda/api/routes"
	"travelenda/internal/auth"
	"travelenda/internal/bookings"
	"travelenda/internal/checkout"
	"travelenda/internal/liteapi"
	"travelenda/internal/notifications"
	"travelenda/internal/shared/config"
	"travelenda/internal/shared/database"
	"travelenda/internal/shared/middleware"
	"travelenda/pkg/logger"
	"travelenda/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Smart environment loading
	envErr := godotenv.Load()

	// Load config
	cfg := config.Load()

	// Set Gin mode (debug/release) before the logger picks its handler
	gin.SetMode(cfg.GinMode)
	appLogger := logger.NewWithWriter(os.Stdout, cfg.LogLevel)
	logger.SetDefault(appLogger)

	if envErr != nil {
		// Check if we're in production/container mode
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	appLogger.Info("Starting Travelenda",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("commit", GitCommit),
	)

	if cfg.LiteAPI.APIKey == "" {
		appLogger.Warn("⚠️ LITEAPI_API_KEY is not set, inventory calls will be rejected by the provider")
	}

	// Initialize DB
	db, err := database.InitDB(context.Background(), cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Preload the checkout lock script so the first release does not pay for EVAL
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := checkout.PreloadScripts(ctx, db.GetRedis()); err != nil {
		appLogger.Error("Failed to preload Redis Lua scripts", slog.Any("error", err))
		// Continue without failing - scripts will be loaded on first use
	} else {
		appLogger.Info("✅ Redis Lua scripts preloaded for checkout locks")
	}
	cancel()

	// Initialize Rate Limiter
	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = ratelimit.NewRateLimiter(db.GetRedis(), cfg.RateLimit)
		appLogger.Info("Rate limiter initialized",
			slog.Bool("enabled", cfg.RateLimit.Enabled),
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
			slog.Int("whitelisted", len(cfg.RateLimit.WhitelistedIPs)),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	// Initialize booking notifications
	notificationCtx, notificationCancel := context.WithCancel(context.Background())
	defer notificationCancel()

	var publisher bookings.Publisher = bookings.NoopPublisher{}
	notificationService, err := notifications.NewService(notificationCtx, cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize notification service", slog.Any("error", err))
		appLogger.Info("Continuing without notification service - booking events will not be published")
	} else {
		publisher = notificationService.Publisher()
		notificationService.Start(notificationCtx)
		appLogger.Info("Notification service initialized and started")

		// Ensure notification service is stopped on shutdown
		defer func() {
			appLogger.Info("Stopping notification service...")
			if err := notificationService.Stop(); err != nil {
				appLogger.Error("Error stopping notification service", slog.Any("error", err))
			}
		}()
	}

	inventory := liteapi.NewClient(liteapi.Config{
		BaseURL:      cfg.LiteAPI.BaseURL,
		APIKey:       cfg.LiteAPI.APIKey,
		Timeout:      cfg.LiteAPI.Timeout,
		MaxRetries:   cfg.LiteAPI.MaxRetries,
		RetryBackoff: cfg.LiteAPI.RetryBackoff,
	}, nil, appLogger)

	provider := auth.NewSupabaseProvider(auth.SupabaseConfig{
		URL:     cfg.Supabase.URL,
		AnonKey: cfg.Supabase.AnonKey,
		Timeout: cfg.Supabase.Timeout,
	}, nil)

	// Setup router with rate limiter
	appRouter := routes.NewRouter(cfg, db, inventory, provider, publisher, appLogger)
	router := setupRouter(appRouter, rateLimiter, appLogger)

	// Background jobs
	if cfg.Jobs.Enabled {
		jobs := bookings.NewJobProcessor(appRouter.BookingService(), &bookings.JobConfig{
			CompleteStaysInterval: cfg.Jobs.CompleteStaysInterval,
			BatchSize:             cfg.Jobs.CompleteStaysBatchSize,
		}, appLogger)
		jobs.Start(context.Background())
		defer jobs.Stop()
	}

	// HTTP server
	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info("🚀 Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("swagger", fmt.Sprintf("http://localhost:%s/swagger/index.html", cfg.Port)),
			slog.String("version", cfg.APIVersion),
			slog.Bool("rate_limiting", cfg.RateLimit.Enabled),
			slog.Bool("notifications", cfg.KafkaEnabled()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

func setupRouter(appRouter *routes.Router, rateLimiter *ratelimit.RateLimiter, appLogger *logger.Logger) *gin.Engine {
	engine := gin.New()

	// Request id first so every log line below can carry it
	engine.Use(middleware.RequestID(), middleware.RequestLogger(appLogger), middleware.Recovery(appLogger))

	// CORS configuration
	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true // allow every origin dynamically
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Global rate limiting middleware (applied to all routes)
	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter, appLogger))
		appLogger.Info("Rate limiting middleware applied to all routes")
	}

	appRouter.SetupRoutes(engine)

	return engine
}
