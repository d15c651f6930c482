// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	_ "travelenda/docs"
	"travelenda/internal/auth"
	"travelenda/internal/bookings"
	"travelenda/internal/checkout"
	"travelenda/internal/destinations"
	"travelenda/internal/hotels"
	"travelenda/internal/liteapi"
	"travelenda/internal/pricing"
	"travelenda/internal/search"
	"travelenda/internal/shared/config"
	"travelenda/internal/shared/database"
	"travelenda/internal/shared/middleware"
	"travelenda/pkg/cache"
	"travelenda/pkg/logger"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	inventory liteapi.Client
	auth      auth.Provider
	publisher bookings.Publisher
	log       *logger.Logger

	cache         cache.Service
	builder       *search.Builder
	authenticator *middleware.Authenticator

	// For dependency injection
	hotelService   hotels.Service
	bookingService bookings.Service
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, inventory liteapi.Client, provider auth.Provider, publisher bookings.Publisher, log *logger.Logger) *Router {
	if log == nil {
		log = logger.GetDefault()
	}
	if publisher == nil {
		publisher = bookings.NoopPublisher{}
	}
	return &Router{
		config:    cfg,
		db:        db,
		inventory: inventory,
		auth:      provider,
		publisher: publisher,
		log:       log,
		cache:     cache.NewService(db.GetRedis()),
		builder:   search.NewBuilder(cfg.Pricing.DefaultCurrency, time.Now),
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		// Auth first: every other group reads the session it sets up
		r.setupAuthRoutes(api)

		r.setupSearchRoutes(api)
		r.setupDestinationRoutes(api)

		// Hotels before checkout, which prices rates through the hotel service
		r.setupHotelRoutes(api)

		// Bookings before checkout, which submits through the booking service
		r.setupBookingRoutes(api)
		r.setupCheckoutRoutes(api)
	}
}

// BookingService exposes the booking service for background jobs
func (r *Router) BookingService() bookings.Service {
	return r.bookingService
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		// Perform health checks
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "travelenda-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "travelenda-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "operational",
			"api_version":   r.config.APIVersion,
			"timestamp":     time.Now(),
			"notifications": r.config.KafkaEnabled(),
		})
	})
}

// setupAuthRoutes configures authentication routes
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	// Initialize auth dependencies
	authRepo := auth.NewRepository(r.db.GetPostgreSQL())
	authService := auth.NewService(r.auth, authRepo, r.cache, r.log)
	authController := auth.NewController(authService)

	// Profiles are attached to the session through an adapter to keep middleware independent of auth
	r.authenticator = middleware.NewAuthenticator(r.config.Supabase.JWTSecret, auth.NewSessionProfileAdapter(authService), r.log)

	// Setup auth routes
	auth.SetupAuthRoutes(rg, authController, r.authenticator)
}

// setupSearchRoutes configures search form validation routes
func (r *Router) setupSearchRoutes(rg *gin.RouterGroup) {
	search.SetupSearchRoutes(rg, search.NewController(r.builder))
}

// setupDestinationRoutes configures destination autocomplete routes
func (r *Router) setupDestinationRoutes(rg *gin.RouterGroup) {
	destinationService := destinations.NewService(r.inventory, r.cache, r.log)
	destinations.SetupDestinationRoutes(rg, destinations.NewController(destinationService))
}

// setupHotelRoutes configures hotel browsing routes
func (r *Router) setupHotelRoutes(rg *gin.RouterGroup) {
	rules := pricing.Rules{TaxRate: r.config.Pricing.TaxRate, FlatFee: r.config.Pricing.FlatFee}
	r.hotelService = hotels.NewService(r.inventory, r.cache, rules, r.log)

	hotels.SetupHotelRoutes(rg, hotels.NewController(r.hotelService, r.builder))
}

// setupBookingRoutes configures booking management routes
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
	r.bookingService = bookings.NewService(bookingRepo, r.inventory, r.cache, r.publisher, r.log)

	bookingController := bookings.NewController(r.bookingService, r.config.PublicBaseURL)
	bookings.SetupBookingRoutes(rg, bookingController, r.authenticator)
}

// setupCheckoutRoutes configures the checkout flow
func (r *Router) setupCheckoutRoutes(rg *gin.RouterGroup) {
	store := checkout.NewRedisStore(r.db.GetRedis(), r.config.Checkout.SessionTTL, r.config.Checkout.LockTTL)
	checkoutService := checkout.NewService(store, r.hotelService, r.bookingService, checkout.Config{
		SessionTTL:    r.config.Checkout.SessionTTL,
		SubmitTimeout: r.config.Checkout.SubmitTimeout,
	}, r.log)

	checkoutController := checkout.NewController(checkoutService, r.builder, r.config.Checkout.SessionTTL)
	checkout.SetupCheckoutRoutes(rg, checkoutController, r.authenticator)
}
