package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/amiyamandal-dev/topalbums/internal/api/handlers"
	"github.com/amiyamandal-dev/topalbums/internal/api/middleware"
	"github.com/amiyamandal-dev/topalbums/internal/auth"
	"github.com/amiyamandal-dev/topalbums/internal/config"
	"github.com/amiyamandal-dev/topalbums/internal/metrics"
	"github.com/amiyamandal-dev/topalbums/pkg/logger"
)

// Router sets up the HTTP router with all routes and middleware
type Router struct {
	engine        *gin.Engine
	albumHandler  *handlers.AlbumHandler
	syncHandler   *handlers.SyncHandler
	healthHandler *handlers.HealthHandler
	jwtManager    *auth.JWTManager
	gatherer      prometheus.Gatherer
	limiter       *middleware.RateLimiter
	cfg           *config.Config
	logger        *logger.Logger
}

// NewRouter creates a new router. A nil jwtManager leaves the mutating
// routes open; a nil gatherer disables /metrics.
func NewRouter(
	albumHandler *handlers.AlbumHandler,
	syncHandler *handlers.SyncHandler,
	healthHandler *handlers.HealthHandler,
	jwtManager *auth.JWTManager,
	gatherer prometheus.Gatherer,
	cfg *config.Config,
	logger *logger.Logger,
) *Router {
	return &Router{
		albumHandler:  albumHandler,
		syncHandler:   syncHandler,
		healthHandler: healthHandler,
		jwtManager:    jwtManager,
		gatherer:      gatherer,
		cfg:           cfg,
		logger:        logger,
	}
}

// Setup configures all routes and middleware
func (r *Router) Setup() *gin.Engine {
	// Set Gin mode
	gin.SetMode(r.cfg.Server.Mode)

	r.engine = gin.New()

	// Recovery middleware (global)
	r.engine.Use(gin.Recovery())

	// CORS middleware (global)
	r.engine.Use(middleware.CORSMiddleware(r.cfg.CORS.AllowedOrigins))

	// Logger middleware (global)
	r.engine.Use(middleware.LoggerMiddleware(r.logger))

	// Health check endpoints (no rate limiting, no auth)
	r.engine.GET("/health", r.healthHandler.Health)
	r.engine.GET("/health/ready", r.healthHandler.Readiness)
	r.engine.GET("/health/live", r.healthHandler.Liveness)

	if r.gatherer != nil {
		r.engine.GET("/metrics", gin.WrapH(metrics.Handler(r.gatherer)))
	}

	// API v1 routes (with rate limiting unless the rate is non-positive)
	v1 := r.engine.Group("/api/v1")
	r.stopLimiter()
	if rpm := r.cfg.RateLimit.RequestsPerMinute; rpm > 0 {
		r.limiter = middleware.NewRateLimiter(rpm, r.cfg.RateLimit.Burst)
		v1.Use(r.limiter.Middleware())
	}
	{
		// Album routes (public)
		albums := v1.Group("/albums")
		{
			albums.GET("", r.albumHandler.List)
			albums.GET("/search", r.albumHandler.Search)
			albums.GET("/:id", r.albumHandler.Get)
		}

		v1.GET("/feed", r.albumHandler.Feed)
		v1.GET("/sync/status", r.syncHandler.Status)

		// Protected routes
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(r.jwtManager))
		{
			protected.POST("/sync", r.syncHandler.Trigger)
			protected.DELETE("/feed", r.albumHandler.Clear)
		}
	}

	return r.engine
}

// Close releases background resources held by the routes
func (r *Router) Close() {
	r.stopLimiter()
}

func (r *Router) stopLimiter() {
	if r.limiter != nil {
		r.limiter.Stop()
		r.limiter = nil
	}
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	if r.engine == nil {
		return r.Setup()
	}
	return r.engine
}
