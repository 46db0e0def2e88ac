package router

import (
	"strings"

	"ai-dev-platform/backend/internal/api"
	"ai-dev-platform/backend/internal/ws"
	"ai-dev-platform/backend/pkg/config"
	"ai-dev-platform/backend/pkg/di"
	"ai-dev-platform/backend/pkg/errors"
	"ai-dev-platform/backend/pkg/logger"
	"ai-dev-platform/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Hub       *ws.Hub
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)

	cfg := container.Config

	// Configure Gin mode based on environment
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Use the logger middleware first to capture all requests
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(middleware.RequestIDMiddleware())

	// Add custom error handler middleware
	engine.Use(errors.ErrorHandler())

	// Add custom recovery middleware with structured logging instead of default
	engine.Use(errors.RecoveryWithLogger())

	// CORS for the development frontend
	engine.Use(corsMiddleware(cfg.Security.AllowedOrigins))

	// Apply rate limiting to all routes
	rateLimiterOpts := middleware.DefaultRateLimiterOptions()
	rateLimiterOpts.Limit = rate.Limit(cfg.Security.RateLimit)
	rateLimiterOpts.Burst = cfg.Security.RateLimitBurst
	rateLimiter := middleware.NewRateLimiter(container.Logger, rateLimiterOpts)
	engine.Use(rateLimiter.Middleware())

	// Start the hub
	go container.Hub.Run()

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Hub:       container.Hub,
		Config:    cfg,
	}
}

// SetupRoutes registers all HTTP and websocket routes
func (r *Router) SetupRoutes() {
	healthController := api.NewHealthController(r.Hub, r.Container.Buffer)
	healthController.RegisterRoutes(r.Engine)

	agentController := api.NewAgentController(r.Container.Agent, r.Logger)
	agentController.RegisterRoutes(r.Engine)

	// WebSocket route
	r.Engine.GET("/ws", func(c *gin.Context) {
		ws.ServeWs(r.Hub, c)
	})
}

// corsMiddleware allows the configured development origins
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && originAllowed(origin, allowedOrigins) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Upgrade, Connection, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Upgrade, Connection")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}
