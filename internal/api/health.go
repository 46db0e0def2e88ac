package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"ai-dev-platform/backend/internal/chat"
	"ai-dev-platform/backend/internal/ws"
)

// Track server start time for uptime calculations
var startTime = time.Now()

// HealthController handles the banner and health endpoints
type HealthController struct {
	hub    *ws.Hub
	buffer *chat.ContextBuffer
}

// NewHealthController creates a new health controller
func NewHealthController(hub *ws.Hub, buffer *chat.ContextBuffer) *HealthController {
	return &HealthController{hub: hub, buffer: buffer}
}

// RegisterRoutes registers the routes for the health controller
func (c *HealthController) RegisterRoutes(router *gin.Engine) {
	router.GET("/", c.Root)
	router.GET("/health", c.Health)
}

// Root returns the API banner
func (c *HealthController) Root(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"message": "AI Dev Platform API is running"})
}

// Health reports liveness plus a few process stats
func (c *HealthController) Health(ctx *gin.Context) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	ctx.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": chat.Now(),
		"components": gin.H{
			"websocket": gin.H{
				"status":             "ok",
				"active_connections": c.hub.ConnectionCount(),
			},
			"context_buffer": gin.H{
				"status":   "ok",
				"messages": c.buffer.Len(),
			},
		},
		"uptime_seconds": int(time.Since(startTime).Seconds()),
		"memory": gin.H{
			"alloc_mb":  memStats.Alloc / 1024 / 1024,
			"gc_cycles": memStats.NumGC,
		},
	})
}
