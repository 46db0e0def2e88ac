package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-dev-platform/backend/pkg/config"
	"ai-dev-platform/backend/pkg/di"
	"ai-dev-platform/backend/pkg/logger"
	"ai-dev-platform/backend/pkg/router"
	"ai-dev-platform/backend/shared/observability"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables; missing .env is fine, configuration
	// falls back to process env and defaults
	_ = godotenv.Load()

	cfg := config.New()

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application", "env", cfg.Server.Env)

	// Observability: traces to stdout, metrics on :2112/metrics
	shutdownTracing := observability.SetupTracing("ai-dev-platform")
	defer shutdownTracing()
	observability.SetupPrometheusMetrics()

	// Initialize dependency injection container
	container, err := di.New(cfg, log)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}

	if !container.Agent.Configured() {
		log.Warn("OpenAI API key not configured; assistant replies are disabled")
	}

	// Initialize and setup router
	r := router.New(container)

	// Add OpenAPI validation if schema file is available
	schemaPath := os.Getenv("OPENAPI_SCHEMA_PATH")
	if schemaPath != "" {
		r.AddOpenAPIValidation(schemaPath)
	}

	r.SetupRoutes()

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r.Engine,
	}

	// Start the server in a goroutine
	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal
	<-quit
	log.Info("Shutting down server...")

	// Create a deadline to wait for
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server
	if err := srv.Shutdown(ctx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	log.Info("Server exited gracefully")
}
