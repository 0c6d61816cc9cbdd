// Package main is the entry point for the gemini-bridge server.
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

	"github.com/gin-gonic/gin"

	"github.com/llmgrid/gemini-bridge/internal/config"
	"github.com/llmgrid/gemini-bridge/internal/handler"
	"github.com/llmgrid/gemini-bridge/internal/processor"
	"github.com/llmgrid/gemini-bridge/internal/security"
	"github.com/llmgrid/gemini-bridge/internal/ui"
)

func main() {
	// =========================================================================
	// 1. Setup structured logger (JSON format, secrets redacted)
	// =========================================================================
	logger := setupLogger()

	logger.Info("starting gemini-bridge")

	// =========================================================================
	// 2. Load configuration (Singleton)
	// =========================================================================
	cfg, err := config.GetConfig()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		slog.String("host", cfg.Server.Host),
		slog.Int("port", cfg.Server.Port),
		slog.String("default_key", security.KeyFingerprint(cfg.Gemini.APIKey)),
		slog.Int("allowed_models", len(cfg.Gemini.AllowedModels)),
	)

	if !cfg.HasDefaultKey() {
		logger.Warn("no default credential configured, requests must carry their own api_key",
			slog.String("env_var", config.EnvAPIKey),
		)
	}

	// =========================================================================
	// 3. Create Processor and BridgeHandler
	// =========================================================================
	proc := processor.New(cfg, processor.WithLogger(logger))

	bridgeHandler := handler.NewBridgeHandler(proc, cfg,
		handler.WithLogger(logger),
	)

	// =========================================================================
	// 4. Setup Gin router with middleware
	// =========================================================================
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Apply middleware
	router.Use(handler.RecoveryMiddleware(logger))
	router.Use(handler.CORSMiddleware())
	router.Use(handler.StripAuthHeadersMiddleware())
	router.Use(handler.LoggingMiddleware(logger))

	// Register routes
	router.POST("/v1/complete", bridgeHandler.HandleComplete)
	router.GET("/v1/models", bridgeHandler.HandleModels)
	router.GET("/v1/usage", bridgeHandler.HandleUsage)
	router.GET("/health", bridgeHandler.HandleHealth)

	// Also support without /v1 prefix for compatibility
	router.POST("/complete", bridgeHandler.HandleComplete)

	// =========================================================================
	// 5. Start HTTP server with graceful shutdown
	// =========================================================================
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			slog.String("address", addr),
		)
		ui.PrintBanner()
		ui.PrintStartupInfo(cfg.Server.Host, cfg.Server.Port, cfg.HasDefaultKey(), cfg.Gemini.AllowedModels)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// =========================================================================
	// 6. Graceful shutdown on SIGTERM/SIGINT
	// =========================================================================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	ui.PrintShutdown()

	// Create shutdown context with timeout
	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
	ui.PrintGoodbye()
}

// setupLogger creates a structured JSON logger with the redaction wrapper.
// Every record passes through security.RedactedHandler so a credential can
// never reach stdout even from a debug line.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo

	// Check environment variable for log level
	if envLevel := os.Getenv("GEMINI_BRIDGE_LOGGING_LEVEL"); envLevel != "" {
		switch envLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// JSON format for structured logging, wrapped for secret redaction
	handler := security.NewRedactedHandler(slog.NewJSONHandler(os.Stdout, opts))
	logger := slog.New(handler)

	// Set as default logger
	slog.SetDefault(logger)

	return logger
}
