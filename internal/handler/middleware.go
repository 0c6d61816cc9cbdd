// Package handler provides the HTTP surface of the bridge.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/llmgrid/gemini-bridge/internal/domain"
)

// CORSMiddleware returns a middleware that enables permissive CORS.
// This allows web applications to call the API directly.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// LoggingMiddleware returns a middleware that logs request details in JSON format.
// It tracks the envelope outcome of each completion for debugging.
func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		// Process request
		c.Next()

		latency := time.Since(start)

		selectedClient, _ := c.Get("selected_client")
		clientName, _ := selectedClient.(string)

		envStatus, _ := c.Get("envelope_status")
		succeeded, _ := envStatus.(bool)

		errorKind, _ := c.Get("error_kind")
		kind, _ := errorKind.(string)

		logger.Info("request completed",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", latency),
			slog.String("client_ip", c.ClientIP()),
			slog.String("selected_client", clientName),
			slog.Bool("envelope_status", succeeded),
			slog.String("error_kind", kind),
		)
	}
}

// RecoveryMiddleware returns a middleware that recovers from panics.
// It logs the error and returns a 500 response carrying an envelope, so
// even a defect in the HTTP layer keeps the return contract.
func RecoveryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					slog.Any("error", err),
					slog.String("path", c.Request.URL.Path),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError,
					domain.Failf(domain.ErrUnexpected, "internal server error", nil))
			}
		}()

		c.Next()
	}
}

// StripAuthHeadersMiddleware removes original Authorization headers.
// Credentials travel inside the input bag, never as headers; anything a
// client sends there is dropped before handlers run.
func StripAuthHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth := c.GetHeader("Authorization"); auth != "" {
			c.Request.Header.Del("Authorization")
			c.Set("original_auth", "***STRIPPED***")
		}

		c.Next()
	}
}
