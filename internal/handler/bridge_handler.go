// Package handler provides the HTTP surface of the bridge.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/llmgrid/gemini-bridge/internal/config"
	"github.com/llmgrid/gemini-bridge/internal/domain"
	"github.com/llmgrid/gemini-bridge/internal/processor"
)

// BridgeHandler exposes the completion operation over HTTP.
// The envelope is the wire contract: success and failure both travel as
// HTTP 200 with Status inside the body, so the dispatch layer never has to
// reconcile two error channels.
type BridgeHandler struct {
	processor *processor.Processor
	cfg       *config.Configuration
	logger    *slog.Logger
}

// BridgeHandlerOption is a functional option for configuring BridgeHandler.
type BridgeHandlerOption func(*BridgeHandler)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) BridgeHandlerOption {
	return func(h *BridgeHandler) {
		h.logger = logger
	}
}

// NewBridgeHandler creates a new BridgeHandler.
func NewBridgeHandler(proc *processor.Processor, cfg *config.Configuration, opts ...BridgeHandlerOption) *BridgeHandler {
	h := &BridgeHandler{
		processor: proc,
		cfg:       cfg,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// HandleComplete handles POST /v1/complete.
// The body is the loosely-typed input bag; the response is always a
// well-formed result envelope.
func (h *BridgeHandler) HandleComplete(c *gin.Context) {
	var input map[string]any
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, domain.Failf(domain.ErrUnexpected,
			"invalid request body", map[string]any{"error": err.Error()}))
		return
	}

	env := h.processor.Complete(c.Request.Context(), input)

	// Metadata for the logging middleware.
	c.Set("selected_client", cast.ToString(input["selected_client"]))
	c.Set("envelope_status", env.Status)
	if env.Error != nil {
		c.Set("error_kind", string(env.Error.Kind))
	}

	if env.Status && env.Data != nil {
		RecordUsage(env.Data)
		c.Set("output_type", env.Data.OutputType)
	}

	c.JSON(http.StatusOK, env)
}

// HandleModels handles GET /v1/models.
// Returns the configured model allow-list.
func (h *BridgeHandler) HandleModels(c *gin.Context) {
	models := make([]gin.H, 0, len(h.cfg.Gemini.AllowedModels))
	for _, m := range h.cfg.Gemini.AllowedModels {
		models = append(models, gin.H{
			"id":       m,
			"object":   "model",
			"owned_by": "google",
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   models,
	})
}

// HandleUsage handles GET /v1/usage.
// Returns cumulative token accounting since process start.
func (h *BridgeHandler) HandleUsage(c *gin.Context) {
	c.JSON(http.StatusOK, UsageStats())
}

// HandleHealth handles GET /health.
// Returns server health status and usage counters.
func (h *BridgeHandler) HandleHealth(c *gin.Context) {
	status := "healthy"
	if !h.cfg.HasDefaultKey() {
		// Still serving: callers may supply their own keys per request.
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":             status,
		"default_key":        h.cfg.HasDefaultKey(),
		"allowed_models":     h.cfg.Gemini.AllowedModels,
		"completions_served": UsageStats().TotalCalls,
	})
}
