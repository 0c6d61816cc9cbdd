// Package processor implements the provider-agnostic completion operation.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/spf13/cast"

	"github.com/llmgrid/gemini-bridge/internal/adapter"
	"github.com/llmgrid/gemini-bridge/internal/config"
	"github.com/llmgrid/gemini-bridge/internal/domain"
	"github.com/llmgrid/gemini-bridge/internal/security"
)

// Processor executes one completion per invocation: normalize, validate,
// one blocking provider call, normalize the response. It holds no mutable
// state, so a single Processor may serve concurrent invocations without
// locking.
type Processor struct {
	cfg        *config.Configuration
	logger     *slog.Logger
	baseURL    string
	httpClient *http.Client
}

// ProcessorOption is a functional option for configuring Processor.
type ProcessorOption func(*Processor)

// WithLogger sets the diagnostics sink. Secrets are expected to be redacted
// by the sink itself (see security.NewRedactedHandler).
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithBaseURL overrides the upstream endpoint. Used by tests to point at a
// mock server.
func WithBaseURL(url string) ProcessorOption {
	return func(p *Processor) {
		p.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client for upstream calls.
func WithHTTPClient(client *http.Client) ProcessorOption {
	return func(p *Processor) {
		p.httpClient = client
	}
}

// New creates a Processor bound to the given configuration.
func New(cfg *config.Configuration, opts ...ProcessorOption) *Processor {
	p := &Processor{
		cfg:     cfg,
		logger:  slog.Default(),
		baseURL: cfg.Gemini.BaseURL,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Complete runs the full pipeline for one input bag and always returns a
// well-formed envelope. Nothing escapes as a fault: the outermost recover
// converts even defects in the pipeline itself into an unexpected_error
// envelope.
func (p *Processor) Complete(ctx context.Context, input map[string]any) (env domain.ResultEnvelope) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("completion panic",
				slog.String("panic", fmt.Sprint(r)),
			)
			env = domain.Failf(domain.ErrUnexpected, "Unexpected processing error", map[string]any{
				"error": fmt.Sprint(r),
				"type":  fmt.Sprintf("%T", r),
				"trace": string(debug.Stack()),
			})
		}
	}()

	selectedClient := cast.ToString(input["selected_client"])

	p.logger.Debug("raw input received",
		slog.String("selected_client", selectedClient),
		slog.Any("input", sanitizeBag(input)),
	)

	params, detail := parseParams(p.cfg, input)
	if detail != nil {
		p.logger.Info("request rejected",
			slog.String("kind", string(detail.Kind)),
			slog.String("message", detail.Message),
		)
		return domain.Fail(detail)
	}

	p.logger.Debug("parsed params",
		slog.String("api_key", security.KeyFingerprint(params.APIKey)),
		slog.String("model", params.EffectiveModel()),
		slog.String("input_type", string(params.InputType)),
		slog.Int("history_turns", len(params.ChatHistory)),
		slog.Int("tools", len(params.Tools)),
		slog.Float64("temperature", params.Temperature),
		slog.Int("max_tokens", params.MaxTokens),
	)

	payload := adapter.BuildGenerateRequest(params)

	p.logger.Debug("outbound payload built",
		slog.Int("content_turns", len(payload.Contents)),
		slog.Bool("system_instruction", payload.SystemInstruction != nil),
		slog.Bool("tools_attached", len(payload.Tools) > 0),
	)

	client := adapter.NewClient(params.APIKey, p.clientOptions()...)

	raw, err := client.GenerateContent(ctx, params.EffectiveModel(), payload)
	if err != nil {
		var terr *adapter.TransportError
		if errors.As(err, &terr) {
			p.logger.Warn("upstream call failed",
				slog.Int("status_code", terr.StatusCode),
				slog.String("error", terr.Error()),
			)
			return domain.Fail(terr.Detail())
		}

		// Request construction failures and the like: defects, not transport.
		p.logger.Error("completion failed before transport", slog.String("error", err.Error()))
		return domain.Failf(domain.ErrUnexpected, "Unexpected processing error", map[string]any{
			"error": err.Error(),
			"type":  fmt.Sprintf("%T", err),
		})
	}

	p.logger.Debug("raw provider response", slog.String("body", string(raw)))

	data, detail := adapter.NormalizeResponse(raw)
	if detail != nil {
		p.logger.Info("provider returned no usable candidates",
			slog.String("kind", string(detail.Kind)),
		)
		return domain.Fail(detail)
	}

	p.logger.Info("completion succeeded",
		slog.String("model", params.EffectiveModel()),
		slog.String("output_type", data.OutputType),
		slog.Int("total_tokens", data.TotalTokens),
	)

	return domain.Succeed(data)
}

// clientOptions assembles the upstream client options from configuration
// and test overrides.
func (p *Processor) clientOptions() []adapter.Option {
	opts := []adapter.Option{
		adapter.WithBaseURL(p.baseURL),
		adapter.WithTimeout(time.Duration(p.cfg.Gemini.TimeoutSeconds) * time.Second),
	}
	if p.httpClient != nil {
		opts = append(opts, adapter.WithHTTPClient(p.httpClient))
	}
	return opts
}

// sanitizeBag returns a copy of an input bag safe for diagnostics: any
// api_key value, at the root or inside client_details, is reduced to its
// presence/length fingerprint before it can reach the log sink.
func sanitizeBag(input map[string]any) map[string]any {
	out := make(map[string]any, len(input))
	for k, v := range input {
		switch {
		case k == "api_key":
			out[k] = security.KeyFingerprint(cast.ToString(v))
		case k == "client_details":
			if nested := cast.ToStringMap(v); len(nested) > 0 {
				out[k] = sanitizeBag(nested)
			} else {
				out[k] = v
			}
		default:
			out[k] = v
		}
	}
	return out
}
