// Package processor implements the provider-agnostic completion operation:
// normalize the loosely-typed input bag, validate it, call Gemini once, and
// normalize the outcome into a result envelope.
package processor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"

	"github.com/llmgrid/gemini-bridge/internal/config"
	"github.com/llmgrid/gemini-bridge/internal/domain"
)

// resolveSource picks the effective parameter bag: client_details when
// present and non-empty, the root bag otherwise.
func resolveSource(input map[string]any) map[string]any {
	details := cast.ToStringMap(input["client_details"])
	if len(details) > 0 {
		return details
	}
	return input
}

// resolveAPIKey applies the credential precedence chain: the parameter
// source, then the root bag, then the configured default. There is no
// hardcoded fallback; with nothing configured the chain resolves empty
// and validation fails closed.
func resolveAPIKey(source, root map[string]any, cfg *config.Configuration) string {
	if key := cast.ToString(source["api_key"]); strings.TrimSpace(key) != "" {
		return key
	}
	if key := cast.ToString(root["api_key"]); strings.TrimSpace(key) != "" {
		return key
	}
	return cfg.Gemini.APIKey
}

// parseParams normalizes the input bag into CompletionParams, applying the
// configured defaults, then validates it. It returns either valid params or
// the structured validation error; it never performs I/O.
func parseParams(cfg *config.Configuration, input map[string]any) (*domain.CompletionParams, *domain.ErrorDetail) {
	source := resolveSource(input)

	params := &domain.CompletionParams{
		Input:           cast.ToString(source["input"]),
		Images:          cast.ToSlice(source["images_arr"]),
		InputType:       domain.InputType(stringOr(source, "input_type", string(domain.InputTypeText))),
		IsStream:        cast.ToBool(source["is_stream"]),
		Prompt:          cast.ToString(source["prompt"]),
		APIKey:          resolveAPIKey(source, input, cfg),
		ChatModel:       stringOr(source, "chat_model", cfg.Defaults.ChatModel),
		VisionModel:     stringOr(source, "vision_model", cfg.Defaults.VisionModel),
		SpeechModel:     cast.ToString(source["speech_model"]),
		Temperature:     floatOr(source, "temperature", cfg.Defaults.Temperature),
		MaxTokens:       maxTokensOr(source, cfg.Defaults.MaxTokens),
		ForcedToolCalls: source["forced_tool_calls"],
		ToolChoice:      stringOr(source, "tool_choice", cfg.Defaults.ToolChoice),
	}

	if raw, ok := source["chat_history"]; ok && raw != nil {
		if err := mapstructure.Decode(raw, &params.ChatHistory); err != nil {
			return nil, decodeError("chat_history", err)
		}
	}

	if raw, ok := source["tools"]; ok && raw != nil {
		if err := mapstructure.Decode(raw, &params.Tools); err != nil {
			return nil, decodeError("tools", err)
		}
	}

	if detail := validate(cfg, params, input, source); detail != nil {
		return nil, detail
	}

	return params, nil
}

// validate enforces the request invariants in order: a usable credential,
// a non-empty final user turn, and an allow-listed model. The model check
// runs here, before any network call is attempted.
func validate(cfg *config.Configuration, params *domain.CompletionParams, input, source map[string]any) *domain.ErrorDetail {
	if strings.TrimSpace(params.APIKey) == "" {
		return &domain.ErrorDetail{
			Kind:    domain.ErrMissingAPIKey,
			Message: "API key required",
			Details: map[string]any{
				"field":                        "api_key",
				"location":                     "client_details or root level",
				"solution":                     fmt.Sprintf("provide api_key in the request or set %s", config.EnvAPIKey),
				"received_data_keys":           sortedKeys(input),
				"received_client_details_keys": sortedKeys(cast.ToStringMap(input["client_details"])),
			},
		}
	}

	if strings.TrimSpace(params.UserText()) == "" {
		return &domain.ErrorDetail{
			Kind:    domain.ErrMissingInput,
			Message: "Either prompt or input must be provided and non-empty",
			Details: map[string]any{
				"fields":          []string{"prompt", "input"},
				"received_input":  params.Input,
				"received_prompt": params.Prompt,
			},
		}
	}

	if model := params.EffectiveModel(); !cfg.IsModelAllowed(model) {
		return &domain.ErrorDetail{
			Kind:    domain.ErrUnsupportedModel,
			Message: "Unsupported model",
			Details: map[string]any{
				"received":     model,
				"valid_models": cfg.Gemini.AllowedModels,
			},
		}
	}

	return nil
}

// stringOr reads a string field, falling back to def when absent or empty.
func stringOr(source map[string]any, key, def string) string {
	if v := cast.ToString(source[key]); v != "" {
		return v
	}
	return def
}

// floatOr reads a float field, falling back to def only when the key is
// absent. An explicit zero is respected.
func floatOr(source map[string]any, key string, def float64) float64 {
	if raw, ok := source[key]; ok && raw != nil {
		return cast.ToFloat64(raw)
	}
	return def
}

// maxTokensOr reads the output token cap, accepting both the max_tokens and
// max_token spellings with the former preferred.
func maxTokensOr(source map[string]any, def int) int {
	if v := cast.ToInt(source["max_tokens"]); v > 0 {
		return v
	}
	if v := cast.ToInt(source["max_token"]); v > 0 {
		return v
	}
	return def
}

// decodeError reports a sub-record that could not be decoded.
func decodeError(field string, err error) *domain.ErrorDetail {
	return &domain.ErrorDetail{
		Kind:    domain.ErrUnexpected,
		Message: fmt.Sprintf("malformed %s in request", field),
		Details: map[string]any{
			"field": field,
			"error": err.Error(),
		},
	}
}

// sortedKeys lists the keys of a bag for error details, in stable order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
