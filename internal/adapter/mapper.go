// Package adapter provides the integration with the Gemini generateContent API.
package adapter

import (
	"encoding/json"
	"strings"

	"github.com/llmgrid/gemini-bridge/internal/domain"
)

// BuildGenerateRequest maps validated completion parameters onto the Gemini
// wire format.
//
// History turns keep conversation order; roles outside {user, model} are
// dropped silently rather than rejected. The triggering text is always
// appended as the final user turn, so the provider sees it last regardless
// of history content. A non-empty prompt additionally becomes the system
// instruction, even when it also served as the user text.
func BuildGenerateRequest(params *domain.CompletionParams) GenerateRequest {
	contents := make([]Content, 0, len(params.ChatHistory)+1)

	for _, msg := range params.ChatHistory {
		if !msg.Role.IsForwardable() {
			continue
		}
		contents = append(contents, Content{
			Role:  string(msg.Role),
			Parts: []Part{{Text: msg.Content}},
		})
	}

	contents = append(contents, Content{
		Role:  string(domain.RoleUser),
		Parts: []Part{{Text: params.UserText()}},
	})

	req := GenerateRequest{
		Contents: contents,
		GenerationConfig: GenerationConfig{
			Temperature:     params.Temperature,
			MaxOutputTokens: params.MaxTokens,
		},
	}

	if strings.TrimSpace(params.Prompt) != "" {
		req.SystemInstruction = &Content{
			Parts: []Part{{Text: params.Prompt}},
		}
	}

	// An absent tools field and an empty tools array mean different things
	// to the provider; emit nothing when there are no declarations.
	if len(params.Tools) > 0 {
		declarations := make([]FunctionDeclaration, 0, len(params.Tools))
		for _, tool := range params.Tools {
			declarations = append(declarations, buildDeclaration(tool))
		}
		req.Tools = []ToolDeclarations{{FunctionDeclarations: declarations}}
	}

	return req
}

// buildDeclaration reshapes one caller-supplied tool into a Gemini function
// declaration.
func buildDeclaration(tool domain.Tool) FunctionDeclaration {
	fn := tool.Function

	paramType := fn.Parameters.Type
	if paramType == "" {
		paramType = "object"
	}

	props := make(map[string]FunctionProperty, len(fn.Parameters.Properties))
	for name, prop := range fn.Parameters.Properties {
		props[name] = buildProperty(prop)
	}

	// Required-ness must be explicit: no list means nothing is required.
	required := fn.Parameters.Required
	if required == nil {
		required = []string{}
	}

	return FunctionDeclaration{
		Name:        fn.Name,
		Description: fn.Description,
		Parameters: FunctionParameters{
			Type:       paramType,
			Properties: props,
			Required:   required,
		},
	}
}

// buildProperty reshapes one parameter property. Array-typed properties wrap
// their element type (defaulting to string); everything else passes type,
// default and description through verbatim.
func buildProperty(prop domain.ToolProperty) FunctionProperty {
	if prop.Type == "array" {
		itemType := "string"
		if raw, ok := prop.Items["type"].(string); ok && raw != "" {
			itemType = raw
		}

		def := prop.Default
		if def == nil {
			def = []any{}
		}

		return FunctionProperty{
			Type:        "array",
			Items:       &PropertyItems{Type: itemType},
			Default:     def,
			Description: prop.Description,
		}
	}

	propType := prop.Type
	if propType == "" {
		propType = "string"
	}

	def := prop.Default
	if def == nil {
		def = ""
	}

	return FunctionProperty{
		Type:        propType,
		Default:     def,
		Description: prop.Description,
	}
}

// NormalizeResponse maps a raw generateContent response body into the
// uniform success payload, or into a structured error when the provider
// declined the request or the body cannot be decoded.
//
// Only the first candidate is considered. Text parts are concatenated in
// order into a single message. When several parts carry a function call,
// the LAST one wins as the call-in-progress indicator; earlier calls are
// dropped from that signal. That mirrors the reference implementation and
// is kept deliberately until provider semantics for multi-call candidates
// are confirmed.
func NormalizeResponse(raw []byte) (*domain.SuccessPayload, *domain.ErrorDetail) {
	var resp GenerateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.ErrorDetail{
			Kind:    domain.ErrUnexpected,
			Message: "failed to decode provider response",
			Details: map[string]any{
				"error":    err.Error(),
				"response": excerpt(raw),
			},
		}
	}

	// The raw response rides along in the success payload for the caller.
	var rawMap map[string]any
	if err := json.Unmarshal(raw, &rawMap); err != nil {
		rawMap = map[string]any{}
	}

	if len(resp.Candidates) == 0 {
		return nil, &domain.ErrorDetail{
			Kind:    domain.ErrNoCandidates,
			Message: "No candidates in response",
			Details: map[string]any{"response": rawMap},
		}
	}

	var messageContent strings.Builder
	var toolCall *FunctionCall

	for i := range resp.Candidates[0].Content.Parts {
		part := &resp.Candidates[0].Content.Parts[i]
		if part.Text != nil {
			messageContent.WriteString(*part.Text)
		}
		if part.FunctionCall != nil {
			toolCall = part.FunctionCall
		}
	}

	outputType := domain.OutputTypeText
	if toolCall != nil {
		outputType = domain.OutputTypeToolCall
	}

	// Usage metrics default to zero when the provider omits them.
	var usage UsageMetadata
	if resp.UsageMetadata != nil {
		usage = *resp.UsageMetadata
	}

	return &domain.SuccessPayload{
		TotalLLMCalls:     1,
		TotalTokens:       usage.TotalTokenCount,
		TotalInputTokens:  usage.PromptTokenCount,
		TotalOutputTokens: usage.CandidatesTokenCount,
		FinalLLMResponse:  rawMap,
		LLMResponses:      []map[string]any{rawMap},
		Messages:          []string{messageContent.String()},
		OutputType:        outputType,
	}, nil
}
