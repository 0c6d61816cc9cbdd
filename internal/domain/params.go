// Package domain contains the core business entities and value objects.
package domain

// InputType selects which model family serves the request.
type InputType string

const (
	// InputTypeText routes the request to the chat model.
	InputTypeText InputType = "text"

	// InputTypeImage routes the request to the vision model.
	InputTypeImage InputType = "image"
)

// CompletionParams is the fully normalized form of one completion request.
// It is constructed once per call by the request normalizer and never
// mutated afterwards. There is no cross-call state: every invocation gets
// a fresh value that is discarded when the envelope is returned.
type CompletionParams struct {
	// Input is the literal text of the final user turn.
	Input string `json:"input" mapstructure:"input"`

	// Images holds image payloads supplied by the caller. They influence
	// model selection only through InputType; the bridge does not attach
	// them to the outbound payload.
	Images []any `json:"images_arr" mapstructure:"images_arr"`

	// InputType tags the request as text or image.
	InputType InputType `json:"input_type" mapstructure:"input_type"`

	// IsStream is accepted from callers but streaming is not implemented.
	IsStream bool `json:"is_stream" mapstructure:"is_stream"`

	// Prompt doubles as the final user turn when Input is empty and as the
	// system instruction when both are set.
	Prompt string `json:"prompt" mapstructure:"prompt"`

	// APIKey is the resolved provider credential. Never logged raw.
	APIKey string `json:"-" mapstructure:"-"`

	// ChatModel serves text requests.
	ChatModel string `json:"chat_model" mapstructure:"chat_model"`

	// VisionModel serves image requests.
	VisionModel string `json:"vision_model" mapstructure:"vision_model"`

	// SpeechModel is carried for wire compatibility; no speech path exists.
	SpeechModel string `json:"speech_model" mapstructure:"speech_model"`

	// ChatHistory is the ordered prior conversation.
	ChatHistory []ChatMessage `json:"chat_history" mapstructure:"chat_history"`

	// Tools are the external tool definitions offered to the model.
	Tools []Tool `json:"tools" mapstructure:"tools"`

	// Temperature controls sampling randomness.
	Temperature float64 `json:"temperature" mapstructure:"temperature"`

	// MaxTokens caps the generated output length.
	MaxTokens int `json:"max_tokens" mapstructure:"max_tokens"`

	// ForcedToolCalls is carried for wire compatibility; it is not sent
	// to the provider.
	ForcedToolCalls any `json:"forced_tool_calls" mapstructure:"forced_tool_calls"`

	// ToolChoice is the tool-selection policy requested by the caller.
	ToolChoice string `json:"tool_choice" mapstructure:"tool_choice"`
}

// EffectiveModel returns the model that will serve this request:
// the vision model for image input, the chat model otherwise.
func (p *CompletionParams) EffectiveModel() string {
	if p.InputType == InputTypeImage {
		return p.VisionModel
	}
	return p.ChatModel
}

// UserText returns the text of the final user turn: Input when set,
// otherwise Prompt.
func (p *CompletionParams) UserText() string {
	if p.Input != "" {
		return p.Input
	}
	return p.Prompt
}

// Tool is an external tool definition in the caller's (OpenAI-style)
// shape. The adapter reshapes it into a Gemini function declaration.
type Tool struct {
	Function ToolFunction `json:"function" mapstructure:"function"`
}

// ToolFunction describes one callable function.
type ToolFunction struct {
	Name        string         `json:"name" mapstructure:"name"`
	Description string         `json:"description" mapstructure:"description"`
	Parameters  ToolParameters `json:"parameters" mapstructure:"parameters"`
}

// ToolParameters is the JSON-schema-like parameter block of a function.
type ToolParameters struct {
	Type       string                  `json:"type" mapstructure:"type"`
	Properties map[string]ToolProperty `json:"properties" mapstructure:"properties"`

	// Required lists the property names the model must supply.
	// Absence means nothing is required; required-ness is always explicit.
	Required []string `json:"required" mapstructure:"required"`
}

// ToolProperty describes a single function parameter.
type ToolProperty struct {
	Type        string         `json:"type" mapstructure:"type"`
	Items       map[string]any `json:"items" mapstructure:"items"`
	Default     any            `json:"default" mapstructure:"default"`
	Description string         `json:"description" mapstructure:"description"`
}
