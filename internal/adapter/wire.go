// Package adapter provides the integration with the Gemini generateContent API.
package adapter

// ============================================================================
// Gemini API Types
// ============================================================================

// GenerateRequest represents a Gemini generateContent request.
// The system instruction uses the snake_case field name; the API accepts
// both spellings but downstream tooling matches on this one.
type GenerateRequest struct {
	Contents          []Content          `json:"contents"`
	GenerationConfig  GenerationConfig   `json:"generationConfig"`
	SystemInstruction *Content           `json:"system_instruction,omitempty"`
	Tools             []ToolDeclarations `json:"tools,omitempty"`
}

// Content represents one content turn in Gemini format.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part represents a text part of a request content turn.
type Part struct {
	Text string `json:"text"`
}

// GenerationConfig contains generation parameters.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// ToolDeclarations wraps the function declarations offered to the model.
type ToolDeclarations struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations"`
}

// FunctionDeclaration describes one callable function in Gemini schema form.
type FunctionDeclaration struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  FunctionParameters `json:"parameters"`
}

// FunctionParameters is the parameter schema of a function declaration.
type FunctionParameters struct {
	Type       string                      `json:"type"`
	Properties map[string]FunctionProperty `json:"properties"`

	// Required is always emitted, empty when nothing is required.
	Required []string `json:"required"`
}

// FunctionProperty describes a single declared parameter.
type FunctionProperty struct {
	Type        string         `json:"type"`
	Items       *PropertyItems `json:"items,omitempty"`
	Default     any            `json:"default"`
	Description string         `json:"description"`
}

// PropertyItems carries the element type of an array-typed parameter.
type PropertyItems struct {
	Type string `json:"type"`
}

// GenerateResponse represents a Gemini generateContent response.
type GenerateResponse struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
}

// Candidate represents a single generated candidate.
type Candidate struct {
	Content      CandidateContent `json:"content"`
	FinishReason string           `json:"finishReason"`
	Index        int              `json:"index"`
}

// CandidateContent holds the parts of a candidate.
type CandidateContent struct {
	Role  string         `json:"role,omitempty"`
	Parts []ResponsePart `json:"parts"`
}

// ResponsePart is a fragment of a candidate: plain text, a function call,
// or both absent. Pointers distinguish an absent field from an empty one;
// a part carrying `"text": ""` still counts as a text part.
type ResponsePart struct {
	Text         *string       `json:"text,omitempty"`
	FunctionCall *FunctionCall `json:"functionCall,omitempty"`
}

// FunctionCall is a tool invocation requested by the model.
// Args is a JSON object, not a string.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// UsageMetadata contains token usage information.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}
