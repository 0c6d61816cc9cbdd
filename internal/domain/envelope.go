// Package domain contains the core business entities and value objects.
package domain

// ErrorKind is the closed taxonomy of bridge failures. Every failure,
// from validation to transport to defects in the bridge itself, carries
// exactly one of these tags.
type ErrorKind string

const (
	// ErrMissingAPIKey means no usable credential was resolved.
	ErrMissingAPIKey ErrorKind = "missing_api_key"

	// ErrMissingInput means both input and prompt were empty after trimming.
	ErrMissingInput ErrorKind = "missing_input"

	// ErrUnsupportedModel means the effective model is not in the allow-list.
	ErrUnsupportedModel ErrorKind = "unsupported_model"

	// ErrTransport covers connection failures, timeouts and non-2xx statuses.
	ErrTransport ErrorKind = "transport_error"

	// ErrNoCandidates means the provider answered 200 but returned an
	// empty candidate list (declined or blocked the request).
	ErrNoCandidates ErrorKind = "no_candidates"

	// ErrUnexpected is the catch-all terminal state for defects.
	ErrUnexpected ErrorKind = "unexpected_error"
)

// ErrorDetail is the structured error payload of a failed envelope.
// It is always plain data, never a live error value, so it stays
// serializable and bounded in size.
type ErrorDetail struct {
	// Kind tags the failure per the taxonomy above.
	Kind ErrorKind `json:"kind"`

	// Message is a human-readable summary.
	Message string `json:"message"`

	// Details carries failure-specific context (received values, status
	// codes, body excerpts). May be nil.
	Details map[string]any `json:"details,omitempty"`
}

// OutputType values for SuccessPayload.
const (
	// OutputTypeText marks a plain text completion.
	OutputTypeText = "text"

	// OutputTypeToolCall marks a completion that requests a tool invocation.
	OutputTypeToolCall = "tool_call"
)

// SuccessPayload is the normalized success result of one completion call.
// JSON keys follow the wire contract the MCP framework consumes.
type SuccessPayload struct {
	// TotalLLMCalls is always 1: the bridge performs a single provider call.
	TotalLLMCalls int `json:"total_llm_calls"`

	// TotalTokens is the provider-reported total token count (0 when absent).
	TotalTokens int `json:"total_tokens"`

	// TotalInputTokens is the prompt token count (0 when absent).
	TotalInputTokens int `json:"total_input_tokens"`

	// TotalOutputTokens is the candidate token count (0 when absent).
	TotalOutputTokens int `json:"total_output_tokens"`

	// FinalLLMResponse is the raw provider response.
	FinalLLMResponse map[string]any `json:"final_llm_response"`

	// LLMResponses lists every provider response of the call (always one).
	LLMResponses []map[string]any `json:"llm_responses_arr"`

	// Messages holds the concatenated text parts of the first candidate.
	Messages []string `json:"messages"`

	// OutputType is "text" or "tool_call".
	OutputType string `json:"output_type"`
}

// ResultEnvelope is the unique return contract of the bridge. Every code
// path, from validation failure through transport failure to unexpected
// failure, funnels through this shape. Exactly one of Data/Error is
// populated, consistent with Status.
//
// The capitalized JSON keys match the wire format the dispatch layer expects.
type ResultEnvelope struct {
	Data   *SuccessPayload `json:"Data"`
	Error  *ErrorDetail    `json:"Error"`
	Status bool            `json:"Status"`
}

// Succeed wraps a success payload in a well-formed envelope.
func Succeed(data *SuccessPayload) ResultEnvelope {
	return ResultEnvelope{Data: data, Status: true}
}

// Fail wraps an error detail in a well-formed envelope.
func Fail(detail *ErrorDetail) ResultEnvelope {
	return ResultEnvelope{Error: detail, Status: false}
}

// Failf builds a failed envelope from a kind, message and optional details.
func Failf(kind ErrorKind, message string, details map[string]any) ResultEnvelope {
	return Fail(&ErrorDetail{Kind: kind, Message: message, Details: details})
}
