// Package domain contains the core business entities and value objects.
// These structs are framework-agnostic and represent the heart of the application.
package domain

// Role identifies the author of a conversation turn.
// Gemini only understands two roles; anything else is dropped before
// the payload is built.
type Role string

const (
	// RoleUser marks a turn written by the end user.
	RoleUser Role = "user"

	// RoleModel marks a turn produced by the model.
	RoleModel Role = "model"
)

// IsForwardable reports whether a history entry with this role may be
// forwarded to the provider.
func (r Role) IsForwardable() bool {
	return r == RoleUser || r == RoleModel
}

// ChatMessage is a single turn of prior conversation history.
// Messages are immutable values; their order in the history is the
// conversation order and must be preserved.
type ChatMessage struct {
	// Role is the author of the turn ("user" or "model").
	Role Role `json:"role" mapstructure:"role"`

	// Content is the plain-text body of the turn.
	Content string `json:"content" mapstructure:"content"`
}
