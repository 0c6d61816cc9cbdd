// Package adapter provides the integration with the Gemini generateContent API.
package adapter

import (
	"fmt"

	"github.com/llmgrid/gemini-bridge/internal/domain"
)

// TransportError describes a failed HTTP exchange with the provider.
// It carries plain data only (the status code when one was received and a
// bounded body excerpt), never a live response object, so the resulting
// error payload stays serializable.
type TransportError struct {
	// StatusCode is the HTTP status, 0 when the request never completed.
	StatusCode int

	// BodyExcerpt is at most MaxBodyExcerpt characters of the response body.
	BodyExcerpt string

	// Err is the underlying transport error, if any.
	Err error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("gemini transport error [%d]: %v", e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("gemini transport error: %v", e.Err)
	default:
		return fmt.Sprintf("gemini API error [%d]: %s", e.StatusCode, e.BodyExcerpt)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Detail converts the transport failure into the envelope error payload.
func (e *TransportError) Detail() *domain.ErrorDetail {
	details := map[string]any{}
	if e.StatusCode != 0 {
		details["status_code"] = e.StatusCode
	}
	if e.BodyExcerpt != "" {
		details["response"] = e.BodyExcerpt
	}
	if e.Err != nil {
		details["error"] = e.Err.Error()
	}

	return &domain.ErrorDetail{
		Kind:    domain.ErrTransport,
		Message: "API request failed",
		Details: details,
	}
}
