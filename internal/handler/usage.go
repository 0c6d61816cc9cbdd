// Package handler provides the HTTP surface of the bridge.
package handler

import (
	"sync"

	"github.com/llmgrid/gemini-bridge/internal/domain"
)

// UsageTracker accumulates token usage across completions. It is
// observability only: nothing in the request path reads it back, so the
// per-invocation contract stays stateless.
type UsageTracker struct {
	mu sync.RWMutex

	totalCalls        int64
	totalTokens       int64
	totalInputTokens  int64
	totalOutputTokens int64
	textCompletions   int64
	toolCalls         int64
}

// UsageSnapshot is a point-in-time copy of the counters.
type UsageSnapshot struct {
	TotalCalls        int64 `json:"total_calls"`
	TotalTokens       int64 `json:"total_tokens"`
	TotalInputTokens  int64 `json:"total_input_tokens"`
	TotalOutputTokens int64 `json:"total_output_tokens"`
	TextCompletions   int64 `json:"text_completions"`
	ToolCalls         int64 `json:"tool_calls"`
}

// globalUsage is the singleton instance for process-wide accounting.
var globalUsage = &UsageTracker{}

// RecordUsage folds one successful completion into the global counters.
func RecordUsage(data *domain.SuccessPayload) {
	globalUsage.Record(data)
}

// UsageStats returns a snapshot of the global counters.
func UsageStats() UsageSnapshot {
	return globalUsage.Snapshot()
}

// ResetUsage resets the global counters (useful for testing).
func ResetUsage() {
	globalUsage.Reset()
}

// Record folds one successful completion into the counters (thread-safe).
func (u *UsageTracker) Record(data *domain.SuccessPayload) {
	if data == nil {
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	u.totalCalls += int64(data.TotalLLMCalls)
	u.totalTokens += int64(data.TotalTokens)
	u.totalInputTokens += int64(data.TotalInputTokens)
	u.totalOutputTokens += int64(data.TotalOutputTokens)

	switch data.OutputType {
	case domain.OutputTypeToolCall:
		u.toolCalls++
	default:
		u.textCompletions++
	}
}

// Snapshot returns a consistent copy of the counters.
func (u *UsageTracker) Snapshot() UsageSnapshot {
	u.mu.RLock()
	defer u.mu.RUnlock()

	return UsageSnapshot{
		TotalCalls:        u.totalCalls,
		TotalTokens:       u.totalTokens,
		TotalInputTokens:  u.totalInputTokens,
		TotalOutputTokens: u.totalOutputTokens,
		TextCompletions:   u.textCompletions,
		ToolCalls:         u.toolCalls,
	}
}

// Reset zeroes the counters.
func (u *UsageTracker) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.totalCalls = 0
	u.totalTokens = 0
	u.totalInputTokens = 0
	u.totalOutputTokens = 0
	u.textCompletions = 0
	u.toolCalls = 0
}
