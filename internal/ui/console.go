// Package ui provides cyberpunk-styled console output for the Gemini Bridge.
// It creates a visually impressive terminal experience with colorized logs,
// status badges, and ASCII art.
package ui

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR DEFINITIONS - Cyberpunk Theme
// ══════════════════════════════════════════════════════════════════════════════

var (
	// Badge colors
	successBadge = color.New(color.BgGreen, color.FgBlack, color.Bold)
	warningBadge = color.New(color.FgYellow, color.Bold)
	errorBadge   = color.New(color.BgRed, color.FgWhite, color.Bold)
	infoBadge    = color.New(color.FgCyan, color.Bold)
	debugBadge   = color.New(color.FgMagenta)

	// Text colors
	successText = color.New(color.FgGreen, color.Bold)
	warningText = color.New(color.FgYellow)
	errorText   = color.New(color.FgRed)
	infoText    = color.New(color.FgCyan)
	mutedText   = color.New(color.FgHiBlack)
	accentText  = color.New(color.FgMagenta, color.Bold)

	// Special colors
	tokenGreen = color.New(color.FgHiGreen, color.Bold)
	neonBlue   = color.New(color.FgHiCyan, color.Bold)

	// Method colors
	methodPOST   = color.New(color.BgHiMagenta, color.FgBlack, color.Bold)
	methodGET    = color.New(color.BgHiCyan, color.FgBlack, color.Bold)
	methodPUT    = color.New(color.BgHiYellow, color.FgBlack, color.Bold)
	methodDELETE = color.New(color.BgHiRed, color.FgBlack, color.Bold)
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS BADGES
// ══════════════════════════════════════════════════════════════════════════════

// PrintSuccess logs a successful request with green styling.
// Format: [200 OK] message
func PrintSuccess(status int, msg string) {
	successBadge.Printf(" %d OK ", status)
	fmt.Print(" ")
	successText.Println(msg)
}

// PrintEnvelopeError logs a completion that failed inside the envelope.
// Format: ⚠️ [ENVELOPE] kind: message
func PrintEnvelopeError(kind, msg string) {
	fmt.Print("⚠️  ")
	warningBadge.Print("[ENVELOPE]")
	fmt.Print(" ")
	errorText.Print(kind)
	mutedText.Printf(": %s\n", msg)
}

// PrintBridgeInfo logs general bridge information.
// Format: [BRIDGE] message
func PrintBridgeInfo(msg string) {
	infoBadge.Print("[BRIDGE]")
	fmt.Print(" ")
	infoText.Println(msg)
}

// PrintCompletion logs a successful completion with token accounting.
// Format: ✦ COMPLETION | model | output_type | N tokens
func PrintCompletion(model, outputType string, totalTokens int) {
	neonBlue.Print("✦ COMPLETION ")
	fmt.Print("| ")
	accentText.Print(model)
	fmt.Print(" | ")
	infoText.Print(outputType)
	fmt.Print(" | ")
	tokenGreen.Printf("%d tokens\n", totalTokens)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST LOGGING
// ══════════════════════════════════════════════════════════════════════════════

// PrintRequest logs a request with styled output.
// Color-codes status, method, and latency for quick visual parsing.
func PrintRequest(method, path string, status int, latency time.Duration, keyUsed string) {
	// Timestamp
	mutedText.Printf("%s ", time.Now().Format("15:04:05"))

	// Method badge
	printMethodBadge(method)
	fmt.Print(" ")

	// Path
	fmt.Printf("%-30s ", truncatePath(path, 30))

	// Status badge
	printStatusBadge(status)
	fmt.Print(" ")

	// Latency with color gradient
	printLatency(latency)
	fmt.Print(" ")

	// Key used (masked)
	if keyUsed != "" {
		mutedText.Printf("key:%s", maskKeyShort(keyUsed))
	}

	fmt.Println()
}

// printMethodBadge prints the HTTP method with appropriate color.
func printMethodBadge(method string) {
	switch method {
	case "POST":
		methodPOST.Printf(" %s ", method)
	case "GET":
		methodGET.Printf(" %s ", method)
	case "PUT":
		methodPUT.Printf(" %s ", method)
	case "DELETE":
		methodDELETE.Printf(" %s ", method)
	default:
		debugBadge.Printf(" %s ", method)
	}
}

// printStatusBadge prints the status code with appropriate color.
func printStatusBadge(status int) {
	switch {
	case status >= 200 && status < 300:
		successBadge.Printf(" %d ", status)
	case status >= 300 && status < 400:
		infoBadge.Printf(" %d ", status)
	case status >= 400 && status < 500:
		warningBadge.Printf(" %d ", status)
	default:
		errorBadge.Printf(" %d ", status)
	}
}

// printLatency prints latency with color gradient.
// Green: < 100ms, Yellow: < 500ms, Red: >= 500ms
func printLatency(latency time.Duration) {
	ms := latency.Milliseconds()
	latencyStr := fmt.Sprintf("%4dms", ms)

	switch {
	case ms < 100:
		successText.Print(latencyStr)
	case ms < 500:
		warningText.Print(latencyStr)
	default:
		errorText.Print(latencyStr)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// UTILITY FUNCTIONS
// ══════════════════════════════════════════════════════════════════════════════

// maskKeyShort returns a short masked version of an API key.
// Format: xxxx...xxxx
func maskKeyShort(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// truncatePath truncates a path to maxLen characters.
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return path[:maxLen-3] + "..."
}

// ══════════════════════════════════════════════════════════════════════════════
// STARTUP MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

// PrintStartupInfo prints styled server startup information.
func PrintStartupInfo(host string, port int, defaultKey bool, models []string) {
	fmt.Println()
	infoBadge.Print("[BRIDGE]")
	fmt.Print(" Server starting on ")
	neonBlue.Printf("http://%s:%d\n", host, port)

	infoBadge.Print("[BRIDGE]")
	fmt.Print(" Default key: ")
	if defaultKey {
		successText.Print("configured")
	} else {
		warningText.Print("absent (callers must supply api_key)")
	}
	fmt.Print(" | Models: ")
	accentText.Printf("%d allowed\n", len(models))

	fmt.Println()
	printEndpoints()
}

// printEndpoints prints the available API endpoints.
func printEndpoints() {
	mutedText.Println("  ┌─────────────────────────────────────────────────────────┐")
	mutedText.Print("  │ ")
	methodPOST.Print(" POST ")
	fmt.Print(" /v1/complete         ")
	mutedText.Print("  Chat completion (envelope)       ")
	mutedText.Println(" │")

	mutedText.Print("  │ ")
	methodGET.Print(" GET  ")
	fmt.Print(" /v1/models           ")
	mutedText.Print("  List allowed models              ")
	mutedText.Println(" │")

	mutedText.Print("  │ ")
	methodGET.Print(" GET  ")
	fmt.Print(" /v1/usage            ")
	mutedText.Print("  Token usage counters             ")
	mutedText.Println(" │")

	mutedText.Print("  │ ")
	methodGET.Print(" GET  ")
	fmt.Print(" /health              ")
	mutedText.Print("  Health check                     ")
	mutedText.Println(" │")

	mutedText.Println("  └─────────────────────────────────────────────────────────┘")
	fmt.Println()
}

// PrintShutdown prints a styled shutdown message.
func PrintShutdown() {
	fmt.Println()
	warningBadge.Print("[SHUTDOWN]")
	warningText.Println(" Graceful shutdown initiated...")
}

// PrintGoodbye prints a styled goodbye message.
func PrintGoodbye() {
	successBadge.Print(" OK ")
	fmt.Print(" ")
	successText.Println("Server stopped. Goodbye! 👋")
}
