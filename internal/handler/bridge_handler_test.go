package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/llmgrid/gemini-bridge/internal/config"
	"github.com/llmgrid/gemini-bridge/internal/domain"
	"github.com/llmgrid/gemini-bridge/internal/processor"
)

func testConfig() *config.Configuration {
	return &config.Configuration{
		Server: config.ServerConfig{Host: "localhost", Port: 8080},
		Gemini: config.GeminiConfig{
			BaseURL:        "https://generativelanguage.googleapis.com/v1beta",
			TimeoutSeconds: 5,
			AllowedModels:  []string{"gemini-1.5-flash", "gemini-1.5-pro", "gemini-1.5-pro-vision"},
		},
		Defaults: config.DefaultsConfig{
			ChatModel:   "gemini-1.5-flash",
			VisionModel: "gemini-1.5-pro-vision",
			Temperature: 0.1,
			MaxTokens:   1000,
			ToolChoice:  "auto",
		},
	}
}

// setupRouter builds a gin engine wired the same way main does, with the
// processor pointed at the given upstream URL.
func setupRouter(cfg *config.Configuration, upstreamURL string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	proc := processor.New(cfg,
		processor.WithLogger(logger),
		processor.WithBaseURL(upstreamURL),
	)
	h := NewBridgeHandler(proc, cfg, WithLogger(logger))

	router := gin.New()
	router.Use(RecoveryMiddleware(logger))
	router.Use(StripAuthHeadersMiddleware())
	router.POST("/v1/complete", h.HandleComplete)
	router.GET("/v1/models", h.HandleModels)
	router.GET("/v1/usage", h.HandleUsage)
	router.GET("/health", h.HandleHealth)

	return router
}

// newUpstream starts a mock Gemini server returning a fixed body.
func newUpstream(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const successBody = `{
	"candidates": [{"content": {"parts": [{"text": "Hi there"}], "role": "model"}}],
	"usageMetadata": {"promptTokenCount": 4, "candidatesTokenCount": 2, "totalTokenCount": 6}
}`

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleComplete_Success(t *testing.T) {
	ResetUsage()

	upstream := newUpstream(t, successBody)
	router := setupRouter(testConfig(), upstream.URL)

	w := postJSON(router, "/v1/complete", `{"input": "hello", "api_key": "test-key"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var env domain.ResultEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if !env.Status {
		t.Fatalf("Status = false, error = %+v", env.Error)
	}
	if len(env.Data.Messages) != 1 || env.Data.Messages[0] != "Hi there" {
		t.Errorf("Messages = %v, want [\"Hi there\"]", env.Data.Messages)
	}
	if env.Data.OutputType != domain.OutputTypeText {
		t.Errorf("OutputType = %q, want %q", env.Data.OutputType, domain.OutputTypeText)
	}

	// Successful completions feed the usage counters.
	if stats := UsageStats(); stats.TotalCalls != 1 || stats.TotalTokens != 6 {
		t.Errorf("usage = %+v, want 1 call / 6 tokens", stats)
	}
}

func TestHandleComplete_EnvelopeErrorIsHTTP200(t *testing.T) {
	ResetUsage()

	upstream := newUpstream(t, successBody)
	router := setupRouter(testConfig(), upstream.URL)

	// Missing api_key is an envelope failure, not a transport failure.
	w := postJSON(router, "/v1/complete", `{"input": "hello"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (errors travel inside the envelope)", w.Code)
	}

	var env domain.ResultEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Status {
		t.Fatal("Status = true, want false")
	}
	if env.Error == nil || env.Error.Kind != domain.ErrMissingAPIKey {
		t.Errorf("error = %+v, want kind %q", env.Error, domain.ErrMissingAPIKey)
	}
	if env.Data != nil {
		t.Errorf("Data = %+v, want nil on failure", env.Data)
	}

	// Failed completions never touch the counters.
	if stats := UsageStats(); stats.TotalCalls != 0 {
		t.Errorf("TotalCalls = %d, want 0", stats.TotalCalls)
	}
}

func TestHandleComplete_MalformedBody(t *testing.T) {
	upstream := newUpstream(t, successBody)
	router := setupRouter(testConfig(), upstream.URL)

	w := postJSON(router, "/v1/complete", `{not json`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var env domain.ResultEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Status || env.Error == nil {
		t.Errorf("envelope = %+v, want failure with error detail", env)
	}
}

func TestHandleComplete_WireKeys(t *testing.T) {
	upstream := newUpstream(t, successBody)
	router := setupRouter(testConfig(), upstream.URL)

	w := postJSON(router, "/v1/complete", `{"input": "hello", "api_key": "test-key"}`)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"Data", "Error", "Status"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("envelope missing wire key %q", key)
		}
	}
}

func TestHandleModels(t *testing.T) {
	upstream := newUpstream(t, successBody)
	router := setupRouter(testConfig(), upstream.URL)

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Object string `json:"object"`
		Data   []struct {
			ID      string `json:"id"`
			Object  string `json:"object"`
			OwnedBy string `json:"owned_by"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Object != "list" {
		t.Errorf("object = %q, want %q", body.Object, "list")
	}
	if len(body.Data) != 3 {
		t.Fatalf("len(data) = %d, want 3", len(body.Data))
	}
	if body.Data[0].ID != "gemini-1.5-flash" || body.Data[0].OwnedBy != "google" {
		t.Errorf("first model = %+v", body.Data[0])
	}
}

func TestHandleUsage(t *testing.T) {
	ResetUsage()
	RecordUsage(&domain.SuccessPayload{TotalLLMCalls: 1, TotalTokens: 42, OutputType: domain.OutputTypeText})

	upstream := newUpstream(t, successBody)
	router := setupRouter(testConfig(), upstream.URL)

	req := httptest.NewRequest(http.MethodGet, "/v1/usage", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var snap UsageSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.TotalCalls != 1 || snap.TotalTokens != 42 {
		t.Errorf("snapshot = %+v, want 1 call / 42 tokens", snap)
	}
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name       string
		defaultKey string
		wantStatus string
	}{
		{"with default key", "server-key", "healthy"},
		{"without default key", "", "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Gemini.APIKey = tt.defaultKey

			upstream := newUpstream(t, successBody)
			router := setupRouter(cfg, upstream.URL)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", w.Code)
			}

			var body struct {
				Status     string `json:"status"`
				DefaultKey bool   `json:"default_key"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if body.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", body.Status, tt.wantStatus)
			}
			if body.DefaultKey != (tt.defaultKey != "") {
				t.Errorf("default_key = %v", body.DefaultKey)
			}
		})
	}
}

func TestStripAuthHeadersMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seenAuth string
	router := gin.New()
	router.Use(StripAuthHeadersMiddleware())
	router.GET("/probe", func(c *gin.Context) {
		seenAuth = c.GetHeader("Authorization")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer should-be-dropped")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if seenAuth != "" {
		t.Errorf("Authorization header reached handler: %q", seenAuth)
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(CORSMiddleware())
	router.POST("/v1/complete", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/v1/complete", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if origin := w.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", origin)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	router := gin.New()
	router.Use(RecoveryMiddleware(logger))
	router.GET("/boom", func(c *gin.Context) { panic("handler defect") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	var env domain.ResultEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Status || env.Error == nil || env.Error.Kind != domain.ErrUnexpected {
		t.Errorf("envelope = %+v, want unexpected_error failure", env)
	}
}

func TestLoggingMiddleware_EmitsEnvelopeMetadata(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(LoggingMiddleware(logger))
	router.POST("/v1/complete", func(c *gin.Context) {
		c.Set("selected_client", "gemini")
		c.Set("envelope_status", false)
		c.Set("error_kind", string(domain.ErrMissingInput))
		c.Status(http.StatusOK)
	})

	w := postJSON(router, "/v1/complete", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal log record: %v", err)
	}
	if record["selected_client"] != "gemini" {
		t.Errorf("selected_client = %v", record["selected_client"])
	}
	if record["error_kind"] != string(domain.ErrMissingInput) {
		t.Errorf("error_kind = %v", record["error_kind"])
	}
	if record["envelope_status"] != false {
		t.Errorf("envelope_status = %v", record["envelope_status"])
	}
}
