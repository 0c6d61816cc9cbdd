// Package adapter provides the integration with the Gemini generateContent API.
// It maps normalized completion parameters to the provider wire format, performs
// the single blocking HTTP call, and maps the provider response back into the
// uniform result types in the domain package.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the default Gemini API endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultTimeout bounds the single generateContent call.
	DefaultTimeout = 60 * time.Second

	// MaxBodyExcerpt caps the error body excerpt carried in transport
	// failures so error payloads stay bounded in size.
	MaxBodyExcerpt = 500
)

// Client performs generateContent calls against the Gemini API.
// A Client is created per invocation with the resolved key; it holds no
// state beyond its configuration.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option is a functional option for configuring Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL for the Gemini API.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Client with the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return "gemini"
}

// GenerateContent performs one blocking generateContent call and returns the
// raw response body. The API key travels as a query parameter; this is part
// of the provider contract and must be preserved (and redacted from logs).
//
// Any transport-layer failure (connection error, timeout, non-2xx status)
// is returned as a *TransportError. No retries are performed.
func (c *Client) GenerateContent(ctx context.Context, model string, payload GenerateRequest) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			StatusCode:  resp.StatusCode,
			BodyExcerpt: excerpt(respBody),
		}
	}

	return respBody, nil
}

// excerpt truncates a response body for inclusion in error payloads.
func excerpt(body []byte) string {
	s := string(body)
	if len(s) > MaxBodyExcerpt {
		s = s[:MaxBodyExcerpt]
	}
	return s
}
