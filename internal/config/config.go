// Package config provides configuration management using the Singleton pattern.
// It loads configuration from environment variables and config.yaml using Viper.
package config

import (
	"fmt"
	"sync"
)

// Configuration holds all application configuration values.
type Configuration struct {
	// Server configuration
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Gemini upstream configuration
	Gemini GeminiConfig `json:"gemini" mapstructure:"gemini"`

	// Defaults applied to incomplete completion requests
	Defaults DefaultsConfig `json:"defaults" mapstructure:"defaults"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	// Host is the server bind address.
	Host string `json:"host" mapstructure:"host"`

	// Port is the server port number.
	Port int `json:"port" mapstructure:"port"`

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeoutSeconds int `json:"read_timeout_seconds" mapstructure:"read_timeout_seconds"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeoutSeconds int `json:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`

	// ShutdownTimeout is the maximum duration to wait for active connections to finish.
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds" mapstructure:"shutdown_timeout_seconds"`
}

// GeminiConfig holds the upstream Gemini API configuration.
type GeminiConfig struct {
	// BaseURL is the Gemini API endpoint prefix.
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// TimeoutSeconds bounds the single generateContent call. No retries
	// are performed; a timeout is terminal for the invocation.
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`

	// APIKey is the configured default credential, used only when the
	// caller supplies none. Loaded from GEMINI_BRIDGE_API_KEY. There is
	// no built-in fallback value; without a key the request fails closed.
	APIKey string `json:"-" mapstructure:"api_key"`

	// AllowedModels is the model allow-list checked before any network call.
	AllowedModels []string `json:"allowed_models" mapstructure:"allowed_models"`
}

// DefaultsConfig holds per-request defaults for fields the caller omitted.
type DefaultsConfig struct {
	// ChatModel serves text requests when the caller names no model.
	ChatModel string `json:"chat_model" mapstructure:"chat_model"`

	// VisionModel serves image requests when the caller names no model.
	VisionModel string `json:"vision_model" mapstructure:"vision_model"`

	// Temperature is the default sampling temperature.
	Temperature float64 `json:"temperature" mapstructure:"temperature"`

	// MaxTokens is the default output token cap.
	MaxTokens int `json:"max_tokens" mapstructure:"max_tokens"`

	// ToolChoice is the default tool-selection policy.
	ToolChoice string `json:"tool_choice" mapstructure:"tool_choice"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `json:"level" mapstructure:"level"`

	// Format is the log format (json, text).
	Format string `json:"format" mapstructure:"format"`

	// OutputPath is the file path for log output (empty for stdout).
	OutputPath string `json:"output_path" mapstructure:"output_path"`
}

// configInstance holds the singleton configuration instance.
var (
	configInstance *Configuration
	configOnce     sync.Once
	configErr      error
)

// GetConfig returns the singleton Configuration instance.
// It initializes the configuration on first call using the default config path.
// Returns an error if configuration loading fails.
func GetConfig() (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = loadConfig("")
	})
	return configInstance, configErr
}

// GetConfigWithPath returns the singleton Configuration instance with a custom config path.
// This should be used when you need to specify a non-default configuration file path.
// Returns an error if configuration loading fails.
func GetConfigWithPath(configPath string) (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = loadConfig(configPath)
	})
	return configInstance, configErr
}

// MustGetConfig returns the singleton Configuration instance.
// It panics if the configuration cannot be loaded.
// Use this only when configuration is absolutely required and the application
// cannot proceed without it.
func MustGetConfig() *Configuration {
	cfg, err := GetConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// ResetConfig resets the singleton instance.
// This is primarily used for testing purposes.
func ResetConfig() {
	configOnce = sync.Once{}
	configInstance = nil
	configErr = nil
}

// Validate validates the configuration and returns an error if required fields are missing.
func (c *Configuration) Validate() error {
	var validationErrors []string

	// Validate server configuration
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		validationErrors = append(validationErrors, "server.port must be between 1 and 65535")
	}

	// Validate upstream configuration
	if c.Gemini.BaseURL == "" {
		validationErrors = append(validationErrors, "gemini.base_url is required")
	}

	if c.Gemini.TimeoutSeconds <= 0 {
		validationErrors = append(validationErrors, "gemini.timeout_seconds must be positive")
	}

	if len(c.Gemini.AllowedModels) == 0 {
		validationErrors = append(validationErrors, "gemini.allowed_models cannot be empty, at least one model is required")
	}

	// Validate request defaults
	if c.Defaults.ChatModel == "" {
		validationErrors = append(validationErrors, "defaults.chat_model is required")
	}

	if c.Defaults.VisionModel == "" {
		validationErrors = append(validationErrors, "defaults.vision_model is required")
	}

	if c.Defaults.Temperature < 0 || c.Defaults.Temperature > 2 {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"defaults.temperature %.2f is invalid, must be between 0 and 2",
			c.Defaults.Temperature,
		))
	}

	if c.Defaults.MaxTokens <= 0 {
		validationErrors = append(validationErrors, "defaults.max_tokens must be positive")
	}

	// Validate logging configuration
	if c.Logging.Level != "" && !isValidLogLevel(c.Logging.Level) {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.level '%s' is invalid, must be one of: debug, info, warn, error",
			c.Logging.Level,
		))
	}

	if len(validationErrors) > 0 {
		return &ValidationError{Errors: validationErrors}
	}

	return nil
}

// isValidLogLevel checks if the log level is valid.
func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// IsModelAllowed reports whether a model is in the configured allow-list.
func (c *Configuration) IsModelAllowed(model string) bool {
	for _, m := range c.Gemini.AllowedModels {
		if m == model {
			return true
		}
	}
	return false
}

// HasDefaultKey reports whether a default credential is configured.
func (c *Configuration) HasDefaultKey() bool {
	return c.Gemini.APIKey != ""
}
