// Package config provides configuration management using the Singleton pattern.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultConfigName = "config"
	defaultConfigType = "yaml"
	envPrefix         = "GEMINI_BRIDGE"

	// EnvAPIKey is the primary environment variable for the default
	// Gemini credential. This takes PRIORITY over file configuration so
	// that no secret ever needs to live in a checked-in file.
	EnvAPIKey = "GEMINI_BRIDGE_API_KEY"
)

// loadConfig loads the configuration from environment variables and files.
// Priority order (highest to lowest):
// 1. GEMINI_BRIDGE_API_KEY env var - PRIMARY SOURCE for the default credential
// 2. Environment variables (prefixed with GEMINI_BRIDGE_)
// 3. config.yaml - FALLBACK for local development ONLY
// 4. Default values
func loadConfig(configPath string) (*Configuration, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure Viper
	v.SetConfigName(defaultConfigName)
	v.SetConfigType(defaultConfigType)

	// Add config search paths
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/gemini-bridge")
		v.AddConfigPath("$HOME/.gemini-bridge")
	}

	// Enable environment variable override
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Read configuration file (fallback only)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is OK - we prefer env vars anyway
			fmt.Fprintf(os.Stderr, "[SECURITY] Config file not found, using environment variables only (recommended)\n")
		} else {
			return nil, &ConfigError{
				Op:  "read",
				Err: fmt.Errorf("failed to read config file: %w", err),
			}
		}
	} else if v.IsSet("gemini.api_key") {
		fmt.Fprintf(os.Stderr, "[SECURITY] Warning: api key read from config.yaml - prefer %s env var in production\n", EnvAPIKey)
	}

	// Unmarshal configuration
	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{
			Op:  "unmarshal",
			Err: fmt.Errorf("failed to unmarshal config: %w", err),
		}
	}

	// PRIORITY: the env var credential wins over anything in the file.
	if envKey := strings.TrimSpace(os.Getenv(EnvAPIKey)); envKey != "" {
		cfg.Gemini.APIKey = envKey
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 30)
	v.SetDefault("server.write_timeout_seconds", 90)
	v.SetDefault("server.shutdown_timeout_seconds", 15)

	// Upstream defaults
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.timeout_seconds", 60)
	v.SetDefault("gemini.allowed_models", []string{
		"gemini-1.5-flash",
		"gemini-1.5-pro",
		"gemini-1.5-pro-vision",
	})

	// Request defaults
	v.SetDefault("defaults.chat_model", "gemini-1.5-flash")
	v.SetDefault("defaults.vision_model", "gemini-1.5-pro-vision")
	v.SetDefault("defaults.temperature", 0.1)
	v.SetDefault("defaults.max_tokens", 1000)
	v.SetDefault("defaults.tool_choice", "auto")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "")
}
