package llm

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds generative service connection settings.
type Config struct {
	GeminiAPIKey     string `toml:"gemini_api_key"`
	GeminiBaseURL    string `toml:"gemini_base_url"`
	AnthropicAPIKey  string `toml:"anthropic_api_key"`
	AnthropicBaseURL string `toml:"anthropic_base_url"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	MaxAttempts      int    `toml:"max_attempts"`
}

// ConfigEnv maps config fields to environment variable names.
type ConfigEnv struct {
	GeminiAPIKey     string
	GeminiBaseURL    string
	AnthropicAPIKey  string
	AnthropicBaseURL string
	TimeoutSeconds   string
	MaxAttempts      string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *ConfigEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.GeminiAPIKey != "" {
		c.GeminiAPIKey = overlay.GeminiAPIKey
	}
	if overlay.GeminiBaseURL != "" {
		c.GeminiBaseURL = overlay.GeminiBaseURL
	}
	if overlay.AnthropicAPIKey != "" {
		c.AnthropicAPIKey = overlay.AnthropicAPIKey
	}
	if overlay.AnthropicBaseURL != "" {
		c.AnthropicBaseURL = overlay.AnthropicBaseURL
	}
	if overlay.TimeoutSeconds != 0 {
		c.TimeoutSeconds = overlay.TimeoutSeconds
	}
	if overlay.MaxAttempts != 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
}

func (c *Config) loadDefaults() {
	if c.GeminiBaseURL == "" {
		c.GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.AnthropicBaseURL == "" {
		c.AnthropicBaseURL = "https://api.anthropic.com/v1"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 300
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
}

func (c *Config) loadEnv(env *ConfigEnv) {
	setString := func(name string, target *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*target = v
		}
	}
	setInt := func(name string, target *int) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*target = n
			}
		}
	}

	setString(env.GeminiAPIKey, &c.GeminiAPIKey)
	setString(env.GeminiBaseURL, &c.GeminiBaseURL)
	setString(env.AnthropicAPIKey, &c.AnthropicAPIKey)
	setString(env.AnthropicBaseURL, &c.AnthropicBaseURL)
	setInt(env.TimeoutSeconds, &c.TimeoutSeconds)
	setInt(env.MaxAttempts, &c.MaxAttempts)
}

func (c *Config) validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("gemini_api_key required")
	}
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("anthropic_api_key required")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be positive")
	}
	return nil
}
