package llm

import (
	"fmt"
	"os"
	"time"
)

// Config holds all text-completion provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "anthropic", "openai", "gemini", "openrouter", "mock", "none".
	// "none" disables the service; every caller then takes its fallback path.
	Provider string `mapstructure:"provider"`

	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	Retry      RetryConfig      `mapstructure:"retry"`

	// Timeout bounds the underlying HTTP client. Per-call budgets are set by
	// callers with WithTimeout or Race.
	Timeout time.Duration `mapstructure:"timeout"`
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"` // Default: "claude-haiku"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`    // Default: "gpt-4o-mini"
	BaseURL string `mapstructure:"base_url"` // Optional. Override for compatible APIs.

	// ResponseFormat is how a Schema is sent: "json_schema" (default),
	// "json_object" for compatible servers without structured output, or
	// "none" to rely on the prompt and DecodeJSON alone.
	ResponseFormat string `mapstructure:"response_format"`
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"` // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`           // Default: "google/gemini-2.0-flash-exp"
	BaseURL        string `mapstructure:"base_url"`        // Default: "https://openrouter.ai/api/v1"
	ResponseFormat string `mapstructure:"response_format"` // Default: "json_object"
}

// RetryConfig configures retry behavior for transient failures.
// MaxAttempts of 1 or less means a single shot with no retry.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier"`
}

// DefaultConfig returns a Config with sensible defaults. Retries are off:
// every consumer runs under a tight latency budget.
func DefaultConfig() Config {
	return Config{
		Provider: "openai",
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model:          "gpt-4o-mini",
			ResponseFormat: FormatJSONSchema,
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model:          "google/gemini-2.0-flash-exp",
			ResponseFormat: FormatJSONObject,
		},
		Retry: RetryConfig{
			MaxAttempts: 1,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     4 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// Discover fills in the provider and key from the standard API key env vars
// (OpenAI, Gemini, Anthropic, OpenRouter in that order) when no key is set
// for the configured provider. It reports whether a key was found.
func (c *Config) Discover() bool {
	if c.hasKey() {
		return true
	}

	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		c.Provider = "openai"
		c.OpenAI.APIKey = k
		return true
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		c.Provider = "gemini"
		c.Gemini.APIKey = k
		return true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		c.Provider = "anthropic"
		c.Anthropic.APIKey = k
		return true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		c.Provider = "openrouter"
		c.OpenRouter.APIKey = k
		return true
	}
	return false
}

func (c Config) hasKey() bool {
	switch c.Provider {
	case "anthropic":
		return c.Anthropic.APIKey != ""
	case "openai":
		return c.OpenAI.APIKey != ""
	case "gemini":
		return c.Gemini.APIKey != ""
	case "openrouter":
		return c.OpenRouter.APIKey != ""
	case "mock", "none":
		return true
	}
	return false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "anthropic", "openai", "gemini", "openrouter":
		if !c.hasKey() {
			return fmt.Errorf("an API key is required for the %s provider (QUIZLENS_LLM_%s_API_KEY)",
				c.Provider, envName(c.Provider))
		}
	case "mock", "none":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("llm timeout must not be negative")
	}
	for name, f := range map[string]string{"openai": c.OpenAI.ResponseFormat, "openrouter": c.OpenRouter.ResponseFormat} {
		switch f {
		case "", FormatJSONSchema, FormatJSONObject, FormatNone:
		default:
			return fmt.Errorf("unknown %s response_format %q", name, f)
		}
	}
	return nil
}

func envName(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI"
	case "gemini":
		return "GEMINI"
	case "anthropic":
		return "ANTHROPIC"
	default:
		return "OPENROUTER"
	}
}
