package llm

import (
	"fmt"
	"time"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider wraps OpenAIProvider with OpenRouter defaults. Routed
// models differ in structured-output support, so JSON object mode is the
// default there.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
func NewOpenRouterProvider(cfg OpenRouterConfig, timeout time.Duration) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}

	format := cfg.ResponseFormat
	if format == "" {
		format = FormatJSONObject
	}
	inner := newOpenAIProviderRaw(OpenAIConfig{
		APIKey:         cfg.APIKey,
		Model:          cfg.Model,
		BaseURL:        baseURL,
		ResponseFormat: format,
	}, timeout)

	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}
