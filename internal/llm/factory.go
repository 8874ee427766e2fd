package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/quizlens/internal/logger"
	"github.com/abhisek/quizlens/internal/metrics"
	"github.com/abhisek/quizlens/internal/store"
)

// Deps carries the optional collaborators wired around every provider.
type Deps struct {
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
	EventRepo store.EventRepo
}

// NewProvider creates a Provider from configuration, wrapped with retry and
// logging middleware. It returns (nil, nil) for the "none" provider; callers
// treat a nil Provider as an unavailable service.
func NewProvider(ctx context.Context, cfg Config, deps Deps) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic, cfg.Timeout)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI, cfg.Timeout)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini, cfg.Timeout)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter, cfg.Timeout)
	case "mock":
		base = NewMockProvider()
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → retry → logging → base
	p := WithLogging(base, deps.Logger, deps.Metrics, deps.EventRepo)
	if cfg.Retry.MaxAttempts > 1 {
		p = WithRetry(p, cfg.Retry)
	}
	return p, nil
}
