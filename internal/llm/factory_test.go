package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	p, err := NewProvider(ctx, Config{Provider: "none"}, Deps{})
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = NewProvider(ctx, Config{Provider: "mock"}, Deps{})
	require.NoError(t, err)
	assert.IsType(t, &LoggingProvider{}, p)

	cfg := Config{Provider: "mock", Retry: RetryConfig{MaxAttempts: 3}}
	p, err = NewProvider(ctx, cfg, Deps{})
	require.NoError(t, err)
	assert.IsType(t, &RetryProvider{}, p)

	cfg = DefaultConfig()
	cfg.OpenAI.APIKey = "sk-test"
	p, err = NewProvider(ctx, cfg, Deps{})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", p.ModelID())

	_, err = NewProvider(ctx, Config{Provider: "openai"}, Deps{})
	assert.Error(t, err)

	_, err = NewProvider(ctx, Config{Provider: "bogus"}, Deps{})
	assert.Error(t, err)
}
