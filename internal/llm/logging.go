package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/quizlens/internal/logger"
	"github.com/abhisek/quizlens/internal/metrics"
	"github.com/abhisek/quizlens/internal/store"
)

// LoggingProvider is a decorator that logs every request, records metrics
// and, when an event repo is configured, persists an LLM request event.
type LoggingProvider struct {
	inner     Provider
	log       *logger.Logger
	metrics   *metrics.Metrics
	eventRepo store.EventRepo
}

// WithLogging wraps a Provider with logging. m and repo may be nil.
func WithLogging(p Provider, log *logger.Logger, m *metrics.Metrics, repo store.EventRepo) Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &LoggingProvider{inner: p, log: log, metrics: m, eventRepo: repo}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)
	latency := time.Since(start)

	submission := SubmissionFrom(ctx)
	data := store.LLMRequestEventData{
		Provider:     providerName(l.inner),
		Model:        l.inner.ModelID(),
		Purpose:      purpose,
		SubmissionID: submission,
		LatencyMs:   latency.Milliseconds(),
		Success:     err == nil,
		RequestBody: requestBody(req),
	}
	if resp != nil {
		data.ResponseBody = string(resp.Content)
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
		if c := LookupCost(data.Model); c != nil {
			l.metrics.AddLLMCost(data.Model, c.Cost(data.InputTokens, data.OutputTokens))
		}
	}

	l.metrics.ObserveLLM(purpose, outcome(err), latency)

	if err != nil {
		data.ErrorMessage = err.Error()
		l.log.Warn("llm request failed",
			"purpose", purpose, "model", data.Model, "submission_id", submission,
			"latency", latency, "error", err)
	} else {
		l.log.Debug("llm request",
			"purpose", purpose, "model", data.Model, "submission_id", submission, "latency", latency,
			"input_tokens", data.InputTokens, "output_tokens", data.OutputTokens)
	}

	if l.eventRepo != nil {
		// Detach from the request context so a cancelled caller still gets
		// its event recorded.
		if logErr := l.eventRepo.AppendLLMRequest(context.WithoutCancel(ctx), data); logErr != nil {
			l.log.Warn("failed to record llm request event", "error", logErr)
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

func providerName(p Provider) string {
	switch p.(type) {
	case *AnthropicProvider:
		return "anthropic"
	case *OpenRouterProvider:
		return "openrouter"
	case *OpenAIProvider:
		return "openai"
	case *GeminiProvider:
		return "gemini"
	case *MockProvider:
		return "mock"
	}
	return p.ModelID()
}

// requestBody renders the prompt as stored for later inspection.
func requestBody(req Request) string {
	var b strings.Builder
	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n", m.Role, m.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var (
		rl      *ErrRateLimit
		inv     *ErrInvalidResponse
		maxTok  *ErrMaxTokensExceeded
		timeout *ErrTimeout
		rej     *ErrRejected
	)
	switch {
	case errors.As(err, &timeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &rl):
		return "rate_limited"
	case errors.As(err, &inv):
		return "invalid"
	case errors.As(err, &maxTok):
		return "max_tokens"
	case errors.As(err, &rej):
		return "rejected"
	default:
		return "unavailable"
	}
}
