package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/quizlens/internal/i18n"
	"github.com/abhisek/quizlens/internal/llm"
	"github.com/abhisek/quizlens/internal/logger"
	"github.com/abhisek/quizlens/internal/metrics"
)

// errIncomplete marks a schema-valid reply with empty required content.
var errIncomplete = errors.New("incomplete summary")

// Generator writes the narrative summary. It makes one model call per
// summary with a fixed timeout and no retries; any failure yields the
// deterministic fallback.
type Generator struct {
	provider llm.Provider
	bundle   *i18n.Bundle
	cfg      Config
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(g *Generator) { g.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// NewGenerator creates a Generator. A nil provider means every summary is
// built by the fallback; a nil bundle loads the embedded locales.
func NewGenerator(provider llm.Provider, bundle *i18n.Bundle, cfg Config, opts ...Option) *Generator {
	g := &Generator{
		provider: provider,
		bundle:   bundle,
		cfg:      cfg,
		log:      logger.Nop(),
	}
	for _, o := range opts {
		o(g)
	}
	if g.bundle == nil {
		g.bundle = i18n.MustNew(i18n.DefaultLanguage, g.log)
	}
	return g
}

// Generate returns the summary for in. It never fails.
func (g *Generator) Generate(ctx context.Context, in Input) Summary {
	lang := g.language(ctx, in)

	if g.provider == nil {
		g.metrics.ObserveNarrative(string(SourceFallback))
		return g.fallback(lang, in)
	}

	s, err := g.fromModel(ctx, lang, in)
	if err != nil {
		g.log.Warn("narrative model call failed, using fallback", "error", err)
		g.metrics.ObserveNarrative(string(SourceFallback))
		return g.fallback(lang, in)
	}

	g.metrics.ObserveNarrative(string(SourceLLM))
	return s
}

// Fallback returns the deterministic summary for in.
func (g *Generator) Fallback(ctx context.Context, in Input) Summary {
	return g.fallback(g.language(ctx, in), in)
}

// Motivate returns the deterministic encouragement for in.
func (g *Generator) Motivate(ctx context.Context, in Input) Motivation {
	return Motivate(g.bundle.Localizer(g.language(ctx, in), g.cfg.Language), in)
}

func (g *Generator) fallback(lang string, in Input) Summary {
	return Fallback(g.bundle.Localizer(lang, g.cfg.Language), in)
}

func (g *Generator) language(ctx context.Context, in Input) string {
	if in.Language != "" {
		return in.Language
	}
	if l := i18n.LanguageFrom(ctx); l != "" {
		return l
	}
	if g.cfg.Language != "" {
		return g.cfg.Language
	}
	return i18n.DefaultLanguage
}

func (g *Generator) fromModel(ctx context.Context, lang string, in Input) (Summary, error) {
	// Narrative calls get one attempt inside their own deadline.
	ctx = llm.WithNoRetry(llm.WithPurpose(ctx, llm.PurposeNarrative))

	userMsg, err := buildSummaryMessage(in)
	if err != nil {
		return Summary{}, fmt.Errorf("build summary prompt: %w", err)
	}

	req := llm.Request{
		System:      systemPrompt(lang),
		Messages:    llm.UserPrompt(userMsg),
		Schema:      SummarySchema,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	}

	resp, err := llm.Race(ctx, g.provider, req, g.cfg.Timeout)
	if err != nil {
		return Summary{}, err
	}

	var s Summary
	if err := llm.DecodeJSON(resp.Content, SummarySchema, &s); err != nil {
		return Summary{}, err
	}
	if err := checkComplete(&s, in); err != nil {
		return Summary{}, err
	}

	s.Source = SourceLLM
	if s.Strengths == nil {
		s.Strengths = []string{}
	}
	if s.Priority == nil {
		s.Priority = []string{}
	}
	return s, nil
}

// checkComplete rejects replies that pass the schema but carry no content.
// Weaknesses may only be empty when grading found none.
func checkComplete(s *Summary, in Input) error {
	var missing []string
	if strings.TrimSpace(s.Overall) == "" {
		missing = append(missing, "overall")
	}
	if len(s.Plan) == 0 {
		missing = append(missing, "plan")
	}
	for i, p := range s.Plan {
		if strings.TrimSpace(p.Step) == "" {
			missing = append(missing, fmt.Sprintf("plan[%d].step", i))
		}
	}
	if len(s.Weaknesses) == 0 && len(in.WeakAreas) > 0 {
		missing = append(missing, "weaknesses")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: empty %s", errIncomplete, strings.Join(missing, ", "))
	}
	return nil
}
