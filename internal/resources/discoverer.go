package resources

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/quizlens/internal/llm"
	"github.com/abhisek/quizlens/internal/logger"
	"github.com/abhisek/quizlens/internal/metrics"
)

const workedExamplesSuffix = " worked examples"

// Discoverer runs the ordered strategy chain that finds verified links for
// a weak topic. Strategies run one after another and the first one that
// yields validated links wins.
type Discoverer struct {
	provider  llm.Provider
	validator Validator
	searcher  Searcher
	curated   *Curated
	policy    TrustPolicy
	cfg       Config
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithValidator replaces the HTTP link checker.
func WithValidator(v Validator) Option {
	return func(d *Discoverer) { d.validator = v }
}

// WithSearcher enables the web-search fallback.
func WithSearcher(s Searcher) Option {
	return func(d *Discoverer) { d.searcher = s }
}

// WithCurated replaces the embedded curated table. A nil table disables it.
func WithCurated(c *Curated) Option {
	return func(d *Discoverer) { d.curated = c }
}

// WithPolicy sets the trust policy.
func WithPolicy(p TrustPolicy) Option {
	return func(d *Discoverer) { d.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(d *Discoverer) { d.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Discoverer) { d.metrics = m }
}

// New creates a Discoverer. A nil provider skips the model-backed tiers.
func New(provider llm.Provider, cfg Config, opts ...Option) *Discoverer {
	d := &Discoverer{
		provider: provider,
		curated:  DefaultCurated(),
		policy:   DefaultTrustPolicy(),
		cfg:      cfg,
		log:      logger.Nop(),
	}
	for _, o := range opts {
		o(d)
	}
	if d.validator == nil {
		d.validator = NewHTTPValidator(d.policy, WithValidateTimeout(d.cfg.ValidateTimeout))
	}
	if d.cfg.MaxResults <= 0 {
		d.cfg.MaxResults = 3
	}
	if d.cfg.ValidationWorkers <= 0 {
		d.cfg.ValidationWorkers = 4
	}
	return d
}

// target is what the chain searches for after refinement.
type target struct {
	topic    string
	chapter  string
	keywords []string
	mistake  string
	question string
}

// Discover returns up to MaxResults links for q. It never fails; an empty
// result is a normal outcome.
func (d *Discoverer) Discover(ctx context.Context, q Query) []Resource {
	t := target{topic: strings.TrimSpace(q.Topic), question: strings.TrimSpace(q.Question)}
	log := d.log.With("topic", t.topic)

	if d.provider != nil && IsGenericLabel(t.topic) && t.question != "" {
		r, err := d.refine(ctx, q)
		if err != nil {
			log.Warn("topic refinement failed, keeping label", "error", err)
			d.observe(StrategyRefine, "error")
		} else {
			log.Debug("topic refined", "refined", r.Topic)
			d.observe(StrategyRefine, "hit")
			t.topic, t.chapter, t.keywords, t.mistake = r.Topic, r.Chapter, r.Keywords, r.Mistake
		}
	}

	tokens := d.policy.Tokens(append([]string{t.topic, t.chapter}, t.keywords...)...)
	if len(tokens) == 0 {
		tokens = d.policy.Tokens(t.question)
	}

	if out := d.fromModel(ctx, log, t, tokens); len(out) > 0 {
		return out
	}
	if out := d.fromSearch(ctx, log, t); len(out) > 0 {
		return out
	}

	out := d.limit(d.curated.Lookup(t.topic))
	if len(out) == 0 && t.topic != strings.TrimSpace(q.Topic) {
		out = d.limit(d.curated.Lookup(q.Topic))
	}
	if len(out) > 0 {
		d.observe(StrategyCurated, "hit")
	} else {
		d.observe(StrategyCurated, "miss")
	}
	return out
}

// fromModel runs candidate search, validation and the single replacement
// round.
func (d *Discoverer) fromModel(ctx context.Context, log *logger.Logger, t target, tokens []string) []Resource {
	if d.provider == nil {
		d.observe(StrategyLLMSearch, "skipped")
		return nil
	}

	cands, err := d.propose(ctx, t, nil)
	if err != nil {
		log.Warn("candidate search failed", "error", err)
		d.observe(StrategyLLMSearch, "error")
		return nil
	}
	if len(cands) == 0 {
		log.Debug("no trusted candidates")
		d.observe(StrategyLLMSearch, "miss")
		return nil
	}

	ok, failed := d.validateAll(ctx, log, cands, tokens)
	if len(ok) > 0 {
		d.observe(StrategyLLMSearch, "hit")
	} else {
		d.observe(StrategyLLMSearch, "miss")
	}
	if len(failed) == 0 || len(ok) >= d.cfg.MaxResults {
		return d.limit(ok)
	}

	exclude := make([]string, 0, len(failed))
	for _, f := range failed {
		exclude = append(exclude, f.URL)
	}
	repl, err := d.propose(ctx, t, exclude)
	if err != nil {
		log.Warn("replacement search failed", "error", err)
		d.observe(StrategyReplacement, "error")
		return d.limit(ok)
	}
	good, _ := d.validateAll(ctx, log, repl, tokens)
	if len(good) > 0 {
		d.observe(StrategyReplacement, "hit")
	} else {
		d.observe(StrategyReplacement, "miss")
	}
	return d.limit(Dedupe(append(ok, good...)))
}

// fromSearch issues increasingly generic web-search queries and validates
// trusted hits against each query's own tokens.
func (d *Discoverer) fromSearch(ctx context.Context, log *logger.Logger, t target) []Resource {
	if d.searcher == nil {
		d.observe(StrategyWebSearch, "skipped")
		return nil
	}

	for _, query := range searchQueries(t) {
		hits, err := d.searcher.Search(ctx, query)
		if errors.Is(err, ErrSearchDisabled) {
			d.observe(StrategyWebSearch, "skipped")
			return nil
		}
		if err != nil {
			log.Warn("web search failed", "query", query, "error", err)
			d.metrics.ObserveSearch("error")
			continue
		}
		d.metrics.ObserveSearch("ok")

		var cands []Resource
		for _, h := range hits {
			if !d.policy.Allowed(h.URL) {
				continue
			}
			cands = append(cands, normalize(Resource{
				Title:       h.Title,
				URL:         h.URL,
				Description: h.Snippet,
				Type:        TypeArticle,
			}))
		}
		cands = Dedupe(cands)
		if len(cands) == 0 {
			continue
		}

		ok, _ := d.validateAll(ctx, log, cands, d.policy.Tokens(query))
		if len(ok) > 0 {
			d.observe(StrategyWebSearch, "hit")
			return d.limit(ok)
		}
	}
	d.observe(StrategyWebSearch, "miss")
	return nil
}

func searchQueries(t target) []string {
	var qs []string
	if t.question != "" {
		qs = append(qs, t.question)
	}
	if t.topic != "" {
		qs = append(qs, t.topic, t.topic+workedExamplesSuffix)
	}
	return qs
}

// validateAll checks candidates concurrently. Results keep candidate order.
func (d *Discoverer) validateAll(ctx context.Context, log *logger.Logger, cands []Resource, tokens []string) (ok, failed []Resource) {
	errs := make([]error, len(cands))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.ValidationWorkers)
	for i, c := range cands {
		g.Go(func() error {
			errs[i] = d.validator.Validate(gctx, c, tokens)
			return nil
		})
	}
	_ = g.Wait()

	for i, c := range cands {
		if errs[i] != nil {
			log.Debug("link rejected", "url", c.URL, "error", errs[i])
			d.metrics.ObserveValidation("rejected")
			failed = append(failed, c)
			continue
		}
		d.metrics.ObserveValidation("ok")
		ok = append(ok, c)
	}
	return ok, failed
}

func (d *Discoverer) limit(in []Resource) []Resource {
	if len(in) > d.cfg.MaxResults {
		return in[:d.cfg.MaxResults]
	}
	return in
}

func (d *Discoverer) observe(s Strategy, outcome string) {
	d.metrics.ObserveStrategy(string(s), outcome)
}
