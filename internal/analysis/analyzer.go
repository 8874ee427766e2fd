package analysis

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/quizlens/internal/grading"
	"github.com/abhisek/quizlens/internal/logger"
	"github.com/abhisek/quizlens/internal/metrics"
	"github.com/abhisek/quizlens/internal/narrative"
	"github.com/abhisek/quizlens/internal/resources"
)

// DefaultDiscoveryTopics is how many weak topics get resource discovery.
const DefaultDiscoveryTopics = 3

// Analyzer grades a submission and enriches the result. Only grading can
// fail; the narrative and links degrade to their fallback or empty states.
type Analyzer struct {
	engine     *grading.Engine
	narrator   Narrator
	discoverer Discoverer
	topics     int
	log        *logger.Logger
	metrics    *metrics.Metrics
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithEngine replaces the grading engine.
func WithEngine(e *grading.Engine) Option {
	return func(a *Analyzer) { a.engine = e }
}

// WithDiscoveryTopics sets how many weak topics get links.
func WithDiscoveryTopics(n int) Option {
	return func(a *Analyzer) { a.topics = n }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(a *Analyzer) { a.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// NewAnalyzer creates an Analyzer. A nil narrator uses the deterministic
// fallback only; a nil discoverer leaves resource links empty.
func NewAnalyzer(narrator Narrator, discoverer Discoverer, opts ...Option) *Analyzer {
	a := &Analyzer{
		engine:     grading.NewEngine(),
		narrator:   narrator,
		discoverer: discoverer,
		topics:     DefaultDiscoveryTopics,
		log:        logger.Nop(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.narrator == nil {
		a.narrator = narrative.NewGenerator(nil, nil, narrative.DefaultConfig(), narrative.WithLogger(a.log))
	}
	return a
}

// Analyze grades sub and fans out the narrative and per-topic discovery
// concurrently. The returned error is always a grading precondition failure.
func (a *Analyzer) Analyze(ctx context.Context, sub Submission) (*Result, error) {
	start := time.Now()

	graded, err := a.engine.GradeServed(sub.Questions, sub.Answers, sub.AutoSubmitted, sub.Served)
	if err != nil {
		return nil, fmt.Errorf("grade submission: %w", err)
	}

	in := narrative.InputFromResult(graded, sub.History)
	in.Language = sub.Language

	targets := a.targets(graded)
	found := make([][]resources.Resource, len(targets))
	var summary narrative.Summary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary = a.narrator.Generate(gctx, in)
		return nil
	})
	if a.discoverer != nil {
		for i, q := range targets {
			g.Go(func() error {
				found[i] = a.discoverer.Discover(gctx, q)
				return nil
			})
		}
	}
	_ = g.Wait()

	res := fromGrading(graded)
	res.Summary = summary
	res.MotivationalFeedback = a.narrator.Motivate(ctx, in)
	res.ResourceLinks = mergeLinks(targets, found)
	res.ContestKey = sub.ContestKey
	res.ContestName = sub.ContestName
	res.IsAutoSubmitted = sub.AutoSubmitted

	a.metrics.ObserveAnalysis(string(res.PerformanceLabel), time.Since(start))
	a.log.Debug("submission analyzed",
		"score", res.Score,
		"label", res.PerformanceLabel,
		"weak_areas", len(res.WeakAreas),
		"narrative", res.Summary.Source,
		"links", len(res.ResourceLinks),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// targets picks the top unique weak topics, each with the first question
// the student missed on it as context.
func (a *Analyzer) targets(res *grading.Result) []resources.Query {
	var out []resources.Query
	seen := make(map[string]bool)
	for _, w := range res.WeakAreas {
		if len(out) == a.topics {
			break
		}
		if w.Kind != grading.KindTopic || seen[w.Topic] {
			continue
		}
		seen[w.Topic] = true

		q := resources.Query{Topic: w.Topic}
		if c := res.WrongOnTopic(w.Topic); c != nil {
			q.Question = c.Question
			q.CorrectAnswer = c.CorrectAnswer
			q.UserAnswer = c.UserAnswer
		}
		out = append(out, q)
	}
	return out
}

// mergeLinks keeps topic order and drops URLs already listed under an
// earlier topic. Topics left without links are omitted.
func mergeLinks(targets []resources.Query, found [][]resources.Resource) []TopicLinks {
	out := []TopicLinks{}
	var shown []resources.Resource
	for i, q := range targets {
		before := len(shown)
		shown = resources.Dedupe(append(shown, found[i]...))
		fresh := shown[before:]
		if len(fresh) == 0 {
			continue
		}
		out = append(out, TopicLinks{Topic: q.Topic, Resources: append([]resources.Resource(nil), fresh...)})
	}
	return out
}

func fromGrading(g *grading.Result) *Result {
	return &Result{
		Score:                g.Score,
		PerformanceLabel:     g.PerformanceLabel,
		Correct:              g.Correct,
		Graded:               g.Graded,
		TopicStats:           g.TopicStats,
		SubtopicStats:        g.SubtopicStats,
		WeakAreas:            g.WeakAreas,
		Feedback:             g.Feedback,
		Recommendations:      g.Recommendations,
		AnswerComparison:     g.AnswerComparison,
		RulesTriggered:       g.RulesTriggered,
		IsFlaggedForCheating: g.IsFlaggedForCheating,
		CheatReason:          g.CheatReason,
	}
}
