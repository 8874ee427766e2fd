package resources

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/quizlens/internal/llm"
)

// Refinement is the subject topic inferred for a generic label.
type Refinement struct {
	Topic    string   `json:"topic"`
	Chapter  string   `json:"chapter"`
	Keywords []string `json:"keywords"`
	Mistake  string   `json:"mistake"`
}

// genericLabels are assessment-difficulty labels that say nothing about
// the subject being tested.
var genericLabels = setOf(
	"nhận biết", "thông hiểu", "vận dụng", "vận dụng thấp", "vận dụng cao",
	"knowledge", "comprehension", "application", "low application", "high application",
	"recall", "understanding",
)

func setOf(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

// IsGenericLabel reports whether topic is a difficulty label rather than
// a subject topic.
func IsGenericLabel(topic string) bool {
	return genericLabels[strings.ToLower(strings.TrimSpace(topic))]
}

func (d *Discoverer) refine(ctx context.Context, q Query) (*Refinement, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeRefineTopic)
	msg, err := render(refineUserTemplate, q)
	if err != nil {
		return nil, fmt.Errorf("build refine prompt: %w", err)
	}
	req := llm.Request{
		System:      refineSystemPrompt,
		Messages:    llm.UserPrompt(msg),
		Schema:      RefinementSchema,
		MaxTokens:   300,
		Temperature: 0.2,
	}
	resp, err := llm.Race(ctx, d.provider, req, d.cfg.RefineTimeout)
	if err != nil {
		return nil, err
	}
	var r Refinement
	if err := llm.DecodeJSON(resp.Content, RefinementSchema, &r); err != nil {
		return nil, err
	}
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Topic == "" || IsGenericLabel(r.Topic) {
		return nil, fmt.Errorf("refinement kept a generic topic %q", r.Topic)
	}
	return &r, nil
}

// propose asks the model for candidate links. exclude lists URLs that
// already failed; a non-empty exclude makes this a replacement request.
func (d *Discoverer) propose(ctx context.Context, t target, exclude []string) ([]Resource, error) {
	purpose, lo, hi := llm.PurposeSearch, 2, d.cfg.MaxCandidates
	if len(exclude) > 0 {
		purpose, lo, hi = llm.PurposeReplacement, 1, d.cfg.MaxReplacements
	}
	if hi < lo {
		hi = lo
	}
	ctx = llm.WithPurpose(ctx, purpose)

	msg, err := render(searchUserTemplate, searchPrompt{
		Min:      lo,
		Max:      hi,
		Topic:    t.topic,
		Chapter:  t.chapter,
		Keywords: strings.Join(t.keywords, ", "),
		Mistake:  t.mistake,
		Question: t.question,
		Exclude:  exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("build search prompt: %w", err)
	}

	req := llm.Request{
		System:      searchSystem(d.policy),
		Messages:    llm.UserPrompt(msg),
		Schema:      CandidateSchema,
		MaxTokens:   d.cfg.MaxTokens,
		Temperature: 0.3,
	}
	resp, err := llm.Race(ctx, d.provider, req, d.cfg.SearchTimeout)
	if err != nil {
		return nil, err
	}

	var list candidateList
	if err := llm.DecodeJSON(resp.Content, CandidateSchema, &list); err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(exclude))
	for _, u := range exclude {
		excluded[normalizeURL(u)] = true
	}
	var out []Resource
	for _, r := range Dedupe(list.Resources) {
		if excluded[normalizeURL(r.URL)] {
			continue
		}
		if !d.policy.Allowed(r.URL) {
			d.log.Debug("discarding candidate", "url", r.URL, "reason", d.policy.Reason(r.URL))
			continue
		}
		out = append(out, normalize(r))
		if len(out) == hi {
			break
		}
	}
	return out, nil
}
