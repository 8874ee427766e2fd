package resources

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// Type classifies a learning resource.
type Type string

const (
	TypeArticle  Type = "article"
	TypeExercise Type = "exercise"
	TypeVideo    Type = "video"
)

// Resource is one verified external learning link.
type Resource struct {
	Title       string `json:"title" yaml:"title"`
	URL         string `json:"url" yaml:"url"`
	Source      string `json:"source" yaml:"source"`
	Description string `json:"description" yaml:"description"`
	Type        Type   `json:"type" yaml:"type"`
}

// Query describes what to find resources for. Question, CorrectAnswer and
// UserAnswer are optional context from a missed question.
type Query struct {
	Topic         string `json:"topic"`
	Question      string `json:"question,omitempty"`
	CorrectAnswer string `json:"correctAnswer,omitempty"`
	UserAnswer    string `json:"userAnswer,omitempty"`
}

// SearchHit is one result from the web-search service.
type SearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher is the web-search service used as a fallback.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchHit, error)
}

// Strategy names the tiers of the discovery chain, used in logs and metrics.
type Strategy string

const (
	StrategyRefine      Strategy = "refine"
	StrategyLLMSearch   Strategy = "llm_search"
	StrategyReplacement Strategy = "replacement"
	StrategyWebSearch   Strategy = "web_search"
	StrategyCurated     Strategy = "curated"
)

// Config tunes the discovery chain.
type Config struct {
	RefineTimeout     time.Duration `mapstructure:"refine_timeout"`
	SearchTimeout     time.Duration `mapstructure:"search_timeout"`
	ValidateTimeout   time.Duration `mapstructure:"validate_timeout"`
	MaxCandidates     int           `mapstructure:"max_candidates"`
	MaxReplacements   int           `mapstructure:"max_replacements"`
	MaxResults        int           `mapstructure:"max_results"`
	ValidationWorkers int           `mapstructure:"validation_workers"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	Language          string        `mapstructure:"language"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		RefineTimeout:     10 * time.Second,
		SearchTimeout:     10 * time.Second,
		ValidateTimeout:   5 * time.Second,
		MaxCandidates:     4,
		MaxReplacements:   2,
		MaxResults:        3,
		ValidationWorkers: 4,
		MaxTokens:         700,
		Language:          "vi",
	}
}

// normalizeURL returns a comparison key for u: lowercased host, no
// fragment, no trailing slash.
func normalizeURL(u string) string {
	parsed, err := url.Parse(strings.TrimSpace(u))
	if err != nil || parsed.Host == "" {
		return strings.ToLower(strings.TrimSpace(u))
	}
	parsed.Fragment = ""
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	return strings.TrimSuffix(parsed.String(), "/")
}

// hostOf returns the lowercased host of u without a leading "www.".
func hostOf(u string) string {
	parsed, err := url.Parse(strings.TrimSpace(u))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

// Dedupe drops resources whose URL was already seen, keeping first occurrence.
func Dedupe(in []Resource) []Resource {
	seen := make(map[string]bool, len(in))
	out := make([]Resource, 0, len(in))
	for _, r := range in {
		k := normalizeURL(r.URL)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

// normalize fills Source and Type when the producer left them blank or
// used an unknown type.
func normalize(r Resource) Resource {
	r.Title = strings.TrimSpace(r.Title)
	r.URL = strings.TrimSpace(r.URL)
	r.Description = strings.TrimSpace(r.Description)
	if strings.TrimSpace(r.Source) == "" {
		r.Source = hostOf(r.URL)
	}
	if isVideoHost(hostOf(r.URL)) {
		r.Type = TypeVideo
	}
	switch Type(strings.ToLower(string(r.Type))) {
	case TypeArticle, TypeExercise, TypeVideo:
		r.Type = Type(strings.ToLower(string(r.Type)))
	default:
		r.Type = TypeArticle
	}
	if r.Title == "" {
		r.Title = r.Source
	}
	return r
}
