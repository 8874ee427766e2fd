package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrSearchDisabled is returned by a searcher with no credentials.
var ErrSearchDisabled = errors.New("web search not configured")

// SearchConfig configures the web-search client. The API follows the
// Custom Search JSON shape: GET endpoint?key=&cx=&q=&num= returning
// {"items": [{"title", "link", "snippet"}]}.
type SearchConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	APIKey        string        `mapstructure:"api_key"`
	EngineID      string        `mapstructure:"engine_id"`
	Results       int           `mapstructure:"results"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

// DefaultSearchConfig returns the stock search settings. The key and
// engine id come from configuration.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Endpoint:      "https://www.googleapis.com/customsearch/v1",
		Results:       5,
		Timeout:       5 * time.Second,
		RatePerSecond: 1,
		Burst:         2,
	}
}

// Enabled reports whether credentials are present.
func (c SearchConfig) Enabled() bool {
	return c.APIKey != "" && c.EngineID != ""
}

// HTTPSearcher calls the web-search API behind a token-bucket limiter.
type HTTPSearcher struct {
	cfg     SearchConfig
	client  *http.Client
	limiter *rate.Limiter
	sites   []string
}

// NewHTTPSearcher creates a searcher. A nil client uses one with cfg.Timeout.
// When sites are given every query is restricted to those domains.
func NewHTTPSearcher(cfg SearchConfig, client *http.Client, sites ...string) *HTTPSearcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &HTTPSearcher{cfg: cfg, client: client, limiter: rate.NewLimiter(limit, burst), sites: siteTerms(sites)}
}

func siteTerms(domains []string) []string {
	var terms []string
	seen := make(map[string]bool, len(domains))
	for _, d := range domains {
		d = strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "*"), ".")
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		terms = append(terms, "site:"+d)
	}
	return terms
}

// restrict appends the site operators to query.
func (s *HTTPSearcher) restrict(query string) string {
	switch len(s.sites) {
	case 0:
		return query
	case 1:
		return query + " " + s.sites[0]
	}
	return query + " (" + strings.Join(s.sites, " OR ") + ")"
}

type searchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *HTTPSearcher) Search(ctx context.Context, query string) ([]SearchHit, error) {
	if !s.cfg.Enabled() {
		return nil, ErrSearchDisabled
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("key", s.cfg.APIKey)
	params.Set("cx", s.cfg.EngineID)
	params.Set("q", s.restrict(query))
	if s.cfg.Results > 0 {
		params.Set("num", strconv.Itoa(s.cfg.Results))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, defaultMaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("search status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("search error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}

	hits := make([]SearchHit, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		hits = append(hits, SearchHit{Title: it.Title, URL: it.Link, Snippet: it.Snippet})
	}
	return hits, nil
}
