package resources

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// TrustPolicy decides which links may be shown and how bodies are checked.
// Hosts match by suffix on a dot boundary, so "khanacademy.org" also covers
// "vi.khanacademy.org".
type TrustPolicy struct {
	Allow           []string `yaml:"allow" mapstructure:"allow"`
	Block           []string `yaml:"block" mapstructure:"block"`
	MinTokenLength  int      `yaml:"min_token_length" mapstructure:"min_token_length"`
	NotFoundMarkers []string `yaml:"not_found_markers" mapstructure:"not_found_markers"`
	AllowHTTP       bool     `yaml:"allow_http" mapstructure:"allow_http"`
}

// DefaultTrustPolicy returns the stock allow and block lists.
func DefaultTrustPolicy() TrustPolicy {
	return TrustPolicy{
		Allow: []string{
			"vietjack.com",
			"loigiaihay.com",
			"hoc247.net",
			"khanacademy.org",
			"wikipedia.org",
			"youtube.com",
			"youtu.be",
		},
		Block: []string{
			"example.com",
			"example.org",
			"bit.ly",
			"tinyurl.com",
			"goo.gl",
			"docs.google.com",
			"drive.google.com",
			"scribd.com",
		},
		MinTokenLength: 3,
		NotFoundMarkers: []string{
			"404 not found",
			"page not found",
			"error 404",
			"không tìm thấy trang",
			"trang không tồn tại",
			"video unavailable",
			"this video is unavailable",
			"this video has been removed",
			"has been removed",
			"no longer available",
			"đã bị xóa",
		},
	}
}

// LoadTrustPolicy reads a YAML policy file. Sections missing from the file
// keep their defaults.
func LoadTrustPolicy(path string) (TrustPolicy, error) {
	p := DefaultTrustPolicy()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read trust policy: %w", err)
	}
	var file TrustPolicy
	if err := yaml.Unmarshal(data, &file); err != nil {
		return p, fmt.Errorf("parse trust policy %s: %w", path, err)
	}
	return p.merge(file), nil
}

func (p TrustPolicy) merge(o TrustPolicy) TrustPolicy {
	if len(o.Allow) > 0 {
		p.Allow = o.Allow
	}
	if len(o.Block) > 0 {
		p.Block = o.Block
	}
	if o.MinTokenLength > 0 {
		p.MinTokenLength = o.MinTokenLength
	}
	if len(o.NotFoundMarkers) > 0 {
		p.NotFoundMarkers = o.NotFoundMarkers
	}
	p.AllowHTTP = p.AllowHTTP || o.AllowHTTP
	return p
}

// Allowed reports whether rawURL points at a trusted, non-blocked public host.
func (p TrustPolicy) Allowed(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
	case "http":
		if !p.AllowHTTP {
			return false
		}
	default:
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || host == "localhost" || strings.HasSuffix(host, ".local") {
		return false
	}
	if net.ParseIP(host) != nil {
		return false
	}
	if matchHost(host, p.Block) {
		return false
	}
	return matchHost(host, p.Allow)
}

// Reason explains why Allowed rejected rawURL, or "" when it did not.
func (p TrustPolicy) Reason(rawURL string) string {
	if p.Allowed(rawURL) {
		return ""
	}
	host := strings.ToLower(hostOf(rawURL))
	if matchHost(host, p.Block) {
		return "blocked host"
	}
	return "host not on allow-list"
}

func matchHost(host string, list []string) bool {
	host = strings.TrimPrefix(host, "www.")
	for _, d := range list {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Tokens splits text into lowercased words of at least MinTokenLength
// runes, deduplicated in order of appearance.
func (p TrustPolicy) Tokens(texts ...string) []string {
	minLen := p.MinTokenLength
	if minLen <= 0 {
		minLen = 3
	}
	seen := make(map[string]bool)
	var out []string
	for _, text := range texts {
		words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, w := range words {
			if len([]rune(w)) < minLen || seen[w] {
				continue
			}
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

// overlaps reports whether body contains any of tokens. An empty token set
// never overlaps.
func overlaps(body string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(body, t) {
			return true
		}
	}
	return false
}

// notFoundMarker returns the first marker found in body.
func (p TrustPolicy) notFoundMarker(body string) string {
	for _, m := range p.NotFoundMarkers {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" && strings.Contains(body, m) {
			return m
		}
	}
	return ""
}

func isVideoHost(host string) bool {
	return matchHost(host, []string{"youtube.com", "youtu.be"})
}
