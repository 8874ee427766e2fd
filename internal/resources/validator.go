package resources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultOEmbedEndpoint = "https://www.youtube.com/oembed"
	defaultMaxBodyBytes   = 512 * 1024
	maxRedirects          = 6
	userAgent             = "quizlens-link-checker/1.0"
)

// Validator checks that a candidate link is live and on topic.
// A nil error means the link passed.
type Validator interface {
	Validate(ctx context.Context, r Resource, tokens []string) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, r Resource, tokens []string) error

func (f ValidatorFunc) Validate(ctx context.Context, r Resource, tokens []string) error {
	return f(ctx, r, tokens)
}

// RejectError reports why a link failed validation.
type RejectError struct {
	URL    string
	Reason string
	Err    error
}

func (e *RejectError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reject %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("reject %s: %s", e.URL, e.Reason)
}

func (e *RejectError) Unwrap() error { return e.Err }

// IsRejected reports whether err came from a failed validation.
func IsRejected(err error) bool {
	var re *RejectError
	return errors.As(err, &re)
}

// HTTPValidator fetches each link and inspects the body. Video links are
// checked through the oEmbed endpoint instead of the watch page.
type HTTPValidator struct {
	client   *http.Client
	policy   TrustPolicy
	oembed   string
	timeout  time.Duration
	maxBytes int64
}

// ValidatorOption configures an HTTPValidator.
type ValidatorOption func(*HTTPValidator)

// WithHTTPClient replaces the HTTP client. Its CheckRedirect is kept as given.
func WithHTTPClient(c *http.Client) ValidatorOption {
	return func(v *HTTPValidator) { v.client = c }
}

// WithOEmbedEndpoint sets the oEmbed URL used for video links.
func WithOEmbedEndpoint(endpoint string) ValidatorOption {
	return func(v *HTTPValidator) { v.oembed = endpoint }
}

// WithValidateTimeout sets the per-link timeout.
func WithValidateTimeout(d time.Duration) ValidatorOption {
	return func(v *HTTPValidator) { v.timeout = d }
}

// WithMaxBodyBytes caps how much of each body is read.
func WithMaxBodyBytes(n int64) ValidatorOption {
	return func(v *HTTPValidator) { v.maxBytes = n }
}

// NewHTTPValidator creates a validator. Redirects are followed only while
// they stay on hosts the policy allows.
func NewHTTPValidator(policy TrustPolicy, opts ...ValidatorOption) *HTTPValidator {
	v := &HTTPValidator{
		policy:   policy,
		oembed:   defaultOEmbedEndpoint,
		timeout:  5 * time.Second,
		maxBytes: defaultMaxBodyBytes,
	}
	for _, o := range opts {
		o(v)
	}
	if v.client == nil {
		v.client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				if !policy.Allowed(req.URL.String()) {
					return fmt.Errorf("redirect to untrusted url: %s", req.URL.Redacted())
				}
				return nil
			},
		}
	}
	return v
}

func (v *HTTPValidator) Validate(ctx context.Context, r Resource, tokens []string) error {
	target := r.URL
	video := isVideoHost(hostOf(r.URL))
	if video {
		target = v.oembed + "?format=json&url=" + url.QueryEscape(r.URL)
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	body, status, err := v.fetch(ctx, target)
	if err != nil {
		return &RejectError{URL: r.URL, Reason: "fetch failed", Err: err}
	}
	if status < 200 || status > 299 {
		return &RejectError{URL: r.URL, Reason: fmt.Sprintf("status %d", status)}
	}

	text := strings.ToLower(string(body))
	if m := v.policy.notFoundMarker(text); m != "" {
		return &RejectError{URL: r.URL, Reason: fmt.Sprintf("body says %q", m)}
	}
	if !overlaps(text, tokens) {
		return &RejectError{URL: r.URL, Reason: "no query token in body"}
	}
	return nil
}

func (v *HTTPValidator) fetch(ctx context.Context, target string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, v.maxBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}
