package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the model returned content that could not be
// parsed or does not conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// ErrTimeout indicates the call lost the race against its deadline. The
// in-flight request may still complete; its result is discarded.
type ErrTimeout struct {
	After time.Duration
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("LLM request timed out after %s", e.After)
}

// ErrRejected indicates the provider refused the request itself: bad
// credentials, an unknown model or a schema it cannot honor. Sending the
// same request again cannot succeed.
type ErrRejected struct {
	Status int
	Err    error
}

func (e *ErrRejected) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("LLM request rejected: %v", e.Err)
	}
	return fmt.Sprintf("LLM request rejected (status %d): %v", e.Status, e.Err)
}

func (e *ErrRejected) Unwrap() error { return e.Err }

// classifyStatus maps the HTTP status carried by an SDK error onto the
// typed errors. A zero status means the request never got an answer.
func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &ErrRateLimit{Err: err}
	case status >= 500, status == http.StatusRequestTimeout, status == 0:
		return &ErrProviderUnavailable{Err: err}
	case status >= 400:
		return &ErrRejected{Status: status, Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}

// IsFinal reports whether err can not be cured by sending the request again.
func IsFinal(err error) bool {
	var (
		timeout  *ErrTimeout
		maxTok   *ErrMaxTokensExceeded
		rejected *ErrRejected
	)
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &timeout) ||
		errors.As(err, &maxTok) ||
		errors.As(err, &rejected)
}
