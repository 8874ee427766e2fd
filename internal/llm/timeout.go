package llm

import (
	"context"
	"errors"
	"time"
)

// TimeoutProvider races every call against a timer. When the timer wins the
// caller gets *ErrTimeout immediately and the in-flight call's context is
// canceled; whatever it returns later is dropped.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps p so that no Generate call blocks longer than d.
// A non-positive d disables the race.
func WithTimeout(p Provider, d time.Duration) Provider {
	return &TimeoutProvider{inner: p, timeout: d}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	return Race(ctx, t.inner, req, t.timeout)
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}

type raceResult struct {
	resp *Response
	err  error
}

// Race runs one Generate call and returns whichever comes first: the call's
// result, the timer, or the caller's context ending. The call sees the timer
// as its context deadline, so decorators below it stop retrying in time.
func Race(ctx context.Context, p Provider, req Request, d time.Duration) (*Response, error) {
	if d <= 0 {
		return p.Generate(ctx, req)
	}

	rctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	// Buffered so the losing goroutine can always deliver and exit.
	done := make(chan raceResult, 1)
	go func() {
		resp, err := p.Generate(rctx, req)
		done <- raceResult{resp: resp, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && ctx.Err() == nil && errors.Is(rctx.Err(), context.DeadlineExceeded) {
			return nil, &ErrTimeout{After: d}
		}
		return r.resp, r.err
	case <-rctx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, &ErrTimeout{After: d}
	}
}
