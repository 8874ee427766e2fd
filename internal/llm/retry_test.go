package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts: attempts,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

var narrativeOK = json.RawMessage(`{"overall":"ok"}`)

func TestRetry_Outcomes(t *testing.T) {
	down := func() MockResponse { return MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}} }
	invalid := func() MockResponse {
		return MockResponse{Err: &ErrInvalidResponse{Content: json.RawMessage(`nope`), Err: errors.New("bad")}}
	}

	tests := []struct {
		name      string
		attempts  int
		responses []MockResponse
		wantErr   bool
		wantCalls int
	}{
		{"first attempt succeeds", 3, []MockResponse{{Content: narrativeOK}}, false, 1},
		{"transient then success", 3, []MockResponse{down(), {Content: narrativeOK}}, false, 2},
		{"all attempts fail", 3, []MockResponse{down(), down(), down()}, true, 3},
		{"single shot does not retry", 1, []MockResponse{down(), {Content: narrativeOK}}, true, 1},
		{"zero attempts still calls once", 0, []MockResponse{{Content: narrativeOK}}, false, 1},
		{"invalid response retried once", 3, []MockResponse{invalid(), invalid(), {Content: narrativeOK}}, true, 2},
		{"max tokens not retried", 3, []MockResponse{{Err: &ErrMaxTokensExceeded{}}}, true, 1},
		{"rejected not retried", 3, []MockResponse{{Err: &ErrRejected{Status: 401, Err: errors.New("bad key")}}, {Content: narrativeOK}}, true, 1},
		{"timeout not retried", 3, []MockResponse{{Err: &ErrTimeout{After: time.Second}}, {Content: narrativeOK}}, true, 1},
		{"rate limit honors retry-after", 3, []MockResponse{
			{Err: &ErrRateLimit{RetryAfter: time.Millisecond, Err: errors.New("429")}},
			{Content: narrativeOK},
		}, false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.responses...)
			p := WithRetry(mock, fastRetry(tt.attempts))

			resp, err := p.Generate(context.Background(), Request{})
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.JSONEq(t, string(narrativeOK), resp.Text())
			}
			assert.Equal(t, tt.wantCalls, mock.CallCount())
		})
	}
}

func TestRetry_NoRetryContext(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Content: narrativeOK},
	)
	p := WithRetry(mock, fastRetry(3))

	_, err := p.Generate(WithNoRetry(context.Background()), Request{})
	var unavailable *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 1, mock.CallCount())

	resp, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.JSONEq(t, string(narrativeOK), resp.Text())
	assert.False(t, NoRetry(context.Background()))
}

func TestRetry_ContextCancellation(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Content: narrativeOK},
	)
	p := WithRetry(mock, RetryConfig{MaxAttempts: 3, InitialWait: time.Hour, MaxWait: time.Hour, Multiplier: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetry_ModelIDDelegates(t *testing.T) {
	p := WithRetry(NewMockProvider(), fastRetry(2))
	assert.Equal(t, "mock", p.ModelID())
}

func TestRetry_SkipsWaitPastDeadline(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Content: narrativeOK},
	)
	p := WithRetry(mock, RetryConfig{MaxAttempts: 3, InitialWait: time.Second, MaxWait: time.Second, Multiplier: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Generate(ctx, Request{})
	var unavail *ErrProviderUnavailable
	require.ErrorAs(t, err, &unavail)
	assert.Less(t, time.Since(start), 40*time.Millisecond)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, retryAfter("3"))
	assert.Zero(t, retryAfter(""))
	assert.Zero(t, retryAfter("soon"))
	assert.Zero(t, retryAfter("-1"))

	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	d := retryAfter(future)
	assert.Greater(t, d, 50*time.Second)
	assert.LessOrEqual(t, d, time.Minute)
}

func TestClassifyStatus(t *testing.T) {
	base := errors.New("boom")
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusTooManyRequests, func(err error) bool { var e *ErrRateLimit; return errors.As(err, &e) }},
		{http.StatusBadGateway, func(err error) bool { var e *ErrProviderUnavailable; return errors.As(err, &e) }},
		{0, func(err error) bool { var e *ErrProviderUnavailable; return errors.As(err, &e) }},
		{http.StatusUnauthorized, func(err error) bool { var e *ErrRejected; return errors.As(err, &e) && e.Status == 401 }},
		{http.StatusBadRequest, func(err error) bool { var e *ErrRejected; return errors.As(err, &e) }},
	}
	for _, tt := range tests {
		err := classifyStatus(tt.status, base)
		assert.True(t, tt.check(err), "status %d gave %T", tt.status, err)
		assert.ErrorIs(t, err, base)
	}
	assert.True(t, IsFinal(classifyStatus(http.StatusForbidden, base)))
	assert.False(t, IsFinal(classifyStatus(http.StatusServiceUnavailable, base)))
}
