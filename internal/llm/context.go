package llm

import "context"

type contextKey string

const (
	purposeKey    contextKey = "llm_purpose"
	submissionKey contextKey = "llm_submission"
	noRetryKey    contextKey = "llm_no_retry"
)

// Purpose labels used for logging and metrics.
const (
	PurposeNarrative   = "narrative"
	PurposeRefineTopic = "refine_topic"
	PurposeSearch      = "resource_search"
	PurposeReplacement = "resource_replacement"
	PurposeHealthCheck = "health_check"
)

// WithPurpose attaches a purpose label to the context for event logging.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// WithSubmission tags every call made under ctx with the submission being
// analyzed, so recorded events can be traced back to it.
func WithSubmission(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, submissionKey, id)
}

// SubmissionFrom returns the submission id set by WithSubmission, or "".
func SubmissionFrom(ctx context.Context) string {
	v, _ := ctx.Value(submissionKey).(string)
	return v
}

// WithNoRetry marks calls made under ctx as single-attempt. RetryProvider
// passes them through once and returns the first error as is.
func WithNoRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRetryKey, true)
}

// NoRetry reports whether ctx was marked by WithNoRetry.
func NoRetry(ctx context.Context) bool {
	v, _ := ctx.Value(noRetryKey).(bool)
	return v
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}
