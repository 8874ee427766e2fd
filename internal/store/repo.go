package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match when non-empty

	SubmissionID string // exact submission match when non-empty
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	SubmissionID string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a persisted LLM request event.
type LLMRequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates token usage for one request purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates token usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
}

// LLMEventRepo extends EventRepo with the read side used by the CLI.
type LLMEventRepo interface {
	EventRepo

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns ErrNotFound when id does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}

// ResultRecord is one stored analysis, keyed by submission id. Analysis
// holds the serialized result document and is opaque to the store.
type ResultRecord struct {
	SubmissionID     string
	UserID           string
	QuizID           string
	Score            int
	PerformanceLabel string
	Flagged          bool
	Answers          json.RawMessage
	TimePerQuestion  json.RawMessage
	Analysis         json.RawMessage
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ResultRepo persists analysis results.
type ResultRepo interface {
	// SaveResult inserts or replaces the record with the same submission id.
	// CreatedAt is preserved across replacements.
	SaveResult(ctx context.Context, rec ResultRecord) error

	// GetResult returns ErrNotFound when the submission is unknown.
	GetResult(ctx context.Context, submissionID string) (*ResultRecord, error)

	// ListByUser returns the user's results newest first. limit <= 0 means all.
	ListByUser(ctx context.Context, userID string, limit int) ([]ResultRecord, error)
}
