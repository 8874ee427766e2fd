package narrative

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizlens/internal/grading"
	"github.com/abhisek/quizlens/internal/i18n"
	"github.com/abhisek/quizlens/internal/llm"
	"github.com/abhisek/quizlens/internal/metrics"
)

func sampleInput() Input {
	return Input{
		Score: 6,
		Label: grading.LabelPass,
		WeakAreas: []grading.WeakArea{
			{Topic: "Polynomials", Kind: grading.KindTopic, Wrong: 2, Total: 2, ErrorRate: 1, Percentage: 100, Severity: grading.SeverityHigh},
			{Topic: "Geometry", Kind: grading.KindTopic, Wrong: 1, Total: 3, Correct: 2, ErrorRate: 1.0 / 3, Percentage: 33, Severity: grading.SeverityLow},
		},
		TopicStats: []grading.TopicStat{
			{Topic: "Polynomials", Wrong: 2, Total: 2},
			{Topic: "Geometry", Wrong: 1, Correct: 2, Total: 3},
			{Topic: "Counting", Correct: 5, Total: 5},
		},
		Feedback:       []grading.Feedback{{QuestionID: "q1", Reason: "(a+b)^2 has a middle term."}},
		RulesTriggered: []grading.RuleTrigger{grading.TriggerQuickGuess, grading.TriggerQuickGuess, grading.TriggerTopicRepeat},
	}
}

func newTestGenerator(p llm.Provider, cfg Config) *Generator {
	return NewGenerator(p, i18n.MustNew("vi", nil), cfg)
}

func assertWellFormedFallback(t *testing.T, s Summary) {
	t.Helper()
	assert.Equal(t, SourceFallback, s.Source)
	assert.NotEmpty(t, s.Overall)
	assert.NotEmpty(t, s.Weaknesses)
	assert.NotEmpty(t, s.Plan)
	assert.NotEmpty(t, s.Strengths)
}

const validReply = "```json\n" + `{
  "overall": "Khá tốt, cần ôn đa thức.",
  "start_here": "Ôn 15 phút phần Đa thức.",
  "strengths": ["Đếm tốt"],
  "weaknesses": ["Polynomials: 100% sai"],
  "plan": ["Ôn hằng đẳng thức", {"step": "Làm 5 bài tập", "duration": "20 phút", "resource_suggestion": {"type": "exercise", "name": "VietJack"}}],
  "priority": ["Ôn đa thức"]
}` + "\n```"

func TestGenerate_UsesModelReply(t *testing.T) {
	mock := llm.NewMockProvider(llm.Text(validReply))
	g := newTestGenerator(mock, DefaultConfig())

	s := g.Generate(context.Background(), sampleInput())

	assert.Equal(t, SourceLLM, s.Source)
	assert.Equal(t, "Khá tốt, cần ôn đa thức.", s.Overall)
	require.Len(t, s.Plan, 2)
	assert.Equal(t, PlanStep{Step: "Ôn hằng đẳng thức"}, s.Plan[0])
	assert.Equal(t, "20 phút", s.Plan[1].Duration)
	require.NotNil(t, s.Plan[1].ResourceSuggestion)
	assert.Equal(t, "exercise", s.Plan[1].ResourceSuggestion.Type)

	// No field-by-field merging with the fallback.
	assert.Empty(t, s.MotivationalMessage)
}

func TestGenerate_PromptCarriesGradingData(t *testing.T) {
	mock := llm.NewMockProvider(llm.Text(validReply))
	g := newTestGenerator(mock, DefaultConfig())

	g.Generate(context.Background(), sampleInput())

	require.Len(t, mock.Calls, 1)
	req := mock.Calls[0]
	assert.Contains(t, req.System, "Vietnamese")
	assert.Equal(t, SummarySchema, req.Schema)
	assert.Equal(t, 800, req.MaxTokens)

	msg := req.Messages[0].Content
	assert.Contains(t, msg, "Score: 6/10 (pass)")
	assert.Contains(t, msg, "- Polynomials (100% wrong, 2/2, severity high)")
	assert.Contains(t, msg, "quick_guess_detected x2, topic_repeat_errors x1")
	assert.Contains(t, msg, "(a+b)^2 has a middle term.")
}

func TestGenerate_FallbackCases(t *testing.T) {
	tests := []struct {
		name  string
		reply llm.MockResponse
	}{
		{"service unavailable", llm.MockResponse{Err: &llm.ErrProviderUnavailable{}}},
		{"malformed json", llm.Text(`{"overall": "cut off`)},
		{"prose only", llm.Text("Sorry, I cannot help with that.")},
		{"missing plan", llm.Text(`{"overall": "ok", "strengths": [], "weaknesses": ["x"]}`)},
		{"empty plan", llm.Text(`{"overall": "ok", "strengths": [], "weaknesses": ["x"], "plan": []}`)},
		{"blank overall", llm.Text(`{"overall": "  ", "strengths": [], "weaknesses": ["x"], "plan": ["a"]}`)},
		{"empty weaknesses with weak areas", llm.Text(`{"overall": "ok", "strengths": [], "weaknesses": [], "plan": ["a"]}`)},
		{"wrong type", llm.Text(`{"overall": 5, "strengths": [], "weaknesses": ["x"], "plan": ["a"]}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(llm.NewMockProvider(tt.reply), DefaultConfig())
			assertWellFormedFallback(t, g.Generate(context.Background(), sampleInput()))
		})
	}
}

func TestGenerate_UnreachableService(t *testing.T) {
	// An empty mock queue behaves like an unreachable service.
	g := newTestGenerator(llm.NewMockProvider(), DefaultConfig())
	assertWellFormedFallback(t, g.Generate(context.Background(), sampleInput()))

	g = newTestGenerator(nil, DefaultConfig())
	assertWellFormedFallback(t, g.Generate(context.Background(), sampleInput()))
}

func TestGenerate_SingleAttemptUnderRetry(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}},
		llm.Text(validReply),
	)
	p := llm.WithRetry(mock, llm.RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: time.Millisecond, Multiplier: 1})
	g := newTestGenerator(p, DefaultConfig())

	assertWellFormedFallback(t, g.Generate(context.Background(), sampleInput()))
	assert.Equal(t, 1, mock.CallCount())
}

func TestGenerate_TimeoutDoesNotWait(t *testing.T) {
	slow := llm.MockResponse{Content: []byte(validReply), Delay: 2 * time.Second}
	cfg := DefaultConfig()
	cfg.Timeout = 30 * time.Millisecond
	g := newTestGenerator(llm.NewMockProvider(slow), cfg)

	start := time.Now()
	s := g.Generate(context.Background(), sampleInput())

	assert.Less(t, time.Since(start), time.Second)
	assertWellFormedFallback(t, s)
}

func TestGenerate_RecordsSource(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg, reg)
	mock := llm.NewMockProvider(llm.Text(validReply), llm.Text("nope"))
	g := NewGenerator(mock, nil, DefaultConfig(), WithMetrics(m))

	g.Generate(context.Background(), sampleInput())
	g.Generate(context.Background(), sampleInput())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NarrativeSource.WithLabelValues("llm")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NarrativeSource.WithLabelValues("fallback")))
}

func TestGenerate_LanguageFromContext(t *testing.T) {
	mock := llm.NewMockProvider(llm.Text(validReply))
	g := newTestGenerator(mock, DefaultConfig())

	ctx := i18n.WithLanguage(context.Background(), "en-US")
	g.Generate(ctx, sampleInput())
	assert.Contains(t, mock.Calls[0].System, "English")

	s := g.Fallback(ctx, sampleInput())
	assert.True(t, strings.HasPrefix(s.Overall, "Well done! You scored 6/10 (Pass)."), s.Overall)
}

func TestPlanStepUnmarshal(t *testing.T) {
	var p PlanStep
	require.NoError(t, p.UnmarshalJSON([]byte(`"just a step"`)))
	assert.Equal(t, PlanStep{Step: "just a step"}, p)

	require.NoError(t, p.UnmarshalJSON([]byte(`{"step": "s", "action": "a"}`)))
	assert.Equal(t, PlanStep{Step: "s", Action: "a"}, p)

	assert.Error(t, p.UnmarshalJSON([]byte(`42`)))
}
