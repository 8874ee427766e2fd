package narrative

import (
	"encoding/json"
	"time"

	"github.com/abhisek/quizlens/internal/grading"
)

// Source tells where a Summary came from.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
)

// Suggestion names a kind of learning material for a plan step.
type Suggestion struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// PlanStep is one entry of the study plan.
type PlanStep struct {
	Step               string      `json:"step"`
	Duration           string      `json:"duration,omitempty"`
	Action             string      `json:"action,omitempty"`
	ResourceSuggestion *Suggestion `json:"resource_suggestion,omitempty"`
}

// UnmarshalJSON also accepts a bare string, which models sometimes emit
// instead of an object.
func (p *PlanStep) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = PlanStep{Step: s}
		return nil
	}
	type plain PlanStep
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = PlanStep(v)
	return nil
}

// Summary is the narrative part of an analysis. It is either entirely
// model-written or entirely built by Fallback.
type Summary struct {
	Overall             string     `json:"overall"`
	StartHere           string     `json:"start_here,omitempty"`
	Strengths           []string   `json:"strengths"`
	Weaknesses          []string   `json:"weaknesses"`
	Plan                []PlanStep `json:"plan"`
	Priority            []string   `json:"priority"`
	MotivationalMessage string     `json:"motivationalMessage"`
	Source              Source     `json:"source"`
}

// Motivation is the deterministic encouragement shown next to the summary.
type Motivation struct {
	Opening string `json:"opening"`
	Body    string `json:"body"`
	Closing string `json:"closing"`
	Message string `json:"overallMessage"`
}

// Input carries the grading output the narrative is written from.
type Input struct {
	Score           int
	Label           grading.Label
	WeakAreas       []grading.WeakArea
	TopicStats      []grading.TopicStat
	Feedback        []grading.Feedback
	Recommendations []grading.Recommendation
	RulesTriggered  []grading.RuleTrigger

	// History holds the student's previous scores, newest first.
	History []int

	// Language overrides the configured language when set.
	Language string
}

// InputFromResult builds an Input from a grading result.
func InputFromResult(res *grading.Result, history []int) Input {
	return Input{
		Score:           res.Score,
		Label:           res.PerformanceLabel,
		WeakAreas:       res.WeakAreas,
		TopicStats:      res.TopicStats,
		Feedback:        res.Feedback,
		Recommendations: res.Recommendations,
		RulesTriggered:  res.RulesTriggered,
		History:         history,
	}
}

// Config controls the model call.
type Config struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Language    string        `mapstructure:"language"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:     8 * time.Second,
		MaxTokens:   800,
		Temperature: 0.7,
		Language:    "vi",
	}
}
