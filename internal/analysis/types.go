// Package analysis composes grading, the narrative and resource discovery
// into one result per quiz submission.
package analysis

import (
	"context"

	"github.com/abhisek/quizlens/internal/grading"
	"github.com/abhisek/quizlens/internal/narrative"
	"github.com/abhisek/quizlens/internal/resources"
)

// Submission is everything needed to analyze one attempt.
type Submission struct {
	// Questions is the set graded against, unshuffled or not.
	Questions     []grading.Question
	// Served is how many of Questions the student was shown. Zero means
	// all of them.
	Served        int
	Answers       []grading.Answer
	AutoSubmitted bool

	ContestKey  string
	ContestName string

	// History holds previous scores, newest first.
	History []int

	Language string
}

// TopicLinks holds the verified links found for one weak topic.
type TopicLinks struct {
	Topic     string               `json:"topic"`
	Resources []resources.Resource `json:"resources"`
}

// Result is the full remediation package for a submission.
type Result struct {
	SubmissionID string `json:"submissionId,omitempty"`

	Score            int                      `json:"score"`
	PerformanceLabel grading.Label            `json:"performanceLabel"`
	Correct          int                      `json:"correct"`
	Graded           int                      `json:"graded"`
	TopicStats       []grading.TopicStat      `json:"topicStats"`
	SubtopicStats    []grading.TopicStat      `json:"subtopicStats"`
	WeakAreas        []grading.WeakArea       `json:"weakAreas"`
	Feedback         []grading.Feedback       `json:"feedback"`
	Recommendations  []grading.Recommendation `json:"recommendations"`
	AnswerComparison []grading.Comparison     `json:"answerComparison"`
	RulesTriggered   []grading.RuleTrigger    `json:"rulesTriggered"`

	Summary              narrative.Summary    `json:"summary"`
	MotivationalFeedback narrative.Motivation `json:"motivationalFeedback"`
	ResourceLinks        []TopicLinks         `json:"resourceLinks"`

	IsAutoSubmitted      bool   `json:"isAutoSubmitted"`
	IsFlaggedForCheating bool   `json:"isFlaggedForCheating"`
	CheatReason          string `json:"cheatReason,omitempty"`

	ContestKey  string `json:"contestKey,omitempty"`
	ContestName string `json:"contestName,omitempty"`
}

// Narrator writes the narrative part of a result.
type Narrator interface {
	Generate(ctx context.Context, in narrative.Input) narrative.Summary
	Motivate(ctx context.Context, in narrative.Input) narrative.Motivation
}

// Discoverer finds verified links for one weak topic.
type Discoverer interface {
	Discover(ctx context.Context, q resources.Query) []resources.Resource
}
