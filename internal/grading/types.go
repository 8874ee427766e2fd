package grading

import "errors"

// ErrInvalidQuestionSet is returned when the question set cannot be graded
// against, e.g. a question without options.
var ErrInvalidQuestionSet = errors.New("invalid question set")

// Question is one multiple-choice item of a contest.
type Question struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"answerIndex"`
	Topic        string   `json:"topic"`
	Explanation  string   `json:"explanation,omitempty"`
	Difficulty   string   `json:"difficulty,omitempty"`
}

// CorrectOption returns the canonical correct option text.
func (q *Question) CorrectOption() string {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectIndex]
}

// Answer is the student's choice for one question. SelectedOption holds the
// option text, not its index.
type Answer struct {
	QuestionID       string  `json:"questionId"`
	SelectedOption   string  `json:"selectedOption"`
	TimeTakenSeconds float64 `json:"timeTakenSec"`
}

// TopicStat accumulates answer counts for one topic or subtopic key.
type TopicStat struct {
	Topic   string `json:"topic"`
	Correct int    `json:"correct"`
	Wrong   int    `json:"wrong"`
	Total   int    `json:"total"`
}

// AreaKind tells which key space a weak area came from.
type AreaKind string

const (
	KindTopic    AreaKind = "topic"
	KindSubtopic AreaKind = "subtopic"
)

// Severity ranks a weak area.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// WeakArea is a topic or subtopic with at least one wrong answer.
type WeakArea struct {
	Topic      string   `json:"topic"`
	Kind       AreaKind `json:"kind"`
	Wrong      int      `json:"wrong"`
	Total      int      `json:"total"`
	Correct    int      `json:"correct"`
	ErrorRate  float64  `json:"rate"`
	Percentage int      `json:"percentage"`
	Severity   Severity `json:"severity"`
}

// RuleTrigger is a behavioral flag raised while grading.
type RuleTrigger string

const (
	TriggerQuickGuess  RuleTrigger = "quick_guess_detected"
	TriggerTopicRepeat RuleTrigger = "topic_repeat_errors"
	TriggerAutoSubmit  RuleTrigger = "auto_submitted"
)

// Feedback explains one wrong answer.
type Feedback struct {
	QuestionID string `json:"questionId"`
	Reason     string `json:"reason"`
}

// Comparison pairs the student's answer with the canonical one.
type Comparison struct {
	QuestionID    string `json:"questionId"`
	Question      string `json:"question"`
	Topic         string `json:"topic"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
	Explanation   string `json:"explanation,omitempty"`
}

// Recommendation lists follow-up questions for a weak topic.
type Recommendation struct {
	Topic         string   `json:"topic"`
	NextQuestions []string `json:"nextQuestions"`
}

// Result is the deterministic grading output.
type Result struct {
	Score            int              `json:"score"`
	PerformanceLabel Label            `json:"performanceLabel"`
	Correct          int              `json:"correct"`
	Graded           int              `json:"graded"`
	TopicStats       []TopicStat      `json:"topicStats"`
	SubtopicStats    []TopicStat      `json:"subtopicStats"`
	WeakAreas        []WeakArea       `json:"weakAreas"`
	RulesTriggered   []RuleTrigger    `json:"rulesTriggered"`
	Feedback         []Feedback       `json:"feedback"`
	AnswerComparison []Comparison     `json:"answerComparison"`
	Recommendations  []Recommendation `json:"recommendations"`

	IsAutoSubmitted      bool   `json:"isAutoSubmitted"`
	IsFlaggedForCheating bool   `json:"isFlaggedForCheating"`
	CheatReason          string `json:"cheatReason,omitempty"`
}

// WrongOnTopic returns the first wrongly answered question of topic along
// with the student's answer, or nil when every answer on topic was right.
func (r *Result) WrongOnTopic(topic string) *Comparison {
	for i := range r.AnswerComparison {
		c := &r.AnswerComparison[i]
		if !c.IsCorrect && c.Topic == topic {
			return c
		}
	}
	return nil
}
