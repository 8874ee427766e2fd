package grading

// QuickGuessThresholdSeconds is the response time (exclusive) under which a
// wrong answer counts as a quick guess.
const QuickGuessThresholdSeconds = 10

// RuleInput is the context a Rule sees for one wrong answer.
type RuleInput struct {
	Question *Question
	Answer   Answer

	// TopicWrong is the running wrong count for the question's topic,
	// including this answer.
	TopicWrong int
}

// Rule raises a trigger for a wrong answer. Unlike subtopic matching every
// rule is evaluated, so one answer may raise several triggers.
type Rule interface {
	Name() string
	Evaluate(in *RuleInput) (RuleTrigger, bool)
}

// DefaultRules returns the rules in the order their triggers are appended.
func DefaultRules() []Rule {
	return []Rule{
		&QuickGuessRule{ThresholdSeconds: QuickGuessThresholdSeconds},
		&TopicRepeatRule{},
	}
}

// QuickGuessRule flags wrong answers submitted suspiciously fast.
type QuickGuessRule struct {
	ThresholdSeconds float64
}

func (r *QuickGuessRule) Name() string { return "quick-guess" }

func (r *QuickGuessRule) Evaluate(in *RuleInput) (RuleTrigger, bool) {
	if in.Answer.TimeTakenSeconds < r.ThresholdSeconds {
		return TriggerQuickGuess, true
	}
	return "", false
}

// TopicRepeatRule flags a topic once it has more than one wrong answer.
// It fires again for every further wrong answer on that topic.
type TopicRepeatRule struct{}

func (r *TopicRepeatRule) Name() string { return "topic-repeat" }

func (r *TopicRepeatRule) Evaluate(in *RuleInput) (RuleTrigger, bool) {
	if in.TopicWrong > 1 {
		return TriggerTopicRepeat, true
	}
	return "", false
}
