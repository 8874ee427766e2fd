package grading

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Engine grades submissions. It holds no per-submission state and is safe
// for concurrent use.
type Engine struct {
	classifier SubtopicClassifier
	rules      []Rule
}

// Option configures an Engine.
type Option func(*Engine)

// WithClassifier replaces the subtopic classifier.
func WithClassifier(c SubtopicClassifier) Option {
	return func(e *Engine) { e.classifier = c }
}

// WithRules replaces the rule list.
func WithRules(rules ...Rule) Option {
	return func(e *Engine) { e.rules = rules }
}

// NewEngine creates an Engine with the default keyword classifier and rules.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		classifier: DefaultKeywordClassifier(),
		rules:      DefaultRules(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// statBook accumulates TopicStats while keeping first-encounter order.
type statBook struct {
	order []string
	stats map[string]*TopicStat
}

func newStatBook() *statBook {
	return &statBook{stats: make(map[string]*TopicStat)}
}

func (b *statBook) record(key string, correct bool) *TopicStat {
	st, ok := b.stats[key]
	if !ok {
		st = &TopicStat{Topic: key}
		b.stats[key] = st
		b.order = append(b.order, key)
	}
	st.Total++
	if correct {
		st.Correct++
	} else {
		st.Wrong++
	}
	return st
}

func (b *statBook) list() []TopicStat {
	out := make([]TopicStat, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, *b.stats[k])
	}
	return out
}

// Grade scores answers against questions, which are taken to be exactly the
// set the student was served. Answers for unknown question ids are skipped.
// The only error is ErrInvalidQuestionSet.
func (e *Engine) Grade(questions []Question, answers []Answer, autoSubmitted bool) (*Result, error) {
	return e.GradeServed(questions, answers, autoSubmitted, len(questions))
}

// GradeServed is Grade for a student who was shown only served questions
// out of a larger set. served bounds the auto-submit answer ratio; values
// outside 1..len(questions) mean all of questions were served.
func (e *Engine) GradeServed(questions []Question, answers []Answer, autoSubmitted bool, served int) (*Result, error) {
	if err := ValidateQuestions(questions); err != nil {
		return nil, err
	}

	byID := make(map[string]*Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	res := &Result{
		IsAutoSubmitted:  autoSubmitted,
		RulesTriggered:   []RuleTrigger{},
		Feedback:         []Feedback{},
		AnswerComparison: []Comparison{},
	}
	if autoSubmitted {
		res.RulesTriggered = append(res.RulesTriggered, TriggerAutoSubmit)
	}

	topics := newStatBook()
	subtopics := newStatBook()

	for _, ans := range answers {
		q, ok := byID[ans.QuestionID]
		if !ok {
			continue
		}

		correct := isCorrect(q, ans.SelectedOption)
		res.Graded++
		if correct {
			res.Correct++
		}

		topicStat := topics.record(q.Topic, correct)
		subtopics.record(e.classifier.Classify(q.Topic+" "+q.Prompt), correct)

		res.AnswerComparison = append(res.AnswerComparison, Comparison{
			QuestionID:    q.ID,
			Question:      q.Prompt,
			Topic:         q.Topic,
			UserAnswer:    ans.SelectedOption,
			CorrectAnswer: q.CorrectOption(),
			IsCorrect:     correct,
			Explanation:   q.Explanation,
		})

		if correct {
			continue
		}

		in := &RuleInput{Question: q, Answer: ans, TopicWrong: topicStat.Wrong}
		for _, r := range e.rules {
			if trig, fired := r.Evaluate(in); fired {
				res.RulesTriggered = append(res.RulesTriggered, trig)
			}
		}

		if q.Explanation != "" {
			res.Feedback = append(res.Feedback, Feedback{QuestionID: q.ID, Reason: q.Explanation})
		}
	}

	if res.Graded > 0 {
		res.Score = int(math.Round(float64(res.Correct) / float64(res.Graded) * 10))
	}
	res.PerformanceLabel = LabelFor(res.Score)
	res.TopicStats = topics.list()
	res.SubtopicStats = subtopics.list()
	res.WeakAreas = RankWeakAreas(res.TopicStats, res.SubtopicStats)
	res.Recommendations = RecommendNextQuestions(res.WeakAreas, questions)

	if served <= 0 || served > len(questions) {
		served = len(questions)
	}
	if autoSubmitted {
		expected := max(10, served)
		if float64(res.Graded)/float64(expected) < 0.5 {
			res.IsFlaggedForCheating = true
			res.CheatReason = fmt.Sprintf("Auto-submitted with only %d/%d answers", res.Graded, served)
		}
	}

	return res, nil
}

// ValidateQuestions rejects question sets the engine cannot grade against.
func ValidateQuestions(questions []Question) error {
	for i := range questions {
		q := &questions[i]
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: question %q has no options", ErrInvalidQuestionSet, q.ID)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return fmt.Errorf("%w: question %q correct index %d out of range [0,%d)",
				ErrInvalidQuestionSet, q.ID, q.CorrectIndex, len(q.Options))
		}
	}
	return nil
}

func isCorrect(q *Question, selected string) bool {
	selected = strings.TrimSpace(selected)
	if selected == "" {
		return false
	}
	return strings.TrimSpace(q.CorrectOption()) == selected
}

// RankWeakAreas turns topic and subtopic stats into one weak-area list.
// Entries with a zero percentage are dropped. The sort is stable, so
// equal percentages keep topic entries before subtopic entries and
// encounter order within each.
func RankWeakAreas(topics, subtopics []TopicStat) []WeakArea {
	weak := make([]WeakArea, 0, len(topics)+len(subtopics))
	add := func(stats []TopicStat, kind AreaKind) {
		for _, st := range stats {
			if st.Total == 0 {
				continue
			}
			rate := float64(st.Wrong) / float64(st.Total)
			pct := int(math.Round(rate * 100))
			if pct <= 0 {
				continue
			}
			weak = append(weak, WeakArea{
				Topic:      st.Topic,
				Kind:       kind,
				Wrong:      st.Wrong,
				Total:      st.Total,
				Correct:    st.Correct,
				ErrorRate:  rate,
				Percentage: pct,
				Severity:   SeverityFor(pct),
			})
		}
	}
	add(topics, KindTopic)
	add(subtopics, KindSubtopic)

	sort.SliceStable(weak, func(i, j int) bool {
		return weak[i].Percentage > weak[j].Percentage
	})
	return weak
}
