package narrative

import (
	"bytes"
	"strconv"
	"strings"
	"text/template"

	"github.com/abhisek/quizlens/internal/grading"
)

const summarySystemPrompt = `You are an experienced math teacher and study coach for lower secondary school students. You review a graded quiz and write a short, encouraging, concrete assessment.

Rules:
- Respond with a single JSON object and nothing else. No markdown fencing.
- Write every text field in {{LANGUAGE}}.
- "overall": 1-4 sentences.
- "start_here": one clear instruction the student can act on immediately.
- "strengths": short items. "weaknesses": detailed items, include the error percentage when given.
- "plan": exactly 5 steps, each {"step", "duration", "action", "resource_suggestion": {"type": "article|video|exercise", "name"}}.
- "priority": 1-3 things to do right now.
- "motivationalMessage": three personal sentences of encouragement.`

var summaryUserTemplate = template.Must(template.New("summary").Parse(`Score: {{.Score}}/10 ({{.Label}})
{{if .Weak}}Main weak areas:
{{range .Weak}}- {{.Topic}} ({{.Percentage}}% wrong, {{.Wrong}}/{{.Total}}, severity {{.Severity}})
{{end}}{{else}}Main weak areas: none
{{end}}{{if .Triggers}}Behavior signals: {{.Triggers}}
{{end}}{{if .Feedback}}Explanations for missed questions:
{{range .Feedback}}- {{.}}
{{end}}{{end}}{{if .Recommendations}}Suggested follow-up topics: {{.Recommendations}}
{{end}}`))

type promptData struct {
	Score           int
	Label           grading.Label
	Weak            []grading.WeakArea
	Triggers        string
	Feedback        []string
	Recommendations string
}

const (
	promptWeakAreas = 3
	promptFeedback  = 5
)

var languageNames = map[string]string{
	"vi": "Vietnamese",
	"en": "English",
}

func systemPrompt(lang string) string {
	name, ok := languageNames[baseLanguage(lang)]
	if !ok {
		name = languageNames["vi"]
	}
	return strings.ReplaceAll(summarySystemPrompt, "{{LANGUAGE}}", name)
}

func baseLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_,;"); i >= 0 {
		lang = lang[:i]
	}
	return lang
}

func buildSummaryMessage(in Input) (string, error) {
	data := promptData{Score: in.Score, Label: in.Label}

	data.Weak = in.WeakAreas
	if len(data.Weak) > promptWeakAreas {
		data.Weak = data.Weak[:promptWeakAreas]
	}

	data.Triggers = countTriggers(in.RulesTriggered)

	for i, f := range in.Feedback {
		if i == promptFeedback {
			break
		}
		data.Feedback = append(data.Feedback, f.Reason)
	}

	topics := make([]string, 0, len(in.Recommendations))
	for _, r := range in.Recommendations {
		topics = append(topics, r.Topic)
	}
	data.Recommendations = strings.Join(topics, ", ")

	var buf bytes.Buffer
	if err := summaryUserTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// countTriggers renders "quick_guess_detected x2, topic_repeat_errors x1"
// in first-seen order.
func countTriggers(triggers []grading.RuleTrigger) string {
	var order []grading.RuleTrigger
	counts := map[grading.RuleTrigger]int{}
	for _, t := range triggers {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}
	parts := make([]string, 0, len(order))
	for _, t := range order {
		parts = append(parts, string(t)+" x"+strconv.Itoa(counts[t]))
	}
	return strings.Join(parts, ", ")
}
