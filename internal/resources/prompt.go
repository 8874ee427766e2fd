package resources

import (
	"bytes"
	"strings"
	"text/template"
)

const refineSystemPrompt = `You are a math curriculum expert for Vietnamese lower secondary school.
Given a missed quiz question, name the real subject topic it tests.
Respond with a single JSON object: {"topic", "chapter", "keywords": [..], "mistake"}. No markdown fencing.`

const searchSystemPrompt = `You recommend real, existing learning pages for students.
Only use these domains: {{DOMAINS}}.
Never invent URLs. Prefer pages you are certain exist.
Respond with a single JSON object: {"resources": [{"title", "url", "source", "description", "type": "article|exercise|video"}]}. No markdown fencing.`

var refineUserTemplate = template.Must(template.New("refine").Parse(`Assessment label: {{.Topic}}
Question: {{.Question}}
{{if .CorrectAnswer}}Correct answer: {{.CorrectAnswer}}
{{end}}{{if .UserAnswer}}Student answered: {{.UserAnswer}}
{{end}}`))

var searchUserTemplate = template.Must(template.New("search").Parse(`Find {{.Min}}-{{.Max}} learning resources for the topic "{{.Topic}}".
{{if .Chapter}}Curriculum chapter: {{.Chapter}}
{{end}}{{if .Keywords}}Keywords: {{.Keywords}}
{{end}}{{if .Mistake}}Likely mistake to address: {{.Mistake}}
{{end}}{{if .Question}}Example question the student missed: {{.Question}}
{{end}}{{if .Exclude}}These URLs are broken, do not return them again:
{{range .Exclude}}- {{.}}
{{end}}{{end}}`))

type searchPrompt struct {
	Min, Max int
	Topic    string
	Chapter  string
	Keywords string
	Mistake  string
	Question string
	Exclude  []string
}

func searchSystem(policy TrustPolicy) string {
	return strings.ReplaceAll(searchSystemPrompt, "{{DOMAINS}}", strings.Join(policy.Allow, ", "))
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
