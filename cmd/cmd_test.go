package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizlens/internal/analysis"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "quizlens")
}

func TestAnalyzeInlineQuestions(t *testing.T) {
	dir := t.TempDir()
	sub := `{
		"submissionId": "cli-1",
		"questions": [
			{"id": "q1", "question": "2 + 2?", "options": ["3", "4"], "answerIndex": 1, "topic": "Arithmetic"},
			{"id": "q2", "question": "3 * 3?", "options": ["9", "6"], "answerIndex": 0, "topic": "Arithmetic"}
		],
		"answers": [
			{"questionId": "q1", "selectedOption": "3", "timeTakenSec": 20},
			{"questionId": "q2", "selectedOption": "9", "timeTakenSec": 20}
		]
	}`
	path := filepath.Join(dir, "sub.json")
	require.NoError(t, os.WriteFile(path, []byte(sub), 0o644))
	db := filepath.Join(dir, "q.db")

	out, err := run(t, "analyze", "--file", path, "--json", "--no-links", "--provider", "none", "--db", db, "--log-level", "error")
	require.NoError(t, err, out)

	var res analysis.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "cli-1", res.SubmissionID)
	assert.Equal(t, 5, res.Score)
	require.NotEmpty(t, res.WeakAreas)
	assert.Equal(t, "Arithmetic", res.WeakAreas[0].Topic)

	out, err = run(t, "results", "get", "cli-1", "--db", db)
	require.NoError(t, err, out)
	assert.Contains(t, out, `"submissionId": "cli-1"`)
}

func TestQuizList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.json")
	bank := `{"contests": {"contest1": [{"id": 1, "question": "?", "options": ["a", "b"], "answerIndex": 0, "topic": "T"}]}}`
	require.NoError(t, os.WriteFile(path, []byte(bank), 0o644))

	out, err := run(t, "quiz", "--list", "--questions", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "contest1")
	assert.Contains(t, out, "1 questions")
}

func TestLLMEvents(t *testing.T) {
	db := filepath.Join(t.TempDir(), "q.db")

	out, err := run(t, "llm", "list", "--json", "--db", db)
	require.NoError(t, err, out)
	assert.JSONEq(t, `[]`, out)

	out, err = run(t, "llm", "stats", "--db", db)
	require.NoError(t, err, out)
	assert.Contains(t, out, "No provider calls recorded.")

	_, err = run(t, "llm", "view", "42", "--db", db)
	assert.ErrorContains(t, err, "event 42 not found")

	_, err = run(t, "llm", "view", "abc", "--db", db)
	assert.ErrorContains(t, err, "invalid event id")
}

func TestPrettyJSON(t *testing.T) {
	assert.Equal(t, "{\n  \"a\": 1\n}", prettyJSON(`{"a":1}`))
	assert.Equal(t, "plain text", prettyJSON("plain text"))
}
