package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizlens/internal/analysis"
	"github.com/abhisek/quizlens/internal/catalog"
	"github.com/abhisek/quizlens/internal/metrics"
	"github.com/abhisek/quizlens/internal/store"
)

const bank = `{"contests": {"contest1": [
	{"id": "q1", "question": "2x + 3x = ?", "options": ["5x", "6x"], "answerIndex": 0, "topic": "Polynomials"},
	{"id": "q2", "question": "x * x = ?", "options": ["2x", "x^2"], "answerIndex": 1, "topic": "Polynomials"},
	{"id": "q3", "question": "Angles in a triangle?", "options": ["180", "360"], "answerIndex": 0, "topic": "Geometry"},
	{"id": "q4", "question": "Square sides?", "options": ["3", "4"], "answerIndex": 1, "topic": "Nhận biết"}
]}}`

type fixture struct {
	handler http.Handler
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cat, err := catalog.Parse([]byte(bank))
	require.NoError(t, err)

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	m := metrics.New()
	svc := analysis.NewService(analysis.NewAnalyzer(nil, nil, analysis.WithMetrics(m)), cat, analysis.WithResultRepo(st.ResultRepo()))
	srv := New(svc, Config{MaxBodyBytes: 4096}, WithGrouper(cat), WithMetrics(m))
	return fixture{handler: srv.Routes(), metrics: m}
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)
	return w
}

func submission(id string) string {
	req := map[string]any{
		"submissionId": id,
		"userId":       "u1",
		"contestKey":   "contest1",
		"answers": []map[string]any{
			{"questionId": "q1", "selectedOption": "6x", "timeTakenSec": 3},
			{"questionId": "q2", "selectedOption": "2x", "timeTakenSec": 20},
			{"questionId": "q3", "selectedOption": "180", "timeTakenSec": 15},
			{"questionId": "q4", "selectedOption": "4", "timeTakenSec": 12},
		},
	}
	b, _ := json.Marshal(req)
	return string(b)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestQuiz(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/quiz?quizId=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var set catalog.Set
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &set))
	assert.Equal(t, "contest1", set.ContestKey)
	assert.Len(t, set.Questions, 4)

	w = f.do(t, http.MethodGet, "/api/quiz?quizId=1&grouped=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	var grouped groupedQuiz
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &grouped))
	assert.Equal(t, "contest1", grouped.ContestKey)
	require.Len(t, grouped.Groups, len(catalog.Levels))
	assert.Equal(t, catalog.LevelKnowledge, grouped.Groups[0].Level)
	assert.Len(t, grouped.Groups[0].Questions, 1)
}

func TestAnalyzeStoreAndFetch(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/analyze?lang=en", submission("sub-1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res analysis.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "sub-1", res.SubmissionID)
	assert.Equal(t, 5, res.Score)
	require.NotEmpty(t, res.WeakAreas)
	assert.Equal(t, "Polynomials", res.WeakAreas[0].Topic)
	assert.NotEmpty(t, res.Summary.Overall)

	w = f.do(t, http.MethodGet, "/api/results/sub-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got analysis.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, res.Score, got.Score)
	assert.Equal(t, res.WeakAreas, got.WeakAreas)

	// Retrying the same submission replaces the stored result.
	w = f.do(t, http.MethodPost, "/api/analyze", submission("sub-1"))
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/users/u1/results", "")
	require.Equal(t, http.StatusOK, w.Code)
	var hist []analysis.HistoryEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
	require.Len(t, hist, 1)
	assert.Equal(t, "sub-1", hist[0].SubmissionID)
	assert.Equal(t, 5, hist[0].Score)
}

func TestAnalyzeErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed", `{"answers": [`, http.StatusBadRequest},
		{"no source", `{"answers": []}`, http.StatusBadRequest},
		{"unknown contest", `{"contestKey": "contest9", "answers": []}`, http.StatusNotFound},
		{"invalid questions", `{"questions": [{"id": "x", "question": "?", "options": [], "answerIndex": 0}], "answers": []}`, http.StatusBadRequest},
		{"too large", `{"answers": [], "pad": "` + strings.Repeat("a", 5000) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/analyze", tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			var e errorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestResultNotFoundAndBadLimit(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/results/missing", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/users/u1/results?limit=x", "").Code)

	w := f.do(t, http.MethodGet, "/api/users/nobody/results?limit=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/api/quiz", "")
	f.do(t, http.MethodPost, "/api/analyze", submission("sub-m"))

	w := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `quizlens_http_requests_total{method="GET",route="/api/quiz",status="200"} 1`)
	assert.Contains(t, body, "quizlens_analysis_duration_seconds")
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte("go_goroutines")))
}
