package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveLLM("narrative", "ok", time.Second)
	m.AddLLMCost("gpt-4o-mini", 0.01)
	m.ObserveNarrative("fallback")
	m.ObserveStrategy("llm_search", "hit")
	m.ObserveValidation("ok")
	m.ObserveSearch("error")
	m.ObserveAnalysis("pass", time.Second)
	m.ObserveHTTP("GET", "/healthz", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCountersRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg, reg)

	m.ObserveNarrative("fallback")
	m.ObserveNarrative("fallback")
	m.ObserveStrategy("curated", "hit")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.NarrativeSource.WithLabelValues("fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResourceStrategy.WithLabelValues("curated", "hit")))
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := New()
	m.ObserveValidation("not_found_marker")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "quizlens_resource_validations_total"))
}
