// Package metrics defines the prometheus collectors for the analysis pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quizlens"

type Metrics struct {
	gatherer prometheus.Gatherer

	LLMRequests       *prometheus.CounterVec
	LLMLatency        *prometheus.HistogramVec
	LLMCost           *prometheus.CounterVec
	NarrativeSource   *prometheus.CounterVec
	ResourceStrategy  *prometheus.CounterVec
	Validations       *prometheus.CounterVec
	SearchRequests    *prometheus.CounterVec
	AnalysisDuration  prometheus.Histogram
	Analyses          *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPRequestLength *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry that
// also carries the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := &Metrics{
		gatherer: g,
		LLMRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Text-completion requests by purpose and outcome.",
		}, []string{"purpose", "outcome"}),
		LLMLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Latency of text-completion requests.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 12},
		}, []string{"purpose"}),
		LLMCost: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_cost_usd_total",
			Help:      "Estimated spend on text-completion requests.",
		}, []string{"model"}),
		NarrativeSource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrative_summaries_total",
			Help:      "Narrative summaries by source (llm or fallback).",
		}, []string{"source"}),
		ResourceStrategy: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resource_strategy_total",
			Help:      "Resource discovery outcomes per strategy.",
		}, []string{"strategy", "outcome"}),
		Validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resource_validations_total",
			Help:      "Live validation results by reason.",
		}, []string{"result"}),
		SearchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "web_search_requests_total",
			Help:      "Web-search API calls by outcome.",
		}, []string{"outcome"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end analyzeQuiz latency.",
			Buckets:   []float64{0.05, 0.25, 1, 2, 5, 10, 20},
		}),
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Analyses by performance label.",
		}, []string{"label"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPRequestLength: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10},
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.LLMRequests, m.LLMLatency, m.LLMCost,
		m.NarrativeSource, m.ResourceStrategy, m.Validations, m.SearchRequests,
		m.AnalysisDuration, m.Analyses,
		m.HTTPRequests, m.HTTPRequestLength,
	)
	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveLLM(purpose, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.LLMRequests.WithLabelValues(purpose, outcome).Inc()
	m.LLMLatency.WithLabelValues(purpose).Observe(d.Seconds())
}

func (m *Metrics) AddLLMCost(model string, usd float64) {
	if m == nil || usd <= 0 {
		return
	}
	m.LLMCost.WithLabelValues(model).Add(usd)
}

func (m *Metrics) ObserveNarrative(source string) {
	if m == nil {
		return
	}
	m.NarrativeSource.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveStrategy(strategy, outcome string) {
	if m == nil {
		return
	}
	m.ResourceStrategy.WithLabelValues(strategy, outcome).Inc()
}

func (m *Metrics) ObserveValidation(result string) {
	if m == nil {
		return
	}
	m.Validations.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveSearch(outcome string) {
	if m == nil {
		return
	}
	m.SearchRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAnalysis(label string, d time.Duration) {
	if m == nil {
		return
	}
	m.Analyses.WithLabelValues(label).Inc()
	m.AnalysisDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestLength.WithLabelValues(method, route).Observe(d.Seconds())
}
