// Package server exposes the analysis service over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abhisek/quizlens/internal/analysis"
	"github.com/abhisek/quizlens/internal/catalog"
	"github.com/abhisek/quizlens/internal/i18n"
	"github.com/abhisek/quizlens/internal/logger"
	"github.com/abhisek/quizlens/internal/metrics"
)

// Grouper splits a contest by cognitive level.
type Grouper interface {
	Grouped(selector string) (string, []catalog.Group)
}

// Config holds HTTP-level limits.
type Config struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// Server holds the handler dependencies.
type Server struct {
	svc     *analysis.Service
	grouper Grouper
	log     *logger.Logger
	metrics *metrics.Metrics
	cfg     Config
}

// Option configures a Server.
type Option func(*Server)

// WithGrouper enables ?grouped=1 on the quiz endpoint.
func WithGrouper(g Grouper) Option {
	return func(s *Server) { s.grouper = g }
}

// WithLogger sets the request logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetrics enables request metrics and the /metrics endpoint.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a Server.
func New(svc *analysis.Service, cfg Config, opts ...Option) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	s := &Server{svc: svc, log: logger.Nop(), cfg: cfg}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(i18n.Middleware)
		if s.cfg.RequestTimeout > 0 {
			api.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}
		api.Get("/quiz", s.handleQuiz)
		api.Post("/analyze", s.handleAnalyze)
		api.Get("/results/{submissionID}", s.handleGetResult)
		api.Get("/users/{userID}/results", s.handleHistory)
	})
	return r
}

// requestLogger logs each request and records it in the HTTP metrics under
// its route pattern.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		s.metrics.ObserveHTTP(r.Method, route, status, d)
		s.log.Info("http request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", d.Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
