// Package app wires the configured components into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/abhisek/quizlens/internal/analysis"
	"github.com/abhisek/quizlens/internal/catalog"
	"github.com/abhisek/quizlens/internal/config"
	"github.com/abhisek/quizlens/internal/i18n"
	"github.com/abhisek/quizlens/internal/llm"
	"github.com/abhisek/quizlens/internal/logger"
	"github.com/abhisek/quizlens/internal/metrics"
	"github.com/abhisek/quizlens/internal/narrative"
	"github.com/abhisek/quizlens/internal/resources"
	"github.com/abhisek/quizlens/internal/server"
	"github.com/abhisek/quizlens/internal/store"
)

// App owns every long-lived dependency. Close releases them.
type App struct {
	Config   config.Config
	Log      *logger.Logger
	Metrics  *metrics.Metrics
	Store    *store.Store
	Provider llm.Provider
	Catalog  *catalog.FileCatalog
	Service  *analysis.Service
}

// Options selects optional parts of the wiring.
type Options struct {
	// SkipCatalog allows running without a question bank, e.g. when every
	// submission carries its own questions.
	SkipCatalog bool

	// Provider overrides the configured text-completion provider.
	Provider llm.Provider
}

// New builds the App from cfg. A missing LLM key is not an error: the
// narrative and discovery fall back to their deterministic paths.
func New(ctx context.Context, cfg config.Config, log *logger.Logger, opts Options) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	a := &App{Config: cfg, Log: log, Metrics: metrics.New()}

	dbPath := cfg.Store.DB
	if dbPath == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		dbPath = p
	} else if err := store.EnsureDir(dbPath); err != nil {
		return nil, err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.Store = st

	a.Provider = opts.Provider
	if a.Provider == nil {
		a.Provider, err = newProvider(ctx, cfg.LLM, llm.Deps{Logger: log, Metrics: a.Metrics, EventRepo: st.EventRepo()}, log)
		if err != nil {
			st.Close()
			return nil, err
		}
	}

	if !opts.SkipCatalog {
		cat, err := catalog.Open(cfg.Questions)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("load question bank: %w", err)
		}
		a.Catalog = cat
	}

	analyzer, err := a.analyzer()
	if err != nil {
		st.Close()
		return nil, err
	}

	var cat catalog.Catalog
	if a.Catalog != nil {
		cat = a.Catalog
	}
	a.Service = analysis.NewService(analyzer, cat,
		analysis.WithResultRepo(st.ResultRepo()),
		analysis.WithServiceLogger(log),
		analysis.WithHistory(cfg.Analysis.History),
	)
	return a, nil
}

// newProvider builds the configured provider. Without any API key the
// pipeline runs on fallbacks only.
func newProvider(ctx context.Context, cfg llm.Config, deps llm.Deps, log *logger.Logger) (llm.Provider, error) {
	if cfg.Provider != "mock" && cfg.Provider != "none" && !cfg.Discover() {
		log.Warn("no LLM API key configured, using deterministic fallbacks", "provider", cfg.Provider)
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p, err := llm.NewProvider(ctx, cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	if p != nil {
		log.Info("LLM provider ready", "provider", cfg.Provider, "model", p.ModelID())
	}
	return p, nil
}

func (a *App) analyzer() (*analysis.Analyzer, error) {
	cfg := a.Config

	bundle, err := i18n.New(cfg.Narrative.Language, a.Log)
	if err != nil {
		return nil, fmt.Errorf("load locales: %w", err)
	}
	gen := narrative.NewGenerator(a.Provider, bundle, cfg.Narrative,
		narrative.WithLogger(a.Log),
		narrative.WithMetrics(a.Metrics),
	)

	opts := []analysis.Option{
		analysis.WithLogger(a.Log),
		analysis.WithMetrics(a.Metrics),
		analysis.WithDiscoveryTopics(cfg.Analysis.DiscoveryTopics),
	}
	if cfg.Resources.Disabled {
		return analysis.NewAnalyzer(gen, nil, opts...), nil
	}

	disc, err := a.discoverer()
	if err != nil {
		return nil, err
	}
	return analysis.NewAnalyzer(gen, disc, opts...), nil
}

func (a *App) discoverer() (*resources.Discoverer, error) {
	cfg := a.Config
	policy := cfg.Resources.Trust

	opts := []resources.Option{
		resources.WithPolicy(policy),
		resources.WithValidator(resources.NewHTTPValidator(policy,
			resources.WithValidateTimeout(cfg.Resources.ValidateTimeout))),
		resources.WithLogger(a.Log),
		resources.WithMetrics(a.Metrics),
	}
	if cfg.Resources.CuratedFile != "" {
		cur, err := resources.LoadCurated(cfg.Resources.CuratedFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, resources.WithCurated(cur))
	}
	if cfg.Search.Enabled() {
		opts = append(opts, resources.WithSearcher(resources.NewHTTPSearcher(cfg.Search, nil, policy.Allow...)))
	} else {
		a.Log.Debug("web search disabled, no search API key or engine id")
	}
	return resources.New(a.Provider, cfg.Resources.Config, opts...), nil
}

// HTTPServer returns the API server for the configured address.
func (a *App) HTTPServer() *http.Server {
	var opts []server.Option
	opts = append(opts, server.WithLogger(a.Log), server.WithMetrics(a.Metrics))
	if a.Catalog != nil {
		opts = append(opts, server.WithGrouper(a.Catalog))
	}
	srv := server.New(a.Service, server.Config{
		RequestTimeout: a.Config.Server.RequestTimeout,
		MaxBodyBytes:   a.Config.Server.MaxBodyBytes,
	}, opts...)

	return &http.Server{
		Addr:         a.Config.Server.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}
}

// Close releases the provider and the store.
func (a *App) Close() error {
	var errs []error
	if c, ok := a.Provider.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
