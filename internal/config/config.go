// Package config assembles the quizlens configuration from defaults, an
// optional config file, QUIZLENS_* environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/abhisek/quizlens/internal/llm"
	"github.com/abhisek/quizlens/internal/logger"
	"github.com/abhisek/quizlens/internal/narrative"
	"github.com/abhisek/quizlens/internal/resources"
)

// EnvPrefix prefixes every environment override, e.g. QUIZLENS_SERVER_ADDR.
const EnvPrefix = "QUIZLENS"

// Config is the full application configuration.
type Config struct {
	LLM       llm.Config             `mapstructure:"llm"`
	Narrative narrative.Config       `mapstructure:"narrative"`
	Resources ResourcesConfig        `mapstructure:"resources"`
	Search    resources.SearchConfig `mapstructure:"search"`
	Analysis  AnalysisConfig         `mapstructure:"analysis"`
	Store     StoreConfig            `mapstructure:"store"`
	Server    ServerConfig           `mapstructure:"server"`
	Log       logger.Config          `mapstructure:"log"`

	// Questions is the path of the question bank JSON file.
	Questions string `mapstructure:"questions"`
}

// ResourcesConfig configures discovery and its trust policy.
type ResourcesConfig struct {
	resources.Config `mapstructure:",squash"`

	Trust resources.TrustPolicy `mapstructure:"trust"`

	// TrustFile, when set, replaces Trust with the YAML file's policy.
	TrustFile string `mapstructure:"trust_file"`

	// CuratedFile, when set, replaces the embedded curated table.
	CuratedFile string `mapstructure:"curated_file"`

	// Disabled skips discovery entirely.
	Disabled bool `mapstructure:"disabled"`
}

// AnalysisConfig tunes the orchestrator.
type AnalysisConfig struct {
	DiscoveryTopics int `mapstructure:"discovery_topics"`
	History         int `mapstructure:"history"`
}

// StoreConfig locates the result database.
type StoreConfig struct {
	// DB is the SQLite path; empty means the default data directory.
	DB string `mapstructure:"db"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// Default returns the stock configuration.
func Default() Config {
	rc := ResourcesConfig{
		Config: resources.DefaultConfig(),
		Trust:  resources.DefaultTrustPolicy(),
	}
	return Config{
		LLM:       llm.DefaultConfig(),
		Narrative: narrative.DefaultConfig(),
		Resources: rc,
		Search:    resources.DefaultSearchConfig(),
		Analysis: AnalysisConfig{
			DiscoveryTopics: 3,
			History:         5,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    60 * time.Second,
			RequestTimeout:  45 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Log:       logger.Config{Level: "info", Format: "console"},
		Questions: "questions.json",
	}
}

// Load reads the configuration from v. Every key of Default is registered
// so that environment variables override nested values.
func Load(v *viper.Viper) (Config, error) {
	registerDefaults(v, Default())

	cfg := Default()

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Resources.TrustFile != "" {
		p, err := resources.LoadTrustPolicy(cfg.Resources.TrustFile)
		if err != nil {
			return cfg, err
		}
		cfg.Resources.Trust = p
	}
	return cfg, nil
}

// NewViper returns a viper instance with the env prefix, the key replacer
// and the config search path set. A missing config file is not an error.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("quizlens")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/quizlens")
		v.AddConfigPath("/etc/quizlens")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return v, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func registerDefaults(v *viper.Viper, c Config) {
	v.SetDefault("llm.provider", c.LLM.Provider)
	v.SetDefault("llm.timeout", c.LLM.Timeout)
	v.SetDefault("llm.anthropic.api_key", c.LLM.Anthropic.APIKey)
	v.SetDefault("llm.anthropic.model", c.LLM.Anthropic.Model)
	v.SetDefault("llm.openai.api_key", c.LLM.OpenAI.APIKey)
	v.SetDefault("llm.openai.model", c.LLM.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", c.LLM.OpenAI.BaseURL)
	v.SetDefault("llm.openai.response_format", c.LLM.OpenAI.ResponseFormat)
	v.SetDefault("llm.gemini.api_key", c.LLM.Gemini.APIKey)
	v.SetDefault("llm.gemini.model", c.LLM.Gemini.Model)
	v.SetDefault("llm.openrouter.api_key", c.LLM.OpenRouter.APIKey)
	v.SetDefault("llm.openrouter.model", c.LLM.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", c.LLM.OpenRouter.BaseURL)
	v.SetDefault("llm.openrouter.response_format", c.LLM.OpenRouter.ResponseFormat)
	v.SetDefault("llm.retry.max_attempts", c.LLM.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", c.LLM.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", c.LLM.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", c.LLM.Retry.Multiplier)
	v.SetDefault("narrative.timeout", c.Narrative.Timeout)
	v.SetDefault("narrative.max_tokens", c.Narrative.MaxTokens)
	v.SetDefault("narrative.temperature", c.Narrative.Temperature)
	v.SetDefault("narrative.language", c.Narrative.Language)
	v.SetDefault("resources.refine_timeout", c.Resources.RefineTimeout)
	v.SetDefault("resources.search_timeout", c.Resources.SearchTimeout)
	v.SetDefault("resources.validate_timeout", c.Resources.ValidateTimeout)
	v.SetDefault("resources.max_candidates", c.Resources.MaxCandidates)
	v.SetDefault("resources.max_replacements", c.Resources.MaxReplacements)
	v.SetDefault("resources.max_results", c.Resources.MaxResults)
	v.SetDefault("resources.validation_workers", c.Resources.ValidationWorkers)
	v.SetDefault("resources.max_tokens", c.Resources.MaxTokens)
	v.SetDefault("resources.language", c.Resources.Language)
	v.SetDefault("resources.trust.allow", c.Resources.Trust.Allow)
	v.SetDefault("resources.trust.block", c.Resources.Trust.Block)
	v.SetDefault("resources.trust.min_token_length", c.Resources.Trust.MinTokenLength)
	v.SetDefault("resources.trust.not_found_markers", c.Resources.Trust.NotFoundMarkers)
	v.SetDefault("resources.trust.allow_http", c.Resources.Trust.AllowHTTP)
	v.SetDefault("resources.trust_file", c.Resources.TrustFile)
	v.SetDefault("resources.curated_file", c.Resources.CuratedFile)
	v.SetDefault("resources.disabled", c.Resources.Disabled)
	v.SetDefault("search.endpoint", c.Search.Endpoint)
	v.SetDefault("search.api_key", c.Search.APIKey)
	v.SetDefault("search.engine_id", c.Search.EngineID)
	v.SetDefault("search.results", c.Search.Results)
	v.SetDefault("search.timeout", c.Search.Timeout)
	v.SetDefault("search.rate_per_second", c.Search.RatePerSecond)
	v.SetDefault("search.burst", c.Search.Burst)
	v.SetDefault("analysis.discovery_topics", c.Analysis.DiscoveryTopics)
	v.SetDefault("analysis.history", c.Analysis.History)
	v.SetDefault("store.db", c.Store.DB)
	v.SetDefault("server.addr", c.Server.Addr)
	v.SetDefault("server.read_timeout", c.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", c.Server.WriteTimeout)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.max_body_bytes", c.Server.MaxBodyBytes)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.format", c.Log.Format)
	v.SetDefault("questions", c.Questions)
}

// Validate checks value ranges and cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	// A missing API key is not checked here: the pipeline then runs on its
	// deterministic fallbacks.
	switch c.LLM.Provider {
	case "anthropic", "openai", "gemini", "openrouter", "mock", "none":
	default:
		errs = append(errs, fmt.Errorf("unknown LLM provider: %q", c.LLM.Provider))
	}
	if c.Narrative.Timeout <= 0 {
		errs = append(errs, errors.New("narrative.timeout must be positive"))
	}
	if c.Resources.MaxResults < 1 || c.Resources.MaxResults > 3 {
		errs = append(errs, fmt.Errorf("resources.max_results must be between 1 and 3, got %d", c.Resources.MaxResults))
	}
	if c.Resources.MaxCandidates < 2 {
		errs = append(errs, fmt.Errorf("resources.max_candidates must be at least 2, got %d", c.Resources.MaxCandidates))
	}
	if c.Resources.ValidationWorkers < 1 {
		errs = append(errs, errors.New("resources.validation_workers must be at least 1"))
	}
	if c.Resources.ValidateTimeout <= 0 {
		errs = append(errs, errors.New("resources.validate_timeout must be positive"))
	}
	if len(c.Resources.Trust.Allow) == 0 && !c.Resources.Disabled {
		errs = append(errs, errors.New("resources.trust.allow must list at least one domain"))
	}
	if c.Analysis.DiscoveryTopics < 0 {
		errs = append(errs, errors.New("analysis.discovery_topics must not be negative"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must be set"))
	}
	return errors.Join(errs...)
}
