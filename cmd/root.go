package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/abhisek/quizlens/internal/config"
	"github.com/abhisek/quizlens/internal/logger"
	"github.com/abhisek/quizlens/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "quizlens",
	Short: "Quiz grading and remediation service",
	Long: "QuizLens grades quiz submissions, finds each student's weak topics and " +
		"builds a study plan with verified learning links.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

// flagKeys maps persistent flags onto configuration keys.
var flagKeys = map[string]string{
	"db":         "store.db",
	"questions":  "questions",
	"log-level":  "log.level",
	"log-format": "log.format",
	"provider":   "llm.provider",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default: quizlens.yaml in ., $HOME/.config/quizlens, /etc/quizlens)")
	pf.String("db", "", "Path to SQLite database file (overrides QUIZLENS_STORE_DB)")
	pf.String("questions", "", "Path to the question bank JSON file")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: console, json")
	pf.String("provider", "", "LLM provider: openai, anthropic, gemini, openrouter, mock, none")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads .env, the config file, QUIZLENS_* variables and the
// persistent flags, in increasing priority.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	_ = godotenv.Load()

	file, _ := cmd.Flags().GetString("config")
	v, err := config.NewViper(file)
	if err != nil {
		return config.Config{}, err
	}
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return config.Config{}, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return config.Load(v)
}

// setupLogging builds the logger from cfg, falling back to a no-op logger
// when the configuration is unusable.
func setupLogging(cfg config.Config) *logger.Logger {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return logger.Nop()
	}
	return log
}

// resolveDBPath returns the database path using --db or QUIZLENS_STORE_DB,
// then QUIZLENS_DB, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	if cfg.Store.DB != "" {
		return cfg.Store.DB, store.EnsureDir(cfg.Store.DB)
	}
	return store.DefaultDBPath()
}
