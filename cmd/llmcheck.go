package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizlens/internal/llm"
)

var llmCheckCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a one-line prompt to the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if !cfg.LLM.Discover() && cfg.LLM.Provider != "mock" {
			return fmt.Errorf("no API key configured for provider %q", cfg.LLM.Provider)
		}
		if err := cfg.LLM.Validate(); err != nil {
			return err
		}
		log := setupLogging(cfg)
		defer log.Sync()

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		p, err := llm.NewProvider(ctx, cfg.LLM, llm.Deps{Logger: log, EventRepo: s.EventRepo()})
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("provider %q is disabled", cfg.LLM.Provider)
		}

		start := time.Now()
		resp, err := p.Generate(llm.WithPurpose(ctx, llm.PurposeHealthCheck), llm.Request{
			Messages:  llm.UserPrompt(`Reply with exactly: {"ok": true}`),
			MaxTokens: 20,
		})
		if err != nil {
			return fmt.Errorf("provider %s: %w", cfg.LLM.Provider, err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Provider:  %s\n", cfg.LLM.Provider)
		fmt.Fprintf(out, "Model:     %s\n", resp.Model)
		fmt.Fprintf(out, "Latency:   %dms\n", time.Since(start).Milliseconds())
		fmt.Fprintf(out, "Tokens:    %d in / %d out\n", resp.Usage.InputTokens, resp.Usage.OutputTokens)
		fmt.Fprintf(out, "Response:  %s\n", resp.Content)
		return nil
	},
}
