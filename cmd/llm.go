package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizlens/internal/llm"
	"github.com/abhisek/quizlens/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded provider calls and test the configured provider",
}

// openStore opens the database selected by --db or the default location.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func rule(w io.Writer, n int) {
	fmt.Fprintln(w, strings.Repeat("─", n))
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent provider calls, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		failed, _ := cmd.Flags().GetBool("failed")
		asJSON, _ := cmd.Flags().GetBool("json")
		submission, _ := cmd.Flags().GetString("submission")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{
			Limit:        limit,
			Purpose:      purpose,
			SubmissionID: submission,
		})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if failed {
			kept := events[:0]
			for _, e := range events {
				if !e.Success {
					kept = append(kept, e)
				}
			}
			events = kept
		}

		out := cmd.OutOrStdout()
		if asJSON {
			if events == nil {
				events = []store.LLMRequestEvent{}
			}
			return writeJSON(out, events)
		}
		if len(events) == 0 {
			fmt.Fprintln(out, "No provider calls recorded.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-19s  %-16s  %-28s  %6s  %6s  %7s  %s\n",
			"ID", "Time", "Purpose", "Model", "In", "Out", "Ms", "Result")
		rule(out, 104)
		for _, e := range events {
			result := "ok"
			if !e.Success {
				result = truncate(e.ErrorMessage, 24)
				if result == "" {
					result = "error"
				}
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-16s  %-28s  %6d  %6d  %7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Purpose,
				truncate(e.Model, 28),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				result,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the captured prompt and completion of one call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid event id %q", args[0])
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("event %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("get event %d: %w", id, err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:        %d\n", e.ID)
		fmt.Fprintf(out, "Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Provider:  %s\n", e.Provider)
		fmt.Fprintf(out, "Model:     %s\n", e.Model)
		fmt.Fprintf(out, "Purpose:   %s\n", e.Purpose)
		if e.SubmissionID != "" {
			fmt.Fprintf(out, "Submission: %s\n", e.SubmissionID)
		}
		fmt.Fprintf(out, "Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Fprintf(out, "Latency:   %dms\n", e.LatencyMs)
		if e.Success {
			fmt.Fprintln(out, "Result:    ok")
		} else {
			fmt.Fprintf(out, "Result:    %s\n", e.ErrorMessage)
		}

		for _, part := range []struct{ title, body string }{
			{"PROMPT", e.RequestBody},
			{"COMPLETION", e.ResponseBody},
		} {
			fmt.Fprintln(out)
			fmt.Fprintln(out, part.title)
			rule(out, 60)
			if part.body == "" {
				fmt.Fprintln(out, "(not captured)")
				continue
			}
			fmt.Fprintln(out, prettyJSON(part.body))
		}
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize token usage per purpose and estimated cost per model",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		byPurpose, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("usage by purpose: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(byPurpose) == 0 {
			fmt.Fprintln(out, "No provider calls recorded.")
			return nil
		}

		fmt.Fprintf(out, "%-16s  %6s  %10s  %10s  %8s\n", "Purpose", "Calls", "Input", "Output", "Avg Ms")
		rule(out, 58)
		var calls, in, outTok int
		for _, u := range byPurpose {
			fmt.Fprintf(out, "%-16s  %6d  %10d  %10d  %8d\n",
				u.Purpose, u.Calls, u.InputTokens, u.OutputTokens, u.AvgLatencyMs)
			calls += u.Calls
			in += u.InputTokens
			outTok += u.OutputTokens
		}
		rule(out, 58)
		fmt.Fprintf(out, "%-16s  %6d  %10d  %10d\n", "TOTAL", calls, in, outTok)

		byModel, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("usage by model: %w", err)
		}
		if len(byModel) == 0 {
			return nil
		}

		fmt.Fprintln(out)
		fmt.Fprintf(out, "%-32s  %6s  %10s\n", "Model", "Calls", "Est. USD")
		rule(out, 52)
		var total float64
		var unpriced []string
		for _, u := range byModel {
			price := llm.LookupCost(u.Model)
			if price == nil {
				unpriced = append(unpriced, u.Model)
				fmt.Fprintf(out, "%-32s  %6d  %10s\n", truncate(u.Model, 32), u.Calls, "?")
				continue
			}
			c := price.Cost(u.InputTokens, u.OutputTokens)
			total += c
			fmt.Fprintf(out, "%-32s  %6d  %10s\n", truncate(u.Model, 32), u.Calls, formatCost(c))
		}
		rule(out, 52)
		fmt.Fprintf(out, "%-32s  %6s  %10s\n", "TOTAL", "", formatCost(total))
		if len(unpriced) > 0 {
			fmt.Fprintf(out, "\nNo pricing for: %s\n", strings.Join(unpriced, ", "))
		}
		return nil
	},
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// prettyJSON indents a captured body when it is JSON and returns it
// unchanged otherwise.
func prettyJSON(body string) string {
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return body
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return body
	}
	return string(b)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show one purpose (narrative, refine_topic, resource_search, resource_replacement, health_check)")
	llmListCmd.Flags().StringP("submission", "s", "", "Only show calls made while analyzing this submission")
	llmListCmd.Flags().Bool("failed", false, "Only show failed calls")
	llmListCmd.Flags().Bool("json", false, "Print events as JSON")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
	llmCmd.AddCommand(llmCheckCmd)
}
