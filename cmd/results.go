package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizlens/internal/analysis"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect stored analysis results",
}

// resultService opens the store and returns a read-only service over it.
func resultService(cmd *cobra.Command) (*analysis.Service, func(), error) {
	s, err := openStore(cmd)
	if err != nil {
		return nil, nil, err
	}
	svc := analysis.NewService(analysis.NewAnalyzer(nil, nil), nil, analysis.WithResultRepo(s.ResultRepo()))
	return svc, func() { s.Close() }, nil
}

var resultsGetCmd = &cobra.Command{
	Use:   "get <submission-id>",
	Short: "Print a stored result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, done, err := resultService(cmd)
		if err != nil {
			return err
		}
		defer done()

		res, err := svc.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("get result %s: %w", args[0], err)
		}
		return writeJSON(cmd.OutOrStdout(), res)
	},
}

var resultsListCmd = &cobra.Command{
	Use:   "list <user-id>",
	Short: "List a user's results, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		svc, done, err := resultService(cmd)
		if err != nil {
			return err
		}
		defer done()

		hist, err := svc.History(cmd.Context(), args[0], limit)
		if err != nil {
			return fmt.Errorf("list results: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(hist) == 0 {
			fmt.Fprintln(out, "No results found.")
			return nil
		}

		fmt.Fprintf(out, "%-36s  %-19s  %-12s  %5s  %-10s  %s\n",
			"Submission", "Time", "Quiz", "Score", "Label", "Flag")
		fmt.Fprintln(out, strings.Repeat("─", 96))
		for _, h := range hist {
			flag := ""
			if h.Flagged {
				flag = "!"
			}
			fmt.Fprintf(out, "%-36s  %-19s  %-12s  %5d  %-10s  %s\n",
				truncate(h.SubmissionID, 36),
				h.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				truncate(h.QuizID, 12),
				h.Score,
				h.PerformanceLabel,
				flag,
			)
		}
		return nil
	},
}

func init() {
	resultsListCmd.Flags().IntP("limit", "n", 20, "Number of results to show")

	resultsCmd.AddCommand(resultsGetCmd)
	resultsCmd.AddCommand(resultsListCmd)
}
