package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizlens/internal/analysis"
	"github.com/abhisek/quizlens/internal/app"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a submission from a JSON file",
	Long: "Analyze reads a submission ({contestKey, answers, ...} or inline questions) " +
		"from --file, or stdin when the file is \"-\", stores the result and prints it.",
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringP("file", "f", "-", "Submission JSON file, - for stdin")
	analyzeCmd.Flags().Bool("json", false, "Print the full result as JSON")
	analyzeCmd.Flags().Bool("no-links", false, "Skip resource discovery")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if noLinks, _ := cmd.Flags().GetBool("no-links"); noLinks {
		cfg.Resources.Disabled = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log := setupLogging(cfg)
	defer log.Sync()

	path, _ := cmd.Flags().GetString("file")
	req, err := readRequest(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	a, err := app.New(cmd.Context(), cfg, log, app.Options{SkipCatalog: len(req.Questions) > 0})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Service.Submit(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(out, res)
	}
	printResult(out, res)
	return nil
}

func readRequest(stdin io.Reader, path string) (analysis.Request, error) {
	var req analysis.Request
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return req, fmt.Errorf("open submission: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return req, fmt.Errorf("decode submission: %w", err)
	}
	return req, nil
}

func printResult(w io.Writer, res *analysis.Result) {
	sep := strings.Repeat("─", 60)

	fmt.Fprintf(w, "Submission:  %s\n", res.SubmissionID)
	if res.ContestName != "" {
		fmt.Fprintf(w, "Contest:     %s (%s)\n", res.ContestName, res.ContestKey)
	}
	fmt.Fprintf(w, "Score:       %d/10 (%s), %d of %d correct\n", res.Score, res.PerformanceLabel, res.Correct, res.Graded)
	if res.IsFlaggedForCheating {
		fmt.Fprintf(w, "Flagged:     %s\n", res.CheatReason)
	}

	if len(res.WeakAreas) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Weak areas")
		fmt.Fprintln(w, sep)
		for _, wa := range res.WeakAreas {
			fmt.Fprintf(w, "%-32s  %-8s  %d/%d wrong  %3d%%  %s\n",
				truncate(wa.Topic, 32), wa.Kind, wa.Wrong, wa.Total, wa.Percentage, wa.Severity)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary (%s)\n", res.Summary.Source)
	fmt.Fprintln(w, sep)
	fmt.Fprintln(w, res.Summary.Overall)
	for i, step := range res.Summary.Plan {
		fmt.Fprintf(w, "  %d. %s", i+1, step.Step)
		if step.Duration != "" {
			fmt.Fprintf(w, " (%s)", step.Duration)
		}
		fmt.Fprintln(w)
		if step.Action != "" {
			fmt.Fprintf(w, "     %s\n", step.Action)
		}
	}
	if res.MotivationalFeedback.Message != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, res.MotivationalFeedback.Message)
	}

	if len(res.ResourceLinks) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Resources")
		fmt.Fprintln(w, sep)
		for _, tl := range res.ResourceLinks {
			fmt.Fprintf(w, "%s\n", tl.Topic)
			for _, r := range tl.Resources {
				fmt.Fprintf(w, "  [%s] %s\n    %s\n", r.Type, r.Title, r.URL)
			}
		}
	}
}
