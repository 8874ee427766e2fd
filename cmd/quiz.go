package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizlens/internal/catalog"
)

var quizCmd = &cobra.Command{
	Use:   "quiz [selector]",
	Short: "Print a shuffled question set from the question bank",
	Long: "Quiz prints a question set as JSON. The selector is a contest key, a " +
		"1-based contest number or \"random\"; no selector picks randomly.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cat, err := catalog.Open(cfg.Questions)
		if err != nil {
			return err
		}

		selector := ""
		if len(args) == 1 {
			selector = args[0]
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		if grouped, _ := cmd.Flags().GetBool("grouped"); grouped {
			key, groups := cat.Grouped(selector)
			return enc.Encode(map[string]any{"contestKey": key, "groups": groups})
		}
		if list, _ := cmd.Flags().GetBool("list"); list {
			for _, k := range cat.Keys() {
				set, err := cat.Contest(k)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s  %-12s  %d questions\n", k, set.ContestName, len(set.Questions))
			}
			return nil
		}

		set, err := cat.Load(selector)
		if err != nil {
			return err
		}
		return enc.Encode(set)
	},
}

func init() {
	quizCmd.Flags().Bool("grouped", false, "Group the full contest by cognitive level")
	quizCmd.Flags().Bool("list", false, "List the contests in the bank")
}
