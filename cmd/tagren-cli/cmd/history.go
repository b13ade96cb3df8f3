package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tagren/internal/application/commands"
	"tagren/internal/domain"
)

var historyFlags struct {
	limit int
	run   int64
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs from the journal",
	Long: `List recent runs from the journal, newest first.

With --run, print the per-image outcomes recorded for that run.

Examples:
  tagren-cli history
  tagren-cli history -n 3
  tagren-cli history --run 12`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		j, err := openJournal()
		if err != nil {
			return err
		}
		defer j.Close()

		history := commands.NewHistoryCommand(j, historyFlags.limit)
		history.RunID = historyFlags.run
		result, err := history.Execute(ctx)
		if err != nil {
			return err
		}

		if historyFlags.run > 0 {
			printRunItems(result.Items)
			return nil
		}
		if len(result.Runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		for _, r := range result.Runs {
			mode := r.Policy
			if r.DryRun {
				mode += ",dry-run"
			}
			fmt.Printf("#%-4d %s  %-16s ok=%-4d failed=%-4d %s -> %s\n",
				r.ID, r.StartedAt.Format(time.DateTime), mode, r.OK, r.Failed, r.InputDir, r.OutputDir)
			if r.Error != "" {
				fmt.Printf("      error: %s\n", r.Error)
			}
		}
		return nil
	},
}

func printRunItems(items []domain.ItemRecord) {
	if len(items) == 0 {
		fmt.Println("No items recorded.")
		return
	}
	for _, r := range items {
		if r.Status == domain.StatusOK {
			fmt.Printf("%-32s -> %s\n", r.OldName, r.FinalName)
			continue
		}
		fmt.Printf("%-32s    %-13s %q\n", r.OldName, r.Status, r.RawText)
	}
}

func init() {
	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 10, "number of runs to show")
	historyCmd.Flags().Int64Var(&historyFlags.run, "run", 0, "show the items of this run")
	rootCmd.AddCommand(historyCmd)
}
