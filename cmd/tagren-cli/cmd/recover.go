package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tagren/internal/adapters/filesystem"
	"tagren/internal/application/commands"
	"tagren/internal/ports"
)

var recoverFlags struct {
	dir     string
	forward bool
	dryRun  bool
}

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Resolve temporaries left behind by an interrupted run",
	Long: `Resolve staged temporaries (__TMP__<hex>__name) left behind when a run
was killed between its two phases.

Without --dir, every unresolved entry in the journal is moved back to its
source, or on to its destination with --forward. With --dir, the directory
is scanned and each temporary is renamed back to the name embedded in it.

Examples:
  tagren-cli recover
  tagren-cli recover --forward
  tagren-cli recover --dir ./shots --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var journal ports.Journal
		dir := recoverFlags.dir
		if dir != "" {
			expanded, err := filesystem.ExpandPath(dir)
			if err != nil {
				return err
			}
			dir = expanded
		} else {
			j, err := openJournal()
			if err != nil {
				return err
			}
			defer j.Close()
			journal = j
		}

		op := commands.NewRecoverCommand(filesystem.New(), journal, GetLogger(), dir, recoverFlags.forward, recoverFlags.dryRun)
		result, err := op.Execute(ctx)
		if err != nil {
			return err
		}

		for _, p := range result.Problems {
			fmt.Printf("  %s\n", p)
		}
		fmt.Println(result.Message)
		if len(result.Problems) > 0 {
			return fmt.Errorf("%d temporaries need attention", len(result.Problems))
		}
		return nil
	},
}

func init() {
	recoverCmd.Flags().StringVar(&recoverFlags.dir, "dir", "", "scan this directory instead of reading the journal")
	recoverCmd.Flags().BoolVar(&recoverFlags.forward, "forward", false, "complete the rename instead of undoing it (journal mode only)")
	recoverCmd.Flags().BoolVar(&recoverFlags.dryRun, "dry-run", false, "report what would be moved")
	rootCmd.AddCommand(recoverCmd)
}
