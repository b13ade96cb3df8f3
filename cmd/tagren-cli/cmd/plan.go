package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tagren/internal/adapters/filesystem"
	"tagren/internal/application/commands"
	"tagren/internal/domain"
)

var planFlags struct {
	output     string
	sourceDir  string
	duplicates bool
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview final names for file=text lines read from stdin",
	Long: `Read file=text lines from stdin and print the final name each file
would get in the output directory. Nothing on disk changes.

Examples:
  printf 'a.jpg=dog\nb.jpg=dog\n' | tagren-cli plan -o ./renamed -s ./shots --duplicates=true`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		output, err := filesystem.ExpandPath(planFlags.output)
		if err != nil {
			return err
		}
		sourceDir := planFlags.sourceDir
		if sourceDir == "" {
			sourceDir = "."
		}

		input, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		reqs, err := commands.ParsePlanLines(string(input), sourceDir)
		if err != nil {
			return err
		}

		caseInsensitive := GetConfig().CaseInsensitive
		result, err := commands.NewPlanCommand(filesystem.New(), GetLogger(), output, planFlags.duplicates, caseInsensitive, reqs).Execute(ctx)
		if err != nil {
			return err
		}

		for _, r := range result.Records {
			if r.Status != domain.StatusOK {
				fmt.Printf("%s\t%s\n", r.OldName, r.Status)
				continue
			}
			fmt.Printf("%s\t%s\n", r.OldName, r.FinalName)
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	planCmd.Flags().StringVarP(&planFlags.output, "out-renamed", "o", "", "directory the files would be renamed into")
	planCmd.Flags().StringVarP(&planFlags.sourceDir, "source", "s", "", "directory relative file names are resolved against (default .)")
	planCmd.Flags().BoolVar(&planFlags.duplicates, "duplicates", false, "index identical tags instead of reporting conflicts")
	_ = planCmd.MarkFlagRequired("out-renamed")
	_ = planCmd.MarkFlagRequired("duplicates")
	rootCmd.AddCommand(planCmd)
}
