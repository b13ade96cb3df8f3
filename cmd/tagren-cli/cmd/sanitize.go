package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tagren/internal/domain"
)

var stemFlags struct {
	prefix string
	middle string
	index  string
}

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize [text...]",
	Short: "Print the file name base a tag text would produce",
	Long: `Print the sanitized base for the given text, or for the composed
prefix/middle/index stem when any of those flags is set.

Examples:
  tagren-cli sanitize "big dog #3"
  tagren-cli sanitize --prefix site --middle dog --index 4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		if f.Changed("prefix") || f.Changed("middle") || f.Changed("index") {
			fmt.Println(domain.ComposeStem(domain.StemParts{
				Prefix: stemFlags.prefix,
				Middle: stemFlags.middle,
				Index:  stemFlags.index,
			}))
			return nil
		}
		if len(args) == 0 {
			return fmt.Errorf("text or --prefix/--middle/--index is required")
		}
		fmt.Println(domain.Sanitize(domain.AnswerLine(strings.Join(args, " "))))
		return nil
	},
}

func init() {
	sanitizeCmd.Flags().StringVar(&stemFlags.prefix, "prefix", "", "stem prefix part")
	sanitizeCmd.Flags().StringVar(&stemFlags.middle, "middle", "", "stem middle part")
	sanitizeCmd.Flags().StringVar(&stemFlags.index, "index", "", "stem index part")
	rootCmd.AddCommand(sanitizeCmd)
}
