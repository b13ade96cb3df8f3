package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"tagren/internal/adapters/sqlite"
	"tagren/internal/config"
	"tagren/internal/logging"
)

var (
	envFile  string
	verbose  bool
	logFile  string
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
)

var rootCmd = &cobra.Command{
	Use:   "tagren-cli",
	Short: "Rename photos after the tag written on them",
	Long: `tagren-cli reads the tag visible in each photo of a directory and moves
the photo to an output directory under that name.

Collisions are resolved either with numeric suffixes (--duplicates=true) or
reported as NAME_CONFLICT (--duplicates=false). Renames are applied in two
phases so that a failure part-way leaves the input directory as it was.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		if envFile != "" {
			config.LoadDotEnv(envFile)
		} else {
			config.LoadDotEnv()
		}
		cfg = config.Load()

		var err error
		logger, closeLog, err = logging.New(logging.Options{Verbose: verbose, File: logFile})
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeLog != nil {
			return closeLog()
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load variables from this file instead of ./.env")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "log at debug level")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also append logs to this file")
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}

// GetLogger returns the initialized logger
func GetLogger() *slog.Logger {
	if logger == nil {
		return logging.Discard()
	}
	return logger
}

// openJournal opens the run journal in the data directory
func openJournal() (*sqlite.Journal, error) {
	j, err := sqlite.Open(GetConfig().DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	GetLogger().Debug("journal opened", "path", j.Path())
	return j, nil
}
