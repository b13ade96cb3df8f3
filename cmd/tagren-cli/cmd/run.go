package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"tagren/internal/adapters/detect"
	"tagren/internal/adapters/execocr"
	"tagren/internal/adapters/filesystem"
	"tagren/internal/adapters/report"
	"tagren/internal/adapters/visionocr"
	"tagren/internal/application"
	"tagren/internal/application/commands"
	"tagren/internal/config"
	"tagren/internal/ports"
)

var runFlags struct {
	input           string
	output          string
	duplicates      bool
	prompt          string
	dryRun          bool
	recursive       bool
	workers         int
	cleanOut        bool
	csvPath         string
	overrides       string
	cropsDir        string
	cleanCrops      bool
	ocrCommand      string
	model           string
	baseURL         string
	caseInsensitive bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Recognize, plan and rename a directory of images",
	Long: `Recognize the tag in every image of the input directory and move each
image into the output directory under the sanitized tag.

The OCR backend is an external command when --ocr-command or
TAGREN_OCR_COMMAND is set ({} is replaced by the image path), otherwise an
OpenAI-compatible vision API configured by TAGREN_OCR_API_KEY.

Examples:
  tagren-cli run -i ./shots -o ./renamed --duplicates=true --prompt "Read the tag"
  tagren-cli run -i ./shots -o ./renamed --duplicates=false --dry-run
  tagren-cli run -i ./shots -o ./renamed --duplicates=true --overrides fixes.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		cfg := GetConfig()
		log := GetLogger()

		input, err := filesystem.ExpandPath(runFlags.input)
		if err != nil {
			return err
		}
		output, err := filesystem.ExpandPath(runFlags.output)
		if err != nil {
			return err
		}

		fsys := filesystem.New()
		opts := commands.RunOptions{
			InputDir:        input,
			OutputDir:       output,
			Duplicates:      runFlags.duplicates,
			Prompt:          runFlags.prompt,
			DryRun:          runFlags.dryRun,
			Recursive:       runFlags.recursive,
			Workers:         runFlags.workers,
			CaseInsensitive: cfg.CaseInsensitive,
			CleanOut:        runFlags.cleanOut,
		}
		if cmd.Flags().Changed("case-insensitive") {
			opts.CaseInsensitive = runFlags.caseInsensitive
		}

		recognizer, promptRequired, err := newRecognizer(cfg)
		if err != nil {
			return err
		}
		opts.PromptRequired = promptRequired

		if runFlags.overrides != "" {
			opts.Overrides, err = report.LoadOverrides(runFlags.overrides)
			if err != nil {
				return err
			}
			log.Info("loaded overrides", "count", len(opts.Overrides), "path", runFlags.overrides)
		}

		var detector ports.Detector = detect.FullFrame{}
		if runFlags.cropsDir != "" {
			dir, err := filesystem.ExpandPath(runFlags.cropsDir)
			if err != nil {
				return err
			}
			detector = detect.WithCropsDir(detector, dir, log)
			opts.CropsDir = dir
			opts.CleanCrops = runFlags.cleanCrops
		}

		deps := commands.RunDeps{
			FS:         fsys,
			Finder:     fsys,
			Detector:   detector,
			Recognizer: recognizer,
			Logger:     log,
		}
		// Validate before anything on disk changes
		if err := commands.NewRunCommand(deps, opts).Validate(); err != nil {
			return err
		}

		unlock, err := filesystem.LockTarget(cfg.DataDir, output)
		if err != nil {
			return err
		}
		defer unlock()

		if opts.CleanCrops {
			defer cleanCrops(opts.CropsDir)
		}

		if runFlags.cleanOut {
			if runFlags.dryRun {
				log.Info("dry run, output directory not cleaned", "dir", output)
			} else {
				if err := filesystem.CleanDir(output); err != nil {
					return err
				}
				log.Info("cleaned output directory", "dir", output)
			}
		}

		journal, err := openJournal()
		if err != nil {
			log.Warn("running without journal", "error", err)
		} else {
			defer journal.Close()
			deps.Journal = journal
		}

		csvPath := runFlags.csvPath
		if csvPath == "" {
			csvPath = filepath.Join(input, config.DefaultCSVName)
		}
		csv, err := report.Create(csvPath)
		if err != nil {
			return err
		}
		defer csv.Close()
		deps.Report = csv

		result, runErr := commands.NewRunCommand(deps, opts).Execute(ctx)
		if result != nil {
			printRunSummary(os.Stdout, result, csvPath)
		}
		if runErr != nil {
			var stageErr *application.StageError
			if errors.As(runErr, &stageErr) {
				return fmt.Errorf("rename aborted, input restored: %w", runErr)
			}
			return runErr
		}
		return nil
	},
}

// cleanCrops empties the crops directory once the run is over
func cleanCrops(dir string) {
	log := GetLogger()
	if err := filesystem.CleanDir(dir); err != nil {
		log.Warn("crops directory not cleaned", "dir", dir, "error", err)
		return
	}
	log.Info("cleaned crops directory", "dir", dir)
}

// newRecognizer picks the OCR backend. The prompt is only required by the
// vision API.
func newRecognizer(cfg *config.Config) (ports.Recognizer, bool, error) {
	command := runFlags.ocrCommand
	if command == "" {
		command = cfg.OCR.Command
	}
	if command != "" {
		r, err := execocr.NewRecognizer(command)
		if err != nil {
			return nil, false, err
		}
		return r, false, nil
	}

	if cfg.OCR.APIKey == "" {
		return nil, false, &application.ValidationError{
			Field:   "ocr",
			Message: "no OCR backend configured: set TAGREN_OCR_API_KEY (or ARK_API_KEY), or TAGREN_OCR_COMMAND",
		}
	}
	model := runFlags.model
	if model == "" {
		model = cfg.OCR.Model
	}
	baseURL := runFlags.baseURL
	if baseURL == "" {
		baseURL = cfg.OCR.BaseURL
	}
	return visionocr.NewClient(cfg.OCR.APIKey, model, baseURL), true, nil
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runFlags.input, "input", "i", "", "directory with the source images")
	f.StringVarP(&runFlags.output, "out-renamed", "o", "", "directory the renamed images are moved to")
	f.BoolVar(&runFlags.duplicates, "duplicates", false, "true: suffix identical tags with -1, -2, ...; false: report them as NAME_CONFLICT")
	f.StringVarP(&runFlags.prompt, "prompt", "p", "", "instruction sent to the OCR model with each image")
	f.BoolVar(&runFlags.dryRun, "dry-run", false, "plan and log, but do not rename")
	f.BoolVarP(&runFlags.recursive, "recursive", "r", false, "include images in subdirectories")
	f.IntVarP(&runFlags.workers, "workers", "w", config.DefaultWorkers, "images recognized concurrently")
	f.BoolVar(&runFlags.cleanOut, "clean-out", false, "empty the output directory first")
	f.StringVar(&runFlags.csvPath, "csv", "", "mapping table path (default <input>/"+config.DefaultCSVName+")")
	f.StringVar(&runFlags.overrides, "overrides", "", "CSV with old_name,prefix,middle,index,stem columns")
	f.StringVar(&runFlags.cropsDir, "crops-dir", "", "save each detected crop here")
	f.BoolVar(&runFlags.cleanCrops, "clean-crops-after", true, "empty --crops-dir when the run ends (--clean-crops-after=false keeps the crops)")
	f.StringVar(&runFlags.ocrCommand, "ocr-command", "", "external OCR command; {} is replaced by the image path")
	f.StringVar(&runFlags.model, "model", "", "vision model (default "+config.DefaultOCRModel+")")
	f.StringVar(&runFlags.baseURL, "base-url", "", "OpenAI-compatible API base URL")
	f.BoolVar(&runFlags.caseInsensitive, "case-insensitive", false, "treat names differing only in case as equal (default depends on the OS)")

	_ = runCmd.MarkFlagRequired("input")
	_ = runCmd.MarkFlagRequired("out-renamed")
	_ = runCmd.MarkFlagRequired("duplicates")

	rootCmd.AddCommand(runCmd)
}
