package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"tagren/internal/application"
	"tagren/internal/domain"
	"tagren/internal/ports"
)

// RunOptions holds the settings of one batch run
type RunOptions struct {
	InputDir        string
	OutputDir       string
	Duplicates      bool
	Prompt          string
	PromptRequired  bool
	DryRun          bool
	Recursive       bool
	Workers         int
	CaseInsensitive bool
	CleanOut        bool                       // the caller empties OutputDir before the run
	CropsDir        string                     // where the detector saves crops, if anywhere
	CleanCrops      bool                       // the caller empties CropsDir after the run
	Overrides       map[string]domain.Override // keyed by source file name
}

// RunDeps are the collaborators of a run. Journal and Report are optional.
type RunDeps struct {
	FS         ports.FileSystem
	Finder     ports.ImageFinder
	Detector   ports.Detector
	Recognizer ports.Recognizer
	Journal    ports.Journal
	Report     ports.ReportWriter
	Logger     *slog.Logger
}

// RunResult contains the outcome of a run
type RunResult struct {
	RunID   int64
	Records []domain.ItemRecord
	Commit  *application.CommitReport
	OK      int
	Failed  int
	Message string
}

// RunCommand detects, recognizes, plans and commits a batch of images
type RunCommand struct {
	deps RunDeps
	Opts RunOptions
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(deps RunDeps, opts RunOptions) *RunCommand {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &RunCommand{deps: deps, Opts: opts}
}

// Validate checks if the run can start
func (c *RunCommand) Validate() error {
	if err := application.ValidateDir("input", c.Opts.InputDir); err != nil {
		return err
	}
	if err := application.ValidateRequired("out-renamed", c.Opts.OutputDir); err != nil {
		return err
	}
	if err := application.ValidateDistinctDirs(c.Opts.InputDir, c.Opts.OutputDir); err != nil {
		return err
	}
	if c.Opts.CleanOut {
		if err := application.ValidateCleanTarget("clean-out", c.Opts.InputDir, c.Opts.OutputDir); err != nil {
			return err
		}
	}
	if c.Opts.CleanCrops && c.Opts.CropsDir != "" {
		for _, dir := range []string{c.Opts.InputDir, c.Opts.OutputDir} {
			if err := application.ValidateCleanTarget("clean-crops-after", dir, c.Opts.CropsDir); err != nil {
				return err
			}
		}
	}
	if c.Opts.PromptRequired {
		if err := application.ValidateRequired("prompt", c.Opts.Prompt); err != nil {
			return err
		}
	}
	if c.Opts.Workers < 1 {
		return &application.ValidationError{
			Field:   "workers",
			Message: "workers must be at least 1",
		}
	}
	return nil
}

// Execute runs the batch. A stage failure is returned together with the
// result so callers can still report per-item outcomes.
func (c *RunCommand) Execute(ctx context.Context) (*RunResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	policy := domain.PolicyFor(c.Opts.Duplicates)

	result := &RunResult{}
	if c.deps.Journal != nil {
		id, err := c.deps.Journal.BeginRun(ports.RunInfo{
			StartedAt: time.Now(),
			InputDir:  c.Opts.InputDir,
			OutputDir: c.Opts.OutputDir,
			Policy:    policy.Name(),
			DryRun:    c.Opts.DryRun,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to journal run: %w", err)
		}
		result.RunID = id
	}

	runErr := c.run(ctx, result)
	c.finish(result, runErr)
	if runErr != nil {
		return result, runErr
	}
	return result, nil
}

func (c *RunCommand) run(ctx context.Context, result *RunResult) error {
	log := c.deps.Logger

	paths, err := c.deps.Finder.FindImages(c.Opts.InputDir, c.Opts.Recursive, c.Opts.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}
	log.Info("discovered images", "count", len(paths), "input", c.Opts.InputDir)
	if len(paths) == 0 {
		result.Message = "No images found"
		return nil
	}

	reqs, err := c.recognize(ctx, paths)
	if err != nil {
		return err
	}

	planned, err := NewPlanCommand(c.deps.FS, log, c.Opts.OutputDir, c.Opts.Duplicates, c.Opts.CaseInsensitive, reqs).Execute(ctx)
	if err != nil {
		return err
	}
	result.Records = planned.Records
	result.OK = planned.OK
	result.Failed = planned.Failed

	if c.deps.Report != nil {
		for _, rec := range planned.Records {
			if err := c.deps.Report.WriteItem(rec); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
		}
	}

	if !c.Opts.DryRun {
		if err := c.deps.FS.MkdirAll(c.Opts.OutputDir); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var opts []application.ExecutorOption
	if c.deps.Journal != nil {
		opts = append(opts, application.WithJournal(c.deps.Journal, result.RunID))
	}
	report, err := application.NewExecutor(c.deps.FS, log, opts...).Commit(ctx, planned.Plan, c.Opts.DryRun)
	result.Commit = report
	if err != nil {
		return err
	}

	verb := "Renamed"
	if c.Opts.DryRun {
		verb = "Would rename"
	}
	result.Message = fmt.Sprintf("%s %d of %d images (%d failed, %d commit failures)",
		verb, report.Committed+report.Fallbacks, len(paths), result.Failed, len(report.Failures))
	return nil
}

// recognition is the per-item output of the concurrent stage
type recognition struct {
	text string
	base string
	err  error
}

// recognize runs detection and OCR with at most Workers items in flight.
// Each goroutine owns one slot, so results come back in input order.
func (c *RunCommand) recognize(ctx context.Context, paths []string) ([]PlanRequest, error) {
	slots := make([]recognition, len(paths))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.Opts.Workers)

	for i, p := range paths {
		if o, ok := c.Opts.Overrides[filepath.Base(p)]; ok {
			slots[i] = recognition{base: o.Base()}
			continue
		}
		eg.Go(func() error {
			slots[i] = c.recognizeOne(egCtx, p)
			if err := egCtx.Err(); err != nil {
				return err
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	reqs := make([]PlanRequest, len(paths))
	for i, p := range paths {
		reqs[i] = PlanRequest{Path: p, Text: slots[i].text, Base: slots[i].base, Err: slots[i].err}
	}
	return reqs, nil
}

func (c *RunCommand) recognizeOne(ctx context.Context, path string) recognition {
	log := c.deps.Logger

	crop, err := c.deps.Detector.Detect(ctx, path)
	if err != nil {
		if !errors.Is(err, application.ErrNoDetection) && !errors.Is(err, application.ErrReadFail) {
			err = fmt.Errorf("%w: %v", application.ErrReadFail, err)
		}
		log.Warn("detection failed", "src", filepath.Base(path), "error", err)
		return recognition{err: err}
	}

	text, err := c.deps.Recognizer.Recognize(ctx, crop, c.Opts.Prompt)
	if err != nil {
		log.Warn("recognition failed", "src", filepath.Base(path), "error", err)
		return recognition{err: fmt.Errorf("%w: %v", application.ErrNoText, err)}
	}
	log.Debug("recognized", "src", filepath.Base(path), "text", text)
	return recognition{text: text}
}

func (c *RunCommand) finish(result *RunResult, runErr error) {
	j := c.deps.Journal
	if j == nil {
		return
	}
	log := c.deps.Logger
	if len(result.Records) > 0 {
		if err := j.RecordItems(result.RunID, result.Records); err != nil {
			log.Warn("failed to journal items", "run", result.RunID, "error", err)
		}
	}
	if err := j.FinishRun(result.RunID, result.OK, result.Failed, runErr); err != nil {
		log.Warn("failed to finish run", "run", result.RunID, "error", err)
	}
}
