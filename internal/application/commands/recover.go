package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"tagren/internal/application"
	"tagren/internal/domain"
	"tagren/internal/ports"
)

// RecoverResult contains the outcome of a recovery pass
type RecoverResult struct {
	Restored  int      // temporaries moved back to their source
	Forwarded int      // temporaries moved on to their destination
	Removed   int      // leftover temporaries deleted after their copy landed
	Resolved  int      // journal rows closed without touching the disk
	Problems  []string // entries left for a human
	DryRun    bool
	Message   string
}

// RecoverCommand resolves temporaries left behind by an interrupted run.
// With Dir set it scans that directory for staged names; otherwise it works
// from the journal.
type RecoverCommand struct {
	fs      ports.FileSystem
	journal ports.Journal
	logger  *slog.Logger
	Dir     string
	Forward bool
	DryRun  bool
}

// NewRecoverCommand creates a new RecoverCommand. journal may be nil in scan mode.
func NewRecoverCommand(fsys ports.FileSystem, journal ports.Journal, logger *slog.Logger, dir string, forward, dryRun bool) *RecoverCommand {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecoverCommand{
		fs:      fsys,
		journal: journal,
		logger:  logger,
		Dir:     dir,
		Forward: forward,
		DryRun:  dryRun,
	}
}

// Validate checks the recovery mode
func (c *RecoverCommand) Validate() error {
	if c.Dir != "" {
		if c.Forward {
			return &application.ValidationError{
				Field:   "forward",
				Message: "--forward needs the journal; scanned temporaries only carry their source name",
			}
		}
		return application.ValidateDir("dir", c.Dir)
	}
	if c.journal == nil {
		return &application.ValidationError{
			Field:   "journal",
			Message: "no journal available; pass --dir to scan a directory",
		}
	}
	return nil
}

// Execute runs the recovery pass
func (c *RecoverCommand) Execute(ctx context.Context) (*RecoverResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	result := &RecoverResult{DryRun: c.DryRun}
	var err error
	if c.Dir != "" {
		err = c.scan(ctx, result)
	} else {
		err = c.fromJournal(ctx, result)
	}
	if err != nil {
		return nil, err
	}

	result.Message = fmt.Sprintf("Restored %d, forwarded %d, removed %d, resolved %d, %d need attention",
		result.Restored, result.Forwarded, result.Removed, result.Resolved, len(result.Problems))
	return result, nil
}

func (c *RecoverCommand) fromJournal(ctx context.Context, result *RecoverResult) error {
	stages, err := c.journal.UnresolvedStages()
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.resolve(st, result)
	}
	return nil
}

func (c *RecoverCommand) resolve(st ports.StageRecord, result *RecoverResult) {
	log := c.logger.With("phase", "recover", "run", st.RunID, "seq", st.Seq)
	problem := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		log.Warn(msg, "tmp", st.Temp)
		result.Problems = append(result.Problems, msg)
	}

	if st.State == ports.StageCopied && c.exists(st.Temp) && c.exists(st.Destination) {
		// The destination already holds the bytes; only the temporary remains.
		if c.DryRun {
			log.Info("would remove", "tmp", st.Temp, "dst", st.Destination)
		} else {
			if err := c.fs.Remove(st.Temp); err != nil {
				problem("run %d entry %d: %v", st.RunID, st.Seq+1, err)
				return
			}
			log.Info("removed", "tmp", st.Temp, "dst", st.Destination)
			c.markRecovered(st, log)
		}
		result.Removed++
		return
	}

	if !c.exists(st.Temp) {
		// Nothing left on disk to move; close the row if the file is accounted for.
		switch {
		case c.exists(st.Source), c.exists(st.Destination):
			log.Info("nothing to recover", "src", st.Source, "dst", st.Destination, "state", st.State)
			c.markRecovered(st, log)
			result.Resolved++
		default:
			problem("run %d entry %d: neither %s nor %s nor its temporary exists", st.RunID, st.Seq+1, st.Source, st.Destination)
		}
		return
	}

	target := st.Source
	if c.Forward {
		target = st.Destination
	}
	if c.exists(target) {
		problem("run %d entry %d: %s already exists, temporary left in place", st.RunID, st.Seq+1, target)
		return
	}

	if c.DryRun {
		log.Info("would move", "tmp", st.Temp, "dst", target)
	} else {
		if _, err := application.MoveFile(c.fs, st.Temp, target); err != nil {
			problem("run %d entry %d: %v", st.RunID, st.Seq+1, err)
			return
		}
		log.Info("moved", "tmp", st.Temp, "dst", target)
		c.markRecovered(st, log)
	}

	if c.Forward {
		result.Forwarded++
	} else {
		result.Restored++
	}
}

func (c *RecoverCommand) markRecovered(st ports.StageRecord, log *slog.Logger) {
	if c.DryRun {
		return
	}
	if err := c.journal.UpdateStage(st.RunID, st.Seq, ports.StageRecovered); err != nil {
		log.Warn("journal update failed", "error", err)
	}
}

func (c *RecoverCommand) scan(ctx context.Context, result *RecoverResult) error {
	names, err := c.fs.ListFileNames(c.Dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", c.Dir, err)
	}
	log := c.logger.With("phase", "recover")

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		orig, ok := domain.OriginalFromTemp(name)
		if !ok {
			continue
		}
		temp := filepath.Join(c.Dir, name)
		target := filepath.Join(c.Dir, orig)

		if c.exists(target) {
			msg := fmt.Sprintf("%s: %s already exists, temporary left in place", name, orig)
			log.Warn(msg, "tmp", temp)
			result.Problems = append(result.Problems, msg)
			continue
		}
		if c.DryRun {
			log.Info("would restore", "tmp", temp, "src", target)
			result.Restored++
			continue
		}
		if err := c.fs.Rename(temp, target); err != nil {
			msg := fmt.Sprintf("%s: %v", name, err)
			log.Warn(msg, "tmp", temp)
			result.Problems = append(result.Problems, msg)
			continue
		}
		log.Info("restored", "tmp", temp, "src", target)
		result.Restored++
	}
	return nil
}

func (c *RecoverCommand) exists(path string) bool {
	_, err := c.fs.Lstat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}
