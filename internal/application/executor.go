package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"tagren/internal/domain"
	"tagren/internal/ports"
)

// CommitReport summarizes one executed (or simulated) plan
type CommitReport struct {
	Planned    int
	Staged     int
	Committed  int
	Fallbacks  int
	RolledBack int
	Leftovers  []string // temporaries whose bytes reached the destination but were not removed
	Failures   []*CommitError
	DryRun     bool
}

// OK reports whether every planned entry reached its destination
func (r *CommitReport) OK() bool {
	return len(r.Failures) == 0 && r.Committed+r.Fallbacks == r.Planned
}

// ExecutorOption configures an Executor
type ExecutorOption func(*Executor)

// WithJournal records every staging step so an interrupted commit can be recovered
func WithJournal(j ports.Journal, runID int64) ExecutorOption {
	return func(e *Executor) {
		e.journal = j
		e.runID = runID
	}
}

// WithTokenSource overrides the generator of temporary-name tokens
func WithTokenSource(next func() string) ExecutorOption {
	return func(e *Executor) {
		e.token = next
	}
}

// Executor commits a rename plan in two phases: every source is first
// detached to an opaque temporary sibling, then every temporary is moved
// to its destination.
type Executor struct {
	fs      ports.FileSystem
	logger  *slog.Logger
	journal ports.Journal
	runID   int64
	token   func() string
}

// NewExecutor creates an Executor over fsys
func NewExecutor(fsys ports.FileSystem, logger *slog.Logger, opts ...ExecutorOption) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{
		fs:     fsys,
		logger: logger,
		token:  newToken,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func newToken() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

type staged struct {
	seq   int
	entry domain.PlanEntry
	temp  string
}

// Commit applies plan. A staging failure rolls back every entry staged so far
// and is returned as a *StageError. Commit failures are per entry and are
// collected in the report; they never abort the remaining entries.
// In dry-run mode nothing on disk changes and the transitions are only logged.
func (e *Executor) Commit(ctx context.Context, plan *domain.Plan, dryRun bool) (*CommitReport, error) {
	entries := plan.Entries()
	report := &CommitReport{Planned: len(entries), DryRun: dryRun}
	if len(entries) == 0 {
		return report, nil
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	stagedItems, err := e.stage(entries, dryRun)
	report.Staged = len(stagedItems)
	if err != nil {
		report.RolledBack = e.rollback(stagedItems)
		return report, err
	}

	for _, s := range stagedItems {
		if dryRun {
			e.logger.Info("would commit", "phase", "commit", "tmp", s.temp, "dst", s.entry.Destination)
			continue
		}
		if err := e.commitOne(s, report); err != nil {
			report.Failures = append(report.Failures, err)
		}
	}
	if dryRun {
		report.Committed = len(stagedItems)
	}
	return report, nil
}

func (e *Executor) stage(entries []domain.PlanEntry, dryRun bool) ([]staged, error) {
	out := make([]staged, 0, len(entries))
	for i, entry := range entries {
		temp := filepath.Join(filepath.Dir(entry.Source), domain.TempName(e.token(), filepath.Base(entry.Source)))
		s := staged{seq: i, entry: entry, temp: temp}

		if dryRun {
			e.logger.Info("would stage", "phase", "stage", "src", entry.Source, "tmp", temp)
			out = append(out, s)
			continue
		}

		if err := e.record(ports.StageRecord{
			Seq:         i,
			Source:      entry.Source,
			Temp:        temp,
			Destination: entry.Destination,
			State:       ports.StagePending,
		}); err != nil {
			return out, &StageError{Seq: i, Source: entry.Source, Temp: temp, Err: err}
		}

		if err := e.fs.Rename(entry.Source, temp); err != nil {
			e.logger.Error("stage failed", "phase", "stage", "src", entry.Source, "tmp", temp, "error", err)
			// The source was never moved.
			e.mark(i, ports.StageRolledBack)
			return out, &StageError{Seq: i, Source: entry.Source, Temp: temp, Err: err}
		}
		e.mark(i, ports.StageStaged)
		e.logger.Info("staged", "phase", "stage", "src", entry.Source, "tmp", temp)
		out = append(out, s)
	}
	return out, nil
}

// rollback restores staged temporaries to their sources in reverse order.
// Failures are logged and left for recovery.
func (e *Executor) rollback(items []staged) int {
	restored := 0
	for i := len(items) - 1; i >= 0; i-- {
		s := items[i]
		if err := e.fs.Rename(s.temp, s.entry.Source); err != nil {
			e.logger.Error("rollback failed", "phase", "rollback", "tmp", s.temp, "src", s.entry.Source, "error", err)
			continue
		}
		e.mark(s.seq, ports.StageRolledBack)
		e.logger.Warn("rolled back", "phase", "rollback", "tmp", s.temp, "src", s.entry.Source)
		restored++
	}
	return restored
}

// commitOne moves one temporary to its destination, falling back to
// copy+delete when the rename fails, and counts the outcome in report.
// A copy whose temporary could not be deleted still counts as a fallback;
// the temporary is journaled as copied so recovery deletes it.
func (e *Executor) commitOne(s staged, report *CommitReport) *CommitError {
	dst := s.entry.Destination

	fallback, err := MoveFile(e.fs, s.temp, dst)
	switch {
	case err != nil && errors.Is(err, ErrSourceNotRemoved):
		e.mark(s.seq, ports.StageCopied)
		e.logger.Warn("copied, temporary left behind", "phase", "commit", "src", s.entry.Source, "tmp", s.temp, "dst", dst, "error", err)
		report.Fallbacks++
		report.Leftovers = append(report.Leftovers, s.temp)
		return nil

	case err != nil:
		e.mark(s.seq, ports.StageFailed)
		e.logger.Error("commit failed", "phase", "commit", "tmp", s.temp, "dst", dst, "error", err)
		return &CommitError{Seq: s.seq, Temp: s.temp, Destination: dst, Err: err}

	case fallback:
		e.mark(s.seq, ports.StageFallback)
		e.logger.Info("copied", "phase", "commit", "src", s.entry.Source, "dst", dst)
		report.Fallbacks++
		return nil
	}

	e.mark(s.seq, ports.StageCommitted)
	e.logger.Info("renamed", "phase", "commit", "src", s.entry.Source, "dst", dst)
	report.Committed++
	return nil
}

func (e *Executor) record(rec ports.StageRecord) error {
	if e.journal == nil {
		return nil
	}
	rec.RunID = e.runID
	if err := e.journal.RecordStage(rec); err != nil {
		return fmt.Errorf("failed to journal stage: %w", err)
	}
	return nil
}

// mark updates the journal state of one entry. Write errors are only logged.
func (e *Executor) mark(seq int, state ports.StageState) {
	if e.journal == nil {
		return
	}
	if err := e.journal.UpdateStage(e.runID, seq, state); err != nil {
		e.logger.Warn("journal update failed", "seq", seq, "state", state, "error", err)
	}
}
