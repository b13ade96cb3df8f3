package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"tagren/internal/application"
	"tagren/internal/domain"
	"tagren/internal/ports"
)

// ReviewResult contains the outcome of renaming one reviewed image
type ReviewResult struct {
	Record      domain.ItemRecord
	Destination string
	Unchanged   bool
	Message     string
}

// ReviewCommand renames a single image to a human-authored stem in its own
// directory. Collisions are reported, never resolved.
type ReviewCommand struct {
	fs              ports.FileSystem
	logger          *slog.Logger
	Path            string
	Parts           domain.StemParts
	Stem            string // full-stem override; wins over Parts when set
	CaseInsensitive bool
	DryRun          bool
}

// NewReviewCommand creates a new ReviewCommand
func NewReviewCommand(fsys ports.FileSystem, logger *slog.Logger, path string, parts domain.StemParts, caseInsensitive bool) *ReviewCommand {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewCommand{
		fs:              fsys,
		logger:          logger,
		Path:            path,
		Parts:           parts,
		CaseInsensitive: caseInsensitive,
	}
}

// Validate checks the source path
func (c *ReviewCommand) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return &application.ValidationError{
			Field:   "path",
			Message: "image path is required",
		}
	}
	if _, err := c.fs.Lstat(c.Path); err != nil {
		return &application.ValidationError{
			Field:   "path",
			Message: fmt.Sprintf("image not found: %s", c.Path),
		}
	}
	return nil
}

// Base returns the sanitized stem the image will get
func (c *ReviewCommand) Base() string {
	return domain.Override{Parts: c.Parts, Stem: c.Stem}.Base()
}

// Preview returns the file name the image will get
func (c *ReviewCommand) Preview() string {
	return c.Base() + domain.LowerExt(c.Path)
}

// Execute plans and commits the rename
func (c *ReviewCommand) Execute(ctx context.Context) (*ReviewResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	dir := filepath.Dir(c.Path)
	oldName := filepath.Base(c.Path)
	newName := c.Preview()
	item := domain.NewItem(c.Path, "")

	if newName == oldName {
		return &ReviewResult{
			Record: domain.ItemRecord{
				SourceDir: dir,
				OldName:   oldName,
				Base:      c.Base(),
				FinalName: newName,
				Status:    domain.StatusOK,
			},
			Destination: c.Path,
			Unchanged:   true,
			Message:     "Name unchanged",
		}, nil
	}

	plan := &domain.Plan{}
	var rec domain.ItemRecord
	if c.CaseInsensitive && strings.EqualFold(newName, oldName) {
		// Case-only change of the same file: the directory entry is our own.
		rec = domain.ItemRecord{SourceDir: dir, OldName: oldName, Base: c.Base(), FinalName: newName, Status: domain.StatusOK}
		plan.Append(domain.PlanEntry{Source: c.Path, Destination: filepath.Join(dir, newName)})
	} else {
		planner := application.NewPlanner(c.fs, domain.DirectPolicy{}, c.CaseInsensitive)
		var err error
		rec, err = planner.PlanItem(item, c.Base(), dir)
		if err != nil {
			return nil, err
		}
		if rec.Status == domain.StatusNameConflict {
			return &ReviewResult{Record: rec}, fmt.Errorf("%w: %s already exists", application.ErrNameConflict, newName)
		}
		if rec.Status != domain.StatusOK {
			return &ReviewResult{Record: rec}, fmt.Errorf("%w: %s", application.ErrReadFail, c.Path)
		}
		plan = planner.Plan()
	}

	report, err := application.NewExecutor(c.fs, c.logger).Commit(ctx, plan, c.DryRun)
	if err != nil {
		return &ReviewResult{Record: rec}, err
	}
	if len(report.Failures) > 0 {
		return &ReviewResult{Record: rec}, report.Failures[0]
	}

	dst := filepath.Join(dir, rec.FinalName)
	return &ReviewResult{
		Record:      rec,
		Destination: dst,
		Message:     fmt.Sprintf("Renamed %s -> %s", oldName, rec.FinalName),
	}, nil
}
