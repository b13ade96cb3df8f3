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

// PlanRequest is one source image and what the collaborators made of it
type PlanRequest struct {
	Path string
	Text string // raw recognizer output
	Base string // when set, used as the base name instead of Text
	Err  error  // collaborator failure; the item is not planned
}

// PlanResult contains the outcome of planning a batch
type PlanResult struct {
	Records []domain.ItemRecord
	Plan    *domain.Plan
	Policy  string
	OK      int
	Failed  int
	Message string
}

// PlanCommand resolves final names for a batch without touching the disk
type PlanCommand struct {
	fs              ports.FileSystem
	logger          *slog.Logger
	Requests        []PlanRequest
	TargetDir       string
	Duplicates      bool
	CaseInsensitive bool
}

// NewPlanCommand creates a new PlanCommand
func NewPlanCommand(fsys ports.FileSystem, logger *slog.Logger, targetDir string, duplicates, caseInsensitive bool, reqs []PlanRequest) *PlanCommand {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlanCommand{
		fs:              fsys,
		logger:          logger,
		Requests:        reqs,
		TargetDir:       targetDir,
		Duplicates:      duplicates,
		CaseInsensitive: caseInsensitive,
	}
}

// Validate checks the command's inputs
func (c *PlanCommand) Validate() error {
	return application.ValidateRequired("out-renamed", c.TargetDir)
}

// Execute plans every request in order
func (c *PlanCommand) Execute(ctx context.Context) (*PlanResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	planner := application.NewPlanner(c.fs, domain.PolicyFor(c.Duplicates), c.CaseInsensitive)
	result := &PlanResult{
		Records: make([]domain.ItemRecord, 0, len(c.Requests)),
		Plan:    planner.Plan(),
		Policy:  planner.Policy().Name(),
	}

	for _, req := range c.Requests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item := domain.NewItem(req.Path, req.Text)
		rec, err := c.planOne(planner, item, req)
		if err != nil {
			return nil, err
		}

		if rec.Status == domain.StatusOK {
			result.OK++
		} else {
			result.Failed++
		}
		c.logger.Info("planned",
			"src", rec.OldName,
			"text", rec.RawText,
			"base", rec.Base,
			"index", rec.IndexString(),
			"dst", rec.FinalName,
			"status", rec.Status,
		)
		result.Records = append(result.Records, rec)
	}

	result.Message = fmt.Sprintf("Planned %d of %d images (%s policy, %d failed)",
		result.OK, len(c.Requests), result.Policy, result.Failed)
	return result, nil
}

func (c *PlanCommand) planOne(planner *application.Planner, item domain.Item, req PlanRequest) (domain.ItemRecord, error) {
	if req.Err != nil {
		return planner.FailItem(item, req.Err), nil
	}

	base := req.Base
	if base == "" {
		var err error
		base, err = application.BaseFromText(req.Text)
		if err != nil {
			return planner.FailItem(item, err), nil
		}
	}
	return planner.PlanItem(item, base, c.TargetDir)
}

// ParsePlanLines parses newline-separated "file=text" lines. Relative file
// names are resolved against sourceDir. Blank lines are ignored.
func ParsePlanLines(s, sourceDir string) ([]PlanRequest, error) {
	var reqs []PlanRequest
	for i, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		file, text, ok := strings.Cut(line, "=")
		file = strings.TrimSpace(file)
		if !ok || file == "" {
			return nil, &application.ValidationError{
				Field:   "items",
				Message: fmt.Sprintf("line %d: expected file=text, got %q", i+1, line),
			}
		}
		if !filepath.IsAbs(file) {
			file = filepath.Join(sourceDir, file)
		}
		reqs = append(reqs, PlanRequest{Path: file, Text: text})
	}
	return reqs, nil
}
