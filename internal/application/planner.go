package application

import (
	"errors"
	"fmt"
	"path/filepath"

	"tagren/internal/domain"
	"tagren/internal/ports"
)

// Planner turns items into a rename plan under one naming policy.
// It owns the per-directory naming state of a single run and must be used
// from one goroutine, in item order.
type Planner struct {
	fs     ports.FileSystem
	policy domain.NamingPolicy
	dirs   *domain.Directories
	plan   domain.Plan
}

// NewPlanner creates a Planner for one run
func NewPlanner(fsys ports.FileSystem, policy domain.NamingPolicy, caseInsensitive bool) *Planner {
	return &Planner{
		fs:     fsys,
		policy: policy,
		dirs:   domain.NewDirectories(fsys.ListFileNames, caseInsensitive),
	}
}

// Policy returns the naming policy of the run
func (p *Planner) Policy() domain.NamingPolicy {
	return p.policy
}

// Plan returns the accumulated plan
func (p *Planner) Plan() *domain.Plan {
	return &p.plan
}

// Directories exposes the run's directory contexts
func (p *Planner) Directories() *domain.Directories {
	return p.dirs
}

// PlanItem resolves the final name of item under base in targetDir and
// appends the rename to the plan. A naming conflict is an item outcome, not
// an error; the returned error is reserved for a target directory that
// cannot be listed.
func (p *Planner) PlanItem(item domain.Item, base, targetDir string) (domain.ItemRecord, error) {
	rec := newRecord(item)
	rec.Base = base

	if _, err := p.fs.Lstat(item.Path); err != nil {
		rec.Status = domain.StatusReadFail
		return rec, nil
	}

	dir, err := p.dirs.Context(targetDir)
	if err != nil {
		return rec, fmt.Errorf("failed to prepare %s: %w", targetDir, err)
	}

	res, err := p.policy.PlanName(base, dir, item.Ext)
	if err != nil {
		if errors.Is(err, domain.ErrNameConflict) {
			rec.Status = domain.StatusNameConflict
			return rec, nil
		}
		return rec, err
	}

	rec.Index = res.Index
	rec.FinalName = res.Name
	rec.Status = domain.StatusOK
	p.plan.Append(domain.PlanEntry{
		Source:      item.Path,
		Destination: filepath.Join(dir.Dir, res.Name),
	})
	return rec, nil
}

// FailItem records an item that never reached the planner
func (p *Planner) FailItem(item domain.Item, err error) domain.ItemRecord {
	rec := newRecord(item)
	rec.Status = StatusFor(err)
	return rec
}

func newRecord(item domain.Item) domain.ItemRecord {
	return domain.ItemRecord{
		SourceDir: filepath.Dir(item.Path),
		OldName:   filepath.Base(item.Path),
		RawText:   item.RawText,
	}
}

// BaseFromText sanitizes the answer line of raw recognizer output.
// Blank output is ErrNoText.
func BaseFromText(raw string) (string, error) {
	line := domain.AnswerLine(raw)
	if line == "" {
		return "", ErrNoText
	}
	return domain.Sanitize(line), nil
}
