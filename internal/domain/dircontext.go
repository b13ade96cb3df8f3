package domain

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// ListFunc lists the names of the regular files directly inside dir
type ListFunc func(dir string) ([]string, error)

// ExistingNames caches a per-directory snapshot of the names already on disk.
// Each directory is listed once per run; later lookups return the snapshot
// even if the disk has changed since.
type ExistingNames struct {
	list      ListFunc
	fold      bool
	snapshots map[string]map[string]struct{}
}

// NewExistingNames creates an empty cache backed by list
func NewExistingNames(list ListFunc, caseInsensitive bool) *ExistingNames {
	return &ExistingNames{
		list:      list,
		fold:      caseInsensitive,
		snapshots: make(map[string]map[string]struct{}),
	}
}

// Names returns the snapshot for dir, listing it on first use.
// A directory that does not exist yet has no names.
func (c *ExistingNames) Names(dir string) (map[string]struct{}, error) {
	dir = filepath.Clean(dir)
	if snap, ok := c.snapshots[dir]; ok {
		return snap, nil
	}

	names, err := c.list(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	snap := make(map[string]struct{}, len(names))
	for _, n := range names {
		snap[foldName(n, c.fold)] = struct{}{}
	}
	c.snapshots[dir] = snap
	return snap, nil
}

// DirContext is the mutable naming state of one target directory
type DirContext struct {
	Dir      string
	fold     bool
	counts   map[string]int
	reserved map[string]struct{}
	existing map[string]struct{}
}

// Key returns the form of name used for collision checks
func (c *DirContext) Key(name string) string {
	return foldName(name, c.fold)
}

// Taken reports whether name is already on disk or planned in this run
func (c *DirContext) Taken(name string) bool {
	k := c.Key(name)
	if _, ok := c.reserved[k]; ok {
		return true
	}
	_, ok := c.existing[k]
	return ok
}

// Reserve claims name for the current run
func (c *DirContext) Reserve(name string) {
	c.reserved[c.Key(name)] = struct{}{}
}

// LastIndex returns the last index handed out for base (0 if none)
func (c *DirContext) LastIndex(base string) int {
	return c.counts[base]
}

func (c *DirContext) setLastIndex(base string, idx int) {
	c.counts[base] = idx
}

// Directories owns the DirContext of every target directory touched by a run.
// It is created once per run and passed to the planner; it is not safe for
// concurrent use.
type Directories struct {
	existing *ExistingNames
	fold     bool
	contexts map[string]*DirContext
}

// NewDirectories creates the per-run directory table
func NewDirectories(list ListFunc, caseInsensitive bool) *Directories {
	return &Directories{
		existing: NewExistingNames(list, caseInsensitive),
		fold:     caseInsensitive,
		contexts: make(map[string]*DirContext),
	}
}

// CaseInsensitive reports whether names are compared case-folded
func (d *Directories) CaseInsensitive() bool {
	return d.fold
}

// Context returns the context for dir, creating it on first reference
func (d *Directories) Context(dir string) (*DirContext, error) {
	dir = filepath.Clean(dir)
	if ctx, ok := d.contexts[dir]; ok {
		return ctx, nil
	}

	snap, err := d.existing.Names(dir)
	if err != nil {
		return nil, err
	}

	ctx := &DirContext{
		Dir:      dir,
		fold:     d.fold,
		counts:   make(map[string]int),
		reserved: make(map[string]struct{}),
		existing: snap,
	}
	d.contexts[dir] = ctx
	return ctx, nil
}

func foldName(name string, fold bool) string {
	if fold {
		return strings.ToLower(name)
	}
	return name
}
