package domain

import (
	"errors"
	"fmt"
)

// ErrNameConflict is returned by the direct policy when the candidate is taken
var ErrNameConflict = errors.New("name conflict")

// PlanResult is the outcome of naming one item
type PlanResult struct {
	Base  string
	Name  string // final file name including extension
	Index int    // 0 under the direct policy
}

// NamingPolicy decides the final file name for one item in a directory.
// A policy is chosen once per run.
type NamingPolicy interface {
	// PlanName returns the final name for base+ext in dir and reserves it.
	PlanName(base string, dir *DirContext, ext string) (PlanResult, error)
	// Name identifies the policy in logs and the journal.
	Name() string
}

// PolicyFor returns the indexed policy when duplicates are expected,
// the direct policy otherwise.
func PolicyFor(duplicates bool) NamingPolicy {
	if duplicates {
		return IndexedPolicy{}
	}
	return DirectPolicy{}
}

// IndexedPolicy resolves collisions with a numeric suffix: BASE-1, BASE-2, ...
type IndexedPolicy struct{}

// Name implements NamingPolicy
func (IndexedPolicy) Name() string { return "indexed" }

// PlanName implements NamingPolicy. It always succeeds.
func (IndexedPolicy) PlanName(base string, dir *DirContext, ext string) (PlanResult, error) {
	idx := dir.LastIndex(base) + 1
	for {
		cand := fmt.Sprintf("%s-%d%s", base, idx, ext)
		if !dir.Taken(cand) {
			dir.setLastIndex(base, idx)
			dir.Reserve(cand)
			return PlanResult{Base: base, Name: cand, Index: idx}, nil
		}
		idx++
	}
}

// DirectPolicy uses the base name as-is and reports collisions instead of
// resolving them. A collision means two inputs could not be told apart.
type DirectPolicy struct{}

// Name implements NamingPolicy
func (DirectPolicy) Name() string { return "direct" }

// PlanName implements NamingPolicy
func (DirectPolicy) PlanName(base string, dir *DirContext, ext string) (PlanResult, error) {
	cand := base + ext
	if dir.Taken(cand) {
		return PlanResult{Base: base, Name: cand}, fmt.Errorf("%w: %s already taken in %s", ErrNameConflict, cand, dir.Dir)
	}
	dir.Reserve(cand)
	return PlanResult{Base: base, Name: cand}, nil
}
