package domain

import (
	"path/filepath"
	"strconv"
)

// Status is the terminal outcome of one item in a run
type Status string

const (
	StatusOK           Status = "OK"
	StatusNameConflict Status = "NAME_CONFLICT"
	StatusReadFail     Status = "READ_FAIL"
	StatusNoDetection  Status = "NO_DET"
	StatusNoText       Status = "NO_TEXT"
)

// Failed reports whether the status excludes the item from the plan
func (s Status) Failed() bool {
	return s != StatusOK
}

// PlanEntry is one (source, destination) pair of a rename plan
type PlanEntry struct {
	Source      string
	Destination string
}

// Plan is the ordered list of renames accumulated over a run.
// Entries are append-only.
type Plan struct {
	entries []PlanEntry
}

// Append adds an entry to the end of the plan
func (p *Plan) Append(e PlanEntry) {
	p.entries = append(p.entries, e)
}

// Entries returns a copy of the planned renames in order
func (p *Plan) Entries() []PlanEntry {
	out := make([]PlanEntry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Len returns the number of planned renames
func (p *Plan) Len() int {
	return len(p.entries)
}

// ItemRecord is the per-item row exposed to logging and the mapping table
type ItemRecord struct {
	SourceDir string
	OldName   string
	RawText   string
	Base      string
	Index     int // 0 when no index was assigned
	FinalName string
	Status    Status
}

// IndexString renders Index, or "" when none was assigned
func (r ItemRecord) IndexString() string {
	if r.Index <= 0 {
		return ""
	}
	return strconv.Itoa(r.Index)
}

// SourcePath rebuilds the item's original path
func (r ItemRecord) SourcePath() string {
	return filepath.Join(r.SourceDir, r.OldName)
}

// Item is one source file handed to the planner
type Item struct {
	Path    string
	Ext     string // lowercased, with leading dot
	RawText string
}

// NewItem builds an Item from a path, deriving the lowercased extension
func NewItem(path, rawText string) Item {
	return Item{
		Path:    path,
		Ext:     LowerExt(path),
		RawText: rawText,
	}
}
