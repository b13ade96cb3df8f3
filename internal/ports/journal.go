package ports

import (
	"time"

	"tagren/internal/domain"
)

// StageState is the lifecycle state of one staged rename
type StageState string

const (
	StagePending    StageState = "pending"     // recorded, source not renamed yet
	StageStaged     StageState = "staged"      // source detached to its temporary
	StageCommitted  StageState = "committed"   // temporary renamed to destination
	StageFallback   StageState = "fallback"    // temporary copied to destination and removed
	StageCopied     StageState = "copied"      // temporary copied to destination, not removed
	StageRolledBack StageState = "rolled_back" // temporary restored to source
	StageFailed     StageState = "failed"      // phase-2 failure, temporary left in place
	StageRecovered  StageState = "recovered"   // resolved by recovery tooling
)

// Terminal reports whether no further action is expected for the state
func (s StageState) Terminal() bool {
	switch s {
	case StageCommitted, StageFallback, StageRolledBack, StageRecovered:
		return true
	}
	return false
}

// RunInfo describes one run of the renamer
type RunInfo struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	InputDir   string
	OutputDir  string
	Policy     string
	DryRun     bool
	OK         int
	Failed     int
	Error      string
}

// StageRecord is one journaled staging step
type StageRecord struct {
	RunID       int64
	Seq         int
	Source      string
	Temp        string
	Destination string
	State       StageState
}

// Journal records runs, item outcomes and staged temporaries so that an
// interrupted commit can be recovered after the process dies.
type Journal interface {
	BeginRun(info RunInfo) (int64, error)
	// RecordItems stores the item outcomes of a run in one transaction
	RecordItems(runID int64, recs []domain.ItemRecord) error
	RecordStage(rec StageRecord) error
	UpdateStage(runID int64, seq int, state StageState) error
	FinishRun(runID int64, ok, failed int, runErr error) error

	// UnresolvedStages returns stage rows in a non-terminal state, oldest first
	UnresolvedStages() ([]StageRecord, error)
	// RecentRuns returns the newest runs first
	RecentRuns(limit int) ([]RunInfo, error)
	// RunItems returns the item outcomes of one run in planning order
	RunItems(runID int64) ([]domain.ItemRecord, error)

	Close() error
}
