package application

import (
	"errors"
	"fmt"

	"tagren/internal/domain"
)

// Sentinel errors for common conditions
var (
	ErrReadFail      = errors.New("source unreadable")
	ErrNoDetection   = errors.New("no tag detected")
	ErrNoText        = errors.New("no text recognized")
	ErrNameConflict  = domain.ErrNameConflict
	ErrStageFailure  = errors.New("stage failure")
	ErrCommitFailure = errors.New("commit failure")

	// ErrSourceNotRemoved means a copy reached its destination but the
	// source could not be deleted afterwards.
	ErrSourceNotRemoved = errors.New("source not removed after copy")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StageError aborts a commit: the source of entry Seq could not be detached.
// Every entry staged before it has been rolled back (best-effort).
type StageError struct {
	Seq    int
	Source string
	Temp   string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d: cannot move %s to %s: %v", e.Seq+1, e.Source, e.Temp, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) Is(target error) bool {
	return target == ErrStageFailure
}

// CommitError is a per-entry phase-2 failure. The temporary is left in place.
type CommitError struct {
	Seq         int
	Temp        string
	Destination string
	Err         error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit %d: cannot move %s to %s: %v", e.Seq+1, e.Temp, e.Destination, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

func (e *CommitError) Is(target error) bool {
	return target == ErrCommitFailure
}

// StatusFor maps an item-level error onto its table status
func StatusFor(err error) domain.Status {
	switch {
	case err == nil:
		return domain.StatusOK
	case errors.Is(err, ErrNameConflict):
		return domain.StatusNameConflict
	case errors.Is(err, ErrNoDetection):
		return domain.StatusNoDetection
	case errors.Is(err, ErrNoText):
		return domain.StatusNoText
	default:
		return domain.StatusReadFail
	}
}
