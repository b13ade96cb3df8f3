package views

import (
	"path/filepath"

	"tagren/internal/domain"
)

// QueueEntry is one image awaiting review
type QueueEntry struct {
	Path   string
	Done   bool
	Status domain.Status // last save outcome, empty until saved
}

// Name returns the current file name of the entry
func (e QueueEntry) Name() string {
	return filepath.Base(e.Path)
}

// Queue holds the images of a review session with a paged cursor
type Queue struct {
	entries    []QueueEntry
	pageSize   int
	pageOffset int
	cursor     int
}

// NewQueue creates a queue over paths with the given page size
func NewQueue(paths []string, pageSize int) *Queue {
	if pageSize <= 0 {
		pageSize = 10
	}
	q := &Queue{pageSize: pageSize}
	for _, p := range paths {
		q.entries = append(q.entries, QueueEntry{Path: p})
	}
	return q
}

// Len returns the number of images
func (q *Queue) Len() int {
	return len(q.entries)
}

// Cursor returns the current position (absolute index)
func (q *Queue) Cursor() int {
	return q.cursor
}

// Current returns the entry under the cursor
func (q *Queue) Current() (QueueEntry, bool) {
	if len(q.entries) == 0 {
		return QueueEntry{}, false
	}
	return q.entries[q.cursor], true
}

// Entry returns the entry at i
func (q *Queue) Entry(i int) QueueEntry {
	return q.entries[i]
}

// SetCursor moves the cursor, clamped to the queue
func (q *Queue) SetCursor(pos int) {
	if pos >= len(q.entries) {
		pos = len(q.entries) - 1
	}
	if pos < 0 {
		pos = 0
	}
	q.cursor = pos
	q.ensureCursorInPage()
}

// Prev moves the cursor back by one
func (q *Queue) Prev() bool {
	if q.cursor > 0 {
		q.cursor--
		q.ensureCursorInPage()
		return true
	}
	return false
}

// Next moves the cursor forward by one
func (q *Queue) Next() bool {
	if q.cursor < len(q.entries)-1 {
		q.cursor++
		q.ensureCursorInPage()
		return true
	}
	return false
}

// NextPending moves to the first unsaved entry after the cursor, wrapping
// around. It returns false when every entry is done.
func (q *Queue) NextPending() bool {
	n := len(q.entries)
	for step := 1; step <= n; step++ {
		i := (q.cursor + step) % n
		if !q.entries[i].Done {
			q.SetCursor(i)
			return true
		}
	}
	return false
}

// MarkSaved records the outcome of saving the entry at i. A successful save
// moves the entry to its new path.
func (q *Queue) MarkSaved(i int, newPath string, status domain.Status) {
	e := &q.entries[i]
	e.Status = status
	if status == domain.StatusOK {
		e.Done = true
		if newPath != "" {
			e.Path = newPath
		}
	}
}

// Remaining returns the number of entries not yet saved
func (q *Queue) Remaining() int {
	n := 0
	for _, e := range q.entries {
		if !e.Done {
			n++
		}
	}
	return n
}

// VisibleRange returns the start and end indices for the current page
func (q *Queue) VisibleRange() (start, end int) {
	start = q.pageOffset
	end = min(q.pageOffset+q.pageSize, len(q.entries))
	return
}

// TotalPages returns the total number of pages
func (q *Queue) TotalPages() int {
	if len(q.entries) == 0 {
		return 1
	}
	return (len(q.entries) + q.pageSize - 1) / q.pageSize
}

// CurrentPage returns the current page number (1-based)
func (q *Queue) CurrentPage() int {
	return q.pageOffset/q.pageSize + 1
}

func (q *Queue) ensureCursorInPage() {
	if q.cursor < q.pageOffset || q.cursor >= q.pageOffset+q.pageSize {
		q.pageOffset = (q.cursor / q.pageSize) * q.pageSize
	}
}
