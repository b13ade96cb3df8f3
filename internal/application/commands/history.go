package commands

import (
	"context"
	"fmt"

	"tagren/internal/application"
	"tagren/internal/domain"
	"tagren/internal/ports"
)

// HistoryResult contains recent runs, newest first, or the items of one run
type HistoryResult struct {
	Runs    []ports.RunInfo
	Items   []domain.ItemRecord
	Message string
}

// HistoryCommand lists recent runs from the journal. With RunID set it
// lists the item outcomes of that run instead.
type HistoryCommand struct {
	journal ports.Journal
	Limit   int
	RunID   int64
}

// NewHistoryCommand creates a new HistoryCommand
func NewHistoryCommand(journal ports.Journal, limit int) *HistoryCommand {
	return &HistoryCommand{journal: journal, Limit: limit}
}

// Validate checks the limit
func (c *HistoryCommand) Validate() error {
	if c.RunID < 0 {
		return &application.ValidationError{
			Field:   "run",
			Message: "run id must be positive",
		}
	}
	if c.RunID == 0 && c.Limit < 1 {
		return &application.ValidationError{
			Field:   "limit",
			Message: "limit must be at least 1",
		}
	}
	return nil
}

// Execute runs the history command
func (c *HistoryCommand) Execute(ctx context.Context) (*HistoryResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if c.RunID > 0 {
		items, err := c.journal.RunItems(c.RunID)
		if err != nil {
			return nil, fmt.Errorf("failed to read run %d: %w", c.RunID, err)
		}
		return &HistoryResult{
			Items:   items,
			Message: fmt.Sprintf("run %d: %d items", c.RunID, len(items)),
		}, nil
	}

	runs, err := c.journal.RecentRuns(c.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return &HistoryResult{
		Runs:    runs,
		Message: fmt.Sprintf("%d runs", len(runs)),
	}, nil
}
