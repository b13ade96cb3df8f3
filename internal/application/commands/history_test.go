package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"tagren/internal/adapters/sqlite"
	"tagren/internal/domain"
	"tagren/internal/ports"
)

func TestHistoryCommand(t *testing.T) {
	j, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	defer j.Close()

	start := time.Now()
	for i, dir := range []string{"/in/1", "/in/2", "/in/3"} {
		id, err := j.BeginRun(ports.RunInfo{StartedAt: start.Add(time.Duration(i) * time.Second), InputDir: dir, OutputDir: "/out", Policy: "indexed"})
		if err != nil {
			t.Fatalf("BeginRun failed: %v", err)
		}
		if err := j.FinishRun(id, i, 0, nil); err != nil {
			t.Fatalf("FinishRun failed: %v", err)
		}
	}

	result, err := NewHistoryCommand(j, 2).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(result.Runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(result.Runs))
	}
	if result.Runs[0].InputDir != "/in/3" || result.Runs[1].InputDir != "/in/2" {
		t.Errorf("runs out of order: %s, %s", result.Runs[0].InputDir, result.Runs[1].InputDir)
	}

	if _, err := NewHistoryCommand(j, 0).Execute(context.Background()); err == nil {
		t.Error("expected error for limit 0")
	}
}

func TestHistoryCommand_RunItems(t *testing.T) {
	j, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	defer j.Close()

	id, err := j.BeginRun(ports.RunInfo{StartedAt: time.Now(), InputDir: "/in", OutputDir: "/out", Policy: "direct"})
	if err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	recs := []domain.ItemRecord{
		{SourceDir: "/in", OldName: "a.jpg", RawText: "dog", Base: "DOG", FinalName: "DOG.jpg", Status: domain.StatusOK},
		{SourceDir: "/in", OldName: "b.jpg", RawText: "dog", Base: "DOG", Status: domain.StatusNameConflict},
	}
	if err := j.RecordItems(id, recs); err != nil {
		t.Fatalf("RecordItems failed: %v", err)
	}

	cmd := NewHistoryCommand(j, 0)
	cmd.RunID = id
	result, err := cmd.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(result.Items))
	}
	if result.Items[1].Status != domain.StatusNameConflict {
		t.Errorf("second status = %s, want NAME_CONFLICT", result.Items[1].Status)
	}

	cmd.RunID = id + 100
	if _, err := cmd.Execute(context.Background()); !errors.Is(err, sqlite.ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}
