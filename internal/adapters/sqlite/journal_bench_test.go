package sqlite

import (
	"fmt"
	"testing"

	"tagren/internal/domain"
	"tagren/internal/ports"
)

// BenchmarkStageLifecycle measures the journal writes of one staged rename
func BenchmarkStageLifecycle(b *testing.B) {
	j, err := Open(b.TempDir())
	if err != nil {
		b.Fatalf("failed to open journal: %v", err)
	}
	defer func() {
		if err := j.Close(); err != nil {
			b.Fatalf("failed to close journal: %v", err)
		}
	}()

	id, err := j.BeginRun(ports.RunInfo{InputDir: "/in", OutputDir: "/out", Policy: "indexed"})
	if err != nil {
		b.Fatalf("BeginRun failed: %v", err)
	}

	seq := 0
	b.ResetTimer()
	for b.Loop() {
		rec := ports.StageRecord{
			RunID:       id,
			Seq:         seq,
			Source:      fmt.Sprintf("/in/%d.jpg", seq),
			Temp:        fmt.Sprintf("/in/tmp-%d.jpg", seq),
			Destination: fmt.Sprintf("/out/DOG-%d.jpg", seq),
			State:       ports.StagePending,
		}
		if err := j.RecordStage(rec); err != nil {
			b.Fatalf("RecordStage failed: %v", err)
		}
		if err := j.UpdateStage(id, seq, ports.StageStaged); err != nil {
			b.Fatalf("UpdateStage failed: %v", err)
		}
		if err := j.UpdateStage(id, seq, ports.StageCommitted); err != nil {
			b.Fatalf("UpdateStage failed: %v", err)
		}
		seq++
	}
}

// BenchmarkRecordItems measures storing the outcome table of a 500-item run
func BenchmarkRecordItems(b *testing.B) {
	j, err := Open(b.TempDir())
	if err != nil {
		b.Fatalf("failed to open journal: %v", err)
	}
	defer j.Close()

	recs := make([]domain.ItemRecord, 500)
	for i := range recs {
		recs[i] = domain.ItemRecord{
			SourceDir: "/in",
			OldName:   fmt.Sprintf("IMG_%04d.jpg", i),
			RawText:   "dog",
			Base:      "DOG",
			Index:     i + 1,
			FinalName: fmt.Sprintf("DOG-%d.jpg", i+1),
			Status:    domain.StatusOK,
		}
	}

	b.ResetTimer()
	for b.Loop() {
		id, err := j.BeginRun(ports.RunInfo{InputDir: "/in", OutputDir: "/out", Policy: "indexed"})
		if err != nil {
			b.Fatalf("BeginRun failed: %v", err)
		}
		if err := j.RecordItems(id, recs); err != nil {
			b.Fatalf("RecordItems failed: %v", err)
		}
	}
}
