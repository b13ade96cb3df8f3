package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tagren/internal/adapters/filesystem"
	"tagren/internal/domain"
	"tagren/internal/ports"
)

// faultyFS fails selected renames and removals and delegates everything
// else to disk
type faultyFS struct {
	*filesystem.FileSystem
	failRename func(oldPath, newPath string) error
	failRemove func(path string) error
}

func (f *faultyFS) Remove(path string) error {
	if f.failRemove != nil {
		if err := f.failRemove(path); err != nil {
			return err
		}
	}
	return f.FileSystem.Remove(path)
}

func (f *faultyFS) Rename(oldPath, newPath string) error {
	if f.failRename != nil {
		if err := f.failRename(oldPath, newPath); err != nil {
			return err
		}
	}
	return f.FileSystem.Rename(oldPath, newPath)
}

// fakeJournal keeps stage states in memory
type fakeJournal struct {
	ports.Journal
	states map[int]ports.StageState
	order  []ports.StageState
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{states: make(map[int]ports.StageState)}
}

func (j *fakeJournal) RecordStage(rec ports.StageRecord) error {
	j.states[rec.Seq] = rec.State
	j.order = append(j.order, rec.State)
	return nil
}

func (j *fakeJournal) UpdateStage(_ int64, seq int, state ports.StageState) error {
	j.states[seq] = state
	j.order = append(j.order, state)
	return nil
}

func sequentialTokens() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%032x", n)
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// setupPlanDir writes files into <tmp>/in and returns a plan moving each
// one to <tmp>/out/<NAME>-<n>.jpg
func setupPlanDir(t *testing.T, names ...string) (string, *domain.Plan) {
	t.Helper()

	tmpDir := t.TempDir()
	in := filepath.Join(tmpDir, "in")
	out := filepath.Join(tmpDir, "out")
	for _, d := range []string{in, out} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", d, err)
		}
	}

	plan := &domain.Plan{}
	for i, n := range names {
		src := filepath.Join(in, n)
		if err := os.WriteFile(src, []byte("bytes of "+n), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", n, err)
		}
		plan.Append(domain.PlanEntry{
			Source:      src,
			Destination: filepath.Join(out, fmt.Sprintf("NAME-%d.jpg", i+1)),
		})
	}
	return tmpDir, plan
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	names, err := filesystem.New().ListFileNames(dir)
	if err != nil {
		t.Fatalf("failed to list %s: %v", dir, err)
	}
	return names
}

func TestCommit_RenamesEveryEntry(t *testing.T) {
	tmpDir, plan := setupPlanDir(t, "a.jpg", "b.jpg")
	journal := newFakeJournal()
	exec := NewExecutor(filesystem.New(), quietLogger(), WithJournal(journal, 1))

	report, err := exec.Commit(context.Background(), plan, false)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if !report.OK() || report.Committed != 2 {
		t.Errorf("report = %+v, want 2 committed", report)
	}

	if got := listDir(t, filepath.Join(tmpDir, "in")); len(got) != 0 {
		t.Errorf("input dir not empty: %v", got)
	}
	content, _ := os.ReadFile(filepath.Join(tmpDir, "out", "NAME-2.jpg"))
	if string(content) != "bytes of b.jpg" {
		t.Errorf("NAME-2.jpg content = %q", content)
	}
	for seq := 0; seq < 2; seq++ {
		if journal.states[seq] != ports.StageCommitted {
			t.Errorf("journal state[%d] = %s, want committed", seq, journal.states[seq])
		}
	}
}

func TestCommit_StageFailureRollsBack(t *testing.T) {
	tmpDir, plan := setupPlanDir(t, "f1.jpg", "f2.jpg", "f3.jpg", "f4.jpg", "f5.jpg")
	boom := errors.New("permission denied")
	fsys := &faultyFS{
		FileSystem: filesystem.New(),
		failRename: func(oldPath, newPath string) error {
			if filepath.Base(oldPath) == "f3.jpg" {
				return boom
			}
			return nil
		},
	}
	journal := newFakeJournal()
	exec := NewExecutor(fsys, quietLogger(), WithJournal(journal, 1), WithTokenSource(sequentialTokens()))

	report, err := exec.Commit(context.Background(), plan, false)
	if !errors.Is(err, ErrStageFailure) {
		t.Fatalf("expected stage failure, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("stage error does not wrap cause: %v", err)
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Seq != 2 {
		t.Errorf("stage error = %+v, want seq 2", stageErr)
	}
	if report.Staged != 2 || report.RolledBack != 2 {
		t.Errorf("report = %+v, want 2 staged and 2 rolled back", report)
	}

	got := listDir(t, filepath.Join(tmpDir, "in"))
	want := []string{"f1.jpg", "f2.jpg", "f3.jpg", "f4.jpg", "f5.jpg"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("input dir = %v, want %v", got, want)
	}
	for _, n := range want {
		content, _ := os.ReadFile(filepath.Join(tmpDir, "in", n))
		if string(content) != "bytes of "+n {
			t.Errorf("%s content = %q", n, content)
		}
	}
	if got := listDir(t, filepath.Join(tmpDir, "out")); len(got) != 0 {
		t.Errorf("output dir not empty: %v", got)
	}

	for seq, state := range map[int]ports.StageState{0: ports.StageRolledBack, 1: ports.StageRolledBack, 2: ports.StageRolledBack} {
		if journal.states[seq] != state {
			t.Errorf("journal state[%d] = %s, want %s", seq, journal.states[seq], state)
		}
	}
	if _, ok := journal.states[3]; ok {
		t.Error("entry 4 was journaled but should never be staged")
	}
}

func TestCommit_FallsBackToCopy(t *testing.T) {
	tmpDir, plan := setupPlanDir(t, "a.jpg", "b.jpg")
	fsys := &faultyFS{
		FileSystem: filesystem.New(),
		failRename: func(oldPath, newPath string) error {
			if filepath.Base(newPath) == "NAME-1.jpg" {
				return &os.LinkError{Op: "rename", Old: oldPath, New: newPath, Err: errors.New("invalid cross-device link")}
			}
			return nil
		},
	}
	journal := newFakeJournal()
	exec := NewExecutor(fsys, quietLogger(), WithJournal(journal, 1))

	report, err := exec.Commit(context.Background(), plan, false)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if report.Fallbacks != 1 || report.Committed != 1 || !report.OK() {
		t.Errorf("report = %+v, want 1 fallback and 1 committed", report)
	}

	content, err := os.ReadFile(filepath.Join(tmpDir, "out", "NAME-1.jpg"))
	if err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	if string(content) != "bytes of a.jpg" {
		t.Errorf("destination content = %q", content)
	}
	for _, n := range listDir(t, filepath.Join(tmpDir, "in")) {
		if domain.IsTempName(n) {
			t.Errorf("temporary left behind: %s", n)
		}
	}
	if journal.states[0] != ports.StageFallback {
		t.Errorf("journal state[0] = %s, want fallback", journal.states[0])
	}
}

func TestCommit_CopiedButTemporaryKept(t *testing.T) {
	tmpDir, plan := setupPlanDir(t, "a.jpg")
	fsys := &faultyFS{
		FileSystem: filesystem.New(),
		failRename: func(oldPath, newPath string) error {
			if filepath.Base(newPath) == "NAME-1.jpg" {
				return &os.LinkError{Op: "rename", Old: oldPath, New: newPath, Err: errors.New("invalid cross-device link")}
			}
			return nil
		},
		failRemove: func(path string) error {
			if domain.IsTempName(filepath.Base(path)) {
				return &os.PathError{Op: "remove", Path: path, Err: errors.New("permission denied")}
			}
			return nil
		},
	}
	journal := newFakeJournal()
	exec := NewExecutor(fsys, quietLogger(), WithJournal(journal, 1))

	report, err := exec.Commit(context.Background(), plan, false)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if len(report.Failures) != 0 || report.Fallbacks != 1 || !report.OK() {
		t.Errorf("report = %+v, want one fallback and no failures", report)
	}
	if len(report.Leftovers) != 1 || !domain.IsTempName(filepath.Base(report.Leftovers[0])) {
		t.Errorf("leftovers = %v, want the temporary", report.Leftovers)
	}

	content, err := os.ReadFile(filepath.Join(tmpDir, "out", "NAME-1.jpg"))
	if err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	if string(content) != "bytes of a.jpg" {
		t.Errorf("destination content = %q", content)
	}
	if journal.states[0] != ports.StageCopied {
		t.Errorf("journal state[0] = %s, want copied", journal.states[0])
	}
	if ports.StageCopied.Terminal() {
		t.Error("copied must stay unresolved so recovery removes the temporary")
	}
}

func TestMoveFile_SourceNotRemoved(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "sub", "dst.jpg")
	if err := os.WriteFile(src, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}
	fsys := &faultyFS{
		FileSystem: filesystem.New(),
		failRename: func(string, string) error { return errors.New("cross-device") },
		failRemove: func(string) error { return errors.New("busy") },
	}

	fallback, err := MoveFile(fsys, src, dst)
	if !fallback || !errors.Is(err, ErrSourceNotRemoved) {
		t.Fatalf("MoveFile = %v, %v; want fallback with ErrSourceNotRemoved", fallback, err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("destination missing: %v", err)
	}
}

func TestCommit_FallbackCreatesDestinationDir(t *testing.T) {
	tmpDir, plan := setupPlanDir(t, "a.jpg")
	entry := plan.Entries()[0]
	nested := &domain.Plan{}
	nested.Append(domain.PlanEntry{
		Source:      entry.Source,
		Destination: filepath.Join(tmpDir, "out", "deep", "A.jpg"),
	})

	report, err := NewExecutor(filesystem.New(), quietLogger()).Commit(context.Background(), nested, false)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if report.Fallbacks != 1 {
		t.Errorf("report = %+v, want 1 fallback", report)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "out", "deep", "A.jpg")); err != nil {
		t.Errorf("destination missing: %v", err)
	}
}

func TestCommit_ExistingDestinationIsCommitFailure(t *testing.T) {
	tmpDir, plan := setupPlanDir(t, "a.jpg", "b.jpg")
	taken := filepath.Join(tmpDir, "out", "NAME-1.jpg")
	if err := os.WriteFile(taken, []byte("someone else"), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", taken, err)
	}
	journal := newFakeJournal()

	report, err := NewExecutor(filesystem.New(), quietLogger(), WithJournal(journal, 1)).Commit(context.Background(), plan, false)
	if err != nil {
		t.Fatalf("commit failures must not abort: %v", err)
	}
	if len(report.Failures) != 1 || report.Committed != 1 {
		t.Fatalf("report = %+v, want 1 failure and 1 committed", report)
	}
	if !errors.Is(report.Failures[0], ErrCommitFailure) {
		t.Errorf("failure does not match ErrCommitFailure: %v", report.Failures[0])
	}

	content, _ := os.ReadFile(taken)
	if string(content) != "someone else" {
		t.Errorf("existing destination was overwritten: %q", content)
	}
	if _, err := os.Stat(report.Failures[0].Temp); err != nil {
		t.Errorf("temporary should be left in place: %v", err)
	}
	if journal.states[0] != ports.StageFailed {
		t.Errorf("journal state[0] = %s, want failed", journal.states[0])
	}
}

func TestCommit_DryRunTouchesNothing(t *testing.T) {
	tmpDir, plan := setupPlanDir(t, "a.jpg", "b.jpg")
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	journal := newFakeJournal()

	report, err := NewExecutor(filesystem.New(), logger, WithJournal(journal, 1)).Commit(context.Background(), plan, true)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if !report.DryRun || report.Staged != 2 {
		t.Errorf("report = %+v, want dry run with 2 staged", report)
	}

	if got := listDir(t, filepath.Join(tmpDir, "in")); strings.Join(got, ",") != "a.jpg,b.jpg" {
		t.Errorf("input dir changed: %v", got)
	}
	if got := listDir(t, filepath.Join(tmpDir, "out")); len(got) != 0 {
		t.Errorf("output dir changed: %v", got)
	}
	if len(journal.order) != 0 {
		t.Errorf("dry run wrote to the journal: %v", journal.order)
	}

	out := logs.String()
	lastStage := strings.LastIndex(out, "would stage")
	firstCommit := strings.Index(out, "would commit")
	if lastStage < 0 || firstCommit < 0 || lastStage > firstCommit {
		t.Errorf("expected every stage line before the commit lines, got:\n%s", out)
	}
}

func TestCommit_EmptyPlan(t *testing.T) {
	report, err := NewExecutor(filesystem.New(), quietLogger()).Commit(context.Background(), &domain.Plan{}, false)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if !report.OK() {
		t.Errorf("empty plan report = %+v, want OK", report)
	}
}

func TestCommit_TemporaryNamesAreRecognizable(t *testing.T) {
	_, plan := setupPlanDir(t, "a.jpg")
	var seen string
	fsys := &faultyFS{
		FileSystem: filesystem.New(),
		failRename: func(oldPath, newPath string) error {
			if seen == "" {
				seen = filepath.Base(newPath)
			}
			return nil
		},
	}

	if _, err := NewExecutor(fsys, quietLogger()).Commit(context.Background(), plan, false); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	orig, ok := domain.OriginalFromTemp(seen)
	if !ok || orig != "a.jpg" {
		t.Errorf("temporary %q does not carry the original name", seen)
	}
}
