package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"tagren/internal/adapters/filesystem"
	"tagren/internal/adapters/sqlite"
	"tagren/internal/application"
	"tagren/internal/domain"
	"tagren/internal/ports"
)

// fakeDetector returns the file bytes, or a preset error per file name
type fakeDetector struct {
	errs map[string]error
}

func (d *fakeDetector) Detect(ctx context.Context, path string) (*ports.Crop, error) {
	if err := d.errs[filepath.Base(path)]; err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &ports.Crop{SourcePath: path, Data: data, MIME: "image/jpeg"}, nil
}

// fakeRecognizer answers with the text stored in the crop and counts calls
type fakeRecognizer struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	fail    map[string]error
}

func (r *fakeRecognizer) Recognize(ctx context.Context, crop *ports.Crop, prompt string) (string, error) {
	r.mu.Lock()
	r.calls++
	r.prompts = append(r.prompts, prompt)
	r.mu.Unlock()
	if err := r.fail[filepath.Base(crop.SourcePath)]; err != nil {
		return "", err
	}
	return domain.AnswerLine(string(crop.Data)), nil
}

type recordingReport struct {
	rows []domain.ItemRecord
}

func (r *recordingReport) WriteItem(rec domain.ItemRecord) error {
	r.rows = append(r.rows, rec)
	return nil
}

func (r *recordingReport) Close() error { return nil }

// setupRun writes images whose content is the text the fake OCR returns
func setupRun(t *testing.T, files map[string]string) (in, out string) {
	t.Helper()
	tmpDir := t.TempDir()
	in = filepath.Join(tmpDir, "in")
	out = filepath.Join(tmpDir, "out")
	if err := os.MkdirAll(in, 0755); err != nil {
		t.Fatalf("failed to create input dir: %v", err)
	}
	for name, text := range files {
		if err := os.WriteFile(filepath.Join(in, name), []byte(text), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return in, out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newTestRun(in, out string, duplicates bool, deps RunDeps) *RunCommand {
	fsys := filesystem.New()
	if deps.FS == nil {
		deps.FS = fsys
	}
	if deps.Finder == nil {
		deps.Finder = fsys
	}
	if deps.Detector == nil {
		deps.Detector = &fakeDetector{}
	}
	if deps.Recognizer == nil {
		deps.Recognizer = &fakeRecognizer{}
	}
	if deps.Logger == nil {
		deps.Logger = quietLogger()
	}
	return NewRunCommand(deps, RunOptions{
		InputDir:       in,
		OutputDir:      out,
		Duplicates:     duplicates,
		Prompt:         "read the tag",
		PromptRequired: true,
		Workers:        2,
	})
}

func names(t *testing.T, dir string) string {
	t.Helper()
	got, err := filesystem.New().ListFileNames(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("failed to list %s: %v", dir, err)
	}
	return strings.Join(got, ",")
}

func TestRunCommand_Validate(t *testing.T) {
	in, out := setupRun(t, nil)

	tests := []struct {
		name   string
		mutate func(o *RunOptions)
		errMsg string
	}{
		{name: "valid", mutate: func(o *RunOptions) {}},
		{name: "missing input", mutate: func(o *RunOptions) { o.InputDir = filepath.Join(in, "nope") }, errMsg: "does not exist"},
		{name: "no output", mutate: func(o *RunOptions) { o.OutputDir = "" }, errMsg: "output directory is required"},
		{name: "output equals input", mutate: func(o *RunOptions) { o.OutputDir = in }, errMsg: "must differ"},
		{name: "empty prompt", mutate: func(o *RunOptions) { o.Prompt = "  " }, errMsg: "OCR prompt is required"},
		{name: "prompt optional", mutate: func(o *RunOptions) { o.Prompt = ""; o.PromptRequired = false }},
		{name: "no workers", mutate: func(o *RunOptions) { o.Workers = 0 }, errMsg: "workers"},
		{name: "output is parent of input", mutate: func(o *RunOptions) { o.OutputDir = filepath.Dir(in) }},
		{name: "clean-out over parent of input", mutate: func(o *RunOptions) { o.OutputDir = filepath.Dir(in); o.CleanOut = true }, errMsg: "is inside it"},
		{name: "clean-out over sibling", mutate: func(o *RunOptions) { o.CleanOut = true }},
		{name: "crops dir inside input", mutate: func(o *RunOptions) { o.CropsDir = filepath.Join(in, "crops"); o.CleanCrops = true }},
		{name: "cleaning crops over input", mutate: func(o *RunOptions) { o.CropsDir = filepath.Dir(in); o.CleanCrops = true }, errMsg: "is inside it"},
		{name: "cleaning crops over output", mutate: func(o *RunOptions) { o.CropsDir = out; o.CleanCrops = true }, errMsg: "is inside it"},
		{name: "crops over input kept", mutate: func(o *RunOptions) { o.CropsDir = filepath.Dir(in) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newTestRun(in, out, true, RunDeps{})
			tt.mutate(&cmd.Opts)
			err := cmd.Validate()

			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestRunCommand_IndexedScenario(t *testing.T) {
	in, out := setupRun(t, map[string]string{"cat1.jpg": "DOG", "cat2.jpg": "DOG", "cat3.jpg": "DOG"})
	report := &recordingReport{}

	result, err := newTestRun(in, out, true, RunDeps{Report: report}).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if got := names(t, out); got != "DOG-1.jpg,DOG-2.jpg,DOG-3.jpg" {
		t.Errorf("output = %s", got)
	}
	if got := names(t, in); got != "" {
		t.Errorf("input not emptied: %s", got)
	}
	if result.OK != 3 || result.Failed != 0 {
		t.Errorf("result = %+v", result)
	}
	if len(report.rows) != 3 || report.rows[0].OldName != "cat1.jpg" || report.rows[2].FinalName != "DOG-3.jpg" {
		t.Errorf("report rows = %+v", report.rows)
	}
}

func TestRunCommand_DirectScenario(t *testing.T) {
	in, out := setupRun(t, map[string]string{"cat1.jpg": "DOG", "cat2.jpg": "DOG", "cat3.jpg": "DOG"})

	result, err := newTestRun(in, out, false, RunDeps{}).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if got := names(t, out); got != "DOG.jpg" {
		t.Errorf("output = %s, want DOG.jpg", got)
	}
	if got := names(t, in); got != "cat2.jpg,cat3.jpg" {
		t.Errorf("input = %s, want conflicting files untouched", got)
	}
	want := []domain.Status{domain.StatusOK, domain.StatusNameConflict, domain.StatusNameConflict}
	for i, w := range want {
		if result.Records[i].Status != w {
			t.Errorf("record %d status = %s, want %s", i, result.Records[i].Status, w)
		}
	}
}

func TestRunCommand_ItemFailuresDoNotAbort(t *testing.T) {
	in, out := setupRun(t, map[string]string{
		"a.jpg": "cat",
		"b.jpg": "x",
		"c.jpg": "x",
		"d.jpg": "\n \n",
		"e.jpg": "cat",
	})
	deps := RunDeps{
		Detector: &fakeDetector{errs: map[string]error{
			"b.jpg": application.ErrNoDetection,
			"c.jpg": errors.New("corrupt jpeg"),
		}},
	}

	result, err := newTestRun(in, out, true, deps).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := map[string]domain.Status{
		"a.jpg": domain.StatusOK,
		"b.jpg": domain.StatusNoDetection,
		"c.jpg": domain.StatusReadFail,
		"d.jpg": domain.StatusNoText,
		"e.jpg": domain.StatusOK,
	}
	for _, rec := range result.Records {
		if rec.Status != want[rec.OldName] {
			t.Errorf("%s status = %s, want %s", rec.OldName, rec.Status, want[rec.OldName])
		}
	}
	if got := names(t, out); got != "CAT-1.jpg,CAT-2.jpg" {
		t.Errorf("output = %s", got)
	}
	if result.OK != 2 || result.Failed != 3 {
		t.Errorf("counts = %d ok, %d failed", result.OK, result.Failed)
	}
}

func TestRunCommand_RecognizerErrorIsNoText(t *testing.T) {
	in, out := setupRun(t, map[string]string{"a.jpg": "cat"})
	deps := RunDeps{Recognizer: &fakeRecognizer{fail: map[string]error{"a.jpg": errors.New("503")}}}

	result, err := newTestRun(in, out, true, deps).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Records[0].Status != domain.StatusNoText {
		t.Errorf("status = %s, want NO_TEXT", result.Records[0].Status)
	}
}

func TestRunCommand_OverridesSkipRecognition(t *testing.T) {
	in, out := setupRun(t, map[string]string{"a.jpg": "cat", "b.jpg": "cat"})
	rec := &fakeRecognizer{}
	cmd := newTestRun(in, out, true, RunDeps{Recognizer: rec})
	cmd.Opts.Overrides = map[string]domain.Override{
		"b.jpg": {OldName: "b.jpg", Parts: domain.StemParts{Prefix: "site", Middle: "dog", Index: "4"}},
	}

	if _, err := cmd.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := names(t, out); got != "CAT-1.jpg,SITE-DOG-4-1.jpg" {
		t.Errorf("output = %s", got)
	}
	if rec.calls != 1 {
		t.Errorf("recognizer called %d times, want 1", rec.calls)
	}
	if rec.prompts[0] != "read the tag" {
		t.Errorf("prompt = %q", rec.prompts[0])
	}
}

func TestRunCommand_DryRun(t *testing.T) {
	in, out := setupRun(t, map[string]string{"a.jpg": "cat"})
	report := &recordingReport{}
	cmd := newTestRun(in, out, true, RunDeps{Report: report})
	cmd.Opts.DryRun = true

	result, err := cmd.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := names(t, in); got != "a.jpg" {
		t.Errorf("input changed: %s", got)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("dry run created the output dir")
	}
	if len(report.rows) != 1 || report.rows[0].FinalName != "CAT-1.jpg" {
		t.Errorf("dry run report = %+v", report.rows)
	}
	if !strings.HasPrefix(result.Message, "Would rename 1") {
		t.Errorf("message = %q", result.Message)
	}
}

func TestRunCommand_ExistingOutputNamesAreKept(t *testing.T) {
	in, out := setupRun(t, map[string]string{"a.jpg": "dog"})
	os.MkdirAll(out, 0755)
	os.WriteFile(filepath.Join(out, "DOG-1.jpg"), []byte("earlier run"), 0644)

	if _, err := newTestRun(in, out, true, RunDeps{}).Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := names(t, out); got != "DOG-1.jpg,DOG-2.jpg" {
		t.Errorf("output = %s", got)
	}
	content, _ := os.ReadFile(filepath.Join(out, "DOG-1.jpg"))
	if string(content) != "earlier run" {
		t.Error("existing file was overwritten")
	}
}

func TestRunCommand_Journal(t *testing.T) {
	in, out := setupRun(t, map[string]string{"a.jpg": "cat", "b.jpg": "cat"})
	journal, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	defer journal.Close()

	result, err := newTestRun(in, out, false, RunDeps{Journal: journal}).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	runs, _ := journal.RecentRuns(1)
	if len(runs) != 1 || runs[0].ID != result.RunID || runs[0].OK != 1 || runs[0].Failed != 1 || runs[0].Policy != "direct" {
		t.Errorf("journaled run = %+v", runs)
	}
	items, _ := journal.RunItems(result.RunID)
	if len(items) != 2 {
		t.Errorf("journaled %d items, want 2", len(items))
	}
	open, _ := journal.UnresolvedStages()
	if len(open) != 0 {
		t.Errorf("unresolved stages after a clean run: %+v", open)
	}
}

func TestRunCommand_StageFailureIsReturned(t *testing.T) {
	in, out := setupRun(t, map[string]string{"a.jpg": "cat", "b.jpg": "dog"})
	fsys := &failingStage{FileSystem: filesystem.New(), source: "b.jpg"}

	result, err := newTestRun(in, out, true, RunDeps{FS: fsys}).Execute(context.Background())
	if !errors.Is(err, application.ErrStageFailure) {
		t.Fatalf("expected stage failure, got %v", err)
	}
	if result == nil || len(result.Records) != 2 {
		t.Fatalf("result should carry records: %+v", result)
	}
	if got := names(t, in); got != "a.jpg,b.jpg" {
		t.Errorf("input after rollback = %s", got)
	}
}

// failingStage refuses to detach one source
type failingStage struct {
	*filesystem.FileSystem
	source string
}

func (f *failingStage) Rename(oldPath, newPath string) error {
	if filepath.Base(oldPath) == f.source {
		return fmt.Errorf("rename %s: permission denied", oldPath)
	}
	return f.FileSystem.Rename(oldPath, newPath)
}

func TestRunCommand_NoImages(t *testing.T) {
	in, out := setupRun(t, map[string]string{"notes.txt": "x"})

	result, err := newTestRun(in, out, true, RunDeps{}).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Message != "No images found" {
		t.Errorf("message = %q", result.Message)
	}
}

func TestRunCommand_Cancelled(t *testing.T) {
	in, out := setupRun(t, map[string]string{"a.jpg": "cat"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestRun(in, out, true, RunDeps{}).Execute(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if got := names(t, in); got != "a.jpg" {
		t.Errorf("input changed after cancel: %s", got)
	}
}
