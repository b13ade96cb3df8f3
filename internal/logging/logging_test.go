package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_TeesToFile(t *testing.T) {
	var stdout bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "run.log")

	logger, closeLog, err := New(Options{File: file, Stdout: &stdout})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("renamed", "src", "a.jpg", "dst", "DOG-1.jpg")
	logger.Debug("hidden")
	if err := closeLog(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	content, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	for _, out := range []string{stdout.String(), string(content)} {
		if !strings.Contains(out, "src=a.jpg") || !strings.Contains(out, "dst=DOG-1.jpg") {
			t.Errorf("missing attributes in %q", out)
		}
		if strings.Contains(out, "hidden") {
			t.Errorf("debug line written without verbose: %q", out)
		}
	}
}

func TestNew_Verbose(t *testing.T) {
	var stdout bytes.Buffer
	logger, _, err := New(Options{Verbose: true, Stdout: &stdout})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Debug("detail")
	if !strings.Contains(stdout.String(), "detail") {
		t.Errorf("debug line missing: %q", stdout.String())
	}
}
