package execocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"tagren/internal/domain"
	"tagren/internal/ports"
)

// Placeholder in the command line replaced by the crop's file path
const Placeholder = "{}"

// Recognizer implements ports.Recognizer by running an external OCR command
// such as "tesseract {} stdout --psm 7". The prompt is passed to the command
// in TAGREN_OCR_PROMPT.
type Recognizer struct {
	argv    []string
	timeout time.Duration
	tempDir string
}

// Ensure Recognizer implements ports.Recognizer
var _ ports.Recognizer = (*Recognizer)(nil)

// Option configures the Recognizer
type Option func(*Recognizer)

// WithTimeout bounds each command invocation
func WithTimeout(d time.Duration) Option {
	return func(r *Recognizer) {
		r.timeout = d
	}
}

// WithTempDir sets where crops are written for the command
func WithTempDir(dir string) Option {
	return func(r *Recognizer) {
		r.tempDir = dir
	}
}

// NewRecognizer parses command into an argv. Without a placeholder the
// crop path is appended as the last argument.
func NewRecognizer(command string, opts ...Option) (*Recognizer, error) {
	argv := SplitCommand(command)
	if len(argv) == 0 {
		return nil, errors.New("empty OCR command")
	}
	r := &Recognizer{
		argv:    argv,
		timeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Recognize writes the crop to a temporary file and runs the command on it
func (r *Recognizer) Recognize(ctx context.Context, crop *ports.Crop, prompt string) (string, error) {
	f, err := os.CreateTemp(r.tempDir, "tagren-crop-*"+extensionFor(crop))
	if err != nil {
		return "", fmt.Errorf("failed to create crop file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(crop.Data); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write crop file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := r.Args(path)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = append(os.Environ(), "TAGREN_OCR_PROMPT="+prompt)

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("OCR command error: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("OCR command error: %w", err)
	}

	return domain.AnswerLine(string(output)), nil
}

// Args returns the argv used for a crop stored at path
func (r *Recognizer) Args(path string) []string {
	out := make([]string, 0, len(r.argv)+1)
	replaced := false
	for _, a := range r.argv {
		if strings.Contains(a, Placeholder) {
			a = strings.ReplaceAll(a, Placeholder, path)
			replaced = true
		}
		out = append(out, a)
	}
	if !replaced {
		out = append(out, path)
	}
	return out
}

// SplitCommand splits a command line on whitespace, keeping single- and
// double-quoted sections together.
func SplitCommand(s string) []string {
	var (
		args  []string
		cur   strings.Builder
		quote rune
		inArg bool
	)
	for _, c := range s {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteRune(c)
			}
		case c == '"' || c == '\'':
			quote = c
			inArg = true
		case c == ' ' || c == '\t' || c == '\n':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(c)
			inArg = true
		}
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args
}

func extensionFor(crop *ports.Crop) string {
	switch crop.MIME {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	}
	if ext := domain.LowerExt(crop.SourcePath); ext != "" {
		return ext
	}
	return ".img"
}
