package viewer

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"tagren/internal/ports"
)

// Opener implements ports.ImageViewer with the desktop's default handler
type Opener struct {
	goos string
}

// Ensure Opener implements ports.ImageViewer
var _ ports.ImageViewer = (*Opener)(nil)

// NewOpener creates an opener for the running platform
func NewOpener() *Opener {
	return &Opener{goos: runtime.GOOS}
}

// Open starts the viewer and returns without waiting for it
func (o *Opener) Open(path string) error {
	cmd, err := o.Command(path)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start viewer: %w", err)
	}
	return cmd.Process.Release()
}

// Command returns an exec.Cmd opening path. $TAGREN_VIEWER, when set,
// names the program to use.
func (o *Opener) Command(path string) (*exec.Cmd, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}

	if viewer := os.Getenv("TAGREN_VIEWER"); viewer != "" {
		return exec.Command(viewer, path), nil
	}

	switch o.goos {
	case "darwin":
		return exec.Command("open", path), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", path), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", "", path), nil
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", o.goos)
	}
}
