package ports

import "os/exec"

// ImageViewer opens an image outside the terminal
type ImageViewer interface {
	// Open shows the image and returns without waiting for the viewer to exit
	Open(path string) error

	// Command returns the exec.Cmd that would open path
	Command(path string) (*exec.Cmd, error)
}
