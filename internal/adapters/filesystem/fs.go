package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/go-homedir"

	"tagren/internal/ports"
)

// FileSystem implements ports.FileSystem on the local disk
type FileSystem struct{}

// Ensure FileSystem implements the filesystem ports
var (
	_ ports.FileSystem  = (*FileSystem)(nil)
	_ ports.ImageFinder = (*FileSystem)(nil)
)

// New creates the local filesystem adapter
func New() *FileSystem {
	return &FileSystem{}
}

// Rename moves oldPath to newPath with a single os.Rename
func (f *FileSystem) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// CopyFile copies src to dst, keeping src's permission bits.
// dst must not exist; a partial copy is removed.
func (f *FileSystem) CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to flush %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

// Remove deletes a single file
func (f *FileSystem) Remove(path string) error {
	return os.Remove(path)
}

// MkdirAll creates dir and any missing parents
func (f *FileSystem) MkdirAll(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// Lstat describes path without following symlinks
func (f *FileSystem) Lstat(path string) (os.FileInfo, error) {
	return os.Lstat(path)
}

// ListFileNames returns the sorted names of the regular files in dir
func (f *FileSystem) ListFileNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ExpandPath expands a leading ~ and cleans the result
func ExpandPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("empty path")
	}
	expanded, err := homedir.Expand(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", path, err)
	}
	return expanded, nil
}

// CleanDir removes every entry inside dir, keeping dir itself.
// A missing dir is created.
func CleanDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return os.MkdirAll(dir, 0755)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to clean %s: %w", dir, err)
		}
	}
	return nil
}
