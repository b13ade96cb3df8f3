package application

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"tagren/internal/ports"
)

// MoveFile moves src to dst without ever replacing an existing dst.
// When the rename fails (e.g. across volumes) the bytes are copied and src
// is removed; fallback reports whether that happened. If the copy landed but
// src could not be removed, fallback is true and err wraps ErrSourceNotRemoved.
func MoveFile(fsys ports.FileSystem, src, dst string) (fallback bool, err error) {
	if _, err := fsys.Lstat(dst); err == nil {
		return false, fmt.Errorf("%w: %s", fs.ErrExist, dst)
	}

	renameErr := fsys.Rename(src, dst)
	if renameErr == nil {
		return false, nil
	}

	if err := fsys.MkdirAll(filepath.Dir(dst)); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", filepath.Dir(dst), err)
	}
	if err := fsys.CopyFile(src, dst); err != nil {
		return false, fmt.Errorf("copy after rename error (%v): %w", renameErr, err)
	}
	if err := fsys.Remove(src); err != nil {
		return true, fmt.Errorf("%w: copied to %s, %s left behind: %w", ErrSourceNotRemoved, dst, src, err)
	}
	return true, nil
}
