package ports

import "os"

// FileSystem defines the filesystem operations the rename engine performs.
// Every call is blocking; implementations must not retry internally.
type FileSystem interface {
	// Rename moves oldPath to newPath. It may fail across volumes.
	Rename(oldPath, newPath string) error

	// CopyFile copies the bytes and permissions of src to dst.
	// It must fail if dst already exists.
	CopyFile(src, dst string) error

	// Remove deletes a single file
	Remove(path string) error

	// MkdirAll creates dir and any missing parents
	MkdirAll(dir string) error

	// Lstat describes path without following symlinks
	Lstat(path string) (os.FileInfo, error)

	// ListFileNames returns the names of the regular files directly inside dir
	ListFileNames(dir string) ([]string, error)
}

// ImageFinder lists the source images of a run
type ImageFinder interface {
	// FindImages returns image paths under root sorted by lowercase path,
	// never descending into skip.
	FindImages(root string, recursive bool, skip ...string) ([]string, error)
}
