package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tagren/internal/domain"
)

// ImageExtensions lists the extensions picked up by discovery
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// IsImage reports whether name has an image extension (any case)
func IsImage(name string) bool {
	return ImageExtensions[domain.LowerExt(name)]
}

// DiscoverOptions controls image discovery
type DiscoverOptions struct {
	Recursive bool
	// Skip lists directories never descended into (e.g. the output directory)
	Skip []string
}

// DiscoverImages lists the images under root, sorted by lowercase path.
// Staged temporaries are never returned.
func DiscoverImages(root string, opts DiscoverOptions) ([]string, error) {
	skip := make(map[string]bool, len(opts.Skip))
	for _, s := range opts.Skip {
		if abs, err := filepath.Abs(s); err == nil {
			skip[abs] = true
		}
	}

	var paths []string
	keep := func(path, name string) {
		if IsImage(name) && !domain.IsTempName(name) {
			paths = append(paths, path)
		}
	}

	if !opts.Recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.Type().IsRegular() {
				keep(filepath.Join(root, entry.Name()), entry.Name())
			}
		}
	} else {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == root {
					return nil
				}
				abs, _ := filepath.Abs(path)
				if strings.HasPrefix(d.Name(), ".") || skip[abs] {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				keep(path, d.Name())
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(paths, func(i, j int) bool {
		return strings.ToLower(paths[i]) < strings.ToLower(paths[j])
	})
	return paths, nil
}

// FindOrphans lists staged temporaries left directly inside dir
func FindOrphans(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && domain.IsTempName(entry.Name()) {
			out = append(out, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// FindImages implements ports.ImageFinder
func (f *FileSystem) FindImages(root string, recursive bool, skip ...string) ([]string, error) {
	return DiscoverImages(root, DiscoverOptions{Recursive: recursive, Skip: skip})
}
