package application

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", formatFieldName(fieldName)),
		}
	}
	return nil
}

// formatFieldName converts flag-style field names to readable words
// (e.g., "out-renamed" -> "output directory")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"input":       "input directory",
		"out-renamed": "output directory",
		"prompt":      "OCR prompt",
		"dir":         "directory",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}
	return fieldName
}

// ValidateDir checks that path exists and is a directory
func ValidateDir(fieldName, path string) error {
	if err := ValidateRequired(fieldName, path); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s does not exist: %s", formatFieldName(fieldName), path),
		}
	}
	if !info.IsDir() {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("not a directory: %s", path),
		}
	}
	return nil
}

// ValidateDistinctDirs rejects an output directory equal to the input directory.
// Both paths are compared after resolving to absolute, symlink-free form where possible.
func ValidateDistinctDirs(inputDir, outputDir string) error {
	in := resolvePath(inputDir)
	out := resolvePath(outputDir)
	if in == out {
		return &ValidationError{
			Field:   "out-renamed",
			Message: "output directory must differ from input directory",
		}
	}
	return nil
}

// ValidateCleanTarget rejects emptying cleanDir when keepDir is cleanDir or
// lies inside it, which would delete keepDir's files before the run uses them.
func ValidateCleanTarget(field, keepDir, cleanDir string) error {
	keep := resolvePath(keepDir)
	clean := resolvePath(cleanDir)
	rel, err := filepath.Rel(clean, keep)
	if err != nil {
		return nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("cannot clean %s: %s is inside it", cleanDir, keepDir),
	}
}

func resolvePath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}
