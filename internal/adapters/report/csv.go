package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"tagren/internal/domain"
	"tagren/internal/ports"
)

// Header is the first row of the mapping table
var Header = []string{"src_dir", "old_name", "ocr_text", "base_sanitized", "index", "final_name", "status"}

// CSVWriter implements ports.ReportWriter as a CSV mapping table
type CSVWriter struct {
	f *os.File
	w *csv.Writer
}

// Ensure CSVWriter implements ports.ReportWriter
var _ ports.ReportWriter = (*CSVWriter)(nil)

// Create truncates path and writes the header row
func Create(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return &CSVWriter{f: f, w: w}, nil
}

// WriteItem appends one row and flushes it
func (c *CSVWriter) WriteItem(rec domain.ItemRecord) error {
	row := []string{
		rec.SourceDir,
		rec.OldName,
		rec.RawText,
		rec.Base,
		rec.IndexString(),
		rec.FinalName,
		string(rec.Status),
	}
	if err := c.w.Write(row); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

// Close flushes and closes the file
func (c *CSVWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.f.Close()
		return err
	}
	return c.f.Close()
}

// ReadOverrides loads a name-override table with the header
// old_name,prefix,middle,index,stem. Columns may appear in any order;
// only old_name is required. Rows are keyed by old_name.
func ReadOverrides(r io.Reader) (map[string]domain.Override, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return map[string]domain.Override{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := cols["old_name"]; !ok {
		return nil, errors.New("overrides: missing old_name column")
	}

	get := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make(map[string]domain.Override)
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("overrides line %d: %w", line, err)
		}
		name := get(row, "old_name")
		if name == "" {
			continue
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("overrides line %d: duplicate entry for %s", line, name)
		}
		out[name] = domain.Override{
			OldName: name,
			Parts: domain.StemParts{
				Prefix: get(row, "prefix"),
				Middle: get(row, "middle"),
				Index:  get(row, "index"),
			},
			Stem: get(row, "stem"),
		}
	}
	return out, nil
}

// LoadOverrides reads the override table at path
func LoadOverrides(path string) (map[string]domain.Override, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open overrides: %w", err)
	}
	defer f.Close()
	return ReadOverrides(f)
}
