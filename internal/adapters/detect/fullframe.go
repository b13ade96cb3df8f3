package detect

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"tagren/internal/application"
	"tagren/internal/domain"
	"tagren/internal/ports"
)

// FullFrame implements ports.Detector by handing the whole image to the
// recognizer. It still decodes the header so unreadable files fail early.
type FullFrame struct{}

// Ensure FullFrame implements ports.Detector
var _ ports.Detector = FullFrame{}

// Detect reads path and returns it as a single crop
func (FullFrame) Detect(ctx context.Context, path string) (*ports.Crop, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", application.ErrReadFail, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", application.ErrReadFail, filepath.Base(path), err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("%w: empty image %s", application.ErrNoDetection, filepath.Base(path))
	}

	return &ports.Crop{
		SourcePath: path,
		Data:       data,
		MIME:       "image/" + format,
	}, nil
}

// Saving wraps a detector and writes every crop to dir as <stem>_cropped<ext>
type Saving struct {
	next   ports.Detector
	dir    string
	logger *slog.Logger
}

// Ensure Saving implements ports.Detector
var _ ports.Detector = (*Saving)(nil)

// WithCropsDir returns next unchanged when dir is empty
func WithCropsDir(next ports.Detector, dir string, logger *slog.Logger) ports.Detector {
	if dir == "" {
		return next
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Saving{next: next, dir: dir, logger: logger}
}

// Detect delegates and saves the crop. A failed save is logged and does not
// fail detection.
func (s *Saving) Detect(ctx context.Context, path string) (*ports.Crop, error) {
	crop, err := s.next.Detect(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := s.save(path, crop); err != nil {
		s.logger.Warn("crop not saved", "src", filepath.Base(path), "error", err)
	}
	return crop, nil
}

func (s *Saving) save(path string, crop *ports.Crop) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(CropPath(s.dir, path), crop.Data, 0644)
}

// CropPath returns where the crop of source is saved inside dir
func CropPath(dir, source string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+"_cropped"+domain.LowerExt(base))
}
