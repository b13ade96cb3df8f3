package ports

import "context"

// Crop is the image region handed from detection to recognition
type Crop struct {
	SourcePath string
	Data       []byte
	MIME       string // e.g. image/png
}

// Detector locates the tag region of a source image
type Detector interface {
	// Detect returns the region to recognize. It returns an error wrapping
	// application.ErrNoDetection when nothing was found, and any other error
	// when the source could not be read.
	Detect(ctx context.Context, path string) (*Crop, error)
}

// Recognizer turns a crop into raw text
type Recognizer interface {
	// Recognize returns the single answer line for crop. An empty string
	// means nothing was recognized.
	Recognize(ctx context.Context, crop *Crop, prompt string) (string, error)
}
