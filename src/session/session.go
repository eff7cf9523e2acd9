package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"mekicopy/src/clipboard"
	"mekicopy/src/ocr"
	"mekicopy/src/screenshot"
)

// ErrRegionTooSmall is the trust-boundary rejection of an undersized capture.
// The selection engine enforces the same threshold interactively; this check
// runs again before any real capture/OCR cost is paid.
var ErrRegionTooSmall = errors.New("capture region is too small")

// CaptureFunc rasterizes an absolute-coordinate region into PNG bytes.
type CaptureFunc func(region screenshot.Region) ([]byte, error)

// RecognizeFunc turns an image file into recognized text.
type RecognizeFunc func(ctx context.Context, imagePath string) (string, error)

// ResultTarget receives the final text of a successful capture.
type ResultTarget interface {
	Deliver(text string) error
}

// Options wires one capture operation. Capture defaults to the real screen
// capture when nil; Recognize and Target must be set by the caller.
type Options struct {
	Region    screenshot.Region
	MinSize   int
	Capture   CaptureFunc
	Recognize RecognizeFunc
	Target    ResultTarget
}

// Execute runs one capture-OCR-deliver operation: validate, rasterize, write
// a scoped temp file (removed whatever happens downstream), recognize,
// normalize, deliver. Failure is local: the operation aborts with an error
// and no selection or bookmark state is touched.
func Execute(ctx context.Context, opts Options) (string, error) {
	if opts.Target == nil {
		return "", errors.New("Target is required")
	}
	minSize := opts.MinSize
	if minSize <= 0 {
		minSize = 10
	}
	if opts.Region.Width < minSize || opts.Region.Height < minSize {
		return "", fmt.Errorf("%w: %dx%d, minimum %d", ErrRegionTooSmall,
			opts.Region.Width, opts.Region.Height, minSize)
	}

	capture := opts.Capture
	if capture == nil {
		capture = screenshot.CaptureRegion
	}
	imageData, err := capture(opts.Region)
	if err != nil {
		return "", fmt.Errorf("capture failed: %w", err)
	}

	tempFile, err := os.CreateTemp("", "mekicopy-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp image: %w", err)
	}
	tempPath := tempFile.Name()
	defer func() {
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to remove temp image %s: %v", tempPath, err)
		}
	}()
	if _, err := tempFile.Write(imageData); err != nil {
		_ = tempFile.Close()
		return "", fmt.Errorf("failed to write temp image: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp image: %w", err)
	}

	if opts.Recognize == nil {
		return "", errors.New("Recognize is required")
	}
	text, err := opts.Recognize(ctx, tempPath)
	if err != nil {
		return "", err
	}
	text = ocr.Normalize(text)

	if err := opts.Target.Deliver(text); err != nil {
		return "", fmt.Errorf("delivery failed: %w", err)
	}
	return text, nil
}

// ClipboardTarget places the text on the system clipboard.
type ClipboardTarget struct{}

func (ClipboardTarget) Deliver(text string) error {
	return clipboard.Write(text)
}

// StdoutTarget writes the text to a writer, os.Stdout when nil.
type StdoutTarget struct {
	Writer io.Writer
}

func (t StdoutTarget) Deliver(text string) error {
	w := t.Writer
	if w == nil {
		w = os.Stdout
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
