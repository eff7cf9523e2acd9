package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrTimeout is returned when the OCR process exceeds its deadline on
	// both the initial attempt and the single retry.
	ErrTimeout = errors.New("ocr process timed out")
	// ErrProcess is returned when the OCR process cannot be launched at all.
	// A process that launches and exits badly is not ErrProcess; its streams
	// are still read.
	ErrProcess = errors.New("ocr process failure")
)

// Engine invokes an external OCR program as an isolated subprocess. The
// contract is a black box: the program receives the image path as its single
// positional argument (after any fixed Args) and reports recognized text on
// stdout, with stderr accepted as a fallback when stdout is empty. No exit
// code taxonomy is relied upon.
type Engine struct {
	// Command is the OCR executable to run.
	Command string
	// Args are fixed arguments placed before the image path.
	Args []string
	// Deadline bounds a single invocation. Zero means 20s. A deadline expiry
	// is retried once before giving up with ErrTimeout.
	Deadline time.Duration
}

// Recognize runs the OCR subprocess on the image at path and returns the
// whitespace-normalized text. A process that launches and exits without
// output on either stream yields empty text, not an error; a process that
// cannot be launched at all surfaces the spawn error.
func (e *Engine) Recognize(ctx context.Context, imagePath string) (string, error) {
	if e.Command == "" {
		return "", errors.New("ocr command not configured")
	}

	text, err := e.runOnce(ctx, imagePath)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		// Sole process-boundary call with unbounded latency risk: retry once.
		log.Printf("OCR deadline expired, retrying once")
		text, err = e.runOnce(ctx, imagePath)
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			return "", ErrTimeout
		}
	}
	if err != nil {
		return "", err
	}
	return Normalize(text), nil
}

func (e *Engine) runOnce(ctx context.Context, imagePath string) (string, error) {
	deadline := e.Deadline
	if deadline <= 0 {
		deadline = 20 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	args := append(append([]string{}, e.Args...), imagePath)
	cmd := exec.CommandContext(runCtx, e.Command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() != nil {
		return "", runCtx.Err()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// Could not be launched at all.
			return "", fmt.Errorf("%w: failed to launch %q: %v", ErrProcess, e.Command, err)
		}
		// The collaborator may exit non-zero and still have produced text;
		// fall through and take whatever the streams hold.
		log.Printf("OCR process exited with error: %v", err)
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		out = strings.TrimSpace(stderr.String())
	}
	return out, nil
}

// Normalize collapses all whitespace runs, newlines included, to single
// spaces and trims the ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
