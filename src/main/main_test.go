package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mekicopy/src/bookmarks"
	"mekicopy/src/config"
	"mekicopy/src/ocr"
	"mekicopy/src/overlay"
	"mekicopy/src/screenshot"
	"mekicopy/src/session"
)

func TestExitCodeMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"too small", fmt.Errorf("wrapped: %w", session.ErrRegionTooSmall), 2},
		{"bookmark missing", fmt.Errorf("%w: %q", bookmarks.ErrNotFound, "code"), 3},
		{"no bookmarks", bookmarks.ErrNoBookmarks, 4},
		{"ocr timeout", ocr.ErrTimeout, 5},
		{"ocr spawn failure", fmt.Errorf("%w: no such file", ocr.ErrProcess), 5},
		{"anything else", errors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// slowSelector stands in for a user who takes their time drawing a region.
type slowSelector struct {
	delay  time.Duration
	region screenshot.Region
}

func (s slowSelector) Select(ctx context.Context, _ overlay.Options) (screenshot.Region, bool, error) {
	select {
	case <-time.After(s.delay):
		return s.region, false, nil
	case <-ctx.Done():
		return screenshot.Region{}, false, ctx.Err()
	}
}

func TestCaptureOpDeadlineExcludesSelection(t *testing.T) {
	// A first hotkey capture opens the overlay; however long the user holds it
	// open, the capture timeout must only start once the region is confirmed.
	region := screenshot.Region{X: 0, Y: 0, Width: 100, Height: 80}
	a := &appState{
		cfg:            &config.Config{MinSizePx: 10, EdgeGrabPx: 8},
		selector:       slowSelector{delay: 150 * time.Millisecond, region: region},
		captureTimeout: 50 * time.Millisecond,
	}
	a.captureFn = func(ctx context.Context, r screenshot.Region) (string, error) {
		if r != region {
			t.Errorf("capture received region %+v, want %+v", r, region)
		}
		deadline, ok := ctx.Deadline()
		if !ok {
			t.Error("capture phase has no deadline")
		} else if remaining := time.Until(deadline); remaining <= 0 {
			t.Errorf("capture deadline already spent (%v); selection time was counted against it", remaining)
		}
		return "ok", nil
	}

	text, err := a.captureOp(context.Background())
	if err != nil {
		t.Fatalf("captureOp failed: %v", err)
	}
	if text != "ok" {
		t.Errorf("text = %q, want %q", text, "ok")
	}
	if got := a.activeRegion(); got == nil || *got != region {
		t.Errorf("active region after capture = %v, want %+v", got, region)
	}
}

func TestCaptureOpReusesActiveRegionUnderDeadline(t *testing.T) {
	region := screenshot.Region{X: 5, Y: 5, Width: 200, Height: 100}
	a := &appState{
		cfg:            &config.Config{MinSizePx: 10, EdgeGrabPx: 8},
		captureTimeout: time.Second,
	}
	a.setActive(region)
	a.captureFn = func(ctx context.Context, r screenshot.Region) (string, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("capture phase has no deadline")
		}
		return "cached", nil
	}

	text, err := a.captureOp(context.Background())
	if err != nil {
		t.Fatalf("captureOp failed: %v", err)
	}
	if text != "cached" {
		t.Errorf("text = %q, want %q", text, "cached")
	}
}

func TestRootCmdRejectsCombinedModes(t *testing.T) {
	cmd := newRootCmd(&cliOptions{})
	cmd.SetArgs([]string{"--bookmark", "code", "--pick-bookmark"})
	if err := cmd.Execute(); err == nil {
		t.Error("combined mode flags were accepted")
	}
}
