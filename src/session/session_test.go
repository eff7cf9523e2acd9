package session

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mekicopy/src/screenshot"
)

type recordingTarget struct {
	delivered []string
	err       error
}

func (t *recordingTarget) Deliver(text string) error {
	if t.err != nil {
		return t.err
	}
	t.delivered = append(t.delivered, text)
	return nil
}

func fakeCapture(data []byte) CaptureFunc {
	return func(screenshot.Region) ([]byte, error) { return data, nil }
}

func echoRecognize(text string) RecognizeFunc {
	return func(context.Context, string) (string, error) { return text, nil }
}

var okRegion = screenshot.Region{X: 0, Y: 0, Width: 100, Height: 80}

func TestExecuteDeliversNormalizedText(t *testing.T) {
	target := &recordingTarget{}
	text, err := Execute(context.Background(), Options{
		Region:    okRegion,
		MinSize:   10,
		Capture:   fakeCapture([]byte("png")),
		Recognize: echoRecognize("  hello \n  world  "),
		Target:    target,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if text != "hello world" {
		t.Errorf("text = %q, want %q", text, "hello world")
	}
	if len(target.delivered) != 1 || target.delivered[0] != "hello world" {
		t.Errorf("delivered = %v", target.delivered)
	}
}

func TestExecuteRejectsTooSmallRegion(t *testing.T) {
	tests := []screenshot.Region{
		{Width: 9, Height: 80},
		{Width: 100, Height: 9},
		{Width: 0, Height: 0},
	}
	for _, region := range tests {
		captured := false
		target := &recordingTarget{}
		_, err := Execute(context.Background(), Options{
			Region:  region,
			MinSize: 10,
			Capture: func(screenshot.Region) ([]byte, error) {
				captured = true
				return nil, nil
			},
			Recognize: echoRecognize("x"),
			Target:    target,
		})
		if !errors.Is(err, ErrRegionTooSmall) {
			t.Errorf("region %+v: err = %v, want ErrRegionTooSmall", region, err)
		}
		if captured {
			t.Errorf("region %+v: capture ran before the size check", region)
		}
		if len(target.delivered) != 0 {
			t.Errorf("region %+v: delivery happened despite rejection", region)
		}
	}
}

func TestExecutePassesTempFileAndCleansUp(t *testing.T) {
	var seenPath string
	imageData := []byte{0x89, 'P', 'N', 'G'}
	_, err := Execute(context.Background(), Options{
		Region:  okRegion,
		Capture: fakeCapture(imageData),
		Recognize: func(_ context.Context, path string) (string, error) {
			seenPath = path
			data, readErr := os.ReadFile(path)
			if readErr != nil {
				return "", readErr
			}
			if !bytes.Equal(data, imageData) {
				t.Errorf("temp file content = %v, want captured bytes", data)
			}
			return "ok", nil
		},
		Target: &recordingTarget{},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if seenPath == "" {
		t.Fatal("recognize never saw a temp path")
	}
	if !strings.HasSuffix(seenPath, ".png") {
		t.Errorf("temp path %q lacks .png suffix", seenPath)
	}
	if _, statErr := os.Stat(seenPath); !os.IsNotExist(statErr) {
		t.Errorf("temp file %s not removed after use", seenPath)
	}
}

func TestExecuteCleansUpOnRecognizeFailure(t *testing.T) {
	var seenPath string
	boom := errors.New("ocr exploded")
	_, err := Execute(context.Background(), Options{
		Region:  okRegion,
		Capture: fakeCapture([]byte("png")),
		Recognize: func(_ context.Context, path string) (string, error) {
			seenPath = path
			return "", boom
		},
		Target: &recordingTarget{},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want recognize failure", err)
	}
	if _, statErr := os.Stat(seenPath); !os.IsNotExist(statErr) {
		t.Errorf("temp file %s survived a failed operation", seenPath)
	}
}

func TestExecuteRequiresRecognize(t *testing.T) {
	// Capture has a real default; Recognize does not and must be rejected.
	_, err := Execute(context.Background(), Options{
		Region:  okRegion,
		Capture: fakeCapture([]byte("png")),
		Target:  &recordingTarget{},
	})
	if err == nil {
		t.Error("Execute succeeded with no Recognize collaborator")
	}
}

func TestExecuteCaptureFailureAborts(t *testing.T) {
	target := &recordingTarget{}
	_, err := Execute(context.Background(), Options{
		Region: okRegion,
		Capture: func(screenshot.Region) ([]byte, error) {
			return nil, errors.New("no display")
		},
		Recognize: echoRecognize("x"),
		Target:    target,
	})
	if err == nil {
		t.Fatal("Execute succeeded despite capture failure")
	}
	if len(target.delivered) != 0 {
		t.Error("delivery happened despite capture failure")
	}
}

func TestExecuteDeliveryFailureSurfaces(t *testing.T) {
	target := &recordingTarget{err: errors.New("clipboard busy")}
	_, err := Execute(context.Background(), Options{
		Region:    okRegion,
		Capture:   fakeCapture([]byte("png")),
		Recognize: echoRecognize("text"),
		Target:    target,
	})
	if err == nil {
		t.Error("Execute succeeded despite delivery failure")
	}
}

func TestExecuteEmptyTextStillDelivered(t *testing.T) {
	// A silent OCR collaborator yields an empty clipboard write, not an error.
	target := &recordingTarget{}
	text, err := Execute(context.Background(), Options{
		Region:    okRegion,
		Capture:   fakeCapture([]byte("png")),
		Recognize: echoRecognize(""),
		Target:    target,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
	if len(target.delivered) != 1 || target.delivered[0] != "" {
		t.Errorf("delivered = %v, want one empty string", target.delivered)
	}
}

func TestStdoutTarget(t *testing.T) {
	var buf bytes.Buffer
	if err := (StdoutTarget{Writer: &buf}).Deliver("captured text"); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if got := buf.String(); got != "captured text\n" {
		t.Errorf("stdout target wrote %q", got)
	}
}

func TestExecuteErrorLeavesNoTempLitter(t *testing.T) {
	// Run a failing operation and confirm no mekicopy temp files remain.
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)
	_, _ = Execute(context.Background(), Options{
		Region:  okRegion,
		Capture: fakeCapture([]byte("png")),
		Recognize: func(context.Context, string) (string, error) {
			return "", errors.New("fail")
		},
		Target: &recordingTarget{},
	})
	leftovers, err := filepath.Glob(filepath.Join(tmp, "mekicopy-*.png"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}
