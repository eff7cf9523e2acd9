package config

import (
	"testing"
)

func TestLoad(t *testing.T) {
	t.Setenv("MEKICOPY_BOOKMARKS_FILE", "/tmp/marks.txt")
	t.Setenv("MEKICOPY_OCR_COMMAND", "/usr/local/bin/meikiocr")
	t.Setenv("MEKICOPY_OCR_ARGS", "--lang jpn --psm 6")
	t.Setenv("OCR_DEADLINE_SEC", "30")
	t.Setenv("HOTKEY", "Ctrl+Shift+T")
	t.Setenv("ENABLE_FILE_LOGGING", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.BookmarksFile != "/tmp/marks.txt" {
		t.Errorf("Expected BookmarksFile '/tmp/marks.txt', got %q", cfg.BookmarksFile)
	}
	if cfg.OCRCommand != "/usr/local/bin/meikiocr" {
		t.Errorf("Expected OCRCommand '/usr/local/bin/meikiocr', got %q", cfg.OCRCommand)
	}
	if len(cfg.OCRArgs) != 4 || cfg.OCRArgs[0] != "--lang" || cfg.OCRArgs[3] != "6" {
		t.Errorf("Expected parsed OCR args, got %v", cfg.OCRArgs)
	}
	if cfg.OCRDeadlineSec != 30 {
		t.Errorf("Expected OCRDeadlineSec 30, got %d", cfg.OCRDeadlineSec)
	}
	if cfg.Hotkey != "Ctrl+Shift+T" {
		t.Errorf("Expected Hotkey 'Ctrl+Shift+T', got %q", cfg.Hotkey)
	}
	if !cfg.EnableFileLogging {
		t.Errorf("Expected EnableFileLogging true, got %v", cfg.EnableFileLogging)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"MEKICOPY_BOOKMARKS_FILE", "MEKICOPY_OCR_COMMAND", "MEKICOPY_OCR_ARGS",
		"OCR_DEADLINE_SEC", "MIN_SIZE_PX", "EDGE_GRAB_PX", "HOTKEY", "ENABLE_FILE_LOGGING",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.MinSizePx != DefaultMinSizePx {
		t.Errorf("Expected default MinSizePx %d, got %d", DefaultMinSizePx, cfg.MinSizePx)
	}
	if cfg.EdgeGrabPx != DefaultEdgeGrabPx {
		t.Errorf("Expected default EdgeGrabPx %d, got %d", DefaultEdgeGrabPx, cfg.EdgeGrabPx)
	}
	if cfg.OCRDeadlineSec != 20 {
		t.Errorf("Expected default OCRDeadlineSec 20, got %d", cfg.OCRDeadlineSec)
	}
	if cfg.Hotkey != "Ctrl+Alt+Q" {
		t.Errorf("Expected default Hotkey, got %q", cfg.Hotkey)
	}
	if cfg.BookmarksFile == "" {
		t.Error("Expected a default bookmarks path, got empty")
	}
	if cfg.EnableFileLogging {
		t.Error("Expected file logging disabled by default")
	}
}

func TestLoadIgnoresInvalidIntegers(t *testing.T) {
	t.Setenv("OCR_DEADLINE_SEC", "soon")
	t.Setenv("MIN_SIZE_PX", "-5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.OCRDeadlineSec != 20 {
		t.Errorf("Invalid deadline accepted: %d", cfg.OCRDeadlineSec)
	}
	if cfg.MinSizePx != DefaultMinSizePx {
		t.Errorf("Non-positive MinSizePx accepted: %d", cfg.MinSizePx)
	}
}
