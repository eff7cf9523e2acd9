package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// DefaultMinSizePx is the minimum selection width/height in pixels.
	DefaultMinSizePx = 10
	// DefaultEdgeGrabPx is the edge-grab tolerance in pixels.
	DefaultEdgeGrabPx = 8

	defaultOCRDeadlineSec = 20
	defaultHotkey         = "Ctrl+Alt+Q"
	bookmarksFileName     = "bookmarks.txt"
)

// Config is the explicit runtime configuration handed to the selection
// engine, the pipeline, and the store at startup. There are no module-level
// thresholds; everything flows through here.
type Config struct {
	// BookmarksFile is the tab-separated bookmark store path.
	BookmarksFile string
	// OCRCommand is the external OCR executable. Required for capture flows.
	OCRCommand string
	// OCRArgs are fixed arguments placed before the image path.
	OCRArgs []string
	// OCRDeadlineSec bounds one OCR invocation.
	OCRDeadlineSec int
	// MinSizePx and EdgeGrabPx parameterize the selection engine.
	MinSizePx  int
	EdgeGrabPx int
	// Hotkey triggers a capture of the active region in resident mode.
	Hotkey string
	// EnableFileLogging routes the debug log to a rotating file.
	EnableFileLogging bool
}

// Load reads configuration from a .env file beside the executable (or the
// file named by MEKICOPY_ENV) plus process environment variables, with
// defaults for everything but the OCR command.
func Load() (*Config, error) {
	if envPath := resolveEnvPath(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	cfg := &Config{
		BookmarksFile:     getEnvWithDefault("MEKICOPY_BOOKMARKS_FILE", defaultBookmarksPath()),
		OCRCommand:        os.Getenv("MEKICOPY_OCR_COMMAND"),
		OCRArgs:           splitArgs(os.Getenv("MEKICOPY_OCR_ARGS")),
		OCRDeadlineSec:    getEnvInt("OCR_DEADLINE_SEC", defaultOCRDeadlineSec),
		MinSizePx:         getEnvInt("MIN_SIZE_PX", DefaultMinSizePx),
		EdgeGrabPx:        getEnvInt("EDGE_GRAB_PX", DefaultEdgeGrabPx),
		Hotkey:            getEnvWithDefault("HOTKEY", defaultHotkey),
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
	}
	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}
	if alt := os.Getenv("MEKICOPY_ENV"); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}
	return ""
}

func defaultBookmarksPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return bookmarksFileName
	}
	return filepath.Join(filepath.Dir(execPath), bookmarksFileName)
}

func splitArgs(s string) []string {
	var args []string
	for _, field := range strings.Fields(s) {
		args = append(args, field)
	}
	return args
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
