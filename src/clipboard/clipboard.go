package clipboard

import (
	"sync"

	"golang.design/x/clipboard"
)

var writeMu sync.Mutex

// Init must be called once before Write; it fails when no clipboard backend
// is available (e.g. a headless session).
func Init() error {
	return clipboard.Init()
}

// Write makes text the clipboard's current content. A single UTF-8 blob, no
// format negotiation. Mutex-guarded so concurrent deliveries cannot corrupt
// the write.
func Write(text string) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
