package overlay

import (
	"context"

	"mekicopy/src/bookmarks"
	"mekicopy/src/screenshot"
)

// Options configures one selection session.
type Options struct {
	// Initial, when non-nil, seeds the overlay with an existing region so the
	// user can adjust it instead of drawing from scratch.
	Initial *screenshot.Region
	// Store receives bookmarks saved from inside the overlay. May be nil to
	// disable saving.
	Store bookmarks.Store
	// Namer prompts for a bookmark name. Returning ok=false dismisses the
	// save without touching the store.
	Namer func() (name string, ok bool)
	// MinSize and EdgeMargin override the engine defaults when positive.
	MinSize    int
	EdgeMargin int
}

// Selector runs a blocking full-screen selection session. It MUST be invoked
// from the single event-loop goroutine; the overlay owns the input until the
// user confirms or cancels. Returns (region, cancelled, error); when
// cancelled is true the region is undefined and err is nil.
type Selector interface {
	Select(ctx context.Context, opts Options) (screenshot.Region, bool, error)
}

// NewSelector returns the platform implementation.
func NewSelector() Selector {
	return newPlatformSelector()
}
