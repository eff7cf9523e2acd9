package selection

import (
	"image"
	"log"

	"mekicopy/src/bookmarks"
	"mekicopy/src/geometry"
	"mekicopy/src/screenshot"
)

// State of the interactive selection session.
type State int

const (
	// StateIdle: no rectangle exists.
	StateIdle State = iota
	// StateDrawing: a fresh rectangle is being dragged out from pointer-down.
	StateDrawing
	// StateActive: a rectangle exists and no drag is in progress.
	StateActive
	// StateAdjusting: an edge or move drag of the existing rectangle is in progress.
	StateAdjusting
	// StateConfirmed and StateCancelled are terminal; the overlay tears down.
	StateConfirmed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDrawing:
		return "drawing"
	case StateActive:
		return "active"
	case StateAdjusting:
		return "adjusting"
	case StateConfirmed:
		return "confirmed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Config carries the thresholds and the coordinate offset for one session.
type Config struct {
	// MinSize is the minimum width and height a selection must reach on
	// pointer-up to survive. Defaults to 10.
	MinSize int
	// EdgeMargin is the pixel tolerance for grabbing an edge. Defaults to 8.
	EdgeMargin int
	// Origin is the virtual-desktop origin of the overlay. The engine works
	// in overlay-local coordinates; absolute = local + Origin.
	Origin image.Point
}

// NamePrompt blocks for a bookmark name. ok=false means the prompt was
// dismissed. The overlay loop is suspended for the duration of the call, so
// no pointer events interleave with it.
type NamePrompt func() (name string, ok bool)

// Engine is the single-threaded selection state machine. All methods must be
// called from the one goroutine driving the overlay's event loop; the engine
// holds at most one live rectangle at a time.
type Engine struct {
	cfg   Config
	state State
	rect  geometry.Rect
	mode  geometry.Edge // drag mode while StateAdjusting
	lastX int
	lastY int

	onConfirm func(screenshot.Region)
	store     bookmarks.Store
	prompt    NamePrompt
}

// NewEngine creates an engine for one overlay session. onConfirm receives the
// finalized Region in absolute screen coordinates; store and prompt are only
// needed when the save-bookmark action is offered and may be nil otherwise.
func NewEngine(cfg Config, onConfirm func(screenshot.Region), store bookmarks.Store, prompt NamePrompt) *Engine {
	if cfg.MinSize <= 0 {
		cfg.MinSize = 10
	}
	if cfg.EdgeMargin <= 0 {
		cfg.EdgeMargin = 8
	}
	return &Engine{
		cfg:       cfg,
		state:     StateIdle,
		onConfirm: onConfirm,
		store:     store,
		prompt:    prompt,
	}
}

// Seed installs an initial rectangle from an absolute-coordinate region and
// enters StateActive. Used to pre-load a bookmark for adjustment.
func (e *Engine) Seed(region screenshot.Region) {
	e.rect = geometry.Rect{
		Left:   region.X - e.cfg.Origin.X,
		Top:    region.Y - e.cfg.Origin.Y,
		Right:  region.X + region.Width - e.cfg.Origin.X,
		Bottom: region.Y + region.Height - e.cfg.Origin.Y,
	}.Normalized()
	e.state = StateActive
}

// State returns the current machine state.
func (e *Engine) State() State { return e.state }

// Selection returns the live rectangle, if one exists. The rectangle is in
// overlay-local coordinates and may be un-normalized mid-drag.
func (e *Engine) Selection() (geometry.Rect, bool) {
	return e.rect, e.hasRect()
}

func (e *Engine) hasRect() bool {
	switch e.state {
	case StateDrawing, StateActive, StateAdjusting:
		return true
	}
	return false
}

func (e *Engine) terminal() bool {
	return e.state == StateConfirmed || e.state == StateCancelled
}

// PointerDown begins either an adjustment of the existing rectangle (when the
// point hits an edge band or the interior) or a brand-new rectangle,
// discarding any old one.
func (e *Engine) PointerDown(x, y int) {
	if e.terminal() {
		return
	}
	if e.state == StateActive {
		hit := geometry.HitTest(e.rect, x, y, e.cfg.EdgeMargin)
		if hit != geometry.EdgeNone {
			e.mode = hit
			e.lastX, e.lastY = x, y
			e.state = StateAdjusting
			return
		}
	}
	// Degenerate rectangle at the pointer; the far corner follows the drag.
	e.rect = geometry.Rect{Left: x, Top: y, Right: x, Bottom: y}
	e.lastX, e.lastY = x, y
	e.state = StateDrawing
}

// PointerMove updates the rectangle according to the drag in progress.
func (e *Engine) PointerMove(x, y int) {
	switch e.state {
	case StateDrawing:
		e.rect.Right = x
		e.rect.Bottom = y
	case StateAdjusting:
		switch e.mode {
		case geometry.EdgeMove:
			// Delta-based so repeated moves accumulate correctly.
			dx, dy := x-e.lastX, y-e.lastY
			e.rect.Left += dx
			e.rect.Right += dx
			e.rect.Top += dy
			e.rect.Bottom += dy
			e.lastX, e.lastY = x, y
		case geometry.EdgeLeft:
			e.rect.Left = x
		case geometry.EdgeRight:
			e.rect.Right = x
		case geometry.EdgeTop:
			e.rect.Top = y
		case geometry.EdgeBottom:
			e.rect.Bottom = y
		}
	}
}

// PointerUp finishes the drag. Edge crossings are resolved by normalization;
// a rectangle below the minimum size is silently discarded back to StateIdle.
// That is the "too small, try again" UX, not an error.
func (e *Engine) PointerUp(x, y int) {
	if e.state != StateDrawing && e.state != StateAdjusting {
		return
	}
	e.PointerMove(x, y)
	n := e.rect.Normalized()
	if n.Width() < e.cfg.MinSize || n.Height() < e.cfg.MinSize {
		e.state = StateIdle
		e.mode = geometry.EdgeNone
		return
	}
	e.rect = n
	e.mode = geometry.EdgeNone
	e.state = StateActive
}

// Confirm finalizes the selection. With no rectangle present it is a no-op
// and reports false. A rectangle still below the minimum size (possible when
// confirming mid-adjustment) is discarded like a too-small pointer-up.
// On success the Region, converted to absolute screen coordinates, is handed
// to the confirm callback and the session terminates.
func (e *Engine) Confirm() bool {
	if !e.hasRect() {
		return false
	}
	n := e.rect.Normalized()
	if n.Width() < e.cfg.MinSize || n.Height() < e.cfg.MinSize {
		e.state = StateIdle
		e.mode = geometry.EdgeNone
		return false
	}
	region := e.toRegion(n)
	e.rect = n
	e.state = StateConfirmed
	log.Printf("Selection confirmed: %+v", region)
	if e.onConfirm != nil {
		e.onConfirm(region)
	}
	return true
}

// Cancel terminates the session from any state, emitting nothing.
func (e *Engine) Cancel() {
	if e.terminal() {
		return
	}
	e.state = StateCancelled
}

// SaveBookmark prompts for a name and upserts the current rectangle into the
// store as an absolute-coordinate bookmark. The selection state is not
// changed: the session continues afterwards. No-op without a rectangle, a
// store, or a prompt; dismissing the prompt or entering an empty name saves
// nothing.
func (e *Engine) SaveBookmark() error {
	if !e.hasRect() || e.store == nil || e.prompt == nil {
		return nil
	}
	region := e.toRegion(e.rect.Normalized())
	name, ok := e.prompt()
	if !ok || name == "" {
		return nil
	}
	if err := e.store.Upsert(bookmarks.Bookmark{Name: name, Region: region}); err != nil {
		return err
	}
	log.Printf("Bookmark %q saved: %+v", name, region)
	return nil
}

func (e *Engine) toRegion(n geometry.Rect) screenshot.Region {
	return screenshot.Region{
		X:      n.Left + e.cfg.Origin.X,
		Y:      n.Top + e.cfg.Origin.Y,
		Width:  n.Width(),
		Height: n.Height(),
	}
}
