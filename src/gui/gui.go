package gui

import (
	"fmt"
	"log"

	"mekicopy/src/screenshot"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// Config wires the main window's buttons to the capture controller. All
// callbacks are invoked on the fyne event thread and must not block; long
// work goes through the event loop.
type Config struct {
	// OnSelectRegion opens the overlay, seeded with the current draft or
	// active region, and stores the result as the draft.
	OnSelectRegion func()
	// OnSetRegion promotes the draft region to the active one.
	OnSetRegion func()
	// OnLoadBookmark makes the named bookmark the draft region.
	OnLoadBookmark func(name string)
	// OnRecognize runs OCR on the active region and copies the text.
	OnRecognize func()
	// ListBookmarks supplies names for the picker, alphabetically sorted.
	ListBookmarks func() ([]string, error)
}

// Window is the main control panel. It mirrors the resident tray: every
// action it offers is also reachable from the hotkey or the tray menu.
type Window struct {
	cfg    Config
	app    fyne.App
	win    fyne.Window
	status *widget.Label
	draft  *widget.Label
	active *widget.Label
}

// NewWindow builds the control panel without showing it.
func NewWindow(cfg Config) *Window {
	w := &Window{cfg: cfg}
	w.app = app.New()
	w.win = w.app.NewWindow("MekiCopy")

	w.status = widget.NewLabel("Ready")
	w.draft = widget.NewLabel("Draft region: not set")
	w.active = widget.NewLabel("Active region: not set")

	selectBtn := widget.NewButton("Select Region", func() {
		if cfg.OnSelectRegion != nil {
			cfg.OnSelectRegion()
		}
	})
	loadBtn := widget.NewButton("Load Bookmark", func() {
		w.showBookmarkPicker()
	})
	setBtn := widget.NewButton("Set Region", func() {
		if cfg.OnSetRegion != nil {
			cfg.OnSetRegion()
		}
	})
	recognizeBtn := widget.NewButton("Recognize & Copy", func() {
		if cfg.OnRecognize != nil {
			cfg.OnRecognize()
		}
	})
	recognizeBtn.Importance = widget.HighImportance

	w.win.SetContent(container.NewVBox(
		w.draft,
		w.active,
		selectBtn,
		loadBtn,
		setBtn,
		recognizeBtn,
		widget.NewSeparator(),
		w.status,
	))
	w.win.Resize(fyne.NewSize(360, 280))
	return w
}

// Run shows the window and blocks until it is closed.
func (w *Window) Run() {
	w.win.ShowAndRun()
}

// Close shuts the window down from any goroutine.
func (w *Window) Close() {
	fyne.Do(func() { w.win.Close() })
}

// SetRegions updates the draft/active labels. Safe from any goroutine.
func (w *Window) SetRegions(draft, active *screenshot.Region) {
	fyne.Do(func() {
		w.draft.SetText("Draft region: " + formatRegion(draft))
		w.active.SetText("Active region: " + formatRegion(active))
	})
}

func formatRegion(r *screenshot.Region) string {
	if r == nil {
		return "not set"
	}
	return fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.Width, r.Height)
}

// Info implements notification.Notifier.
func (w *Window) Info(message string) {
	fyne.Do(func() { w.status.SetText(message) })
}

// Error implements notification.Notifier.
func (w *Window) Error(title, message string) {
	log.Printf("%s: %s", title, message)
	fyne.Do(func() {
		w.status.SetText(message)
		dialog.ShowError(fmt.Errorf("%s", message), w.win)
	})
}

func (w *Window) showBookmarkPicker() {
	if w.cfg.ListBookmarks == nil || w.cfg.OnLoadBookmark == nil {
		return
	}
	names, err := w.cfg.ListBookmarks()
	if err != nil {
		w.Error("Bookmarks", err.Error())
		return
	}
	if len(names) == 0 {
		w.Error("Bookmarks", "No bookmarks saved yet")
		return
	}

	sel := widget.NewSelect(names, nil)
	sel.SetSelectedIndex(0)
	dialog.ShowCustomConfirm("Load Bookmark", "Load", "Cancel", sel, func(ok bool) {
		if !ok || sel.Selected == "" {
			return
		}
		w.cfg.OnLoadBookmark(sel.Selected)
	}, w.win)
}

// PromptName blocks until the user enters a bookmark name or dismisses the
// dialog. Must NOT be called from the fyne event thread; the overlay calls it
// from the event-loop goroutine while the selection session is suspended.
func (w *Window) PromptName() (string, bool) {
	type answer struct {
		name string
		ok   bool
	}
	ch := make(chan answer, 1)

	fyne.Do(func() {
		entry := widget.NewEntry()
		entry.SetPlaceHolder("Bookmark name")
		items := []*widget.FormItem{widget.NewFormItem("Name", entry)}
		dialog.ShowForm("Save Bookmark", "Save", "Cancel", items, func(ok bool) {
			ch <- answer{name: entry.Text, ok: ok && entry.Text != ""}
		}, w.win)
	})

	a := <-ch
	return a.name, a.ok
}
