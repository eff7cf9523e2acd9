package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mekicopy/src/bookmarks"
	"mekicopy/src/clipboard"
	"mekicopy/src/config"
	"mekicopy/src/eventloop"
	"mekicopy/src/gui"
	"mekicopy/src/hotkey"
	"mekicopy/src/logutil"
	"mekicopy/src/notification"
	"mekicopy/src/ocr"
	"mekicopy/src/overlay"
	"mekicopy/src/screenshot"
	"mekicopy/src/session"
	"mekicopy/src/tray"
)

var errSelectionCancelled = errors.New("selection cancelled")

type cliOptions struct {
	bookmark       string
	pickBookmark   bool
	adjustBookmark string
	toStdout       bool
}

func main() {
	// Windows needs DPI awareness before any window or metrics query.
	enableDPIAwareness()
	runtime.LockOSThread()

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mekicopy",
		Short:         "Capture a screen region, OCR it, copy the text",
		Long:          "MekiCopy captures a rectangular screen region, runs an external OCR program on it, and places the recognized text on the clipboard. Without flags it stays resident with a tray icon, a hotkey, and a control window.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case opts.bookmark != "":
				return runBookmarkOnce(opts.bookmark, opts.toStdout)
			case opts.pickBookmark:
				return runPickBookmark(opts.toStdout)
			case opts.adjustBookmark != "":
				return runAdjustBookmark(opts.adjustBookmark, opts.toStdout)
			default:
				return runResident()
			}
		},
	}

	cmd.Flags().StringVar(&opts.bookmark, "bookmark", "", "Capture the named bookmark region and exit")
	cmd.Flags().BoolVar(&opts.pickBookmark, "pick-bookmark", false, "Pick a bookmark interactively, capture it, and exit")
	cmd.Flags().StringVar(&opts.adjustBookmark, "adjust-bookmark", "", "Open the named bookmark region on screen for fine-tuning, then exit")
	cmd.Flags().BoolVar(&opts.toStdout, "stdout", false, "Write recognized text to stdout instead of the clipboard")
	cmd.MarkFlagsMutuallyExclusive("bookmark", "pick-bookmark", "adjust-bookmark")

	return cmd
}

// exitCode maps pipeline failures to distinct process exit codes so scripts
// can tell "region too small" from "OCR broke".
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, session.ErrRegionTooSmall):
		return 2
	case errors.Is(err, bookmarks.ErrNotFound):
		return 3
	case errors.Is(err, bookmarks.ErrNoBookmarks):
		return 4
	case errors.Is(err, ocr.ErrTimeout), errors.Is(err, ocr.ErrProcess):
		return 5
	}
	return 1
}

// appState is the shared wiring for every run mode: config, collaborators,
// and the mutable draft/active region pair.
type appState struct {
	cfg      *config.Config
	store    bookmarks.Store
	engine   *ocr.Engine
	selector overlay.Selector
	target   session.ResultTarget
	namer    func() (string, bool)

	// captureTimeout bounds the capture/OCR phase of one operation. It never
	// covers interactive selection, which can stay open as long as the user
	// needs.
	captureTimeout time.Duration
	captureFn      func(ctx context.Context, region screenshot.Region) (string, error)

	mu     sync.Mutex
	draft  *screenshot.Region
	active *screenshot.Region
}

func newAppState(toStdout bool) (*appState, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logutil.Setup(cfg.EnableFileLogging)

	if cfg.OCRCommand == "" {
		return nil, errors.New("MEKICOPY_OCR_COMMAND is required; set it in your .env file")
	}

	a := &appState{
		cfg:      cfg,
		store:    bookmarks.NewFileStore(cfg.BookmarksFile),
		selector: overlay.NewSelector(),
		engine: &ocr.Engine{
			Command:  cfg.OCRCommand,
			Args:     cfg.OCRArgs,
			Deadline: time.Duration(cfg.OCRDeadlineSec) * time.Second,
		},
	}
	if toStdout {
		a.target = session.StdoutTarget{}
	} else {
		if err := clipboard.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
		a.target = session.ClipboardTarget{}
	}
	a.namer = terminalNamer
	a.captureTimeout = time.Duration(cfg.OCRDeadlineSec+10) * time.Second
	a.captureFn = a.capture
	return a, nil
}

func (a *appState) draftRegion() *screenshot.Region {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyRegion(a.draft)
}

func (a *appState) activeRegion() *screenshot.Region {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyRegion(a.active)
}

func copyRegion(r *screenshot.Region) *screenshot.Region {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func (a *appState) setDraft(r screenshot.Region) {
	a.mu.Lock()
	a.draft = &r
	a.mu.Unlock()
}

func (a *appState) setActive(r screenshot.Region) {
	a.mu.Lock()
	a.active = &r
	a.mu.Unlock()
}

// promote makes the draft region the active one.
func (a *appState) promote() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.draft == nil {
		return errors.New("select a region or load a bookmark first")
	}
	r := *a.draft
	a.active = &r
	return nil
}

// selectRegion runs the overlay, optionally seeded. The caller decides what
// the result becomes (draft, active, or nothing).
func (a *appState) selectRegion(ctx context.Context, initial *screenshot.Region) (screenshot.Region, error) {
	region, cancelled, err := a.selector.Select(ctx, overlay.Options{
		Initial:    initial,
		Store:      a.store,
		Namer:      a.namer,
		MinSize:    a.cfg.MinSizePx,
		EdgeMargin: a.cfg.EdgeGrabPx,
	})
	if err != nil {
		return screenshot.Region{}, err
	}
	if cancelled {
		return screenshot.Region{}, errSelectionCancelled
	}
	return region, nil
}

// capture runs one full capture-OCR-deliver operation on the given region.
func (a *appState) capture(ctx context.Context, region screenshot.Region) (string, error) {
	return session.Execute(ctx, session.Options{
		Region:    region,
		MinSize:   a.cfg.MinSizePx,
		Recognize: a.engine.Recognize,
		Target:    a.target,
	})
}

// captureOp is the event-loop operation behind the hotkey and the tray: reuse
// the active region, or select one first when none exists. The selection runs
// on the plain context; the deadline starts only once the region is known and
// the capture/OCR work begins.
func (a *appState) captureOp(ctx context.Context) (string, error) {
	region := a.activeRegion()
	if region == nil {
		r, err := a.selectRegion(ctx, nil)
		if err != nil {
			return "", err
		}
		a.setDraft(r)
		a.setActive(r)
		region = &r
	}
	if a.captureTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.captureTimeout)
		defer cancel()
	}
	return a.captureFn(ctx, *region)
}

// runBookmarkOnce captures a named bookmark region and exits.
func runBookmarkOnce(name string, toStdout bool) error {
	a, err := newAppState(toStdout)
	if err != nil {
		return err
	}
	b, err := a.store.Get(name)
	if err != nil {
		return err
	}
	text, err := a.capture(context.Background(), b.Region)
	if err != nil {
		return err
	}
	log.Printf("Captured bookmark %q, delivered %d chars", name, len(text))
	return nil
}

// runPickBookmark lists bookmarks on the terminal, asks for a number, and
// captures the chosen region.
func runPickBookmark(toStdout bool) error {
	a, err := newAppState(toStdout)
	if err != nil {
		return err
	}
	all, err := a.store.List()
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "Bookmarks:")
	for i, b := range all {
		fmt.Fprintf(os.Stderr, "  %d. %s  (%d,%d %dx%d)\n", i+1, b.Name,
			b.Region.X, b.Region.Y, b.Region.Width, b.Region.Height)
	}
	fmt.Fprint(os.Stderr, "Pick a bookmark number: ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read choice: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 || n > len(all) {
		return fmt.Errorf("invalid choice %q", strings.TrimSpace(line))
	}

	b := all[n-1]
	text, err := a.capture(context.Background(), b.Region)
	if err != nil {
		return err
	}
	log.Printf("Captured bookmark %q, delivered %d chars", b.Name, len(text))
	return nil
}

// runAdjustBookmark seeds the overlay with a named bookmark for fine-tuning.
// Nothing is captured and nothing is saved automatically; the user re-saves
// from inside the overlay (S key) under whatever name they choose.
func runAdjustBookmark(name string, toStdout bool) error {
	a, err := newAppState(toStdout)
	if err != nil {
		return err
	}
	b, err := a.store.Get(name)
	if err != nil {
		return err
	}
	_, err = a.selectRegion(context.Background(), &b.Region)
	if errors.Is(err, errSelectionCancelled) {
		return nil
	}
	return err
}

// runResident starts the long-lived mode: control window, tray icon, global
// hotkey, and the event loop tying them together.
func runResident() error {
	a, err := newAppState(false)
	if err != nil {
		return err
	}
	log.Printf("MekiCopy starting: hotkey=%s ocr=%s deadline=%ds",
		a.cfg.Hotkey, a.cfg.OCRCommand, a.cfg.OCRDeadlineSec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var window *gui.Window
	var notifier notification.Notifier = notification.LogNotifier{}

	// No loop deadline: captureOp may sit in the overlay waiting for the user,
	// and it bounds its own capture/OCR phase.
	loop := eventloop.New(a.captureOp, 0, eventloop.Callbacks{
		OnResult: func(text string, err error) {
			switch {
			case err == nil:
				notification.ShowResult(notifier, text)
			case errors.Is(err, errSelectionCancelled):
				notifier.Info("Selection cancelled")
			default:
				notifier.Error("Capture failed", err.Error())
			}
			if window != nil {
				window.SetRegions(a.draftRegion(), a.activeRegion())
			}
		},
		OnBusy: func() {
			notifier.Info("A capture is already in progress")
		},
		OnStateChange: func(busy bool) {
			if busy {
				tray.UpdateTooltip("MekiCopy - capturing...")
			} else {
				tray.UpdateTooltip(trayTooltip(a.cfg.Hotkey))
			}
		},
	})

	refreshRegions := func() {
		if window != nil {
			window.SetRegions(a.draftRegion(), a.activeRegion())
		}
	}

	// Selection flows launched from window buttons run outside the loop but
	// share the overlay; one at a time.
	var selecting atomic.Bool
	runSelect := func() {
		if !selecting.CompareAndSwap(false, true) {
			notifier.Info("A selection is already open")
			return
		}
		go func() {
			defer selecting.Store(false)
			initial := a.draftRegion()
			if initial == nil {
				initial = a.activeRegion()
			}
			region, err := a.selectRegion(ctx, initial)
			switch {
			case errors.Is(err, errSelectionCancelled):
				notifier.Info("Selection cancelled")
			case err != nil:
				notifier.Error("Selection failed", err.Error())
			default:
				a.setDraft(region)
				notifier.Info(fmt.Sprintf("Draft region: %d,%d %dx%d",
					region.X, region.Y, region.Width, region.Height))
			}
			refreshRegions()
		}()
	}

	window = gui.NewWindow(gui.Config{
		OnSelectRegion: runSelect,
		OnSetRegion: func() {
			if err := a.promote(); err != nil {
				notifier.Error("Set Region", err.Error())
				return
			}
			refreshRegions()
			notifier.Info("Capture region set")
		},
		OnLoadBookmark: func(name string) {
			b, err := a.store.Get(name)
			if err != nil {
				notifier.Error("Bookmark", err.Error())
				return
			}
			a.setDraft(b.Region)
			refreshRegions()
			notifier.Info(fmt.Sprintf("Loaded bookmark %q", name))
		},
		OnRecognize: func() {
			if a.activeRegion() == nil {
				notifier.Error("Recognize", "No capture region set")
				return
			}
			loop.Trigger()
		},
		ListBookmarks: func() ([]string, error) {
			all, err := a.store.List()
			if err != nil {
				return nil, err
			}
			names := make([]string, len(all))
			for i, b := range all {
				names[i] = b.Name
			}
			return names, nil
		},
	})
	notifier = window
	a.namer = window.PromptName

	go func() {
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("event loop stopped: %v", err)
		}
	}()

	hotkey.Listen(a.cfg.Hotkey, loop.Trigger)

	go tray.Run(tray.Config{
		Title:     "MekiCopy",
		Tooltip:   trayTooltip(a.cfg.Hotkey),
		OnCapture: loop.Trigger,
		OnExit:    func() { cancel() },
	})
	defer tray.Quit()

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ch:
			cancel()
			window.Close()
		case <-ctx.Done():
			window.Close()
		}
	}()

	// Fyne owns the main thread until the window closes.
	window.Run()
	cancel()
	return nil
}

func trayTooltip(hotkeyCombo string) string {
	return fmt.Sprintf("MekiCopy - press %s to capture", hotkeyCombo)
}

// terminalNamer prompts for a bookmark name on stderr/stdin. Used by the CLI
// flows where no window exists.
func terminalNamer() (string, bool) {
	fmt.Fprint(os.Stderr, "Bookmark name (empty to skip): ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", false
	}
	name := strings.TrimSpace(line)
	if name == "" {
		return "", false
	}
	return name, true
}
