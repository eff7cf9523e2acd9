package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log"

	"github.com/getlantern/systray"
)

// Config wires tray menu actions back into the event loop.
type Config struct {
	Title   string
	Tooltip string
	// OnCapture fires when the user clicks the capture menu item. It must
	// not block; post a trigger and return.
	OnCapture func()
	// OnExit fires after the tray has shut down.
	OnExit func()
}

var tooltipCh = make(chan string, 4)

// Run starts the system tray and blocks until Quit. Must be called from the
// main goroutine on platforms where the tray owns the UI thread.
func Run(cfg Config) {
	systray.Run(func() { onReady(cfg) }, func() {
		if cfg.OnExit != nil {
			cfg.OnExit()
		}
	})
}

// Quit asks the tray loop to exit.
func Quit() {
	systray.Quit()
}

// UpdateTooltip changes the tray tooltip, typically to reflect busy state.
// Safe to call from any goroutine.
func UpdateTooltip(text string) {
	select {
	case tooltipCh <- text:
	default:
	}
}

func onReady(cfg Config) {
	systray.SetIcon(iconPNG())
	systray.SetTitle(cfg.Title)
	systray.SetTooltip(cfg.Tooltip)

	mCapture := systray.AddMenuItem("Capture Region", "Select a screen region and copy its text")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit the application")

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				log.Printf("Tray capture clicked")
				if cfg.OnCapture != nil {
					cfg.OnCapture()
				}
			case text := <-tooltipCh:
				systray.SetTooltip(text)
			case <-mQuit.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()
}

// iconPNG renders a 16x16 tray icon: a dashed selection rectangle on a
// transparent background. Generated at startup so no binary asset ships
// with the source tree.
func iconPNG() []byte {
	const size = 16
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	border := color.RGBA{R: 0x00, G: 0x78, B: 0xD4, A: 0xFF}
	fill := color.RGBA{R: 0x00, G: 0x78, B: 0xD4, A: 0x40}

	for y := 3; y <= 12; y++ {
		for x := 2; x <= 13; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	// Dashed border: paint every other pixel pair.
	for x := 2; x <= 13; x++ {
		if (x/2)%2 == 0 {
			img.SetRGBA(x, 3, border)
			img.SetRGBA(x, 12, border)
		}
	}
	for y := 3; y <= 12; y++ {
		if (y/2)%2 == 0 {
			img.SetRGBA(2, y, border)
			img.SetRGBA(13, y, border)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		log.Printf("Failed to encode tray icon: %v", err)
		return nil
	}
	return buf.Bytes()
}
