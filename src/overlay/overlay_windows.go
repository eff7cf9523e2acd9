//go:build windows

package overlay

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"syscall"
	"time"
	"unsafe"

	"mekicopy/src/geometry"
	"mekicopy/src/screenshot"
	"mekicopy/src/selection"

	"github.com/lxn/win"
)

// Package-level state for the overlay window. Only one selection session can
// run at a time; the event loop guarantees that.
var (
	overlayHwnd     win.HWND
	overlayEngine   *selection.Engine
	overlayResult   chan screenshot.Region
	overlayBackdrop *image.RGBA
	overlayCursor   win.HCURSOR
	enterWasDown    bool
	escapeWasDown   bool
	saveKeyWasDown  bool
)

const (
	keyPollTimerID    = 1
	keyPollIntervalMs = 25
	saveKeyVK         = 0x53 // 'S'
)

var (
	user32DLL                    = syscall.NewLazyDLL("user32.dll")
	procAllowSetForegroundWindow = user32DLL.NewProc("AllowSetForegroundWindow")
	procGetAsyncKeyState         = user32DLL.NewProc("GetAsyncKeyState")
)

type windowsSelector struct{}

func newPlatformSelector() Selector { return &windowsSelector{} }

// Select shows a topmost popup over the whole virtual screen with the
// captured desktop as backdrop and runs a message loop until the user
// confirms (Enter), cancels (Esc), or the context ends.
func (w *windowsSelector) Select(ctx context.Context, opts Options) (screenshot.Region, bool, error) {
	vx := win.GetSystemMetrics(win.SM_XVIRTUALSCREEN)
	vy := win.GetSystemMetrics(win.SM_YVIRTUALSCREEN)
	vw := win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN)
	vh := win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN)
	log.Printf("Virtual screen: x=%d y=%d w=%d h=%d", vx, vy, vw, vh)

	backdrop, err := screenshot.Capture()
	if err != nil {
		return screenshot.Region{}, false, fmt.Errorf("failed to capture screen for overlay: %w", err)
	}
	overlayBackdrop = backdrop

	overlayResult = make(chan screenshot.Region, 1)
	overlayEngine = selection.NewEngine(selection.Config{
		MinSize:    opts.MinSize,
		EdgeMargin: opts.EdgeMargin,
		Origin:     image.Pt(int(vx), int(vy)),
	}, func(region screenshot.Region) {
		overlayResult <- region
	}, opts.Store, opts.Namer)
	if opts.Initial != nil {
		overlayEngine.Seed(*opts.Initial)
	}
	enterWasDown = false
	escapeWasDown = false
	saveKeyWasDown = false

	overlayCursor = win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS))

	classNameStr := fmt.Sprintf("MekiCopyOverlay_%d", time.Now().UnixNano())
	className := syscall.StringToUTF16Ptr(classNameStr)
	wndClass := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		Style:         win.CS_HREDRAW | win.CS_VREDRAW,
		LpfnWndProc:   syscall.NewCallback(overlayWndProc),
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       overlayCursor,
		HbrBackground: 0,
		LpszClassName: className,
	}
	if win.RegisterClassEx(&wndClass) == 0 {
		return screenshot.Region{}, false, fmt.Errorf("failed to register overlay window class")
	}
	defer win.UnregisterClass(className)

	overlayHwnd = win.CreateWindowEx(
		win.WS_EX_TOPMOST,
		className,
		syscall.StringToUTF16Ptr("Select region"),
		win.WS_POPUP|win.WS_VISIBLE,
		vx, vy, vw, vh,
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if overlayHwnd == 0 {
		return screenshot.Region{}, false, fmt.Errorf("failed to create overlay window")
	}
	defer func() {
		win.DestroyWindow(overlayHwnd)
		overlayHwnd = 0
		overlayEngine = nil
		overlayBackdrop = nil
	}()

	win.ShowWindow(overlayHwnd, win.SW_SHOW)
	procAllowSetForegroundWindow.Call(uintptr(os.Getpid()))
	win.SetForegroundWindow(overlayHwnd)
	win.BringWindowToTop(overlayHwnd)
	win.SetFocus(overlayHwnd)
	win.UpdateWindow(overlayHwnd)

	if win.SetTimer(overlayHwnd, keyPollTimerID, keyPollIntervalMs, 0) == 0 {
		log.Printf("Failed to start overlay key poll timer")
	}

	// GetMessage blocks, so a cancelled context would only be noticed on the
	// next input event. Post a no-op message to wake the loop immediately.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func(hwnd win.HWND) {
		select {
		case <-ctx.Done():
			win.PostMessage(hwnd, win.WM_NULL, 0, 0)
		case <-watchDone:
		}
	}(overlayHwnd)

	var msg win.MSG
	for {
		if ctx.Err() != nil {
			return screenshot.Region{}, false, ctx.Err()
		}

		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 || ret == -1 {
			// WM_QUIT posted by cancel, or a message loop error.
			break
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)

		select {
		case region := <-overlayResult:
			log.Printf("Overlay selection completed: %+v", region)
			return region, false, nil
		default:
		}
	}

	return screenshot.Region{}, true, nil
}

func overlayWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case win.WM_LBUTTONDOWN:
		x, y := clientCoords(lParam)
		win.SetCapture(hwnd)
		overlayEngine.PointerDown(x, y)
		repaint(hwnd)
		return 0

	case win.WM_MOUSEMOVE:
		st := overlayEngine.State()
		if st == selection.StateDrawing || st == selection.StateAdjusting {
			x, y := clientCoords(lParam)
			overlayEngine.PointerMove(x, y)
			repaint(hwnd)
		}
		return 0

	case win.WM_LBUTTONUP:
		win.ReleaseCapture()
		x, y := clientCoords(lParam)
		overlayEngine.PointerUp(x, y)
		repaint(hwnd)
		return 0

	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		if overlayBackdrop != nil {
			drawBackdrop(hdc)
		}
		drawHints(hdc)
		if rect, ok := overlayEngine.Selection(); ok {
			drawSelection(hdc, rect.Normalized())
		}
		win.EndPaint(hwnd, &ps)
		return 0

	case win.WM_TIMER:
		if wParam == keyPollTimerID {
			handlePolledKeys(hwnd)
		}
		return 0

	case win.WM_KEYDOWN:
		switch wParam {
		case uintptr(win.VK_RETURN):
			enterWasDown = true
			confirmSelection(hwnd)
		case uintptr(win.VK_ESCAPE):
			escapeWasDown = true
			cancelSelection()
		case uintptr(saveKeyVK):
			saveKeyWasDown = true
			saveSelection(hwnd)
		}
		return 0

	case win.WM_KEYUP, win.WM_SYSKEYUP:
		switch wParam {
		case uintptr(win.VK_RETURN):
			enterWasDown = false
		case uintptr(win.VK_ESCAPE):
			escapeWasDown = false
		case uintptr(saveKeyVK):
			saveKeyWasDown = false
		}
		return 0

	case win.WM_NCHITTEST:
		// All points are client area so the window receives mouse events.
		return uintptr(win.HTCLIENT)

	case win.WM_DESTROY:
		win.KillTimer(hwnd, keyPollTimerID)
		// No PostQuitMessage here: the success path returns from Select as
		// soon as the result channel fires, and a stray WM_QUIT would make
		// the next session cancel instantly.
		return 0
	}

	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

// clientCoords extracts signed client coordinates from lParam. The low and
// high words are signed; a plain LOWORD/HIWORD would mangle negative values
// on multi-monitor setups.
func clientCoords(lParam uintptr) (int, int) {
	x := int(int16(win.LOWORD(uint32(lParam))))
	y := int(int16(win.HIWORD(uint32(lParam))))
	return x, y
}

func repaint(hwnd win.HWND) {
	win.InvalidateRect(hwnd, nil, false)
	win.UpdateWindow(hwnd)
}

func getAsyncKeyState(vk int32) (bool, bool) {
	state, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	s := uint16(state)
	return s&0x8000 != 0, s&0x0001 != 0
}

// handlePolledKeys catches key presses the message queue misses while the
// mouse is captured.
func handlePolledKeys(hwnd win.HWND) {
	enterDown, enterPressed := getAsyncKeyState(win.VK_RETURN)
	if !enterWasDown && (enterDown || enterPressed) {
		confirmSelection(hwnd)
	}
	enterWasDown = enterDown

	escapeDown, escapePressed := getAsyncKeyState(win.VK_ESCAPE)
	if !escapeWasDown && (escapeDown || escapePressed) {
		cancelSelection()
	}
	escapeWasDown = escapeDown

	saveDown, savePressed := getAsyncKeyState(saveKeyVK)
	if !saveKeyWasDown && (saveDown || savePressed) {
		saveSelection(hwnd)
	}
	saveKeyWasDown = saveDown
}

func confirmSelection(hwnd win.HWND) {
	if !overlayEngine.Confirm() {
		// No rectangle, or it fell below the minimum size and was discarded.
		repaint(hwnd)
	}
}

func cancelSelection() {
	log.Printf("Overlay selection cancelled")
	overlayEngine.Cancel()
	win.PostQuitMessage(0)
}

func saveSelection(hwnd win.HWND) {
	if err := overlayEngine.SaveBookmark(); err != nil {
		log.Printf("Failed to save bookmark: %v", err)
	}
	repaint(hwnd)
}

func drawSelection(hdc win.HDC, r geometry.Rect) {
	gdi32 := syscall.NewLazyDLL("gdi32.dll")
	createPen := gdi32.NewProc("CreatePen")
	rectangle := gdi32.NewProc("Rectangle")

	redPen, _, _ := createPen.Call(0, 3, 0x0000FF)
	oldPen := win.SelectObject(hdc, win.HGDIOBJ(redPen))
	oldBrush := win.SelectObject(hdc, win.GetStockObject(win.NULL_BRUSH))

	rectangle.Call(uintptr(hdc), uintptr(r.Left), uintptr(r.Top), uintptr(r.Right), uintptr(r.Bottom))

	// Grab handles at the edge midpoints.
	handles := [4][2]int{
		{r.Left, (r.Top + r.Bottom) / 2},
		{r.Right, (r.Top + r.Bottom) / 2},
		{(r.Left + r.Right) / 2, r.Top},
		{(r.Left + r.Right) / 2, r.Bottom},
	}
	const half = 4
	for _, h := range handles {
		rectangle.Call(uintptr(hdc), uintptr(h[0]-half), uintptr(h[1]-half), uintptr(h[0]+half), uintptr(h[1]+half))
	}

	win.SelectObject(hdc, oldPen)
	win.SelectObject(hdc, oldBrush)
	win.DeleteObject(win.HGDIOBJ(redPen))
}

func drawHints(hdc win.HDC) {
	line1 := "Drag to select, drag edges to adjust, drag inside to move"
	line2 := "ENTER confirm   S save bookmark   ESC cancel"

	win.SetBkMode(hdc, win.TRANSPARENT)
	win.SetTextColor(hdc, win.COLORREF(0x00FFFF))
	win.TextOut(hdc, 16, 16, syscall.StringToUTF16Ptr(line1), int32(len(line1)))
	win.TextOut(hdc, 16, 38, syscall.StringToUTF16Ptr(line2), int32(len(line2)))
}

// drawBackdrop blits the captured desktop behind the selection chrome.
func drawBackdrop(hdc win.HDC) {
	memDC := win.CreateCompatibleDC(hdc)
	defer win.DeleteDC(memDC)

	bounds := overlayBackdrop.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	bitmapInfo := win.BITMAPINFO{
		BmiHeader: win.BITMAPINFOHEADER{
			BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
			BiWidth:       int32(width),
			BiHeight:      -int32(height), // top-down
			BiPlanes:      1,
			BiBitCount:    32,
			BiCompression: win.BI_RGB,
		},
	}

	var pBits unsafe.Pointer
	hBitmap := win.CreateDIBSection(memDC, &bitmapInfo.BmiHeader, win.DIB_RGB_COLORS, &pBits, 0, 0)
	if hBitmap == 0 {
		return
	}
	defer win.DeleteObject(win.HGDIOBJ(hBitmap))

	oldBitmap := win.SelectObject(memDC, win.HGDIOBJ(hBitmap))
	defer win.SelectObject(memDC, oldBitmap)

	// RGBA to BGRA, rows DWORD-aligned.
	stride := (((int32(width)*32 + 31) &^ 31) / 8)
	for y := 0; y < height; y++ {
		rowPtr := (*[1 << 29]byte)(unsafe.Pointer(uintptr(pBits) + uintptr(y)*uintptr(stride)))
		srcRow := overlayBackdrop.Pix[y*overlayBackdrop.Stride:]
		for x := 0; x < width; x++ {
			d := x * 4
			s := x * 4
			rowPtr[d] = srcRow[s+2]
			rowPtr[d+1] = srcRow[s+1]
			rowPtr[d+2] = srcRow[s]
			rowPtr[d+3] = srcRow[s+3]
		}
	}

	win.BitBlt(hdc, 0, 0, int32(width), int32(height), memDC, 0, 0, win.SRCCOPY)
}
