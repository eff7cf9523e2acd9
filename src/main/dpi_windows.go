//go:build windows

package main

import "golang.org/x/sys/windows"

// enableDPIAwareness opts into per-monitor DPI awareness so virtual-screen
// metrics and overlay coordinates line up on scaled displays.
func enableDPIAwareness() {
	// Shcore.SetProcessDpiAwareness (Win 8.1+), else user32.SetProcessDPIAware.
	shcore := windows.NewLazySystemDLL("Shcore.dll")
	setProcessDpiAwareness := shcore.NewProc("SetProcessDpiAwareness")
	const processPerMonitorDPIAware = 2
	if err := setProcessDpiAwareness.Find(); err == nil {
		_, _, _ = setProcessDpiAwareness.Call(uintptr(processPerMonitorDPIAware))
		return
	}
	user32 := windows.NewLazySystemDLL("user32.dll")
	setProcessDPIAware := user32.NewProc("SetProcessDPIAware")
	if err := setProcessDPIAware.Find(); err == nil {
		_, _, _ = setProcessDPIAware.Call()
	}
}
