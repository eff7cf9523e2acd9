package notification

import "log"

// Notifier receives user-facing status messages from the capture pipeline.
// Implementations must be safe to call from any goroutine.
type Notifier interface {
	// Info reports a transient status message (capture copied, busy).
	Info(message string)
	// Error reports a failed operation.
	Error(title, message string)
}

// LogNotifier writes notifications to the process log. It is the fallback
// used in CLI mode where no tray or window exists.
type LogNotifier struct{}

func (LogNotifier) Info(message string) {
	log.Printf("%s", message)
}

func (LogNotifier) Error(title, message string) {
	log.Printf("%s: %s", title, message)
}

// ShowResult reports a successful capture, truncating long recognized text
// so the notification stays readable.
func ShowResult(n Notifier, text string) {
	if n == nil {
		return
	}
	display := text
	if len(display) > 200 {
		display = display[:200] + "..."
	}
	n.Info("Copied to clipboard: " + display)
}
