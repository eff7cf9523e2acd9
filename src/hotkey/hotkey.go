package hotkey

import (
	"log"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Listen registers a global hotkey combination like "Ctrl+Alt+Q" and invokes
// callback whenever every key of the combination is held at once. The
// callback only signals the event loop; it must not do the capture work
// itself.
func Listen(combo string, callback func()) {
	keys := parseHotkey(combo)

	type keyState struct {
		name     string
		rawcodes []uint16
		pressed  bool
	}
	var states []keyState
	for _, name := range keys {
		rawcodes := keyNameToRawcodes(name)
		if len(rawcodes) == 0 {
			log.Printf("Cannot map key %q, hotkey %q may not work", name, combo)
			continue
		}
		states = append(states, keyState{name: name, rawcodes: rawcodes})
	}
	if len(states) == 0 {
		log.Printf("No valid keys in hotkey %q", combo)
		return
	}
	log.Printf("Hotkey listener configured for %s", combo)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()

		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("gohook.Start() returned nil channel")
			return
		}

		var mu sync.Mutex
		matches := func(rawcode uint16, s *keyState) bool {
			for _, rc := range s.rawcodes {
				if rc == rawcode {
					return true
				}
			}
			return false
		}

		for ev := range evChan {
			switch ev.Kind {
			case gohook.KeyDown:
				mu.Lock()
				for i := range states {
					if matches(ev.Rawcode, &states[i]) {
						states[i].pressed = true
					}
				}
				all := true
				for i := range states {
					if !states[i].pressed {
						all = false
						break
					}
				}
				if all {
					for i := range states {
						states[i].pressed = false
					}
					mu.Unlock()
					log.Printf("Hotkey %s activated", combo)
					if callback != nil {
						callback()
					}
					continue
				}
				mu.Unlock()
			case gohook.KeyUp:
				mu.Lock()
				for i := range states {
					if matches(ev.Rawcode, &states[i]) {
						states[i].pressed = false
					}
				}
				mu.Unlock()
			}
		}
	}()
}

// parseHotkey splits "Ctrl+Alt+q" into normalized lowercase key names.
func parseHotkey(combo string) []string {
	parts := strings.Split(strings.ToLower(combo), "+")
	var keys []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch part {
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}
	return keys
}

// keyNameToRawcodes maps a key name to Windows virtual-key rawcodes.
// Modifiers map to both their left and right variants.
func keyNameToRawcodes(name string) []uint16 {
	name = strings.ToLower(strings.TrimSpace(name))

	switch name {
	case "ctrl":
		return []uint16{162, 163} // VK_LCONTROL, VK_RCONTROL
	case "alt":
		return []uint16{164, 165} // VK_LMENU, VK_RMENU
	case "shift":
		return []uint16{160, 161} // VK_LSHIFT, VK_RSHIFT
	case "win", "cmd", "super":
		return []uint16{91, 92} // VK_LWIN, VK_RWIN
	case "space":
		return []uint16{32}
	case "enter", "return":
		return []uint16{13}
	case "esc", "escape":
		return []uint16{27}
	case "tab":
		return []uint16{9}
	case "backspace":
		return []uint16{8}
	case "delete", "del":
		return []uint16{46}
	case "insert", "ins":
		return []uint16{45}
	case "home":
		return []uint16{36}
	case "end":
		return []uint16{35}
	case "pageup", "pgup":
		return []uint16{33}
	case "pagedown", "pgdn":
		return []uint16{34}
	case "left":
		return []uint16{37}
	case "up":
		return []uint16{38}
	case "right":
		return []uint16{39}
	case "down":
		return []uint16{40}
	}

	// Letters A-Z are VK 0x41-0x5A, digits 0-9 are VK 0x30-0x39.
	if len(name) == 1 {
		c := name[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c - 'a' + 0x41)}
		case c >= '0' && c <= '9':
			return []uint16{uint16(c - '0' + 0x30)}
		}
	}

	// Function keys F1-F24 are VK 0x70-0x87.
	if strings.HasPrefix(name, "f") {
		n := 0
		for _, r := range name[1:] {
			if r < '0' || r > '9' {
				n = 0
				break
			}
			n = n*10 + int(r-'0')
		}
		if n >= 1 && n <= 24 {
			return []uint16{uint16(0x70 + n - 1)}
		}
	}

	log.Printf("Unknown key name %q", name)
	return nil
}
