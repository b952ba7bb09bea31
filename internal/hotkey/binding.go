package hotkey

import (
	"fmt"
	"sort"
	"strings"

	"golang.design/x/hotkey"
)

// Binding is a platform-neutral key combination such as "ctrl+alt+r"
type Binding struct {
	// Modifiers are canonical names: ctrl, shift, alt, super
	Modifiers []string
	// Key is the canonical key name ("R", "Space", "F5", ...)
	Key string
}

// modifierAliases maps accepted spellings to canonical modifier names
var modifierAliases = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"shift":   "shift",
	"alt":     "alt",
	"option":  "alt",
	"opt":     "alt",
	"super":   "super",
	"cmd":     "super",
	"command": "super",
	"win":     "super",
	"meta":    "super",
}

// modifierOrder fixes the order used by String and Format
var modifierOrder = map[string]int{"ctrl": 0, "shift": 1, "alt": 2, "super": 3}

// keyCodes maps canonical key names to key codes
var keyCodes = map[string]hotkey.Key{
	"Space": hotkey.KeySpace, "Return": hotkey.KeyReturn, "Escape": hotkey.KeyEscape,
	"Tab": hotkey.KeyTab, "Delete": hotkey.KeyDelete,
	"Left": hotkey.KeyLeft, "Right": hotkey.KeyRight, "Up": hotkey.KeyUp, "Down": hotkey.KeyDown,
	"A": hotkey.KeyA, "B": hotkey.KeyB, "C": hotkey.KeyC, "D": hotkey.KeyD, "E": hotkey.KeyE,
	"F": hotkey.KeyF, "G": hotkey.KeyG, "H": hotkey.KeyH, "I": hotkey.KeyI, "J": hotkey.KeyJ,
	"K": hotkey.KeyK, "L": hotkey.KeyL, "M": hotkey.KeyM, "N": hotkey.KeyN, "O": hotkey.KeyO,
	"P": hotkey.KeyP, "Q": hotkey.KeyQ, "R": hotkey.KeyR, "S": hotkey.KeyS, "T": hotkey.KeyT,
	"U": hotkey.KeyU, "V": hotkey.KeyV, "W": hotkey.KeyW, "X": hotkey.KeyX, "Y": hotkey.KeyY,
	"Z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3, "4": hotkey.Key4,
	"5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7, "8": hotkey.Key8, "9": hotkey.Key9,
	"F1": hotkey.KeyF1, "F2": hotkey.KeyF2, "F3": hotkey.KeyF3, "F4": hotkey.KeyF4,
	"F5": hotkey.KeyF5, "F6": hotkey.KeyF6, "F7": hotkey.KeyF7, "F8": hotkey.KeyF8,
	"F9": hotkey.KeyF9, "F10": hotkey.KeyF10, "F11": hotkey.KeyF11, "F12": hotkey.KeyF12,
}

// keyAliases maps lower-case spellings to canonical key names
var keyAliases = map[string]string{
	"space": "Space", "enter": "Return", "return": "Return", "esc": "Escape",
	"escape": "Escape", "tab": "Tab", "delete": "Delete", "del": "Delete",
	"left": "Left", "right": "Right", "up": "Up", "down": "Down",
}

// canonicalKey normalizes a key name; ok is false for unknown keys
func canonicalKey(s string) (string, bool) {
	// macOS IMEs may send NBSP for the space key
	if s == " " || s == "\u00a0" {
		return "Space", true
	}
	lower := strings.ToLower(s)
	if name, ok := keyAliases[lower]; ok {
		return name, true
	}
	upper := strings.ToUpper(s)
	if _, ok := keyCodes[upper]; ok {
		return upper, true
	}
	return "", false
}

// ParseBinding parses a "+"-separated combination. At least one modifier
// is required so a plain key press is never captured globally.
func ParseBinding(s string) (Binding, error) {
	parts := strings.Split(s, "+")
	if len(parts) < 2 {
		return Binding{}, fmt.Errorf("invalid hotkey %q: expected modifier+key", s)
	}

	var b Binding
	seen := make(map[string]bool)
	for _, part := range parts[:len(parts)-1] {
		name, ok := modifierAliases[strings.ToLower(strings.TrimSpace(part))]
		if !ok {
			return Binding{}, fmt.Errorf("invalid hotkey %q: unknown modifier %q", s, part)
		}
		if !seen[name] {
			seen[name] = true
			b.Modifiers = append(b.Modifiers, name)
		}
	}
	sort.Slice(b.Modifiers, func(i, j int) bool {
		return modifierOrder[b.Modifiers[i]] < modifierOrder[b.Modifiers[j]]
	})

	raw := parts[len(parts)-1]
	key, ok := canonicalKey(raw)
	if !ok {
		key, ok = canonicalKey(strings.TrimSpace(raw))
	}
	if !ok {
		return Binding{}, fmt.Errorf("invalid hotkey %q: unknown key %q", s, parts[len(parts)-1])
	}
	b.Key = key
	return b, nil
}

// String returns the canonical "ctrl+alt+R" form
func (b Binding) String() string {
	return strings.Join(append(append([]string{}, b.Modifiers...), b.Key), "+")
}

// Format returns a human-readable label using the platform's modifier names
func (b Binding) Format() string {
	result := ""
	for _, mod := range b.Modifiers {
		result += modifierLabels[mod]
	}
	return result + b.Key
}

// resolve converts the binding into the library's modifiers and key code
func (b Binding) resolve() ([]hotkey.Modifier, hotkey.Key, error) {
	mods := make([]hotkey.Modifier, 0, len(b.Modifiers))
	for _, name := range b.Modifiers {
		mod, ok := platformModifiers[name]
		if !ok {
			return nil, 0, fmt.Errorf("modifier %q is not supported on this platform", name)
		}
		mods = append(mods, mod)
	}
	key, ok := keyCodes[b.Key]
	if !ok {
		return nil, 0, fmt.Errorf("unknown key %q", b.Key)
	}
	return mods, key, nil
}

// ParseMode converts the setting value into a RecordingMode
func ParseMode(s string) (RecordingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "toggle", "":
		return Toggle, nil
	case "press-to-hold", "hold":
		return PressToHold, nil
	default:
		return Toggle, fmt.Errorf("unknown hotkey mode %q", s)
	}
}
