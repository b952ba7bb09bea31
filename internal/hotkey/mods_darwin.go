package hotkey

import "golang.design/x/hotkey"

var platformModifiers = map[string]hotkey.Modifier{
	"ctrl":  hotkey.ModCtrl,
	"shift": hotkey.ModShift,
	"alt":   hotkey.ModOption,
	"super": hotkey.ModCmd,
}

var modifierLabels = map[string]string{
	"ctrl":  "⌃",
	"shift": "⇧",
	"alt":   "⌥",
	"super": "⌘",
}
