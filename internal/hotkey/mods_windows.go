package hotkey

import "golang.design/x/hotkey"

var platformModifiers = map[string]hotkey.Modifier{
	"ctrl":  hotkey.ModCtrl,
	"shift": hotkey.ModShift,
	"alt":   hotkey.ModAlt,
	"super": hotkey.ModWin,
}

var modifierLabels = map[string]string{
	"ctrl":  "Ctrl+",
	"shift": "Shift+",
	"alt":   "Alt+",
	"super": "Win+",
}
