package hotkey

import "golang.design/x/hotkey"

// Mod1 and Mod4 are the conventional X11 Alt and Super masks
var platformModifiers = map[string]hotkey.Modifier{
	"ctrl":  hotkey.ModCtrl,
	"shift": hotkey.ModShift,
	"alt":   hotkey.Mod1,
	"super": hotkey.Mod4,
}

var modifierLabels = map[string]string{
	"ctrl":  "Ctrl+",
	"shift": "Shift+",
	"alt":   "Alt+",
	"super": "Super+",
}
