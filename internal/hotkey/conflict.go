package hotkey

// ConflictInfo represents information about a known shortcut conflict
type ConflictInfo struct {
	Name        string
	Description string
	Binding     string
}

// knownConflicts contains system and launcher shortcuts that might conflict
var knownConflicts = []ConflictInfo{
	{Name: "Spotlight", Description: "macOS Spotlight search", Binding: "cmd+space"},
	{Name: "Input Source", Description: "Input method switch", Binding: "ctrl+space"},
	{Name: "Force Quit", Description: "macOS Force Quit", Binding: "cmd+option+escape"},
	{Name: "Screenshot", Description: "macOS screenshot", Binding: "cmd+shift+3"},
	{Name: "Lock Screen", Description: "Windows lock screen", Binding: "win+l"},
	{Name: "Task Manager", Description: "Windows Task Manager", Binding: "ctrl+shift+escape"},
	{Name: "Terminal", Description: "GNOME/Ubuntu terminal launcher", Binding: "ctrl+alt+t"},
}

// CheckConflicts checks if the binding matches known system shortcuts
func CheckConflicts(b Binding) []ConflictInfo {
	var conflicts []ConflictInfo

	for _, known := range knownConflicts {
		kb, err := ParseBinding(known.Binding)
		if err != nil {
			continue
		}
		if bindingMatches(b, kb) {
			conflicts = append(conflicts, known)
		}
	}

	return conflicts
}

// bindingMatches checks if two combinations are identical regardless of
// modifier order
func bindingMatches(a, b Binding) bool {
	if a.Key != b.Key {
		return false
	}

	if len(a.Modifiers) != len(b.Modifiers) {
		return false
	}

	mods := make(map[string]bool, len(a.Modifiers))
	for _, mod := range a.Modifiers {
		mods[mod] = true
	}

	for _, mod := range b.Modifiers {
		if !mods[mod] {
			return false
		}
	}

	return true
}
