package hotkey

import (
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	m := New()
	if m == nil {
		t.Fatal("New() returned nil")
	}

	config := m.GetConfig()
	if len(config.Binding.Modifiers) != 2 {
		t.Errorf("Expected 2 modifiers, got %d", len(config.Binding.Modifiers))
	}

	if config.Binding.Key != "R" {
		t.Errorf("Expected key R, got %q", config.Binding.Key)
	}

	if config.Mode != Toggle {
		t.Errorf("Expected Toggle mode, got %v", config.Mode)
	}
}

func TestParseBinding(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"ctrl+alt+r", "ctrl+alt+R", false},
		{"Alt+Ctrl+R", "ctrl+alt+R", false},
		{"cmd+shift+space", "shift+super+Space", false},
		{"option+control+F5", "ctrl+alt+F5", false},
		{"ctrl+ctrl+1", "ctrl+1", false},
		{"ctrl+esc", "ctrl+Escape", false},
		{"ctrl+alt+ ", "ctrl+alt+Space", false},
		{"r", "", true},
		{"hyper+r", "", true},
		{"ctrl+pageup", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			b, err := ParseBinding(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if err == nil && b.String() != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, b.String())
			}
		})
	}
}

func TestBindingResolve(t *testing.T) {
	b, err := ParseBinding("ctrl+shift+alt+super+A")
	if err != nil {
		t.Fatal(err)
	}
	mods, _, err := b.resolve()
	if err != nil {
		t.Fatalf("Failed to resolve: %v", err)
	}
	if len(mods) != 4 {
		t.Errorf("Expected 4 modifiers, got %d", len(mods))
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected RecordingMode
		wantErr  bool
	}{
		{"toggle", Toggle, false},
		{"", Toggle, false},
		{"press-to-hold", PressToHold, false},
		{"Hold", PressToHold, false},
		{"tap", Toggle, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
			if mode != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, mode)
			}
		})
	}
}

func TestModeState(t *testing.T) {
	t.Run("toggle", func(t *testing.T) {
		s := &modeState{mode: Toggle}

		ev, ok := s.keyDown()
		if !ok || ev.Type != Pressed {
			t.Errorf("Expected Pressed on first press, got %v %v", ev, ok)
		}
		if _, ok := s.keyUp(); ok {
			t.Error("Expected key up to be ignored in toggle mode")
		}
		ev, ok = s.keyDown()
		if !ok || ev.Type != Released {
			t.Errorf("Expected Released on second press, got %v %v", ev, ok)
		}
		ev, _ = s.keyDown()
		if ev.Type != Pressed {
			t.Errorf("Expected Pressed on third press, got %v", ev)
		}
	})

	t.Run("press-to-hold", func(t *testing.T) {
		s := &modeState{mode: PressToHold}

		for i := 0; i < 2; i++ {
			ev, ok := s.keyDown()
			if !ok || ev.Type != Pressed {
				t.Errorf("Expected Pressed on key down, got %v %v", ev, ok)
			}
			ev, ok = s.keyUp()
			if !ok || ev.Type != Released {
				t.Errorf("Expected Released on key up, got %v %v", ev, ok)
			}
		}
	})
}

func TestCheckConflicts(t *testing.T) {
	tests := []struct {
		name           string
		binding        string
		expectConflict bool
	}{
		{"Spotlight conflict (Cmd+Space)", "cmd+space", true},
		{"No conflict (Ctrl+Alt+R)", "ctrl+alt+r", false},
		{"Force Quit conflict (Option+Cmd+Esc)", "option+cmd+esc", true},
		{"Lock screen conflict (Win+L)", "super+l", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ParseBinding(tt.binding)
			if err != nil {
				t.Fatal(err)
			}
			conflicts := CheckConflicts(b)
			hasConflict := len(conflicts) > 0

			if hasConflict != tt.expectConflict {
				t.Errorf("Expected conflict=%v, got conflict=%v (found %d conflicts)",
					tt.expectConflict, hasConflict, len(conflicts))
			}
		})
	}
}

func TestBindingMatches(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Binding
		expected bool
	}{
		{
			name:     "Same hotkey",
			a:        Binding{Modifiers: []string{"ctrl", "alt"}, Key: "Space"},
			b:        Binding{Modifiers: []string{"ctrl", "alt"}, Key: "Space"},
			expected: true,
		},
		{
			name:     "Different key",
			a:        Binding{Modifiers: []string{"ctrl"}, Key: "Space"},
			b:        Binding{Modifiers: []string{"ctrl"}, Key: "Return"},
			expected: false,
		},
		{
			name:     "Different modifiers",
			a:        Binding{Modifiers: []string{"ctrl"}, Key: "Space"},
			b:        Binding{Modifiers: []string{"super"}, Key: "Space"},
			expected: false,
		},
		{
			name:     "Same modifiers, different order",
			a:        Binding{Modifiers: []string{"ctrl", "alt"}, Key: "Space"},
			b:        Binding{Modifiers: []string{"alt", "ctrl"}, Key: "Space"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := bindingMatches(tt.a, tt.b)
			if result != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := New()

	// Initially should not be running
	if m.IsRunning() {
		t.Error("Manager should not be running initially")
	}

	// Close should be safe on non-running manager
	if err := m.Close(); err != nil {
		t.Errorf("Close() on non-running manager returned error: %v", err)
	}

	// Registration itself needs a desktop session and is not exercised here
}

func TestEventChannel(t *testing.T) {
	m := New()

	eventChan := m.Events()
	if eventChan == nil {
		t.Fatal("Events() returned nil channel")
	}

	select {
	case <-eventChan:
		t.Error("Events channel should be empty initially")
	case <-time.After(10 * time.Millisecond):
		// Expected: timeout
	}
}

func TestGetConfigIsCopy(t *testing.T) {
	m := New()

	config := m.GetConfig()
	config.Binding.Modifiers[0] = "shift"

	if m.GetConfig().Binding.Modifiers[0] != "ctrl" {
		t.Error("Expected GetConfig to return a copy")
	}
}
