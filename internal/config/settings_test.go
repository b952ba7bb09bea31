package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.Server.Port != 18765 {
		t.Errorf("Expected port 18765, got %d", s.Server.Port)
	}
	if s.Hotkey.Keys != "ctrl+alt+r" {
		t.Errorf("Expected hotkey 'ctrl+alt+r', got '%s'", s.Hotkey.Keys)
	}
	if s.Hotkey.Mode != "toggle" {
		t.Errorf("Expected hotkey mode 'toggle', got '%s'", s.Hotkey.Mode)
	}
	if s.Log.RetentionDays != 7 {
		t.Errorf("Expected retention days 7, got %d", s.Log.RetentionDays)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Expected default settings to be valid, got %v", err)
	}
}

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), SettingsFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write settings: %v", err)
	}
	return path
}

func TestLoadSettings_File(t *testing.T) {
	dataDir := t.TempDir()
	path := writeSettings(t, `
data_dir: `+dataDir+`
backend: malgo
server:
  port: 9000
log:
  level: DEBUG
hotkey:
  mode: press-to-hold
recording:
  max_duration: 30s
`)

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if s.DataDir != dataDir {
		t.Errorf("Expected data dir %s, got %s", dataDir, s.DataDir)
	}
	if s.Backend != "malgo" {
		t.Errorf("Expected backend 'malgo', got '%s'", s.Backend)
	}
	if s.Server.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", s.Server.Port)
	}
	// Unset keys keep their defaults
	if s.Server.Addr != "127.0.0.1" {
		t.Errorf("Expected addr '127.0.0.1', got '%s'", s.Server.Addr)
	}
	if s.Log.Level != "DEBUG" {
		t.Errorf("Expected log level 'DEBUG', got '%s'", s.Log.Level)
	}
	if s.Hotkey.Mode != "press-to-hold" {
		t.Errorf("Expected hotkey mode 'press-to-hold', got '%s'", s.Hotkey.Mode)
	}
	if s.Recording.MaxDuration != 30*time.Second {
		t.Errorf("Expected max duration 30s, got %v", s.Recording.MaxDuration)
	}
}

func TestLoadSettings_EnvOverride(t *testing.T) {
	path := writeSettings(t, "backend: portaudio\n")
	t.Setenv("EZAUDIO_BACKEND", "malgo")
	t.Setenv("EZAUDIO_SERVER_PORT", "19000")

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	if s.Backend != "malgo" {
		t.Errorf("Expected backend 'malgo', got '%s'", s.Backend)
	}
	if s.Server.Port != 19000 {
		t.Errorf("Expected port 19000, got %d", s.Server.Port)
	}
}

func TestLoadSettings_MissingExplicitFile(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("Expected error for missing explicit config file")
	}
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"backend", "backend: alsa\n"},
		{"port", "server:\n  port: 70000\n"},
		{"log level", "log:\n  level: TRACE\n"},
		{"hotkey mode", "hotkey:\n  mode: double-tap\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadSettings(writeSettings(t, tt.content)); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestSettings_YAML(t *testing.T) {
	s := DefaultSettings()
	s.Backend = "malgo"

	data, err := s.YAML()
	if err != nil {
		t.Fatalf("Failed to render YAML: %v", err)
	}

	out := string(data)
	for _, want := range []string{"backend: malgo", "port: 18765", "keys: ctrl+alt+r"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected YAML to contain %q, got:\n%s", want, out)
		}
	}
}

func TestSettings_Paths(t *testing.T) {
	s := DefaultSettings()
	s.DataDir = "/tmp/ezaudio"

	if s.LogDir() != filepath.Join("/tmp/ezaudio", "logs") {
		t.Errorf("Unexpected log dir: %s", s.LogDir())
	}
	if s.Addr() != "127.0.0.1:18765" {
		t.Errorf("Expected addr '127.0.0.1:18765', got '%s'", s.Addr())
	}
}
