package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		channels   uint16
		sampleRate uint32
		wantErr    bool
	}{
		{"stereo 48k", 2, 48000, false},
		{"mono 16k", 1, 16000, false},
		{"mono 8k", 1, 8000, false},
		{"stereo 22050", 2, 22050, false},
		{"mono 44100", 1, 44100, false},
		{"three channels", 3, 48000, true},
		{"zero channels", 0, 48000, true},
		{"11025 Hz", 1, 11025, true},
		{"zero rate", 1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.channels, tt.sampleRate)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("Expected ErrValidation, got %v", err)
				}
			} else if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestResolveEffective(t *testing.T) {
	tests := []struct {
		name             string
		stored           *SavedAudioConfig
		expectedChannels uint16
		expectedRate     uint32
	}{
		{"nothing stored", nil, 2, 44100},
		{"both stored", &SavedAudioConfig{Channels: 1, SampleRate: 16000}, 1, 16000},
		{"only channels", &SavedAudioConfig{Channels: 1}, 1, 44100},
		{"only rate", &SavedAudioConfig{SampleRate: 48000}, 2, 48000},
		{"zeros", &SavedAudioConfig{DeviceName: "Mic"}, 2, 44100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			channels, rate := ResolveEffective(tt.stored, 2, 44100)
			if channels != tt.expectedChannels {
				t.Errorf("Expected channels %d, got %d", tt.expectedChannels, channels)
			}
			if rate != tt.expectedRate {
				t.Errorf("Expected sample rate %d, got %d", tt.expectedRate, rate)
			}
		})
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Expected no error for missing file, got %v", err)
	}
	if cfg != nil {
		t.Errorf("Expected nil config, got %+v", cfg)
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	saved := SavedAudioConfig{DeviceName: "USB Microphone", Channels: 2, SampleRate: 48000}
	if err := NewStore(dir).Save(saved); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, ConfigFileName)); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	// A fresh store must see the same values
	loaded, err := NewStore(dir).Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected saved config, got nil")
	}
	if *loaded != saved {
		t.Errorf("Expected %+v, got %+v", saved, *loaded)
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.Save(SavedAudioConfig{Channels: 2, SampleRate: 48000}); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	if err := store.Save(SavedAudioConfig{Channels: 1, SampleRate: 8000}); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if loaded.Channels != 1 || loaded.SampleRate != 8000 {
		t.Errorf("Expected 1ch/8000Hz, got %dch/%dHz", loaded.Channels, loaded.SampleRate)
	}
}

func TestStore_LoadMalformed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewStore(dir).Load()
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed, got %v", err)
	}
}

func TestStore_PathCached(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	first := store.Path()
	if first != filepath.Join(dir, ConfigFileName) {
		t.Errorf("Expected path in %s, got %s", dir, first)
	}

	store.dir = "elsewhere"
	if store.Path() != first {
		t.Errorf("Expected cached path %s, got %s", first, store.Path())
	}
}
