package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ConfigFileName is the name of the saved audio configuration file
const ConfigFileName = "audio_config.json"

var (
	// ErrValidation is wrapped by every rejected channel/rate combination
	ErrValidation = errors.New("invalid audio config")
	// ErrMalformed is returned when the config file is not valid JSON
	ErrMalformed = errors.New("malformed audio config file")
)

// SupportedSampleRates lists the accepted sample rates in Hz
var SupportedSampleRates = []uint32{8000, 16000, 22050, 44100, 48000}

// SavedAudioConfig is the user's persisted device preference. Zero channels
// or sample rate means "use the device default".
type SavedAudioConfig struct {
	DeviceName string `json:"device_name"`
	Channels   uint16 `json:"channels"`
	SampleRate uint32 `json:"sample_rate"`
}

// Validate checks the channel count and sample rate
func Validate(channels uint16, sampleRate uint32) error {
	if channels != 1 && channels != 2 {
		return fmt.Errorf("%w: channels must be 1 or 2, got %d", ErrValidation, channels)
	}

	for _, rate := range SupportedSampleRates {
		if rate == sampleRate {
			return nil
		}
	}
	return fmt.Errorf("%w: sample rate must be one of %v, got %d", ErrValidation, SupportedSampleRates, sampleRate)
}

// Validate validates the saved channel count and sample rate
func (c SavedAudioConfig) Validate() error {
	return Validate(c.Channels, c.SampleRate)
}

// ResolveEffective returns the stored values where non-zero and the device
// defaults otherwise.
func ResolveEffective(stored *SavedAudioConfig, deviceChannels uint16, deviceRate uint32) (uint16, uint32) {
	channels, rate := deviceChannels, deviceRate
	if stored == nil {
		return channels, rate
	}
	if stored.Channels != 0 {
		channels = stored.Channels
	}
	if stored.SampleRate != 0 {
		rate = stored.SampleRate
	}
	return channels, rate
}

// Store persists SavedAudioConfig as JSON in a data directory
type Store struct {
	dir string

	pathOnce sync.Once
	path     string

	mu sync.Mutex
}

// NewStore returns a store keeping its file in dir
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the config file path, resolved once
func (s *Store) Path() string {
	s.pathOnce.Do(func() {
		dir := s.dir
		if dir == "" {
			dir = DefaultDataDir()
		}
		s.path = filepath.Join(dir, ConfigFileName)
	})
	return s.path
}

// Load returns the saved config, or nil when none has been saved yet
func (s *Store) Load() (*SavedAudioConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg SavedAudioConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return &cfg, nil
}

// Save writes cfg, replacing any previous file
func (s *Store) Save(cfg SavedAudioConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to a temp file, then rename over the old config
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultDataDir returns the per-user application data directory
func DefaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		homeDir, herr := os.UserHomeDir()
		if herr != nil {
			homeDir = "."
		}
		dir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(dir, "ezaudio")
}
