package hotkey

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"
)

// RecordingMode defines how the hotkey triggers recording
type RecordingMode int

const (
	// PressToHold mode: record while key is held down
	PressToHold RecordingMode = iota
	// Toggle mode: first press starts, second press stops
	Toggle
)

// String returns the setting value of the mode
func (m RecordingMode) String() string {
	if m == PressToHold {
		return "press-to-hold"
	}
	return "toggle"
}

// EventType represents the type of hotkey event
type EventType int

const (
	// Pressed asks for recording to start
	Pressed EventType = iota
	// Released asks for recording to stop
	Released
)

// Event represents a hotkey event
type Event struct {
	Type EventType
}

// Config holds hotkey configuration
type Config struct {
	Binding Binding
	Mode    RecordingMode
}

// DefaultConfig returns ctrl+alt+R in toggle mode
func DefaultConfig() Config {
	return Config{
		Binding: Binding{Modifiers: []string{"ctrl", "alt"}, Key: "R"},
		Mode:    Toggle,
	}
}

// modeState turns raw key transitions into start/stop events
type modeState struct {
	mode    RecordingMode
	toggled bool
}

func (s *modeState) keyDown() (Event, bool) {
	if s.mode == PressToHold {
		return Event{Type: Pressed}, true
	}
	s.toggled = !s.toggled
	if s.toggled {
		return Event{Type: Pressed}, true
	}
	return Event{Type: Released}, true
}

func (s *modeState) keyUp() (Event, bool) {
	if s.mode == PressToHold {
		return Event{Type: Released}, true
	}
	return Event{}, false
}

// Manager manages global hotkey registration and events
type Manager struct {
	hk        *hotkey.Hotkey
	config    Config
	eventChan chan Event
	stopChan  chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
}

// New creates a new hotkey manager with default configuration
func New() *Manager {
	return &Manager{
		config:    DefaultConfig(),
		eventChan: make(chan Event, 10),
		stopChan:  make(chan struct{}),
	}
}

// Register registers the hotkey with the system
func (m *Manager) Register(config Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("hotkey is already running, call Close() first")
	}

	mods, key, err := config.Binding.resolve()
	if err != nil {
		return fmt.Errorf("failed to register hotkey %s: %w", config.Binding, err)
	}

	m.config = config

	// Recreate channels (they may have been closed by a previous Close())
	m.stopChan = make(chan struct{})
	m.eventChan = make(chan Event, 10)

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("failed to register hotkey %s: %w", config.Binding, err)
	}

	m.hk = hk
	m.running = true

	m.wg.Add(1)
	go m.listen(hk.Keydown(), hk.Keyup(), m.stopChan, m.eventChan)

	return nil
}

// listen monitors key transitions and sends events to out
func (m *Manager) listen(down, up <-chan hotkey.Event, stop <-chan struct{}, out chan<- Event) {
	defer m.wg.Done()

	state := &modeState{mode: m.config.Mode}

	for {
		var (
			ev Event
			ok bool
		)
		select {
		case <-down:
			ev, ok = state.keyDown()
		case <-up:
			ev, ok = state.keyUp()
		case <-stop:
			return
		}
		if !ok {
			continue
		}

		select {
		case out <- ev:
		case <-stop:
			return
		}
	}
}

// Events returns the event channel for receiving hotkey events
func (m *Manager) Events() <-chan Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventChan
}

// Close unregisters the hotkey and stops listening
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	var unregisterErr error

	// Signal the listener to stop
	close(m.stopChan)

	// Wait for the listener goroutine to finish
	m.wg.Wait()

	// Unregister even if it fails so cleanup always runs
	if m.hk != nil {
		if err := m.hk.Unregister(); err != nil {
			unregisterErr = fmt.Errorf("failed to unregister hotkey: %w", err)
		}
	}

	// Close event channel to notify consumers of shutdown
	close(m.eventChan)

	// Register may be called again even after a failed Unregister
	m.running = false

	return unregisterErr
}

// IsRunning returns whether the hotkey is currently registered and running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// GetConfig returns a deep copy of the current hotkey configuration
func (m *Manager) GetConfig() Config {
	m.mu.Lock()
	defer m.mu.Unlock()

	configCopy := m.config
	if m.config.Binding.Modifiers != nil {
		configCopy.Binding.Modifiers = append([]string(nil), m.config.Binding.Modifiers...)
	}
	return configCopy
}
