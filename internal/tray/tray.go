// Package tray shows the recorder state in the system tray and exposes the
// common commands as menu items.
package tray

import (
	"context"
	"sync"

	"github.com/getlantern/systray"
)

// State represents the current application state
type State int

const (
	StateIdle State = iota
	StateRecording
	StatePlaying
)

// String returns a human readable state name
func (s State) String() string {
	switch s {
	case StateRecording:
		return "Recording"
	case StatePlaying:
		return "Playing"
	default:
		return "Idle"
	}
}

// Device represents an input device entry in the menu
type Device struct {
	Name      string
	IsDefault bool
	IsCurrent bool
}

// Manager manages the system tray icon and menu
type Manager struct {
	mu            sync.RWMutex
	state         State
	lastRecording string
	ready         bool
	appName       string

	onReadyCallback  func()
	onToggle         func()
	onStopPlayback   func()
	onPlayLast       func()
	onCopyLastPath   func()
	onDeviceChange   func(name string)
	onQuit           func()
	menuToggle       *systray.MenuItem
	menuStopPlayback *systray.MenuItem
	menuPlayLast     *systray.MenuItem
	menuCopyPath     *systray.MenuItem
	menuDevices      *systray.MenuItem
	menuQuit         *systray.MenuItem

	deviceMenuItems   []*systray.MenuItem
	deviceCancelFuncs []context.CancelFunc

	icons map[State][]byte
}

// Config holds tray manager configuration
type Config struct {
	AppName           string
	OnReady           func() // Called when systray is ready for initialization
	OnToggleRecording func()
	OnStopPlayback    func()
	OnPlayLast        func()
	OnCopyLastPath    func()
	OnDeviceChange    func(name string) // Called when user selects an input device
	OnQuit            func()
}

// NewManager creates a new tray manager
func NewManager(config Config) *Manager {
	name := config.AppName
	if name == "" {
		name = "ezaudio"
	}
	return &Manager{
		state:           StateIdle,
		appName:         name,
		onReadyCallback: config.OnReady,
		onToggle:        config.OnToggleRecording,
		onStopPlayback:  config.OnStopPlayback,
		onPlayLast:      config.OnPlayLast,
		onCopyLastPath:  config.OnCopyLastPath,
		onDeviceChange:  config.OnDeviceChange,
		onQuit:          config.OnQuit,
		icons:           stateIcons(),
	}
}

// Run starts the system tray. It blocks until Quit and must be called from
// the main goroutine.
func (m *Manager) Run() {
	systray.Run(m.onReady, m.onExit)
}

func (m *Manager) onReady() {
	m.menuToggle = systray.AddMenuItem(toggleLabel(StateIdle), "Start or stop recording")
	m.menuStopPlayback = systray.AddMenuItem("Stop Playback", "Stop the current playback")
	m.menuPlayLast = systray.AddMenuItem("Play Last Recording", "Play the most recent recording")
	m.menuCopyPath = systray.AddMenuItem("Copy Last Recording Path", "Copy the recording path to the clipboard")
	m.menuDevices = systray.AddMenuItem("Input Device", "Select input device")

	systray.AddSeparator()

	m.menuQuit = systray.AddMenuItem("Quit", "Quit the application")

	m.mu.Lock()
	m.ready = true
	m.mu.Unlock()
	m.refresh()

	go m.handleMenuEvents()

	if m.onReadyCallback != nil {
		m.onReadyCallback()
	}
}

func (m *Manager) onExit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = false
	m.cancelDeviceHandlers()
}

func (m *Manager) handleMenuEvents() {
	for {
		select {
		case <-m.menuToggle.ClickedCh:
			call(m.onToggle)
		case <-m.menuStopPlayback.ClickedCh:
			call(m.onStopPlayback)
		case <-m.menuPlayLast.ClickedCh:
			call(m.onPlayLast)
		case <-m.menuCopyPath.ClickedCh:
			call(m.onCopyLastPath)
		case <-m.menuQuit.ClickedCh:
			call(m.onQuit)
			systray.Quit()
			return
		}
	}
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

// SetState updates the tray icon and menu for the given state
func (m *Manager) SetState(state State) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
	m.refresh()
}

// State returns the state last set
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// SetLastRecording enables the menu items that act on the last recording
func (m *Manager) SetLastRecording(path string) {
	m.mu.Lock()
	m.lastRecording = path
	m.mu.Unlock()
	m.refresh()
}

// LastRecording returns the path set by SetLastRecording
func (m *Manager) LastRecording() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRecording
}

// menuView is what the tray shows for a given state
type menuView struct {
	tooltip         string
	toggle          string
	canStopPlayback bool
	canPlayLast     bool
	canCopyPath     bool
}

func viewFor(appName string, state State, lastRecording string) menuView {
	return menuView{
		tooltip:         appName + " - " + state.String(),
		toggle:          toggleLabel(state),
		canStopPlayback: state == StatePlaying,
		canPlayLast:     lastRecording != "" && state != StateRecording,
		canCopyPath:     lastRecording != "",
	}
}

func toggleLabel(state State) string {
	if state == StateRecording {
		return "Stop Recording"
	}
	return "Start Recording"
}

func setEnabled(item *systray.MenuItem, enabled bool) {
	if enabled {
		item.Enable()
	} else {
		item.Disable()
	}
}

// refresh pushes the current state to the tray once it is running
func (m *Manager) refresh() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.ready {
		return
	}

	view := viewFor(m.appName, m.state, m.lastRecording)
	systray.SetIcon(m.icons[m.state])
	systray.SetTooltip(view.tooltip)
	m.menuToggle.SetTitle(view.toggle)
	setEnabled(m.menuStopPlayback, view.canStopPlayback)
	setEnabled(m.menuPlayLast, view.canPlayLast)
	setEnabled(m.menuCopyPath, view.canCopyPath)
}

func deviceLabel(d Device) string {
	label := d.Name
	if d.IsCurrent {
		label = "✓ " + label
	}
	if d.IsDefault {
		label += " (default)"
	}
	return label
}

// cancelDeviceHandlers stops the click handlers of the device submenu
func (m *Manager) cancelDeviceHandlers() {
	for _, cancel := range m.deviceCancelFuncs {
		cancel()
	}
	m.deviceCancelFuncs = nil
}

// UpdateDeviceMenu updates the device submenu with available devices
func (m *Manager) UpdateDeviceMenu(devices []Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return
	}

	m.cancelDeviceHandlers()
	for _, item := range m.deviceMenuItems {
		item.Hide()
	}
	m.deviceMenuItems = nil

	for _, device := range devices {
		tooltip := ""
		if device.IsDefault {
			tooltip = "System default device"
		}

		item := m.menuDevices.AddSubMenuItem(deviceLabel(device), tooltip)
		m.deviceMenuItems = append(m.deviceMenuItems, item)

		ctx, cancel := context.WithCancel(context.Background())
		m.deviceCancelFuncs = append(m.deviceCancelFuncs, cancel)

		go func(name string, item *systray.MenuItem) {
			for {
				select {
				case <-ctx.Done():
					return
				case <-item.ClickedCh:
					if m.onDeviceChange != nil {
						m.onDeviceChange(name)
					}
				}
			}
		}(device.Name, item)
	}
}

// Quit quits the system tray
func (m *Manager) Quit() {
	systray.Quit()
}
