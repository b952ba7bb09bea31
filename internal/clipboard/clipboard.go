// Package clipboard copies recording paths to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-vgo/robotgo"
)

// ErrEmpty is returned when there is nothing to copy
var ErrEmpty = errors.New("nothing to copy")

// Manager wraps clipboard access
type Manager struct {
	mu           sync.Mutex
	read         func() (string, error)
	write        func(string) error
	settle       time.Duration
	savedContent string
	saved        bool
}

// Config holds clipboard manager configuration
type Config struct {
	// Settle is how long to wait after a write before verifying it
	Settle time.Duration
}

// DefaultConfig returns the default clipboard configuration
func DefaultConfig() Config {
	return Config{
		Settle: 10 * time.Millisecond,
	}
}

// NewManager creates a clipboard manager backed by the system clipboard
func NewManager(config Config) *Manager {
	return &Manager{
		read:   robotgo.ReadAll,
		write:  func(s string) error { return robotgo.WriteAll(s) },
		settle: config.Settle,
	}
}

// CopyText places text on the clipboard and verifies it arrived
func (m *Manager) CopyText(text string) error {
	if text == "" {
		return ErrEmpty
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.write(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}

	if m.settle > 0 {
		time.Sleep(m.settle)
	}

	got, err := m.read()
	if err != nil {
		return fmt.Errorf("failed to read clipboard: %w", err)
	}
	if got != text {
		return fmt.Errorf("clipboard content was replaced before it could be verified")
	}
	return nil
}

// CopyPath copies the absolute form of an existing file's path
func (m *Manager) CopyPath(path string) error {
	if path == "" {
		return ErrEmpty
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("cannot copy path: %w", err)
	}
	return m.CopyText(abs)
}

// Save remembers the current clipboard content for Restore
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	content, err := m.read()
	if err != nil {
		return fmt.Errorf("failed to read clipboard: %w", err)
	}
	m.savedContent = content
	m.saved = true
	return nil
}

// Restore puts back the content remembered by Save
func (m *Manager) Restore() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.saved {
		return nil
	}
	m.saved = false
	if err := m.write(m.savedContent); err != nil {
		return fmt.Errorf("failed to restore clipboard: %w", err)
	}
	return nil
}

// Content returns the current clipboard content
func (m *Manager) Content() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read()
}
