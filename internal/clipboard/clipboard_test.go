package clipboard

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// memClipboard is an in-memory clipboard
type memClipboard struct {
	content  string
	writeErr error
	// replaceWith simulates another application writing after us
	replaceWith string
}

func (c *memClipboard) read() (string, error) {
	if c.replaceWith != "" {
		return c.replaceWith, nil
	}
	return c.content, nil
}

func (c *memClipboard) write(s string) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.content = s
	return nil
}

func newTestManager(c *memClipboard) *Manager {
	return &Manager{read: c.read, write: c.write}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Settle != 10*time.Millisecond {
		t.Errorf("Expected Settle 10ms, got %v", config.Settle)
	}
}

func TestNewManager(t *testing.T) {
	manager := NewManager(DefaultConfig())

	if manager == nil {
		t.Fatal("Expected manager to be created")
	}
	if manager.read == nil || manager.write == nil {
		t.Error("Expected system clipboard functions to be set")
	}
}

func TestCopyText(t *testing.T) {
	c := &memClipboard{}
	m := newTestManager(c)

	if err := m.CopyText("hello"); err != nil {
		t.Fatalf("Failed to copy: %v", err)
	}
	if c.content != "hello" {
		t.Errorf("Expected 'hello', got %q", c.content)
	}

	if err := m.CopyText(""); !errors.Is(err, ErrEmpty) {
		t.Errorf("Expected ErrEmpty, got %v", err)
	}
}

func TestCopyTextErrors(t *testing.T) {
	t.Run("write fails", func(t *testing.T) {
		m := newTestManager(&memClipboard{writeErr: errors.New("no display")})
		if err := m.CopyText("x"); err == nil {
			t.Error("Expected error")
		}
	})

	t.Run("replaced", func(t *testing.T) {
		m := newTestManager(&memClipboard{replaceWith: "other"})
		if err := m.CopyText("x"); err == nil {
			t.Error("Expected verification error")
		}
	})
}

func TestCopyPath(t *testing.T) {
	c := &memClipboard{}
	m := newTestManager(c)

	dir := t.TempDir()
	path := filepath.Join(dir, "recording_20240101_120000.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := m.CopyPath(path); err != nil {
		t.Fatalf("Failed to copy path: %v", err)
	}
	if c.content != path {
		t.Errorf("Expected %s, got %s", path, c.content)
	}

	if err := m.CopyPath(filepath.Join(dir, "missing.wav")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
	if err := m.CopyPath(""); !errors.Is(err, ErrEmpty) {
		t.Errorf("Expected ErrEmpty, got %v", err)
	}
}

func TestSaveRestore(t *testing.T) {
	c := &memClipboard{content: "original"}
	m := newTestManager(c)

	// Restore without Save is a no-op
	if err := m.Restore(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if err := m.Save(); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	m.CopyText("temporary")

	if err := m.Restore(); err != nil {
		t.Fatalf("Failed to restore: %v", err)
	}
	if got, _ := m.Content(); got != "original" {
		t.Errorf("Expected 'original', got %q", got)
	}
}
