// Package notification shows desktop notifications for recording and
// playback outcomes.
package notification

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gen2brain/beeep"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	// TypeInfo is an informational notification
	TypeInfo NotificationType = "info"
	// TypeWarning is a warning notification
	TypeWarning NotificationType = "warning"
	// TypeError is an error notification
	TypeError NotificationType = "error"
	// TypeSuccess is a success notification
	TypeSuccess NotificationType = "success"
)

// Notification is a single desktop notification
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
}

// NotificationManager handles sending notifications to the user
type NotificationManager struct {
	appName string

	mu      sync.RWMutex
	enabled bool

	// notify shows a passive notification, alert one that also plays a sound
	notify func(title, message string) error
	alert  func(title, message string) error
}

// NewNotificationManager creates a new notification manager
func NewNotificationManager(appName string) *NotificationManager {
	return &NotificationManager{
		appName: appName,
		enabled: true,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		alert: func(title, message string) error {
			return beeep.Alert(title, message, "")
		},
	}
}

// SetEnabled turns notifications on or off
func (nm *NotificationManager) SetEnabled(enabled bool) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.enabled = enabled
}

// Enabled reports whether notifications are shown
func (nm *NotificationManager) Enabled() bool {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	return nm.enabled
}

// Send shows a notification. Errors raise an alert, everything else is passive.
func (nm *NotificationManager) Send(notification *Notification) error {
	if notification == nil {
		return fmt.Errorf("notification cannot be nil")
	}
	if !nm.Enabled() {
		return nil
	}

	title := notification.Title
	if title == "" {
		title = nm.appName
	}

	show := nm.notify
	if notification.Type == TypeError {
		show = nm.alert
	}
	if err := show(title, notification.Message); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// SendInfo sends an informational notification
func (nm *NotificationManager) SendInfo(title, message string) error {
	return nm.Send(&Notification{Title: title, Message: message, Type: TypeInfo})
}

// SendWarning sends a warning notification
func (nm *NotificationManager) SendWarning(title, message string) error {
	return nm.Send(&Notification{Title: title, Message: message, Type: TypeWarning})
}

// SendError sends an error notification
func (nm *NotificationManager) SendError(title, message string) error {
	return nm.Send(&Notification{Title: title, Message: message, Type: TypeError})
}

// SendSuccess sends a success notification
func (nm *NotificationManager) SendSuccess(title, message string) error {
	return nm.Send(&Notification{Title: title, Message: message, Type: TypeSuccess})
}

// RecordingStarted notifies that capture has begun
func (nm *NotificationManager) RecordingStarted() error {
	return nm.SendInfo(nm.appName, "Recording started")
}

// RecordingSaved notifies that a recording was written to path
func (nm *NotificationManager) RecordingSaved(path string) error {
	return nm.SendSuccess("Recording saved", filepath.Base(path))
}

// RecordingFailed notifies that a recording could not be started or saved
func (nm *NotificationManager) RecordingFailed(reason string) error {
	return nm.SendError("Recording failed", reason)
}

// RecordingTimeExceeded notifies that a recording hit its maximum duration
func (nm *NotificationManager) RecordingTimeExceeded(limit string) error {
	return nm.SendWarning("Recording stopped", fmt.Sprintf("Maximum recording time of %s reached", limit))
}

// PlaybackFailed notifies that a file could not be played
func (nm *NotificationManager) PlaybackFailed(reason string) error {
	return nm.SendError("Playback failed", reason)
}

// DeviceNotFound notifies that no usable audio device was found
func (nm *NotificationManager) DeviceNotFound() error {
	return nm.SendError("No audio device", "Connect a microphone and check the input device setting")
}

// PathCopied notifies that a recording path is on the clipboard
func (nm *NotificationManager) PathCopied(path string) error {
	return nm.SendInfo("Path copied", path)
}
