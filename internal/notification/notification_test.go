package notification

import (
	"errors"
	"testing"
)

type sent struct {
	kind           string
	title, message string
}

func newTestManager() (*NotificationManager, *[]sent) {
	var log []sent
	nm := NewNotificationManager("TestApp")
	nm.notify = func(title, message string) error {
		log = append(log, sent{"notify", title, message})
		return nil
	}
	nm.alert = func(title, message string) error {
		log = append(log, sent{"alert", title, message})
		return nil
	}
	return nm, &log
}

func TestNewNotificationManager(t *testing.T) {
	nm := NewNotificationManager("TestApp")

	if nm == nil {
		t.Fatal("Expected notification manager to be created")
	}

	if nm.appName != "TestApp" {
		t.Errorf("Expected appName to be TestApp, got %s", nm.appName)
	}

	if !nm.Enabled() {
		t.Error("Expected notifications to be enabled by default")
	}
}

func TestSendTypes(t *testing.T) {
	tests := []struct {
		name     string
		send     func(nm *NotificationManager) error
		expected string
	}{
		{"info", func(nm *NotificationManager) error { return nm.SendInfo("T", "M") }, "notify"},
		{"warning", func(nm *NotificationManager) error { return nm.SendWarning("T", "M") }, "notify"},
		{"success", func(nm *NotificationManager) error { return nm.SendSuccess("T", "M") }, "notify"},
		{"error", func(nm *NotificationManager) error { return nm.SendError("T", "M") }, "alert"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nm, log := newTestManager()
			if err := tt.send(nm); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(*log) != 1 {
				t.Fatalf("Expected 1 notification, got %d", len(*log))
			}
			if (*log)[0].kind != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, (*log)[0].kind)
			}
		})
	}
}

func TestSendNil(t *testing.T) {
	nm, _ := newTestManager()

	if err := nm.Send(nil); err == nil {
		t.Error("Expected error for nil notification")
	}
}

func TestSendDefaultsTitle(t *testing.T) {
	nm, log := newTestManager()

	nm.Send(&Notification{Message: "hello", Type: TypeInfo})

	if (*log)[0].title != "TestApp" {
		t.Errorf("Expected title TestApp, got %s", (*log)[0].title)
	}
}

func TestDisabled(t *testing.T) {
	nm, log := newTestManager()
	nm.SetEnabled(false)

	if err := nm.RecordingStarted(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if len(*log) != 0 {
		t.Errorf("Expected no notifications while disabled, got %d", len(*log))
	}
}

func TestSendError(t *testing.T) {
	nm := NewNotificationManager("TestApp")
	nm.notify = func(string, string) error { return errors.New("no session bus") }

	if err := nm.SendInfo("T", "M"); err == nil {
		t.Error("Expected error to be returned")
	}
}

func TestMessages(t *testing.T) {
	nm, log := newTestManager()

	nm.RecordingSaved("/tmp/data/recording_20240309_140507.wav")
	nm.RecordingTimeExceeded("10m0s")
	nm.PathCopied("/tmp/a.wav")
	nm.DeviceNotFound()

	if len(*log) != 4 {
		t.Fatalf("Expected 4 notifications, got %d", len(*log))
	}
	if (*log)[0].message != "recording_20240309_140507.wav" {
		t.Errorf("Expected file name only, got %q", (*log)[0].message)
	}
	if (*log)[1].message != "Maximum recording time of 10m0s reached" {
		t.Errorf("Unexpected message %q", (*log)[1].message)
	}
	if (*log)[3].kind != "alert" {
		t.Errorf("Expected device error to alert, got %s", (*log)[3].kind)
	}
}
