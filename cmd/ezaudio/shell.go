package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yok-tottii/ezaudio/internal/audio"
	"github.com/yok-tottii/ezaudio/internal/config"
	"github.com/yok-tottii/ezaudio/internal/engine"
	"github.com/yok-tottii/ezaudio/internal/events"
	"github.com/yok-tottii/ezaudio/internal/hotkey"
	"github.com/yok-tottii/ezaudio/internal/recording"
	"github.com/yok-tottii/ezaudio/internal/tray"
)

// notifier is the subset of notification.NotificationManager used by the shell
type notifier interface {
	RecordingStarted() error
	RecordingSaved(path string) error
	RecordingFailed(reason string) error
	RecordingTimeExceeded(limit string) error
	PlaybackFailed(reason string) error
	DeviceNotFound() error
	PathCopied(path string) error
}

type trayView interface {
	SetState(state tray.State)
	SetLastRecording(path string)
	UpdateDeviceMenu(devices []tray.Device)
}

type pathCopier interface {
	CopyPath(path string) error
}

type shellLogger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// shell connects the engine to the desktop: hotkey, tray and notifications
type shell struct {
	engine       *engine.Engine
	notify       notifier
	clip         pathCopier
	log          shellLogger
	maxRecording time.Duration

	mu   sync.Mutex
	tray trayView
}

func (s *shell) setTray(t trayView) {
	s.mu.Lock()
	s.tray = t
	s.mu.Unlock()
}

func (s *shell) trayView() trayView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tray
}

func (s *shell) warnNotify(err error) {
	if err != nil {
		s.log.Debug("Notification failed: %v", err)
	}
}

func (s *shell) startRecording() {
	err := s.engine.StartRecording()
	switch {
	case err == nil:
	case errors.Is(err, recording.ErrAlreadyRecording):
		s.log.Debug("Recording already active")
	case errors.Is(err, audio.ErrNoDefaultDevice):
		s.log.Error("Failed to start recording: %v", err)
		s.warnNotify(s.notify.DeviceNotFound())
	default:
		s.log.Error("Failed to start recording: %v", err)
		s.warnNotify(s.notify.RecordingFailed(err.Error()))
	}
}

func (s *shell) stopRecording() {
	_, err := s.engine.StopRecording()
	switch {
	case err == nil:
	case errors.Is(err, recording.ErrNotRecording):
		s.log.Debug("No recording to stop")
	default:
		// recording-stopped already reported write failures
		s.log.Error("Failed to stop recording: %v", err)
	}
}

func (s *shell) toggleRecording() {
	if s.engine.IsRecording() {
		s.stopRecording()
	} else {
		s.startRecording()
	}
}

func (s *shell) handleHotkey(ev hotkey.Event) {
	switch ev.Type {
	case hotkey.Pressed:
		s.log.Info("Hotkey pressed, starting recording")
		s.startRecording()
	case hotkey.Released:
		s.log.Info("Hotkey released, stopping recording")
		s.stopRecording()
	}
}

func (s *shell) watchHotkeys(ctx context.Context, ch <-chan hotkey.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			s.handleHotkey(ev)
		}
	}
}

func (s *shell) currentState() tray.State {
	switch {
	case s.engine.IsRecording():
		return tray.StateRecording
	case s.engine.IsPlaying():
		return tray.StatePlaying
	default:
		return tray.StateIdle
	}
}

func (s *shell) handleEvent(ev events.Event) {
	t := s.trayView()

	switch ev.Name {
	case events.RecordingStarted:
		s.warnNotify(s.notify.RecordingStarted())

	case events.RecordingStopped:
		payload, _ := ev.Payload.(events.RecordingStoppedPayload)
		switch {
		case payload.Error != "":
			s.warnNotify(s.notify.RecordingFailed(payload.Error))
		case payload.Reason == events.ReasonMaxDuration:
			s.warnNotify(s.notify.RecordingTimeExceeded(s.maxRecording.String()))
		default:
			s.warnNotify(s.notify.RecordingSaved(payload.Path))
		}
		if payload.Path != "" && t != nil {
			t.SetLastRecording(payload.Path)
		}

	case events.PlaybackCompleted:
		payload, _ := ev.Payload.(events.PlaybackCompletedPayload)
		if payload.Error != "" {
			s.warnNotify(s.notify.PlaybackFailed(payload.Error))
		}
	}

	if t != nil {
		t.SetState(s.currentState())
	}
}

// watchEvents applies hub events until ctx is done or the hub closes
func (s *shell) watchEvents(ctx context.Context, ch <-chan events.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			s.handleEvent(ev)
		}
	}
}

func (s *shell) playLast() {
	path := s.engine.LastRecording()
	if path == "" {
		return
	}
	if _, err := s.engine.Play(path); err != nil {
		s.log.Error("Failed to play %s: %v", path, err)
		s.warnNotify(s.notify.PlaybackFailed(err.Error()))
	}
}

func (s *shell) copyLastPath() {
	path := s.engine.LastRecording()
	if path == "" {
		return
	}
	if err := s.clip.CopyPath(path); err != nil {
		s.log.Error("Failed to copy path: %v", err)
		return
	}
	s.warnNotify(s.notify.PathCopied(path))
}

// selectDevice saves name as the input device, keeping the current format
// when it is valid
func (s *shell) selectDevice(name string) {
	cfg := config.SavedAudioConfig{DeviceName: name, Channels: 1, SampleRate: 44100}
	if info, err := s.engine.CurrentConfig(); err == nil {
		if config.Validate(info.Channels, info.SampleRate) == nil {
			cfg.Channels, cfg.SampleRate = info.Channels, info.SampleRate
		}
	}

	if err := s.engine.SetConfig(cfg); err != nil {
		s.log.Error("Failed to select %q: %v", name, err)
		s.warnNotify(s.notify.RecordingFailed(err.Error()))
		return
	}
	s.log.Info("Input device set to %q", name)
	s.refreshDevices()
}

func (s *shell) deviceEntries() ([]tray.Device, error) {
	report, err := s.engine.Devices()
	if err != nil {
		return nil, err
	}

	current := report.Default.Name
	if info, err := s.engine.CurrentConfig(); err == nil {
		current = info.Name
	}

	entries := make([]tray.Device, 0, len(report.Devices))
	for _, d := range report.Devices {
		entries = append(entries, tray.Device{
			Name:      d.Name,
			IsDefault: d.Name == report.Default.Name,
			IsCurrent: d.Name == current,
		})
	}
	return entries, nil
}

func (s *shell) refreshDevices() {
	t := s.trayView()
	if t == nil {
		return
	}
	entries, err := s.deviceEntries()
	if err != nil {
		s.log.Warn("Failed to list input devices: %v", err)
		return
	}
	t.UpdateDeviceMenu(entries)
}
