// Package engine wires recording, playback, device enumeration and the
// config store into the command set exposed to the host application.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yok-tottii/ezaudio/internal/audio"
	"github.com/yok-tottii/ezaudio/internal/codec"
	"github.com/yok-tottii/ezaudio/internal/config"
	"github.com/yok-tottii/ezaudio/internal/events"
	"github.com/yok-tottii/ezaudio/internal/metrics"
	"github.com/yok-tottii/ezaudio/internal/playback"
	"github.com/yok-tottii/ezaudio/internal/recording"
	"github.com/yok-tottii/ezaudio/internal/wavfile"
)

// ErrConflict is returned for commands that are not allowed in the current
// session state
var ErrConflict = errors.New("conflict")

// Logger is the subset of the application logger used by the engine
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Options configures an Engine
type Options struct {
	Host    audio.Host
	DataDir string
	Events  *events.Hub
	Metrics *metrics.Metrics
	Codecs  *codec.Registry

	// MaxRecording stops a recording automatically; 0 disables the limit
	MaxRecording time.Duration

	// Log is the engine logger; RecordingLog and PlaybackLog default to it
	Log          Logger
	RecordingLog Logger
	PlaybackLog  Logger
}

// RecordingResponse is the result of StopRecording
type RecordingResponse struct {
	Path  string `json:"path"`
	Error string `json:"error,omitempty"`
}

// PlaybackResponse is the result of the playback commands
type PlaybackResponse struct {
	IsPlaying bool   `json:"is_playing"`
	Token     string `json:"token,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Engine is the context object shared by every command handler
type Engine struct {
	host     audio.Host
	store    *config.Store
	recorder *recording.Session
	player   *playback.Player
	hub      *events.Hub
	metrics  *metrics.Metrics
	log      Logger

	dataDir      string
	maxRecording time.Duration
	now          func() time.Time

	// mu orders recorder Start against Stop and guards the fields below
	mu            sync.Mutex
	autoStop      *time.Timer
	session       uint64
	lastRecording string
}

// New creates an engine around an initialized audio host
func New(opts Options) *Engine {
	if opts.Log == nil {
		opts.Log = nopLogger{}
	}
	if opts.RecordingLog == nil {
		opts.RecordingLog = opts.Log
	}
	if opts.PlaybackLog == nil {
		opts.PlaybackLog = opts.Log
	}
	if opts.Events == nil {
		opts.Events = events.NewHub(opts.Log)
	}
	if opts.DataDir == "" {
		opts.DataDir = config.DefaultDataDir()
	}

	store := config.NewStore(opts.DataDir)

	return &Engine{
		host:     opts.Host,
		store:    store,
		recorder: recording.New(opts.Host, store, opts.RecordingLog),
		player: playback.New(playback.Config{
			Host:    opts.Host,
			Codecs:  opts.Codecs,
			Events:  opts.Events,
			Metrics: opts.Metrics,
			Log:     opts.PlaybackLog,
		}),
		hub:          opts.Events,
		metrics:      opts.Metrics,
		log:          opts.Log,
		dataDir:      opts.DataDir,
		maxRecording: opts.MaxRecording,
		now:          time.Now,
	}
}

// Events returns the event hub
func (e *Engine) Events() *events.Hub { return e.hub }

// Store returns the audio config store
func (e *Engine) Store() *config.Store { return e.store }

// DataDir returns the directory recordings are written to
func (e *Engine) DataDir() string { return e.dataDir }

// StartRecording begins a recording session
func (e *Engine) StartRecording() error {
	e.mu.Lock()
	if err := e.recorder.Start(); err != nil {
		e.mu.Unlock()
		e.metrics.RecordingFailed()
		return err
	}
	e.session++
	if e.maxRecording > 0 {
		session := e.session
		e.autoStop = time.AfterFunc(e.maxRecording, func() { e.onMaxDuration(session) })
	}
	e.mu.Unlock()

	e.metrics.RecordingStarted()
	e.hub.Emit(events.Event{Name: events.RecordingStarted})
	return nil
}

// onMaxDuration stops session if it is still the active one
func (e *Engine) onMaxDuration(session uint64) {
	_, err := e.stopSession(session, events.ReasonMaxDuration)
	if errors.Is(err, errStaleSession) || errors.Is(err, recording.ErrNotRecording) {
		return
	}
	if err != nil {
		e.log.Error("Auto-stop recording failed: %v", err)
	}
}

// StopRecording ends the session and writes it to a timestamped WAV file
func (e *Engine) StopRecording() (RecordingResponse, error) {
	return e.stopSession(0, "")
}

// errStaleSession is returned to a timer whose session already ended
var errStaleSession = errors.New("recording session already ended")

// stopSession stops the active recording. A non-zero session must match the
// active one.
func (e *Engine) stopSession(session uint64, reason string) (RecordingResponse, error) {
	e.mu.Lock()
	if session != 0 && session != e.session {
		e.mu.Unlock()
		return RecordingResponse{}, errStaleSession
	}
	res, err := e.recorder.Stop()
	if err != nil {
		e.mu.Unlock()
		return RecordingResponse{}, err
	}
	if e.autoStop != nil {
		e.autoStop.Stop()
		e.autoStop = nil
	}
	// Invalidates a timer that already fired for this session
	e.session++
	e.mu.Unlock()

	if reason == events.ReasonMaxDuration {
		e.log.Info("Maximum recording time %v reached, stopped", e.maxRecording)
	}

	e.metrics.RecordingFinished(len(res.Samples), res.Duration.Seconds())

	if len(res.Samples) == 0 {
		e.log.Warn("No audio captured, writing one second of silence")
	}

	path, err := wavfile.WriteRecording(e.dataDir, e.now(), res.Samples, res.Channels, res.SampleRate)
	if err != nil {
		e.log.Error("Failed to write recording: %v", err)
		e.hub.Emit(events.Event{
			Name:    events.RecordingStopped,
			Payload: events.RecordingStoppedPayload{Error: err.Error(), Reason: reason},
		})
		return RecordingResponse{}, err
	}

	e.mu.Lock()
	e.lastRecording = path
	e.mu.Unlock()

	e.log.Info("Recording saved to %s", path)
	e.hub.Emit(events.Event{
		Name:    events.RecordingStopped,
		Payload: events.RecordingStoppedPayload{Path: path, Reason: reason},
	})
	return RecordingResponse{Path: path}, nil
}

// IsRecording reports whether a recording session is active
func (e *Engine) IsRecording() bool {
	return e.recorder.IsRecording()
}

// RecordingState returns the recorder's state machine position
func (e *Engine) RecordingState() recording.State {
	return e.recorder.State()
}

// LastRecording returns the path of the most recent recording, or ""
func (e *Engine) LastRecording() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastRecording
}

// Devices lists the input devices and the default device's configuration
func (e *Engine) Devices() (audio.DeviceReport, error) {
	return audio.ListDevices(e.host, e.log)
}

// SetConfig validates and persists an audio preference. It is rejected
// while a recording session exists.
func (e *Engine) SetConfig(cfg config.SavedAudioConfig) error {
	if state := e.recorder.State(); state != recording.Idle {
		return fmt.Errorf("%w: cannot change audio config while recording (current state: %s)", ErrConflict, state)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := e.store.Save(cfg); err != nil {
		return err
	}
	e.log.Info("Audio config saved: device=%q channels=%d sample_rate=%d", cfg.DeviceName, cfg.Channels, cfg.SampleRate)
	return nil
}

// CurrentConfig returns the device and effective format the next recording
// would use
func (e *Engine) CurrentConfig() (audio.DeviceInfo, error) {
	saved, err := e.store.Load()
	if err != nil {
		return audio.DeviceInfo{}, err
	}

	name := ""
	if saved != nil {
		name = saved.DeviceName
	}
	dev, err := audio.FindInputDevice(e.host, name)
	if err != nil {
		return audio.DeviceInfo{}, err
	}

	info, err := audio.Describe(dev)
	if err != nil {
		return audio.DeviceInfo{}, err
	}
	info.Channels, info.SampleRate = config.ResolveEffective(saved, info.Channels, info.SampleRate)
	return info, nil
}

// Play starts playing the file at path
func (e *Engine) Play(path string) (PlaybackResponse, error) {
	return e.play(playback.Source{Path: path})
}

// PlayBlob plays in-memory audio; mimeType hints the codec
func (e *Engine) PlayBlob(data []byte, mimeType string) (PlaybackResponse, error) {
	if data == nil {
		data = []byte{}
	}
	return e.play(playback.Source{Data: data, MIME: mimeType})
}

func (e *Engine) play(src playback.Source) (PlaybackResponse, error) {
	token, err := e.player.Play(src)
	if err != nil {
		return PlaybackResponse{IsPlaying: false, Error: err.Error()}, err
	}
	return PlaybackResponse{IsPlaying: true, Token: string(token)}, nil
}

// StopPlayback cancels the current playback
func (e *Engine) StopPlayback() PlaybackResponse {
	token := e.player.Stop()
	return PlaybackResponse{IsPlaying: false, Token: string(token)}
}

// IsPlaying reports whether a playback is current
func (e *Engine) IsPlaying() bool {
	return e.player.IsPlaying()
}

// Playback returns the current playback state
func (e *Engine) Playback() PlaybackResponse {
	token := e.player.Current()
	return PlaybackResponse{IsPlaying: token != "", Token: string(token)}
}

// PlaybackDone returns a channel closed when the playback has completed
func (e *Engine) PlaybackDone(token string) <-chan struct{} {
	return e.player.Done(playback.Token(token))
}

// Close stops any active session, waits for playback goroutines and
// releases the audio host
func (e *Engine) Close() error {
	if e.recorder.IsRecording() {
		if _, err := e.StopRecording(); err != nil {
			e.log.Warn("Failed to save recording on shutdown: %v", err)
		}
	}

	e.player.Close()
	e.hub.Close()

	if e.host != nil {
		return e.host.Close()
	}
	return nil
}
