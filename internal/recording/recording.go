package recording

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yok-tottii/ezaudio/internal/audio"
	"github.com/yok-tottii/ezaudio/internal/config"
)

var (
	// ErrAlreadyRecording is returned by Start unless the session is Idle
	ErrAlreadyRecording = errors.New("already recording")
	// ErrNotRecording is returned by Stop unless the session is Active
	ErrNotRecording = errors.New("not recording")
)

// State represents the current recording state
type State int

const (
	// Idle means no capture goroutine exists
	Idle State = iota
	// Starting means the capture goroutine is opening the device
	Starting
	// Active means samples are being captured
	Active
	// Stopping means the capture goroutine is shutting the stream down
	Stopping
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Starting:
		return "Starting"
	case Active:
		return "Active"
	case Stopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}

// Logger is the subset of the application logger used by this package
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// ConfigLoader provides the saved audio preference; config.Store implements it
type ConfigLoader interface {
	Load() (*config.SavedAudioConfig, error)
}

// Result is the audio captured by one session
type Result struct {
	Samples    []int16
	Channels   uint16
	SampleRate uint32
	Device     string
	Duration   time.Duration
}

// Session owns the capture goroutine, the shared sample buffer and the
// recording state machine. At most one capture goroutine exists at a time.
type Session struct {
	host  audio.Host
	store ConfigLoader
	log   Logger

	mu    sync.Mutex
	state State
	stop  chan struct{}
	done  chan struct{}

	// capturing gates the driver callback
	capturing atomic.Bool

	bufMu      sync.Mutex
	buf        []int16
	channels   uint16
	sampleRate uint32
	device     string
	startedAt  time.Time
}

// New creates an idle session
func New(host audio.Host, store ConfigLoader, log Logger) *Session {
	return &Session{
		host:  host,
		store: store,
		log:   log,
		state: Idle,
	}
}

// Start opens the input device and begins capturing. It returns once the
// stream is running, or with the error that prevented it from starting, in
// which case the session is Idle again.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state != Idle {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w (current state: %s)", ErrAlreadyRecording, state)
	}
	s.state = Starting
	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done = stop, done
	s.mu.Unlock()

	// Reset before the flag can turn on
	s.bufMu.Lock()
	s.buf = nil
	s.bufMu.Unlock()

	ready := make(chan error, 1)
	go s.capture(stop, done, ready)

	if err := <-ready; err != nil {
		<-done
		s.mu.Lock()
		s.state = Idle
		s.stop, s.done = nil, nil
		s.mu.Unlock()

		s.log.Error("Failed to start recording: %v", err)
		return err
	}

	s.mu.Lock()
	s.state = Active
	s.mu.Unlock()
	return nil
}

// capture runs for the lifetime of one session. It reports on ready exactly
// once and keeps the stream open until stop is closed.
func (s *Session) capture(stop <-chan struct{}, done chan<- struct{}, ready chan<- error) {
	defer close(done)

	reported := false
	report := func(err error) {
		if !reported {
			reported = true
			ready <- err
		}
	}

	defer func() {
		if r := recover(); r != nil {
			s.capturing.Store(false)
			s.log.Error("Capture goroutine panicked: %v", r)
			report(fmt.Errorf("capture goroutine panicked: %v", r))
		}
	}()

	stream, err := s.openStream()
	if err != nil {
		report(err)
		return
	}
	defer func() {
		if err := stream.Close(); err != nil {
			s.log.Warn("Failed to close input stream: %v", err)
		}
	}()

	if err := stream.Start(); err != nil {
		report(fmt.Errorf("%w: %v", audio.ErrStreamBuild, err))
		return
	}

	s.bufMu.Lock()
	s.startedAt = time.Now()
	s.bufMu.Unlock()

	s.capturing.Store(true)
	report(nil)

	<-stop

	// Callbacks still in flight see the flag off; Close ends the rest
	s.capturing.Store(false)
}

// openStream resolves the device and effective configuration and builds the stream
func (s *Session) openStream() (audio.Stream, error) {
	var saved *config.SavedAudioConfig
	if s.store != nil {
		var err error
		saved, err = s.store.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load audio config: %w", err)
		}
	}

	deviceName := ""
	if saved != nil {
		deviceName = saved.DeviceName
	}

	dev, err := audio.FindInputDevice(s.host, deviceName)
	if err != nil {
		return nil, err
	}
	if deviceName != "" && dev.Name() != deviceName {
		s.log.Warn("Saved input device %q not found, using default %q", deviceName, dev.Name())
	}

	devCfg, err := dev.DefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get default input config of %q: %w", dev.Name(), err)
	}
	if err := audio.CheckFormat(devCfg.Format); err != nil {
		return nil, err
	}

	channels, rate := config.ResolveEffective(saved, devCfg.Channels, devCfg.SampleRate)
	cfg := audio.StreamConfig{Channels: channels, SampleRate: rate, Format: devCfg.Format}

	s.bufMu.Lock()
	s.channels = channels
	s.sampleRate = rate
	s.device = dev.Name()
	s.bufMu.Unlock()

	s.log.Info("Opening input %q: %d ch, %d Hz, %s", dev.Name(), channels, rate, cfg.Format)

	stream, err := dev.OpenInput(cfg, s.onData, s.onStreamError)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// onData runs on the driver's callback goroutine
func (s *Session) onData(samples audio.Samples) {
	if !s.capturing.Load() {
		return
	}

	s.bufMu.Lock()
	s.buf = samples.AppendPCM16(s.buf)
	s.bufMu.Unlock()
}

func (s *Session) onStreamError(err error) {
	s.log.Warn("Input stream error: %v", err)
}

// Stop ends the active session and returns everything it captured
func (s *Session) Stop() (Result, error) {
	s.mu.Lock()
	if s.state != Active {
		state := s.state
		s.mu.Unlock()
		return Result{}, fmt.Errorf("%w (current state: %s)", ErrNotRecording, state)
	}
	s.state = Stopping
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done

	s.bufMu.Lock()
	res := Result{
		Samples:    s.buf,
		Channels:   s.channels,
		SampleRate: s.sampleRate,
		Device:     s.device,
		Duration:   time.Since(s.startedAt),
	}
	s.bufMu.Unlock()

	s.mu.Lock()
	s.state = Idle
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	s.log.Info("Recording stopped: %d samples (%d ch, %d Hz) in %v",
		len(res.Samples), res.Channels, res.SampleRate, res.Duration.Round(time.Millisecond))
	return res, nil
}

// State returns the current recording state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsRecording reports whether a session is Active
func (s *Session) IsRecording() bool {
	return s.State() == Active
}

// Buffered returns the number of samples captured so far in this session
func (s *Session) Buffered() int {
	s.bufMu.Lock()
	defer s.bufMu.Unlock()
	return len(s.buf)
}

// Effective returns the channel count and sample rate of the most recent session
func (s *Session) Effective() (uint16, uint32) {
	s.bufMu.Lock()
	defer s.bufMu.Unlock()
	return s.channels, s.sampleRate
}
