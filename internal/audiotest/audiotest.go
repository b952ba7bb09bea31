// Package audiotest provides an in-memory audio.Host for tests.
package audiotest

import (
	"errors"
	"sync"
	"time"

	"github.com/yok-tottii/ezaudio/internal/audio"
)

// Host is a fake audio host. The zero value has no devices; use NewHost.
type Host struct {
	mu sync.Mutex

	devices     []*Device
	defaultName string
	noDefault   bool

	// OutputErr makes OpenOutput fail
	OutputErr error
	output    *Output
	outputs   int

	closed bool
}

// NewHost returns a host whose first device is the default input device
func NewHost(devices ...*Device) *Host {
	h := &Host{devices: devices, output: &Output{}}
	if len(devices) > 0 {
		h.defaultName = devices[0].DeviceName
	}
	return h
}

// SetDefault selects the default device by name; "" removes the default
func (h *Host) SetDefault(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.defaultName = name
	h.noDefault = name == ""
}

func (h *Host) Name() string { return "fake" }

func (h *Host) InputDevices() ([]audio.InputDevice, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	res := make([]audio.InputDevice, 0, len(h.devices))
	for _, d := range h.devices {
		res = append(res, d)
	}
	return res, nil
}

func (h *Host) DefaultInputDevice() (audio.InputDevice, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.noDefault {
		return nil, audio.ErrNoDefaultDevice
	}
	for _, d := range h.devices {
		if d.DeviceName == h.defaultName {
			return d, nil
		}
	}
	return nil, audio.ErrNoDefaultDevice
}

func (h *Host) OpenOutput() (audio.Output, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.OutputErr != nil {
		return nil, h.OutputErr
	}
	h.outputs++
	return h.output, nil
}

// OutputOpens reports how many times OpenOutput succeeded
func (h *Host) OutputOpens() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outputs
}

// Output returns the fake output device
func (h *Host) Output() *Output {
	return h.output
}

func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Closed reports whether Close was called
func (h *Host) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Device is a fake input device. Each started stream delivers the chunks
// returned by Feed (or Chunks when Feed is nil) from its own goroutine.
type Device struct {
	DeviceName string
	Config     audio.StreamConfig
	Formats    []audio.SampleFormat

	// ConfigErr makes DefaultConfig and SupportedFormats fail
	ConfigErr error
	// OpenErr makes OpenInput fail
	OpenErr error
	// StartErr makes Stream.Start fail
	StartErr error

	Chunks []audio.Samples
	// Feed returns the chunks for the n-th opened stream (starting at 0)
	Feed func(n int) []audio.Samples
	// ChunkDelay paces delivery
	ChunkDelay time.Duration

	mu      sync.Mutex
	opened  []audio.StreamConfig
	streams []*Stream
}

// NewDevice returns a device with the given default configuration
func NewDevice(name string, channels uint16, rate uint32, format audio.SampleFormat) *Device {
	return &Device{
		DeviceName: name,
		Config:     audio.StreamConfig{Channels: channels, SampleRate: rate, Format: format},
		Formats:    []audio.SampleFormat{format},
	}
}

func (d *Device) Name() string { return d.DeviceName }

func (d *Device) DefaultConfig() (audio.StreamConfig, error) {
	if d.ConfigErr != nil {
		return audio.StreamConfig{}, d.ConfigErr
	}
	return d.Config, nil
}

func (d *Device) SupportedFormats() ([]audio.SampleFormat, error) {
	if d.ConfigErr != nil {
		return nil, d.ConfigErr
	}
	return d.Formats, nil
}

func (d *Device) OpenInput(cfg audio.StreamConfig, onData func(audio.Samples), onError func(error)) (audio.Stream, error) {
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	chunks := d.Chunks
	if d.Feed != nil {
		chunks = d.Feed(len(d.opened))
	}
	d.opened = append(d.opened, cfg)

	s := &Stream{
		chunks:    chunks,
		delay:     d.ChunkDelay,
		startErr:  d.StartErr,
		onData:    onData,
		stop:      make(chan struct{}),
		delivered: make(chan struct{}),
	}
	d.streams = append(d.streams, s)
	return s, nil
}

// Opened returns the configurations passed to OpenInput so far
func (d *Device) Opened() []audio.StreamConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]audio.StreamConfig(nil), d.opened...)
}

// LastStream returns the most recently opened stream, or nil
func (d *Device) LastStream() *Stream {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.streams) == 0 {
		return nil
	}
	return d.streams[len(d.streams)-1]
}

// WaitDelivered waits until the most recent stream has delivered all chunks
func (d *Device) WaitDelivered(timeout time.Duration) bool {
	s := d.LastStream()
	if s == nil {
		return false
	}
	select {
	case <-s.delivered:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Stream is a fake capture stream
type Stream struct {
	chunks   []audio.Samples
	delay    time.Duration
	startErr error
	onData   func(audio.Samples)

	mu        sync.Mutex
	started   bool
	closed    bool
	stop      chan struct{}
	delivered chan struct{}
	wg        sync.WaitGroup
}

func (s *Stream) Start() error {
	if s.startErr != nil {
		return s.startErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("stream closed")
	}
	if s.started {
		return nil
	}
	s.started = true

	s.wg.Add(1)
	go s.run()
	return nil
}

func (s *Stream) run() {
	defer s.wg.Done()
	defer close(s.delivered)

	for _, chunk := range s.chunks {
		if s.delay > 0 {
			select {
			case <-time.After(s.delay):
			case <-s.stop:
				return
			}
		}

		select {
		case <-s.stop:
			return
		default:
		}
		s.onData(chunk)
	}
}

// Close stops delivery; no callback runs after it returns
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Closed reports whether Close was called
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Output is a fake output device that records every sink it opens
type Output struct {
	// SinkErr makes OpenSink fail
	SinkErr error
	// WriteDelay is slept on every Write
	WriteDelay time.Duration

	mu    sync.Mutex
	sinks []*Sink
}

func (o *Output) Name() string { return "fake output" }

func (o *Output) OpenSink(channels, sampleRate int) (audio.Sink, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.SinkErr != nil {
		return nil, o.SinkErr
	}
	s := &Sink{Channels: channels, SampleRate: sampleRate, delay: o.WriteDelay}
	o.sinks = append(o.sinks, s)
	return s, nil
}

// Sinks returns every sink opened so far
func (o *Output) Sinks() []*Sink {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Sink(nil), o.sinks...)
}

// Sink records written samples
type Sink struct {
	Channels   int
	SampleRate int
	delay      time.Duration

	mu      sync.Mutex
	samples []float32
	drained bool
	aborted bool
}

func (s *Sink) Write(samples []float32) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, samples...)
	return nil
}

func (s *Sink) Drain() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drained = true
	return nil
}

func (s *Sink) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborted = true
	return nil
}

// Samples returns everything written to the sink
func (s *Sink) Samples() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float32(nil), s.samples...)
}

// Drained reports whether the sink was drained
func (s *Sink) Drained() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drained
}

// Aborted reports whether the sink was aborted
func (s *Sink) Aborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted
}

// Silence returns n zero-valued i16 samples split into chunks of size chunk
func Silence(n, chunk int) []audio.Samples {
	return Constant(n, chunk, 0)
}

// Constant returns n i16 samples of value v split into chunks of size chunk
func Constant(n, chunk int, v int16) []audio.Samples {
	var res []audio.Samples
	for n > 0 {
		size := chunk
		if size > n {
			size = n
		}
		c := make(audio.I16Samples, size)
		for i := range c {
			c[i] = v
		}
		res = append(res, c)
		n -= size
	}
	return res
}
