//go:build cgo && !noaudio

package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// framesPerBuffer is the callback/blocking-write period in frames
const framesPerBuffer = 1024

func init() {
	registerBackend(BackendPortAudio, newPortAudioHost)
}

// portAudioHost implements Host using PortAudio
type portAudioHost struct {
	log Logger

	mu     sync.Mutex
	closed bool
}

func newPortAudioHost(log Logger) (Host, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &portAudioHost{log: log}, nil
}

func (h *portAudioHost) Name() string { return BackendPortAudio }

func (h *portAudioHost) InputDevices() ([]InputDevice, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	var result []InputDevice
	for _, dev := range devices {
		// Only include devices with input channels
		if dev.MaxInputChannels > 0 {
			result = append(result, &portAudioInput{info: dev})
		}
	}
	return result, nil
}

func (h *portAudioHost) DefaultInputDevice() (InputDevice, error) {
	dev, err := portaudio.DefaultInputDevice()
	if err != nil || dev == nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDefaultDevice, err)
	}
	if dev.MaxInputChannels <= 0 {
		return nil, fmt.Errorf("%w: default device %q has no input channels", ErrNoDefaultDevice, dev.Name)
	}
	return &portAudioInput{info: dev}, nil
}

func (h *portAudioHost) OpenOutput() (Output, error) {
	dev, err := portaudio.DefaultOutputDevice()
	if err != nil || dev == nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputUnavailable, err)
	}
	h.log.Debug("Using output device %q", dev.Name)
	return &portAudioOutput{info: dev}, nil
}

func (h *portAudioHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// portAudioInput is an input-capable PortAudio device
type portAudioInput struct {
	info *portaudio.DeviceInfo
}

func (d *portAudioInput) Name() string { return d.info.Name }

func (d *portAudioInput) channels() int {
	if d.info.MaxInputChannels >= 2 {
		return 2
	}
	return 1
}

func (d *portAudioInput) params(channels int, sampleRate float64) portaudio.StreamParameters {
	return portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   d.info,
			Channels: channels,
			Latency:  d.info.DefaultHighInputLatency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: framesPerBuffer,
	}
}

// probeCallbacks maps each probed format to a callback of the matching type
var probeCallbacks = []struct {
	format SampleFormat
	cb     interface{}
}{
	{FormatF32, func([]float32) {}},
	{FormatI32, func([]int32) {}},
	{FormatI16, func([]int16) {}},
	{FormatI8, func([]int8) {}},
	{FormatU8, func([]uint8) {}},
}

func (d *portAudioInput) SupportedFormats() ([]SampleFormat, error) {
	params := d.params(d.channels(), d.info.DefaultSampleRate)

	var formats []SampleFormat
	for _, probe := range probeCallbacks {
		if err := portaudio.IsFormatSupported(params, probe.cb); err == nil {
			formats = append(formats, probe.format)
		}
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("device %q accepts none of the probed formats", d.info.Name)
	}
	return formats, nil
}

func (d *portAudioInput) DefaultConfig() (StreamConfig, error) {
	formats, err := d.SupportedFormats()
	if err != nil {
		return StreamConfig{}, err
	}

	// Prefer a format the converter understands
	format := formats[0]
	for _, f := range formats {
		if CheckFormat(f) == nil {
			format = f
			break
		}
	}

	return StreamConfig{
		Channels:   uint16(d.channels()),
		SampleRate: uint32(d.info.DefaultSampleRate),
		Format:     format,
	}, nil
}

func (d *portAudioInput) OpenInput(cfg StreamConfig, onData func(Samples), onError func(error)) (Stream, error) {
	var callback interface{}
	switch cfg.Format {
	case FormatI16:
		callback = func(in []int16) { onData(I16Samples(in)) }
	case FormatF32:
		callback = func(in []float32) { onData(F32Samples(in)) }
	case FormatU8:
		callback = func(in []uint8) { onData(U8Samples(in)) }
	default:
		return nil, fmt.Errorf("%w: %s on portaudio", ErrUnsupportedFormat, cfg.Format)
	}

	params := d.params(int(cfg.Channels), float64(cfg.SampleRate))
	stream, err := portaudio.OpenStream(params, callback)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStreamBuild, err)
	}

	return &portAudioStream{stream: stream, onError: onError}, nil
}

// portAudioStream wraps a callback-driven capture stream
type portAudioStream struct {
	stream  *portaudio.Stream
	onError func(error)
	started bool
}

func (s *portAudioStream) Start() error {
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}
	s.started = true
	return nil
}

func (s *portAudioStream) Close() error {
	if s.started {
		if err := s.stream.Stop(); err != nil && s.onError != nil {
			s.onError(fmt.Errorf("failed to stop stream: %w", err))
		}
		s.started = false
	}
	if err := s.stream.Close(); err != nil {
		return fmt.Errorf("failed to close stream: %w", err)
	}
	return nil
}

// portAudioOutput is the default output device
type portAudioOutput struct {
	info *portaudio.DeviceInfo
}

func (o *portAudioOutput) Name() string { return o.info.Name }

func (o *portAudioOutput) OpenSink(channels, sampleRate int) (Sink, error) {
	buf := make([]float32, framesPerBuffer*channels)
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   o.info,
			Channels: channels,
			Latency:  o.info.DefaultHighOutputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: framesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStreamBuild, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start output stream: %w", err)
	}

	return &portAudioSink{stream: stream, buf: buf}, nil
}

// portAudioSink writes through a blocking PortAudio stream
type portAudioSink struct {
	stream *portaudio.Stream
	buf    []float32
	fill   int
}

func (s *portAudioSink) Write(samples []float32) error {
	for len(samples) > 0 {
		n := copy(s.buf[s.fill:], samples)
		s.fill += n
		samples = samples[n:]

		if s.fill == len(s.buf) {
			if err := s.stream.Write(); err != nil {
				return fmt.Errorf("failed to write output stream: %w", err)
			}
			s.fill = 0
		}
	}
	return nil
}

func (s *portAudioSink) Drain() error {
	if s.fill > 0 {
		for i := s.fill; i < len(s.buf); i++ {
			s.buf[i] = 0
		}
		s.fill = 0
		if err := s.stream.Write(); err != nil {
			s.stream.Close()
			return fmt.Errorf("failed to write output stream: %w", err)
		}
	}

	// Stop blocks until queued buffers have played
	if err := s.stream.Stop(); err != nil {
		s.stream.Close()
		return fmt.Errorf("failed to stop output stream: %w", err)
	}
	return s.stream.Close()
}

func (s *portAudioSink) Abort() error {
	if err := s.stream.Abort(); err != nil {
		s.stream.Close()
		return fmt.Errorf("failed to abort output stream: %w", err)
	}
	return s.stream.Close()
}
