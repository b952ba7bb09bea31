//go:build cgo && !noaudio

package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// periodSizeMS is the malgo device period
const periodSizeMS = 20

func init() {
	registerBackend(BackendMalgo, newMalgoHost)
}

func toMalgoFormat(f SampleFormat) (malgo.FormatType, bool) {
	switch f {
	case FormatU8:
		return malgo.FormatU8, true
	case FormatI16:
		return malgo.FormatS16, true
	case FormatI24:
		return malgo.FormatS24, true
	case FormatI32:
		return malgo.FormatS32, true
	case FormatF32:
		return malgo.FormatF32, true
	default:
		return malgo.FormatUnknown, false
	}
}

func fromMalgoFormat(f malgo.FormatType) SampleFormat {
	switch f {
	case malgo.FormatU8:
		return FormatU8
	case malgo.FormatS16:
		return FormatI16
	case malgo.FormatS24:
		return FormatI24
	case malgo.FormatS32:
		return FormatI32
	case malgo.FormatF32:
		return FormatF32
	default:
		return FormatUnknown
	}
}

// malgoHost implements Host on top of miniaudio
type malgoHost struct {
	ctx *malgo.AllocatedContext
	log Logger

	mu     sync.Mutex
	closed bool
}

func newMalgoHost(log Logger) (Host, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Debug("malgo: %s", message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	return &malgoHost{ctx: ctx, log: log}, nil
}

func (h *malgoHost) Name() string { return BackendMalgo }

// captureInfos returns full device info for every capture device. Devices
// whose info cannot be read are skipped.
func (h *malgoHost) captureInfos() ([]malgo.DeviceInfo, error) {
	devices, err := h.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to list capture devices: %w", err)
	}

	res := make([]malgo.DeviceInfo, 0, len(devices))
	seen := make(map[malgo.DeviceID]struct{}, len(devices))
	for _, dev := range devices {
		full, err := h.ctx.DeviceInfo(malgo.Capture, dev.ID, malgo.Shared)
		if err != nil {
			h.log.Warn("Unable to get audio device info: %v", err)
			continue
		}

		// Avoid duplicate device IDs
		if _, ok := seen[full.ID]; ok {
			continue
		}
		seen[full.ID] = struct{}{}
		res = append(res, full)
	}
	return res, nil
}

func (h *malgoHost) InputDevices() ([]InputDevice, error) {
	infos, err := h.captureInfos()
	if err != nil {
		return nil, err
	}

	res := make([]InputDevice, 0, len(infos))
	for _, info := range infos {
		res = append(res, &malgoInput{host: h, info: info})
	}
	return res, nil
}

func (h *malgoHost) DefaultInputDevice() (InputDevice, error) {
	infos, err := h.captureInfos()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDefaultDevice, err)
	}
	for _, info := range infos {
		if info.IsDefault == 1 {
			return &malgoInput{host: h, info: info}, nil
		}
	}
	return nil, ErrNoDefaultDevice
}

func (h *malgoHost) OpenOutput() (Output, error) {
	devices, err := h.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputUnavailable, err)
	}
	if len(devices) == 0 {
		return nil, ErrOutputUnavailable
	}

	name := "default"
	for _, dev := range devices {
		if dev.IsDefault == 1 {
			name = dev.Name()
			break
		}
	}
	h.log.Debug("Using output device %q", name)
	return &malgoOutput{host: h, name: name}, nil
}

func (h *malgoHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	if err := h.ctx.Uninit(); err != nil {
		return fmt.Errorf("failed to uninit malgo context: %w", err)
	}
	h.ctx.Free()
	return nil
}

// malgoInput is a capture device
type malgoInput struct {
	host *malgoHost
	info malgo.DeviceInfo
}

func (d *malgoInput) Name() string { return d.info.Name() }

func (d *malgoInput) SupportedFormats() ([]SampleFormat, error) {
	var formats []SampleFormat
	seen := make(map[SampleFormat]bool)
	for _, df := range d.info.Formats {
		f := fromMalgoFormat(df.Format)
		if f == FormatUnknown || seen[f] {
			continue
		}
		seen[f] = true
		formats = append(formats, f)
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("device %q reports no native formats", d.Name())
	}
	return formats, nil
}

func (d *malgoInput) DefaultConfig() (StreamConfig, error) {
	cfg, ok := captureConfig(d.info.Formats)
	if !ok {
		return StreamConfig{}, fmt.Errorf("device %q reports no native formats", d.Name())
	}
	return cfg, nil
}

// captureConfig picks the first native format the converter accepts.
// miniaudio converts on request, so a device with only s24/s32 entries
// is captured as f32 at its first native layout.
func captureConfig(formats []malgo.DataFormat) (StreamConfig, bool) {
	if len(formats) == 0 {
		return StreamConfig{}, false
	}

	chosen := formats[0]
	format := FormatF32
	for _, df := range formats {
		f := fromMalgoFormat(df.Format)
		if CheckFormat(f) == nil {
			chosen, format = df, f
			break
		}
	}

	// Zero channel count or rate means "any"
	channels := uint16(chosen.Channels)
	switch {
	case channels == 0:
		channels = 1
	case channels > 2:
		channels = 2
	}
	rate := chosen.SampleRate
	if rate == 0 {
		rate = 48000
	}
	return StreamConfig{Channels: channels, SampleRate: rate, Format: format}, true
}

func (d *malgoInput) OpenInput(cfg StreamConfig, onData func(Samples), onError func(error)) (Stream, error) {
	format, ok := toMalgoFormat(cfg.Format)
	if !ok {
		return nil, fmt.Errorf("%w: %s on malgo", ErrUnsupportedFormat, cfg.Format)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.DeviceID = d.info.ID.Pointer()
	deviceConfig.Capture.Format = format
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = cfg.SampleRate
	deviceConfig.PeriodSizeInMilliseconds = periodSizeMS
	deviceConfig.Alsa.NoMMap = 1

	sampleFormat := cfg.Format
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, pInputSamples []byte, _ uint32) {
			onData(RawSamples{Fmt: sampleFormat, Data: pInputSamples})
		},
	}

	device, err := malgo.InitDevice(d.host.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStreamBuild, err)
	}
	return &malgoStream{device: device}, nil
}

// malgoStream is a capture device handle
type malgoStream struct {
	device *malgo.Device
}

func (s *malgoStream) Start() error {
	if err := s.device.Start(); err != nil {
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	return nil
}

func (s *malgoStream) Close() error {
	s.device.Uninit()
	return nil
}

// malgoOutput opens playback devices on the default output
type malgoOutput struct {
	host *malgoHost
	name string
}

func (o *malgoOutput) Name() string { return o.name }

func (o *malgoOutput) OpenSink(channels, sampleRate int) (Sink, error) {
	s := &malgoSink{
		channels: channels,
		queue:    make(chan []float32, 16),
		drained:  make(chan struct{}),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.PeriodSizeInMilliseconds = periodSizeMS
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(o.host.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: s.onData,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStreamBuild, err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}
	s.device = device
	return s, nil
}

// malgoSink feeds the playback callback from a bounded queue
type malgoSink struct {
	device   *malgo.Device
	channels int
	queue    chan []float32

	// pending is only touched by the device callback
	pending []float32

	closing   atomic.Bool
	drained   chan struct{}
	drainOnce sync.Once
}

func (s *malgoSink) onData(pOutputSample, _ []byte, _ uint32) {
	n := len(pOutputSample) / 4
	for i := 0; i < n; i++ {
		if len(s.pending) == 0 {
			select {
			case chunk := <-s.queue:
				s.pending = chunk
			default:
			}
		}

		var v float32
		if len(s.pending) > 0 {
			v = s.pending[0]
			s.pending = s.pending[1:]
		}
		binary.LittleEndian.PutUint32(pOutputSample[4*i:], math.Float32bits(v))
	}

	if s.closing.Load() && len(s.pending) == 0 && len(s.queue) == 0 {
		s.drainOnce.Do(func() { close(s.drained) })
	}
}

func (s *malgoSink) Write(samples []float32) error {
	chunk := make([]float32, len(samples))
	copy(chunk, samples)
	s.queue <- chunk
	return nil
}

func (s *malgoSink) Drain() error {
	s.closing.Store(true)
	<-s.drained
	s.device.Uninit()
	return nil
}

func (s *malgoSink) Abort() error {
	s.device.Uninit()
	return nil
}
