package audio

import (
	"errors"
	"strings"
)

var (
	// ErrNoBackend is returned when the binary was built without an audio backend
	ErrNoBackend = errors.New("no audio backend available")
	// ErrNoDefaultDevice is returned when the host reports no default input device
	ErrNoDefaultDevice = errors.New("no default input device available")
	// ErrOutputUnavailable is returned when no output device can be opened
	ErrOutputUnavailable = errors.New("no output device available")
	// ErrUnsupportedFormat is returned for device sample formats the converter cannot handle
	ErrUnsupportedFormat = errors.New("unsupported sample format")
	// ErrStreamBuild is returned when the driver rejects the requested stream configuration
	ErrStreamBuild = errors.New("failed to build audio stream")
)

// SampleFormat is a device-native sample encoding
type SampleFormat int

const (
	FormatUnknown SampleFormat = iota
	FormatU8
	FormatI8
	FormatU16
	FormatI16
	FormatI24
	FormatI32
	FormatF32
)

// String returns the short name used in device reports
func (f SampleFormat) String() string {
	switch f {
	case FormatU8:
		return "u8"
	case FormatI8:
		return "i8"
	case FormatU16:
		return "u16"
	case FormatI16:
		return "i16"
	case FormatI24:
		return "i24"
	case FormatI32:
		return "i32"
	case FormatF32:
		return "f32"
	default:
		return "unknown"
	}
}

// ParseSampleFormat is the inverse of String
func ParseSampleFormat(s string) SampleFormat {
	switch strings.ToLower(s) {
	case "u8":
		return FormatU8
	case "i8":
		return FormatI8
	case "u16":
		return FormatU16
	case "i16":
		return FormatI16
	case "i24":
		return FormatI24
	case "i32":
		return FormatI32
	case "f32":
		return FormatF32
	default:
		return FormatUnknown
	}
}

// StreamConfig describes a capture stream
type StreamConfig struct {
	Channels   uint16
	SampleRate uint32
	Format     SampleFormat
}

// DeviceInfo is a serializable snapshot of an input device
type DeviceInfo struct {
	Name       string   `json:"name"`
	Channels   uint16   `json:"channels"`
	SampleRate uint32   `json:"sample_rate"`
	Formats    []string `json:"formats"`
}

// DeviceReport is the result of a device enumeration
type DeviceReport struct {
	Devices []DeviceInfo `json:"devices"`
	Default DeviceInfo   `json:"default"`
}

// Host is an audio subsystem: it enumerates devices, opens capture streams
// and hands out the output device used for playback.
type Host interface {
	// Name returns the backend name ("portaudio", "malgo", ...)
	Name() string

	// InputDevices lists every input-capable device
	InputDevices() ([]InputDevice, error)

	// DefaultInputDevice returns the system default input device or ErrNoDefaultDevice
	DefaultInputDevice() (InputDevice, error)

	// OpenOutput acquires the default output device
	OpenOutput() (Output, error)

	// Close releases the backend
	Close() error
}

// InputDevice is a capture-capable device
type InputDevice interface {
	Name() string

	// DefaultConfig is the device's own preferred stream configuration
	DefaultConfig() (StreamConfig, error)

	// SupportedFormats lists the native sample formats the device accepts
	SupportedFormats() ([]SampleFormat, error)

	// OpenInput builds (but does not start) a capture stream. onData is
	// invoked on a driver-owned goroutine; the Samples value is only valid
	// for the duration of the call.
	OpenInput(cfg StreamConfig, onData func(Samples), onError func(error)) (Stream, error)
}

// Stream is a live capture stream. Callbacks stop once Close returns.
type Stream interface {
	Start() error
	Close() error
}

// Output is the shared output device handle
type Output interface {
	Name() string

	// OpenSink opens a playback sink for interleaved float32 audio
	OpenSink(channels, sampleRate int) (Sink, error)
}

// Sink consumes interleaved float32 samples in [-1,1]
type Sink interface {
	// Write blocks until the samples have been queued to the device
	Write(samples []float32) error

	// Drain waits for queued audio to finish playing and releases the sink
	Drain() error

	// Abort discards queued audio and releases the sink
	Abort() error
}

// FindInputDevice returns the input device with the given name, or the
// default device when name is empty or not present.
func FindInputDevice(host Host, name string) (InputDevice, error) {
	if name != "" {
		devices, err := host.InputDevices()
		if err == nil {
			for _, dev := range devices {
				if dev.Name() == name {
					return dev, nil
				}
			}
		}
	}
	return host.DefaultInputDevice()
}
