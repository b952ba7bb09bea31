package audio

import "fmt"

// Logger is the subset of the application logger used by this package
type Logger interface {
	Debug(format string, v ...interface{})
	Warn(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

// Describe snapshots a device's default configuration and supported formats
func Describe(dev InputDevice) (DeviceInfo, error) {
	cfg, err := dev.DefaultConfig()
	if err != nil {
		return DeviceInfo{}, fmt.Errorf("failed to get default config of %q: %w", dev.Name(), err)
	}

	formats, err := dev.SupportedFormats()
	if err != nil {
		return DeviceInfo{}, fmt.Errorf("failed to get supported formats of %q: %w", dev.Name(), err)
	}

	return DeviceInfo{
		Name:       dev.Name(),
		Channels:   cfg.Channels,
		SampleRate: cfg.SampleRate,
		Formats:    FormatNames(formats),
	}, nil
}

// ListDevices enumerates all input devices and describes the default one.
// Devices whose details cannot be read are skipped.
func ListDevices(host Host, log Logger) (DeviceReport, error) {
	if log == nil {
		log = nopLogger{}
	}

	def, err := host.DefaultInputDevice()
	if err != nil {
		return DeviceReport{}, err
	}

	defInfo, err := Describe(def)
	if err != nil {
		return DeviceReport{}, err
	}

	devices, err := host.InputDevices()
	if err != nil {
		return DeviceReport{}, fmt.Errorf("failed to list input devices: %w", err)
	}

	report := DeviceReport{
		Devices: make([]DeviceInfo, 0, len(devices)),
		Default: defInfo,
	}
	for _, dev := range devices {
		info, err := Describe(dev)
		if err != nil {
			log.Warn("Skipping input device: %v", err)
			continue
		}
		report.Devices = append(report.Devices, info)
	}

	log.Debug("Enumerated %d input devices (default %q)", len(report.Devices), defInfo.Name)
	return report, nil
}
