package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// SettingsFileName is the default application settings file
const SettingsFileName = "settings.yaml"

// EnvPrefix prefixes environment overrides (EZAUDIO_BACKEND, EZAUDIO_SERVER_PORT, ...)
const EnvPrefix = "EZAUDIO"

// Settings holds application settings
type Settings struct {
	DataDir       string            `mapstructure:"data_dir" yaml:"data_dir"`
	Backend       string            `mapstructure:"backend" yaml:"backend"`
	Server        ServerSettings    `mapstructure:"server" yaml:"server"`
	Log           LogSettings       `mapstructure:"log" yaml:"log"`
	Hotkey        HotkeySettings    `mapstructure:"hotkey" yaml:"hotkey"`
	Recording     RecordingSettings `mapstructure:"recording" yaml:"recording"`
	Notifications bool              `mapstructure:"notifications" yaml:"notifications"`
}

// ServerSettings configures the local HTTP API
type ServerSettings struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// LogSettings configures the file logger
type LogSettings struct {
	Level         string `mapstructure:"level" yaml:"level"`
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days"`
	Stderr        bool   `mapstructure:"stderr" yaml:"stderr"`
}

// HotkeySettings configures the global record hotkey
type HotkeySettings struct {
	Keys string `mapstructure:"keys" yaml:"keys"` // e.g. "ctrl+alt+r"
	Mode string `mapstructure:"mode" yaml:"mode"` // "toggle" or "press-to-hold"
}

// RecordingSettings limits recording sessions
type RecordingSettings struct {
	MaxDuration time.Duration `mapstructure:"max_duration" yaml:"max_duration"` // 0 = unlimited
}

// DefaultSettings returns the default settings
func DefaultSettings() Settings {
	return Settings{
		DataDir: DefaultDataDir(),
		Backend: "portaudio",
		Server: ServerSettings{
			Addr: "127.0.0.1",
			Port: 18765,
		},
		Log: LogSettings{
			Level:         "INFO",
			RetentionDays: 7,
		},
		Hotkey: HotkeySettings{
			Keys: "ctrl+alt+r",
			Mode: "toggle",
		},
		Recording: RecordingSettings{
			MaxDuration: 10 * time.Minute,
		},
		Notifications: true,
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultSettings()
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.retention_days", d.Log.RetentionDays)
	v.SetDefault("log.stderr", d.Log.Stderr)
	v.SetDefault("hotkey.keys", d.Hotkey.Keys)
	v.SetDefault("hotkey.mode", d.Hotkey.Mode)
	v.SetDefault("recording.max_duration", d.Recording.MaxDuration)
	v.SetDefault("notifications", d.Notifications)
}

// LoadSettings reads settings from configFile, or from settings.yaml in the
// default data directory when configFile is empty. A missing default file
// yields the defaults; environment variables override both.
func LoadSettings(configFile string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := configFile != ""
	if !explicit {
		configFile = filepath.Join(DefaultDataDir(), SettingsFileName)
	}
	v.SetConfigFile(configFile)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if explicit || !missing {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("error unmarshaling settings: %w", err)
	}

	s.DataDir = expandPath(s.DataDir)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate validates all settings fields
func (s *Settings) Validate() error {
	if s.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}

	switch strings.ToLower(s.Backend) {
	case "", "auto", "portaudio", "malgo":
	default:
		return fmt.Errorf("invalid backend: %s (must be 'portaudio' or 'malgo')", s.Backend)
	}

	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", s.Server.Port)
	}

	switch strings.ToUpper(s.Log.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("invalid log.level: %s", s.Log.Level)
	}

	if s.Log.RetentionDays <= 0 {
		return fmt.Errorf("invalid log.retention_days: %d", s.Log.RetentionDays)
	}

	if s.Hotkey.Mode != "press-to-hold" && s.Hotkey.Mode != "toggle" {
		return fmt.Errorf("invalid hotkey.mode: %s (must be 'press-to-hold' or 'toggle')", s.Hotkey.Mode)
	}

	if s.Recording.MaxDuration < 0 {
		return fmt.Errorf("invalid recording.max_duration: %v", s.Recording.MaxDuration)
	}

	return nil
}

// YAML renders the settings as a settings.yaml document
func (s *Settings) YAML() ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}
	return data, nil
}

// LogDir returns the directory for log files
func (s *Settings) LogDir() string {
	return filepath.Join(s.DataDir, "logs")
}

// Addr returns the listen address of the HTTP API
func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Server.Addr, s.Server.Port)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
