package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yok-tottii/ezaudio/internal/audio"
	"github.com/yok-tottii/ezaudio/internal/config"
	"github.com/yok-tottii/ezaudio/internal/engine"
	"github.com/yok-tottii/ezaudio/internal/events"
	"github.com/yok-tottii/ezaudio/internal/logger"
	"github.com/yok-tottii/ezaudio/internal/metrics"
)

var (
	settings *config.Settings
	appLog   *logger.Logger
	cfgFile  string
	logLevel string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "ezaudio",
	Short: "Record and play audio from the desktop",
	Long: `ezaudio records microphone input to WAV files and plays audio files
through the default output device.

Run 'ezaudio serve' for the tray icon, global hotkey and local HTTP API,
or use the record and play commands directly.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		settings, err = config.LoadSettings(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}

		if logLevel != "" {
			settings.Log.Level = logLevel
		}
		if verbose {
			settings.Log.Stderr = true
		}
		level, err := logger.ParseLevel(settings.Log.Level)
		if err != nil {
			return err
		}

		appLog, err = logger.New(logger.Config{
			LogDir:        settings.LogDir(),
			Level:         level,
			RetentionDays: settings.Log.RetentionDays,
			Stderr:        settings.Log.Stderr,
		})
		if err != nil {
			return err
		}
		appLog.Debug("ezaudio %s, command %q, data dir %s", version, cmd.CommandPath(), settings.DataDir)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appLog != nil {
			appLog.Close()
		}
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if appLog != nil {
			appLog.Error("%s", err)
			appLog.Close()
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default is <data dir>/settings.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: DEBUG, INFO, WARN or ERROR (overrides settings)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "mirror log output to stderr")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(configCmd)
}

// runtimeDeps is what every audio command needs
type runtimeDeps struct {
	engine  *engine.Engine
	hub     *events.Hub
	metrics *metrics.Metrics
}

// newEngine initializes the configured audio backend and wraps it in an engine
func newEngine() (*runtimeDeps, error) {
	host, err := audio.NewHost(settings.Backend, appLog.With("audio"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio backend %q: %w", settings.Backend, err)
	}
	appLog.Info("Audio backend %s initialized", host.Name())

	hub := events.NewHub(appLog.With("events"))
	m := metrics.New()
	e := engine.New(engine.Options{
		Host:         host,
		DataDir:      settings.DataDir,
		Events:       hub,
		Metrics:      m,
		MaxRecording: settings.Recording.MaxDuration,
		Log:          appLog.With("engine"),
		RecordingLog: appLog.With("recording"),
		PlaybackLog:  appLog.With("playback"),
	})
	return &runtimeDeps{engine: e, hub: hub, metrics: m}, nil
}
