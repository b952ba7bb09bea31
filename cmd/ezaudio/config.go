package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yok-tottii/ezaudio/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := settings.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var configAudioCmd = &cobra.Command{
	Use:   "audio",
	Short: "Show the device and format the next recording will use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := newEngine()
		if err != nil {
			return err
		}
		defer deps.engine.Close()

		info, err := deps.engine.CurrentConfig()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	},
}

var (
	setAudioDevice   string
	setAudioChannels uint16
	setAudioRate     uint32
)

var configSetAudioCmd = &cobra.Command{
	Use:   "set-audio",
	Short: "Save the input device, channel count and sample rate",
	Long: `Save the audio preference used by later recordings. An empty --device
selects the system default input device.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.SavedAudioConfig{
			DeviceName: setAudioDevice,
			Channels:   setAudioChannels,
			SampleRate: setAudioRate,
		}
		// Validate before touching the audio backend
		if err := cfg.Validate(); err != nil {
			return err
		}

		deps, err := newEngine()
		if err != nil {
			return err
		}
		defer deps.engine.Close()

		if err := deps.engine.SetConfig(cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s\n", deps.engine.Store().Path())
		return nil
	},
}

func init() {
	configSetAudioCmd.Flags().StringVar(&setAudioDevice, "device", "", "input device name (empty for the default device)")
	configSetAudioCmd.Flags().Uint16Var(&setAudioChannels, "channels", 1, "channel count (1 or 2)")
	configSetAudioCmd.Flags().Uint32Var(&setAudioRate, "rate", 44100, "sample rate in Hz")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configAudioCmd)
	configCmd.AddCommand(configSetAudioCmd)
}
