package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yok-tottii/ezaudio/internal/audio"
)

var devicesJSON bool

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	Long: `List every input device of the configured backend with its default
channel count, sample rate and supported sample formats.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := newEngine()
		if err != nil {
			return err
		}
		defer deps.engine.Close()

		report, err := deps.engine.Devices()
		if err != nil {
			return err
		}

		if devicesJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printDevices(cmd.OutOrStdout(), report)
		return nil
	},
}

func init() {
	devicesCmd.Flags().BoolVar(&devicesJSON, "json", false, "print the device report as JSON")
}

func printDevices(w io.Writer, report audio.DeviceReport) {
	fmt.Fprintf(w, "Input devices (%d found):\n", len(report.Devices))
	for i, d := range report.Devices {
		marker := " "
		if d.Name == report.Default.Name {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %d. %s\n", marker, i+1, formatDevice(d))
	}
	if report.Default.Name == "" {
		fmt.Fprintln(w, "\nNo default input device.")
		return
	}
	fmt.Fprintf(w, "\nDefault: %s\n", formatDevice(report.Default))
}

func formatDevice(d audio.DeviceInfo) string {
	formats := "unknown"
	if len(d.Formats) > 0 {
		formats = strings.Join(d.Formats, ",")
	}
	return fmt.Sprintf("%s (%d ch, %d Hz, %s)", d.Name, d.Channels, d.SampleRate, formats)
}
