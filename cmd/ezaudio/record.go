package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var recordDuration time.Duration

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record from the configured input device",
	Long: `Record from the saved input device (or the default device) and write
recording_YYYYMMDD_HHMMSS.wav to the data directory.

Recording stops after --duration, or on Ctrl+C when no duration is given.
The recording.max_duration setting still applies.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := newEngine()
		if err != nil {
			return err
		}
		defer deps.engine.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if recordDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, recordDuration)
			defer cancel()
		}

		if err := deps.engine.StartRecording(); err != nil {
			return fmt.Errorf("failed to start recording: %w", err)
		}

		if recordDuration > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Recording for %v...\n", recordDuration)
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), "Recording... press Ctrl+C to stop")
		}

		// The engine stops by itself when recording.max_duration elapses
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
	wait:
		for {
			select {
			case <-ctx.Done():
				break wait
			case <-ticker.C:
				if !deps.engine.IsRecording() {
					break wait
				}
			}
		}

		if !deps.engine.IsRecording() {
			path := deps.engine.LastRecording()
			if path == "" {
				return fmt.Errorf("recording stopped without writing a file")
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		}

		res, err := deps.engine.StopRecording()
		if err != nil {
			return fmt.Errorf("failed to stop recording: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Path)
		return nil
	},
}

func init() {
	recordCmd.Flags().DurationVarP(&recordDuration, "duration", "d", 0, "stop after this long (e.g. 5s, 1m)")
}
