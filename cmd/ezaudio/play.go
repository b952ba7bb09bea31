package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play <file>",
	Short: "Play an audio file",
	Long: `Play a WAV, AIFF, MP3 or Ogg Vorbis file through the default output device
and wait until it finishes. Ctrl+C stops playback.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err != nil {
			return err
		}

		deps, err := newEngine()
		if err != nil {
			return err
		}
		defer deps.engine.Close()

		resp, err := deps.engine.Play(path)
		if err != nil {
			return fmt.Errorf("playback failed: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Playing %s\n", path)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case <-deps.engine.PlaybackDone(resp.Token):
		case <-sigChan:
			appLog.Info("Playback interrupted")
			deps.engine.StopPlayback()
			<-deps.engine.PlaybackDone(resp.Token)
		}
		return nil
	},
}
