// Package wavfile writes captured PCM16 audio as WAV files.
package wavfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// BitDepth is the only bit depth written
const BitDepth = 16

// ErrInvalidFormat is returned for a zero channel count or sample rate
var ErrInvalidFormat = errors.New("invalid wav format")

// Encode writes samples as a 16-bit PCM WAV. An empty sample slice is
// replaced by one second of silence (sampleRate*channels zero samples).
func Encode(ws io.WriteSeeker, samples []int16, channels uint16, sampleRate uint32) error {
	if channels == 0 || sampleRate == 0 {
		return fmt.Errorf("%w: %d channels at %d Hz", ErrInvalidFormat, channels, sampleRate)
	}

	n := len(samples)
	if n == 0 {
		n = int(sampleRate) * int(channels)
	}

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: int(channels),
			SampleRate:  int(sampleRate),
		},
		Data:           make([]int, n),
		SourceBitDepth: BitDepth,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}

	// Audio format 1 is uncompressed PCM
	enc := wav.NewEncoder(ws, int(sampleRate), BitDepth, int(channels), 1)
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("failed to write audio data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	return nil
}

// WriteFile encodes samples into a new file at path
func WriteFile(path string, samples []int16, channels uint16, sampleRate uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create WAV file: %w", err)
	}

	if err := Encode(f, samples, channels, sampleRate); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close WAV file: %w", err)
	}
	return nil
}

// RecordingName returns the file name for a recording finished at t
func RecordingName(t time.Time) string {
	return fmt.Sprintf("recording_%s.wav", t.Format("20060102_150405"))
}

// WriteRecording writes a timestamped recording into dir and returns its path.
// A second recording within the same second gets a numeric suffix.
func WriteRecording(dir string, t time.Time, samples []int16, channels uint16, sampleRate uint32) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	name := RecordingName(t)
	path := filepath.Join(dir, name)
	for i := 1; ; i++ {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			break
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d.wav", name[:len(name)-len(".wav")], i))
	}

	if err := WriteFile(path, samples, channels, sampleRate); err != nil {
		return "", err
	}
	return path, nil
}

// Info is the header of a WAV file
type Info struct {
	Channels   uint16
	SampleRate uint32
	BitDepth   uint16
	Samples    int
}

// ReadInfo decodes the header and counts the samples of the WAV file at path
func ReadInfo(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to open WAV file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Info{}, fmt.Errorf("%s is not a valid WAV file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Info{}, fmt.Errorf("failed to read WAV data: %w", err)
	}

	return Info{
		Channels:   dec.NumChans,
		SampleRate: dec.SampleRate,
		BitDepth:   dec.BitDepth,
		Samples:    len(buf.Data),
	}, nil
}
