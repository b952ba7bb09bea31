package codec

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrNotWAV is returned for input without a valid RIFF/WAVE header
var ErrNotWAV = errors.New("not a valid WAV file")

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// pcmReader is the part of wav.Decoder used by wavSource
type pcmReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type wavSource struct {
	dec        pcmReader
	format     *goaudio.Format
	sampleRate int
	channels   int
	scale      float32
	// offset is subtracted before scaling; unsigned 8-bit WAV centers on 128
	offset int
	intBuf     *goaudio.IntBuffer
}

func (s *wavSource) SampleRate() int { return s.sampleRate }
func (s *wavSource) Channels() int   { return s.channels }
func (s *wavSource) Close() error    { return nil }

func (s *wavSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.format,
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	for i := 0; i < n; i++ {
		dst[i] = float32(s.intBuf.Data[i]-s.offset) / s.scale
	}
	return n, nil
}

// WAVDecoder decodes PCM WAV files with go-audio/wav
type WAVDecoder struct{}

func (WAVDecoder) Decode(r io.ReadSeeker) (Source, error) {
	probe := wav.NewDecoder(r)
	if !probe.IsValidFile() {
		return nil, ErrNotWAV
	}
	if !isIntegerPCM(probe.WavAudioFormat, int(probe.BitDepth)) {
		return nil, fmt.Errorf("%w: WAV format 0x%04x at %d bits", ErrUnsupportedCodec, probe.WavAudioFormat, probe.BitDepth)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind WAV: %w", err)
	}

	dec := wav.NewDecoder(r)
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to locate WAV data: %w", err)
	}

	src := &wavSource{
		dec:        dec,
		format:     dec.Format(),
		sampleRate: int(dec.SampleRate),
		channels:   int(dec.NumChans),
		scale:      fullScale(int(dec.BitDepth)),
	}
	if dec.BitDepth == 8 {
		src.offset = 128
	}
	return src, nil
}

// isIntegerPCM reports whether go-audio/wav yields usable integer samples.
// The extensible sub-format is not parsed, so 32-bit extensible data may be
// float and is refused.
func isIntegerPCM(audioFormat uint16, bitDepth int) bool {
	switch audioFormat {
	case wavFormatPCM:
		return true
	case wavFormatExtensible:
		return bitDepth < 32
	default:
		return false
	}
}

// fullScale is the magnitude of the most negative sample at bitDepth
func fullScale(bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return 128.0
	case 24:
		return 8388608.0
	case 32:
		return 2147483648.0
	default:
		return 32768.0
	}
}
