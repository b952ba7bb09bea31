// Package codec decodes audio files into interleaved float32 sources for
// playback.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Format names
const (
	FormatWAV    = "wav"
	FormatMP3    = "mp3"
	FormatVorbis = "ogg"
	FormatAIFF   = "aiff"
)

// ErrUnsupportedCodec is returned when no decoder matches the input
var ErrUnsupportedCodec = errors.New("unsupported codec")

// Source is a decoded audio stream
type Source interface {
	// SampleRate of the stream in Hz
	SampleRate() int
	// Channels count (1=mono, 2=stereo)
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1] and
	// returns the number of values written. io.EOF marks the end.
	ReadSamples(dst []float32) (int, error)
	Close() error
}

// Decoder turns an encoded stream into a Source
type Decoder interface {
	Decode(r io.ReadSeeker) (Source, error)
}

// Registry maps format names to decoders
type Registry struct {
	mu     sync.Mutex
	codecs map[string]Decoder
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Decoder)}
}

// DefaultRegistry returns a registry with the wav, mp3, ogg and aiff decoders
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(FormatWAV, WAVDecoder{})
	r.Register(FormatMP3, MP3Decoder{})
	r.Register(FormatVorbis, VorbisDecoder{})
	r.Register(FormatAIFF, AIFFDecoder{})
	return r
}

func (r *Registry) Register(format string, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[format] = d
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.codecs[format]
	return d, ok
}

// fileSource closes the underlying file along with the decoded source
type fileSource struct {
	Source
	f *os.File
}

func (s *fileSource) Close() error {
	err := s.Source.Close()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Open decodes the file at path. hint is an optional format name or MIME
// type; otherwise the format comes from the extension, then the content.
func (r *Registry) Open(path, hint string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}

	format := FormatFromMIME(hint)
	if format == "" {
		format = FormatFromName(hint)
	}
	if format == "" {
		format = FormatFromPath(path)
	}
	if format == "" {
		format, err = sniffFile(f)
		if err != nil {
			f.Close()
			return nil, err
		}
	}

	dec, ok := r.Get(format)
	if !ok {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, format)
	}

	src, err := dec.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &fileSource{Source: src, f: f}, nil
}

func sniffFile(f *os.File) (string, error) {
	head := make([]byte, 12)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read audio file: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind audio file: %w", err)
	}

	format := Sniff(head[:n])
	if format == "" {
		return "", fmt.Errorf("%w: unrecognized content", ErrUnsupportedCodec)
	}
	return format, nil
}

// Sniff detects the format from the first bytes of a file
func Sniff(head []byte) string {
	switch {
	case len(head) >= 12 && bytes.Equal(head[:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE")):
		return FormatWAV
	case len(head) >= 12 && bytes.Equal(head[:4], []byte("FORM")) &&
		(bytes.Equal(head[8:12], []byte("AIFF")) || bytes.Equal(head[8:12], []byte("AIFC"))):
		return FormatAIFF
	case bytes.HasPrefix(head, []byte("OggS")):
		return FormatVorbis
	case bytes.HasPrefix(head, []byte("ID3")):
		return FormatMP3
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		// MPEG frame sync
		return FormatMP3
	default:
		return ""
	}
}

// FormatFromName accepts a bare format name or file extension
func FormatFromName(name string) string {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "wav", "wave":
		return FormatWAV
	case "mp3", "mpeg":
		return FormatMP3
	case "ogg", "oga", "vorbis":
		return FormatVorbis
	case "aif", "aiff", "aifc":
		return FormatAIFF
	default:
		return ""
	}
}

// FormatFromPath maps a file extension to a format name
func FormatFromPath(path string) string {
	return FormatFromName(filepath.Ext(path))
}

// FormatFromMIME maps a MIME type (parameters allowed) to a format name
func FormatFromMIME(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}

	switch mediaType {
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
		return FormatWAV
	case "audio/mpeg", "audio/mp3", "audio/mpeg3", "audio/x-mpeg-3":
		return FormatMP3
	case "audio/ogg", "audio/vorbis", "application/ogg", "audio/x-vorbis+ogg":
		return FormatVorbis
	case "audio/aiff", "audio/x-aiff":
		return FormatAIFF
	default:
		return ""
	}
}

// Extension returns the file extension for a format name
func Extension(format string) string {
	switch format {
	case FormatWAV, FormatMP3, FormatVorbis, FormatAIFF:
		return "." + format
	default:
		return ".bin"
	}
}
