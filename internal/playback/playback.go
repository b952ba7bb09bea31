// Package playback plays decoded audio files on the shared output device.
package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/yok-tottii/ezaudio/internal/audio"
	"github.com/yok-tottii/ezaudio/internal/codec"
	"github.com/yok-tottii/ezaudio/internal/events"
	"github.com/yok-tottii/ezaudio/internal/metrics"
)

// chunkFrames is the number of frames written to the sink between
// cancellation checks
const chunkFrames = 1024

// ErrNoSource is returned when a Source has neither a path nor data
var ErrNoSource = errors.New("no playback source")

// Token identifies one Play call
type Token string

// Source is either a file path or an in-memory blob with a MIME hint
type Source struct {
	Path string
	Data []byte
	MIME string
}

// Logger is the subset of the application logger used by this package
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Config holds player dependencies
type Config struct {
	Host    audio.Host
	Codecs  *codec.Registry
	Events  events.Sink
	Metrics *metrics.Metrics
	Log     Logger
	// TempDir receives blob files; "" uses os.TempDir
	TempDir string
}

type session struct {
	token  Token
	cancel context.CancelFunc
	done   chan struct{}
}

// Player runs one goroutine per Play call. Starting a new playback or
// calling Stop cancels the current one; every session emits exactly one
// playback-completed event.
type Player struct {
	host    audio.Host
	codecs  *codec.Registry
	events  events.Sink
	metrics *metrics.Metrics
	log     Logger
	tempDir string

	initMu sync.Mutex
	output audio.Output

	mu       sync.Mutex
	current  *session
	sessions map[Token]*session
	wg       sync.WaitGroup
}

// New creates a player; the output device is opened on first use
func New(cfg Config) *Player {
	if cfg.Codecs == nil {
		cfg.Codecs = codec.DefaultRegistry()
	}
	if cfg.Events == nil {
		cfg.Events = events.Discard
	}
	if cfg.Log == nil {
		cfg.Log = nopLogger{}
	}
	return &Player{
		host:     cfg.Host,
		codecs:   cfg.Codecs,
		events:   cfg.Events,
		metrics:  cfg.Metrics,
		log:      cfg.Log,
		tempDir:  cfg.TempDir,
		sessions: make(map[Token]*session),
	}
}

// ensureOutput opens the output device once; concurrent callers share it
func (p *Player) ensureOutput() (audio.Output, error) {
	p.initMu.Lock()
	defer p.initMu.Unlock()

	if p.output != nil {
		return p.output, nil
	}

	out, err := p.host.OpenOutput()
	if err != nil {
		if !errors.Is(err, audio.ErrOutputUnavailable) {
			err = fmt.Errorf("%w: %v", audio.ErrOutputUnavailable, err)
		}
		return nil, err
	}

	p.log.Info("Output device initialized: %s", out.Name())
	p.output = out
	return out, nil
}

// Play starts playing src and returns its token. Decoding happens on the
// playback goroutine; its failures are reported in the completion event.
func (p *Player) Play(src Source) (Token, error) {
	if src.Path == "" && src.Data == nil {
		return "", ErrNoSource
	}

	out, err := p.ensureOutput()
	if err != nil {
		p.log.Error("Failed to initialize output device: %v", err)
		return "", err
	}

	path := src.Path
	var tempFile string
	if src.Data != nil {
		tempFile, err = p.writeTemp(src.Data, src.MIME)
		if err != nil {
			return "", err
		}
		path = tempFile
	}

	token := Token(uuid.NewString())
	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{token: token, cancel: cancel, done: make(chan struct{})}

	p.mu.Lock()
	if prev := p.current; prev != nil {
		p.log.Debug("Cancelling playback %s for %s", prev.token, token)
		prev.cancel()
	}
	p.current = sess
	p.sessions[token] = sess
	p.wg.Add(1)
	p.mu.Unlock()

	p.log.Info("Playback %s started: %s", token, path)
	p.events.Emit(events.Event{
		Name:    events.PlaybackStarted,
		Payload: events.PlaybackStartedPayload{Token: string(token)},
	})
	go p.run(ctx, sess, out, path, src.MIME, tempFile)

	return token, nil
}

// writeTemp stores a blob in a uniquely named file
func (p *Player) writeTemp(data []byte, mimeType string) (string, error) {
	dir := p.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}

	format := codec.FormatFromMIME(mimeType)
	if format == "" {
		format = codec.Sniff(data)
	}
	path := filepath.Join(dir, "ezaudio-playback-"+uuid.NewString()+codec.Extension(format))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	return path, nil
}

func (p *Player) run(ctx context.Context, sess *session, out audio.Output, path, mimeType, tempFile string) {
	defer p.wg.Done()

	var (
		err       error
		cancelled bool
	)

	p.metrics.PlaybackStarted()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("playback goroutine panicked: %v", r)
		}
		if tempFile != "" {
			if rerr := os.Remove(tempFile); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
				p.log.Warn("Failed to remove temp file %s: %v", tempFile, rerr)
			}
		}
		p.finish(sess, err, cancelled)
	}()

	cancelled, err = p.play(ctx, out, path, mimeType)
}

// play decodes path into a sink chunk by chunk until the source ends or ctx
// is cancelled
func (p *Player) play(ctx context.Context, out audio.Output, path, mimeType string) (bool, error) {
	src, err := p.codecs.Open(path, mimeType)
	if err != nil {
		return false, err
	}
	defer src.Close()

	channels := src.Channels()
	if channels <= 0 {
		return false, fmt.Errorf("%w: %d channels", codec.ErrUnsupportedCodec, channels)
	}

	sink, err := out.OpenSink(channels, src.SampleRate())
	if err != nil {
		return false, err
	}

	buf := make([]float32, chunkFrames*channels)
	for {
		select {
		case <-ctx.Done():
			if err := sink.Abort(); err != nil {
				p.log.Warn("Failed to abort sink: %v", err)
			}
			return true, nil
		default:
		}

		n, rerr := src.ReadSamples(buf)
		if n > 0 {
			if err := sink.Write(buf[:n]); err != nil {
				sink.Abort()
				return false, err
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			sink.Abort()
			return false, fmt.Errorf("failed to decode %s: %w", path, rerr)
		}
	}

	if err := sink.Drain(); err != nil {
		return false, err
	}
	return false, nil
}

func (p *Player) finish(sess *session, err error, cancelled bool) {
	p.mu.Lock()
	if p.current == sess {
		p.current = nil
	}
	delete(p.sessions, sess.token)
	p.mu.Unlock()

	sess.cancel()

	payload := events.PlaybackCompletedPayload{Token: string(sess.token), Cancelled: cancelled}
	result := metrics.ResultCompleted
	switch {
	case err != nil:
		payload.Error = err.Error()
		result = metrics.ResultFailed
		p.log.Error("Playback %s failed: %v", sess.token, err)
	case cancelled:
		result = metrics.ResultCancelled
		p.log.Info("Playback %s cancelled", sess.token)
	default:
		p.log.Info("Playback %s completed", sess.token)
	}
	p.metrics.PlaybackFinished(result)

	p.events.Emit(events.Event{Name: events.PlaybackCompleted, Payload: payload})
	close(sess.done)
}

// Stop cancels the current playback and returns its token ("" when idle)
func (p *Player) Stop() Token {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return ""
	}
	sess := p.current
	p.current = nil
	sess.cancel()
	p.log.Info("Playback %s stopped", sess.token)
	return sess.token
}

// IsPlaying reports whether a current playback exists
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

// Current returns the token of the current playback, or ""
func (p *Player) Current() Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return ""
	}
	return p.current.token
}

// Done returns a channel closed once the session's completion event has
// been emitted. Unknown or finished tokens get an already closed channel.
func (p *Player) Done(token Token) <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	if sess, ok := p.sessions[token]; ok {
		return sess.done
	}
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Close cancels every playback and waits for the goroutines to exit
func (p *Player) Close() {
	p.mu.Lock()
	for _, sess := range p.sessions {
		sess.cancel()
	}
	p.current = nil
	p.mu.Unlock()

	p.wg.Wait()
}
