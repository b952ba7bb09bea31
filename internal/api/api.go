package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/yok-tottii/ezaudio/internal/audio"
	"github.com/yok-tottii/ezaudio/internal/codec"
	"github.com/yok-tottii/ezaudio/internal/config"
	"github.com/yok-tottii/ezaudio/internal/engine"
	"github.com/yok-tottii/ezaudio/internal/playback"
	"github.com/yok-tottii/ezaudio/internal/recording"
)

// MaxBlobSize limits the body of POST /api/playback/blob
const MaxBlobSize = 256 << 20

// Engine is the command set served over HTTP; *engine.Engine implements it
type Engine interface {
	StartRecording() error
	StopRecording() (engine.RecordingResponse, error)
	IsRecording() bool
	Devices() (audio.DeviceReport, error)
	SetConfig(cfg config.SavedAudioConfig) error
	CurrentConfig() (audio.DeviceInfo, error)
	Play(path string) (engine.PlaybackResponse, error)
	PlayBlob(data []byte, mimeType string) (engine.PlaybackResponse, error)
	StopPlayback() engine.PlaybackResponse
	Playback() engine.PlaybackResponse
}

// Logger is the subset of the application logger used by the handlers
type Logger interface {
	Debug(format string, v ...interface{})
	Error(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Error(string, ...interface{}) {}

// Handler manages API endpoints
type Handler struct {
	engine  Engine
	events  http.Handler
	metrics http.Handler
	log     Logger
}

// New creates a new API handler. events and metrics may be nil.
func New(e Engine, events, metrics http.Handler, log Logger) *Handler {
	if log == nil {
		log = nopLogger{}
	}
	return &Handler{
		engine:  e,
		events:  events,
		metrics: metrics,
		log:     log,
	}
}

// RegisterRoutes registers all API routes on the given mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/recording", h.handleRecording)
	mux.HandleFunc("/api/recording/start", h.handleRecordingStart)
	mux.HandleFunc("/api/recording/stop", h.handleRecordingStop)
	mux.HandleFunc("/api/devices", h.handleDevices)
	mux.HandleFunc("/api/config", h.handleConfig)
	mux.HandleFunc("/api/playback", h.handlePlayback)
	mux.HandleFunc("/api/playback/blob", h.handlePlaybackBlob)
	mux.HandleFunc("/api/playback/stop", h.handlePlaybackStop)

	if h.events != nil {
		mux.Handle("/api/events", h.events)
	}
	if h.metrics != nil {
		mux.Handle("/metrics", h.metrics)
	}
}

// errorResponse is the body of every failed request
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps engine errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, config.ErrValidation),
		errors.Is(err, config.ErrMalformed),
		errors.Is(err, playback.ErrNoSource):
		return http.StatusBadRequest
	case errors.Is(err, recording.ErrAlreadyRecording),
		errors.Is(err, recording.ErrNotRecording),
		errors.Is(err, engine.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, audio.ErrNoDefaultDevice),
		errors.Is(err, audio.ErrOutputUnavailable),
		errors.Is(err, audio.ErrNoBackend),
		errors.Is(err, audio.ErrUnsupportedFormat),
		errors.Is(err, audio.ErrStreamBuild):
		return http.StatusServiceUnavailable
	case errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	h.log.Error("%s %s: %d %v", r.Method, r.URL.Path, status, err)
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

// handleRecording handles GET /api/recording
func (h *Handler) handleRecording(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_recording": h.engine.IsRecording()})
}

// handleRecordingStart handles POST /api/recording/start
func (h *Handler) handleRecordingStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := h.engine.StartRecording(); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_recording": true})
}

// handleRecordingStop handles POST /api/recording/stop
func (h *Handler) handleRecordingStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	resp, err := h.engine.StopRecording()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDevices handles GET /api/devices
func (h *Handler) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	report, err := h.engine.Devices()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleConfig handles GET and PUT /api/config
func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getConfig(w, r)
	case http.MethodPut:
		h.putConfig(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	info, err := h.engine.CurrentConfig()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) putConfig(w http.ResponseWriter, r *http.Request) {
	var cfg config.SavedAudioConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: invalid request body: %v", config.ErrMalformed, err))
		return
	}

	if err := h.engine.SetConfig(cfg); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handlePlayback handles GET and POST /api/playback
func (h *Handler) handlePlayback(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.engine.Playback())
	case http.MethodPost:
		h.play(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *Handler) play(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: invalid request body: %v", config.ErrMalformed, err))
		return
	}
	if request.Path == "" {
		h.writeError(w, r, playback.ErrNoSource)
		return
	}

	// A missing or undecodable file fails on the playback goroutine and is
	// reported by its playback-completed event
	resp, err := h.engine.Play(request.Path)
	if err != nil {
		status := statusFor(err)
		h.log.Error("POST /api/playback: %d %v", status, err)
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePlaybackBlob handles POST /api/playback/blob. The body is the raw
// audio and Content-Type is the codec hint.
func (h *Handler) handlePlaybackBlob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBlobSize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
			return
		}
		h.writeError(w, r, fmt.Errorf("failed to read request body: %w", err))
		return
	}

	mimeType := r.Header.Get("Content-Type")
	if codec.FormatFromMIME(mimeType) == "" {
		h.log.Debug("Unrecognized blob content type %q, sniffing", mimeType)
	}

	resp, err := h.engine.PlayBlob(data, mimeType)
	if err != nil {
		status := statusFor(err)
		h.log.Error("POST /api/playback/blob: %d %v", status, err)
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePlaybackStop handles POST /api/playback/stop
func (h *Handler) handlePlaybackStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.StopPlayback())
}
