// Package metrics holds the prometheus collectors of the audio engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Playback results
const (
	ResultCompleted = "completed"
	ResultCancelled = "cancelled"
	ResultFailed    = "failed"
)

// Metrics tracks recording and playback sessions. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	recordings      *prometheus.CounterVec
	capturedSamples prometheus.Counter
	recordingActive prometheus.Gauge
	recordingSecs   prometheus.Histogram

	playbacks     *prometheus.CounterVec
	playingActive prometheus.Gauge
}

// New creates the collectors on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())

	return &Metrics{
		reg: reg,

		recordings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ezaudio_recordings_total",
			Help: "Number of recording sessions by result",
		}, []string{"result"}),
		capturedSamples: f.NewCounter(prometheus.CounterOpts{
			Name: "ezaudio_captured_samples_total",
			Help: "Number of PCM16 samples captured",
		}),
		recordingActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "ezaudio_recording_active",
			Help: "1 while a recording session is active",
		}),
		recordingSecs: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ezaudio_recording_duration_seconds",
			Help:    "Duration of finished recordings",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),

		playbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ezaudio_playbacks_total",
			Help: "Number of playback sessions by result",
		}, []string{"result"}),
		playingActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "ezaudio_playback_active",
			Help: "Number of playback sessions producing audio",
		}),
	}
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.InstrumentMetricHandler(m.reg, promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
}

// RecordingStarted marks a recording session as active
func (m *Metrics) RecordingStarted() {
	if m == nil {
		return
	}
	m.recordingActive.Set(1)
}

// RecordingFailed counts a session that never became active
func (m *Metrics) RecordingFailed() {
	if m == nil {
		return
	}
	m.recordings.WithLabelValues(ResultFailed).Inc()
}

// RecordingFinished counts a finished session and its samples
func (m *Metrics) RecordingFinished(samples int, seconds float64) {
	if m == nil {
		return
	}
	m.recordingActive.Set(0)
	m.recordings.WithLabelValues(ResultCompleted).Inc()
	m.capturedSamples.Add(float64(samples))
	m.recordingSecs.Observe(seconds)
}

// PlaybackStarted marks a playback session as producing audio
func (m *Metrics) PlaybackStarted() {
	if m == nil {
		return
	}
	m.playingActive.Inc()
}

// PlaybackFinished counts a playback session by result
func (m *Metrics) PlaybackFinished(result string) {
	if m == nil {
		return
	}
	m.playingActive.Dec()
	m.playbacks.WithLabelValues(result).Inc()
}
