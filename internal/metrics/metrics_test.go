package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Recording(t *testing.T) {
	m := New()

	m.RecordingStarted()
	if got := testutil.ToFloat64(m.recordingActive); got != 1 {
		t.Errorf("Expected active gauge 1, got %v", got)
	}

	m.RecordingFinished(44100, 1.0)
	if got := testutil.ToFloat64(m.recordingActive); got != 0 {
		t.Errorf("Expected active gauge 0, got %v", got)
	}
	if got := testutil.ToFloat64(m.capturedSamples); got != 44100 {
		t.Errorf("Expected 44100 captured samples, got %v", got)
	}
	if got := testutil.ToFloat64(m.recordings.WithLabelValues(ResultCompleted)); got != 1 {
		t.Errorf("Expected 1 completed recording, got %v", got)
	}

	m.RecordingFailed()
	if got := testutil.ToFloat64(m.recordings.WithLabelValues(ResultFailed)); got != 1 {
		t.Errorf("Expected 1 failed recording, got %v", got)
	}
}

func TestMetrics_Playback(t *testing.T) {
	m := New()

	m.PlaybackStarted()
	m.PlaybackStarted()
	m.PlaybackFinished(ResultCancelled)

	if got := testutil.ToFloat64(m.playingActive); got != 1 {
		t.Errorf("Expected 1 active playback, got %v", got)
	}
	if got := testutil.ToFloat64(m.playbacks.WithLabelValues(ResultCancelled)); got != 1 {
		t.Errorf("Expected 1 cancelled playback, got %v", got)
	}
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics

	// Must not panic
	m.RecordingStarted()
	m.RecordingFinished(1, 1)
	m.RecordingFailed()
	m.PlaybackStarted()
	m.PlaybackFinished(ResultCompleted)

	if m.Registry() != nil {
		t.Error("Expected nil registry")
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordingFinished(10, 0.5)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("Failed to scrape: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "ezaudio_captured_samples_total 10") {
		t.Errorf("Expected captured samples in output, got:\n%s", body)
	}
}
