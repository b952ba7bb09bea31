package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yok-tottii/ezaudio/internal/api"
	"github.com/yok-tottii/ezaudio/internal/audio"
	"github.com/yok-tottii/ezaudio/internal/audiotest"
	"github.com/yok-tottii/ezaudio/internal/engine"
	"github.com/yok-tottii/ezaudio/internal/events"
	"github.com/yok-tottii/ezaudio/internal/metrics"
)

// TestServerAPIIntegration drives a recording over HTTP and watches the
// events websocket
func TestServerAPIIntegration(t *testing.T) {
	mic := audiotest.NewDevice("Mic", 1, 16000, audio.FormatI16)
	mic.Chunks = audiotest.Constant(1600, 160, 3)

	hub := events.NewHub(nil)
	m := metrics.New()
	e := engine.New(engine.Options{
		Host:    audiotest.NewHost(mic),
		DataDir: t.TempDir(),
		Events:  hub,
		Metrics: m,
	})
	defer e.Close()

	serverConfig := DefaultConfig()
	serverConfig.Port = 0 // Use random port
	server := New(serverConfig, nil)

	// Register API routes before starting the server
	api.New(e, hub, m.Handler(), nil).RegisterRoutes(server.GetMux())

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer server.Stop()

	wsURL := "ws" + strings.TrimPrefix(server.URL(), "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to events: %v", err)
	}
	defer conn.Close()

	// Wait for the subscription to register before emitting
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for websocket subscriber")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Post(server.URL()+"/api/recording/start", "application/json", nil)
	if err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	mic.WaitDelivered(2 * time.Second)

	resp, err = http.Post(server.URL()+"/api/recording/stop", "application/json", nil)
	if err != nil {
		t.Fatalf("Failed to stop recording: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var stopped engine.RecordingResponse
	if err := json.NewDecoder(resp.Body).Decode(&stopped); err != nil {
		t.Fatalf("Failed to decode stop response: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	expected := []string{events.RecordingStarted, events.RecordingStopped}
	for _, name := range expected {
		var msg struct {
			Event   string          `json:"event"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("Failed to read event: %v", err)
		}
		if msg.Event != name {
			t.Errorf("Expected event %s, got %s", name, msg.Event)
		}
		if name == events.RecordingStopped {
			var payload events.RecordingStoppedPayload
			json.Unmarshal(msg.Payload, &payload)
			if payload.Path != stopped.Path {
				t.Errorf("Expected path %s in event, got %s", stopped.Path, payload.Path)
			}
		}
	}

	metricsResp, err := http.Get(server.URL() + "/metrics")
	if err != nil {
		t.Fatalf("Failed to fetch metrics: %v", err)
	}
	metricsResp.Body.Close()
	if metricsResp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200 from /metrics, got %d", metricsResp.StatusCode)
	}
}
