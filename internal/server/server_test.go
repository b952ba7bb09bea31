package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Addr != "127.0.0.1" {
		t.Errorf("Expected addr 127.0.0.1, got %s", config.Addr)
	}

	if config.Port != 18765 {
		t.Errorf("Expected port 18765, got %d", config.Port)
	}

	if config.ReadTimeout != 10*time.Second {
		t.Errorf("Expected ReadTimeout 10s, got %v", config.ReadTimeout)
	}

	if config.WriteTimeout != 0 {
		t.Errorf("Expected no WriteTimeout, got %v", config.WriteTimeout)
	}

	if config.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected ShutdownTimeout 5s, got %v", config.ShutdownTimeout)
	}
}

func TestNew(t *testing.T) {
	config := DefaultConfig()
	server := New(config, nil)

	if server == nil {
		t.Fatal("Expected server to be created")
	}

	if server.port != config.Port {
		t.Errorf("Expected port %d, got %d", config.Port, server.port)
	}

	if server.running {
		t.Error("Expected server to not be running initially")
	}

	if server.GetMux() == nil {
		t.Error("Expected mux to be created")
	}
}

func TestStartStop(t *testing.T) {
	config := DefaultConfig()
	config.Port = 0 // Use random port
	server := New(config, nil)

	// Start server
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	// Check that server is running
	if !server.IsRunning() {
		t.Error("Expected server to be running")
	}

	// Check that port was assigned
	port := server.Port()
	if port == 0 {
		t.Error("Expected non-zero port")
	}

	// Try to start again (should fail)
	if err := server.Start(); err == nil {
		t.Error("Expected error when starting already running server")
	}

	// Stop server
	if err := server.Stop(); err != nil {
		t.Errorf("Failed to stop server: %v", err)
	}

	// Check that server is stopped
	if server.IsRunning() {
		t.Error("Expected server to be stopped")
	}

	// Stop again (should succeed, no-op)
	if err := server.Stop(); err != nil {
		t.Errorf("Expected no error when stopping already stopped server: %v", err)
	}
}

func TestRun(t *testing.T) {
	config := DefaultConfig()
	config.Port = 0
	server := New(config, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- server.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !server.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for server to start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for Run to return")
	}

	if server.IsRunning() {
		t.Error("Expected server to be stopped")
	}
}

func TestURL(t *testing.T) {
	config := DefaultConfig()
	config.Port = 12345
	server := New(config, nil)

	expectedURL := "http://127.0.0.1:12345"
	if server.URL() != expectedURL {
		t.Errorf("Expected URL %s, got %s", expectedURL, server.URL())
	}
}

func TestCORSMiddleware(t *testing.T) {
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	handler := corsMiddleware(testHandler)

	tests := []struct {
		name    string
		method  string
		origin  string
		allowed bool
		body    string
	}{
		{"localhost preflight", http.MethodOptions, "http://127.0.0.1:8080", true, ""},
		{"localhost name", http.MethodGet, "http://localhost:3000", true, "OK"},
		{"remote origin", http.MethodGet, "http://example.com", false, "OK"},
		{"lookalike origin", http.MethodGet, "http://localhost.example.com", false, "OK"},
		{"no origin", http.MethodGet, "", false, "OK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://127.0.0.1:8080/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			got := w.Header().Get("Access-Control-Allow-Origin")
			if tt.allowed && got != tt.origin {
				t.Errorf("Expected Access-Control-Allow-Origin %q, got %q", tt.origin, got)
			}
			if !tt.allowed && got != "" {
				t.Errorf("Expected no Access-Control-Allow-Origin, got %q", got)
			}
			if w.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", w.Code)
			}
			if w.Body.String() != tt.body {
				t.Errorf("Expected body %q, got %q", tt.body, w.Body.String())
			}
		})
	}
}

func TestMultipleStartStop(t *testing.T) {
	config := DefaultConfig()
	config.Port = 0

	for i := 0; i < 3; i++ {
		server := New(config, nil)

		if err := server.Start(); err != nil {
			t.Fatalf("Iteration %d: Failed to start server: %v", i, err)
		}

		if err := server.Stop(); err != nil {
			t.Fatalf("Iteration %d: Failed to stop server: %v", i, err)
		}
	}
}

func TestPort(t *testing.T) {
	config := DefaultConfig()
	config.Port = 19999
	server := New(config, nil)

	// Before start, should return configured port
	if server.Port() != 19999 {
		t.Errorf("Expected port 19999 before start, got %d", server.Port())
	}

	// Start with port 0 to get random port
	config.Port = 0
	server = New(config, nil)

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer server.Stop()

	// After start with port 0, should return assigned port
	if server.Port() == 0 {
		t.Error("Expected non-zero port after start")
	}
}

func TestRegisterAPIHandler(t *testing.T) {
	config := DefaultConfig()
	config.Port = 0
	server := New(config, nil)

	if err := server.RegisterAPIHandler("no-slash", http.NotFoundHandler()); err == nil {
		t.Error("Expected error for invalid route")
	}

	before := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("before"))
	})
	if err := server.RegisterAPIHandler("/before", before); err != nil {
		t.Fatalf("Failed to register handler before start: %v", err)
	}

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer server.Stop()

	after := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("after"))
	})
	if err := server.RegisterAPIHandler("/after", after); err != nil {
		t.Fatalf("Failed to register handler after start: %v", err)
	}

	for _, path := range []string{"/before", "/after"} {
		resp, err := http.Get(server.URL() + path)
		if err != nil {
			t.Fatalf("Failed to request %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected status 200 for %s, got %d", path, resp.StatusCode)
		}
		if string(body) != path[1:] {
			t.Errorf("Expected response %q, got %q", path[1:], string(body))
		}
	}
}
