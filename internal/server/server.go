package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Logger is the subset of the application logger used by the server
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Server manages the localhost HTTP server for the command API
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	mux        *http.ServeMux
	addr       string
	port       int
	cfg        Config
	log        Logger
	mu         sync.Mutex
	running    bool
	done       chan struct{}
}

// Config holds server configuration
type Config struct {
	Addr            string        // Address to bind (localhost only by default)
	Port            int           // Port to listen on (0 = random)
	ReadTimeout     time.Duration // HTTP read timeout
	WriteTimeout    time.Duration // HTTP write timeout; 0 for websocket routes
	ShutdownTimeout time.Duration // Graceful shutdown timeout
}

// DefaultConfig returns the default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:            "127.0.0.1",
		Port:            18765, // Default port
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    0,
		ShutdownTimeout: 5 * time.Second,
	}
}

// New creates a new HTTP server
func New(config Config, log Logger) *Server {
	if config.Addr == "" {
		config.Addr = "127.0.0.1"
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Server{
		mux:  http.NewServeMux(),
		addr: config.Addr,
		port: config.Port,
		cfg:  config,
		log:  log,
	}
}

// GetMux returns the mux routes are registered on
func (s *Server) GetMux() *http.ServeMux {
	return s.mux
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	addr := net.JoinHostPort(s.addr, strconv.Itoa(s.port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port

	s.httpServer = &http.Server{
		Handler:      corsMiddleware(s.mux),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	done := make(chan struct{})
	s.done = done
	srv := s.httpServer
	url := s.urlLocked()

	go func() {
		defer close(done)
		s.log.Info("HTTP server listening on %s", url)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error: %v", err)
		}
	}()

	s.running = true
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.running = false
	if err := s.httpServer.Shutdown(ctx); err != nil {
		// Hijacked websocket connections are not tracked by Shutdown
		s.httpServer.Close()
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	<-s.done
	return nil
}

// Run starts the server and stops it when ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}

// Port returns the port the server is listening on
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// URL returns the full URL to the server
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.urlLocked()
}

func (s *Server) urlLocked() string {
	return "http://" + net.JoinHostPort(s.addr, strconv.Itoa(s.port))
}

// IsRunning returns whether the server is running
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// isLocalOrigin reports whether origin is an http(s) URL on localhost
func isLocalOrigin(origin string) bool {
	for _, prefix := range []string{"http://localhost", "http://127.0.0.1", "https://localhost", "https://127.0.0.1"} {
		if origin == prefix || strings.HasPrefix(origin, prefix+":") {
			return true
		}
	}
	return false
}

// corsMiddleware adds CORS headers for localhost-only access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && isLocalOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RegisterAPIHandler registers an API handler at the given path. Routes may
// be added before or after Start.
func (s *Server) RegisterAPIHandler(path string, handler http.Handler) error {
	if path == "" || path[0] != '/' {
		return fmt.Errorf("invalid route %q", path)
	}
	s.mux.Handle(path, handler)
	return nil
}
