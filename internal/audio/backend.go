package audio

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

const (
	BackendPortAudio = "portaudio"
	BackendMalgo     = "malgo"
)

// DefaultBackend is used when no backend is configured
const DefaultBackend = BackendPortAudio

type hostConstructor func(log Logger) (Host, error)

var (
	backendsMu sync.Mutex
	backends   = map[string]hostConstructor{}
)

// registerBackend is called from the init of each compiled-in backend
func registerBackend(name string, ctor hostConstructor) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = ctor
}

// Backends returns the names of the compiled-in backends
func Backends() []string {
	backendsMu.Lock()
	defer backendsMu.Unlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewHost initializes the named backend ("" selects DefaultBackend)
func NewHost(name string, log Logger) (Host, error) {
	if log == nil {
		log = nopLogger{}
	}

	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		name = DefaultBackend
	}

	backendsMu.Lock()
	ctor, ok := backends[name]
	backendsMu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (compiled in: %v)", ErrNoBackend, name, Backends())
	}

	return ctor(log)
}
