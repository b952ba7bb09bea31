// Package events delivers engine notifications to in-process subscribers
// and websocket clients.
package events

import (
	"sync"
)

// Event names
const (
	PlaybackStarted   = "playback-started"
	PlaybackCompleted = "playback-completed"
	RecordingStarted  = "recording-started"
	RecordingStopped  = "recording-stopped"
)

// Event is one notification as sent to clients
type Event struct {
	Name    string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// PlaybackStartedPayload names the new session
type PlaybackStartedPayload struct {
	Token string `json:"token"`
}

// PlaybackCompletedPayload is sent exactly once per playback session
type PlaybackCompletedPayload struct {
	Token     string `json:"token"`
	Error     string `json:"error,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

// ReasonMaxDuration marks a recording stopped by its time limit
const ReasonMaxDuration = "max_duration"

// RecordingStoppedPayload carries the written file
type RecordingStoppedPayload struct {
	Path   string `json:"path,omitempty"`
	Error  string `json:"error,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Sink receives engine events
type Sink interface {
	Emit(ev Event)
}

// Logger is the subset of the application logger used by this package
type Logger interface {
	Debug(format string, v ...interface{})
	Warn(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

// DefaultBuffer is the per-subscriber queue length
const DefaultBuffer = 64

// Hub fans events out to subscribers. Emit never blocks: a subscriber whose
// queue is full misses the event, or is disconnected if it subscribed with
// SubscribeEvicting.
type Hub struct {
	log Logger

	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
	closed bool
}

type subscriber struct {
	ch    chan Event
	evict bool
}

// NewHub creates an empty hub
func NewHub(log Logger) *Hub {
	if log == nil {
		log = nopLogger{}
	}
	return &Hub{
		log:  log,
		subs: make(map[int]*subscriber),
	}
}

// Emit delivers ev to every subscriber
func (h *Hub) Emit(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.log.Debug("Event %s: %+v", ev.Name, ev.Payload)
	for id, sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			if !sub.evict {
				h.log.Warn("Event subscriber %d is full, dropping %s", id, ev.Name)
				continue
			}
			h.log.Warn("Event subscriber %d is full at %s, disconnecting", id, ev.Name)
			delete(h.subs, id)
			close(sub.ch)
		}
	}
}

// Subscribe registers a subscriber with a queue of size buffer. The returned
// function unsubscribes and closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	return h.subscribe(buffer, false)
}

// SubscribeEvicting is like Subscribe, but a full queue closes the channel
// instead of dropping the event, so the subscriber never sees a gap.
func (h *Hub) SubscribeEvicting(buffer int) (<-chan Event, func()) {
	return h.subscribe(buffer, true)
}

func (h *Hub) subscribe(buffer int, evict bool) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	sub := &subscriber{ch: ch, evict: evict}
	h.subs[id] = sub

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if h.subs[id] == sub {
				delete(h.subs, id)
				close(ch)
			}
		})
	}
}

// Subscribers returns the number of active subscribers
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Closed reports whether Close has been called
func (h *Hub) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Close closes every subscriber channel; later events are dropped
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ev Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

// Discard drops all events
var Discard Sink = SinkFunc(func(Event) {})
