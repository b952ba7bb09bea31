package events

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHub_EmitSubscribe(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	a, unsubA := hub.Subscribe(4)
	defer unsubA()
	b, unsubB := hub.Subscribe(4)
	defer unsubB()

	hub.Emit(Event{Name: PlaybackCompleted, Payload: PlaybackCompletedPayload{Token: "t1"}})

	for i, ch := range []<-chan Event{a, b} {
		select {
		case ev := <-ch:
			if ev.Name != PlaybackCompleted {
				t.Errorf("Subscriber %d: expected %s, got %s", i, PlaybackCompleted, ev.Name)
			}
			p, ok := ev.Payload.(PlaybackCompletedPayload)
			if !ok || p.Token != "t1" {
				t.Errorf("Subscriber %d: unexpected payload %+v", i, ev.Payload)
			}
		case <-time.After(time.Second):
			t.Fatalf("Subscriber %d: timed out waiting for event", i)
		}
	}
}

func TestHub_FullSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	ch, unsub := hub.Subscribe(1)
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.Emit(Event{Name: RecordingStarted})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full subscriber")
	}

	if len(ch) != 1 {
		t.Errorf("Expected 1 queued event, got %d", len(ch))
	}
}

func TestHub_EvictingSubscriberClosedWhenFull(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	dropping, unsubDropping := hub.Subscribe(1)
	defer unsubDropping()
	evicting, unsubEvicting := hub.SubscribeEvicting(1)

	hub.Emit(Event{Name: PlaybackStarted})
	hub.Emit(Event{Name: PlaybackCompleted})

	if ev, ok := <-evicting; !ok || ev.Name != PlaybackStarted {
		t.Errorf("Expected queued %s, got %v %v", PlaybackStarted, ev.Name, ok)
	}
	if _, ok := <-evicting; ok {
		t.Error("Expected evicting channel to be closed after overflow")
	}
	if hub.Subscribers() != 1 {
		t.Errorf("Expected 1 subscriber left, got %d", hub.Subscribers())
	}
	if len(dropping) != 1 {
		t.Errorf("Expected dropping subscriber to keep 1 event, got %d", len(dropping))
	}

	// Unsubscribing after eviction is a no-op
	unsubEvicting()
	if hub.Closed() {
		t.Error("Expected hub to stay open")
	}
}

func TestHub_ServeHTTPOverflowDisconnects(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for websocket subscriber")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// The client does not read, so the queue fills and the server hangs up
	token := strings.Repeat("x", 4096)
	for i := 0; i < 20000 && hub.Subscribers() > 0; i++ {
		hub.Emit(Event{Name: PlaybackCompleted, Payload: PlaybackCompletedPayload{Token: token}})
	}
	if hub.Subscribers() != 0 {
		t.Fatalf("Expected overflowing client to be evicted, %d subscribers left", hub.Subscribers())
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseTryAgainLater) {
				t.Errorf("Expected close code %d, got %v", websocket.CloseTryAgainLater, err)
			}
			return
		}
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub(nil)

	ch, unsub := hub.Subscribe(1)
	if hub.Subscribers() != 1 {
		t.Errorf("Expected 1 subscriber, got %d", hub.Subscribers())
	}

	unsub()
	unsub()

	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed")
	}
	if hub.Subscribers() != 0 {
		t.Errorf("Expected 0 subscribers, got %d", hub.Subscribers())
	}

	hub.Close()
	hub.Emit(Event{Name: RecordingStarted})

	late, _ := hub.Subscribe(1)
	if _, ok := <-late; ok {
		t.Error("Expected subscription after Close to be closed")
	}
}

func TestHub_ServeHTTP(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	defer conn.Close()

	// Wait for the handler to subscribe
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for websocket subscriber")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Emit(Event{Name: PlaybackCompleted, Payload: PlaybackCompletedPayload{Token: "abc", Cancelled: true}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read event: %v", err)
	}

	var got struct {
		Event   string `json:"event"`
		Payload struct {
			Token     string `json:"token"`
			Cancelled bool   `json:"cancelled"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Failed to decode event: %v", err)
	}

	if got.Event != PlaybackCompleted {
		t.Errorf("Expected event %s, got %s", PlaybackCompleted, got.Event)
	}
	if got.Payload.Token != "abc" || !got.Payload.Cancelled {
		t.Errorf("Unexpected payload: %+v", got.Payload)
	}

	// Closing the hub ends the stream
	hub.Close()
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected read error after hub close")
	}
}
