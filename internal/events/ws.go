package events

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

const (
	websocketWriteTimeout = 10 * time.Second
	websocketPongTimeout  = 60 * time.Second
	websocketPingInterval = 30 * time.Second
	// websocketBuffer absorbs bursts while a client's write is in flight
	websocketBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API only listens on localhost; any local origin may subscribe
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades the request to a websocket and streams events as JSON
// text messages until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		var herr websocket.HandshakeError
		if !errors.As(err, &herr) {
			h.log.Warn("Unexpected websocket error: %v", err)
		}
		return
	}
	defer conn.Close()

	// A client that falls behind is disconnected rather than silently
	// missing a completion event
	ch, unsubscribe := h.SubscribeEvicting(websocketBuffer)
	defer unsubscribe()

	h.log.Debug("Events client connected: %s", r.RemoteAddr)
	err = h.serveConn(r.Context(), conn, ch)
	h.log.Debug("Events client disconnected: %s (%v)", r.RemoteAddr, err)
}

func (h *Hub) serveConn(ctx context.Context, conn *websocket.Conn, ch <-chan Event) error {
	g, gctx := errgroup.WithContext(ctx)

	conn.SetReadDeadline(time.Now().Add(websocketPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(websocketPongTimeout))
	})

	// Read loop; clients never send data but reading processes control frames
	g.Go(func() error {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return err
			}
		}
	})

	// Write loop
	g.Go(func() error {
		ticker := time.NewTicker(websocketPingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				// Unblock the read loop
				conn.Close()
				return gctx.Err()

			case ev, ok := <-ch:
				if !ok {
					msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down")
					if !h.Closed() {
						msg = websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "event queue overflow")
					}
					conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
					conn.Close()
					return nil
				}
				conn.SetWriteDeadline(time.Now().Add(websocketWriteTimeout))
				if err := conn.WriteJSON(ev); err != nil {
					return err
				}

			case <-ticker.C:
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(websocketWriteTimeout))
				if err != nil {
					return err
				}
			}
		}
	})

	return g.Wait()
}
