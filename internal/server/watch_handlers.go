package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

const (
	watchWriteTimeout = 10 * time.Second
	watchPongTimeout  = 60 * time.Second
	watchPingInterval = 30 * time.Second
)

// watchHandler streams committed store mutations to the client over a
// WebSocket connection. Events are delivered best effort: a client that
// stops reading misses events instead of stalling request handlers.
func (s *Server) watchHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	watchConnections.Inc()
	defer watchConnections.Dec()

	slog.Info("Watch connection established", "remote_addr", r.RemoteAddr)

	events, cancel := s.hub.Subscribe()
	defer cancel()

	// The client is not expected to send anything; the read loop exists to
	// notice the connection going away and to service pong frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = conn.SetReadDeadline(time.Now().Add(watchPongTimeout))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(watchPongTimeout))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("Watch connection read error", "error", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(watchPingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(watchWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				slog.Debug("Watch connection write error", "error", err)
				return
			}
			watchEventsTotal.WithLabelValues(string(ev.Type)).Inc()
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(watchWriteTimeout)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
