package websockets

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// LocalHub is an in-process publisher for single-host deployments: clients
// connect over a plain WebSocket upgrade on the app server instead of API
// Gateway.
type LocalHub struct {
	Log      *slog.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

var _ Publisher = (*LocalHub)(nil)

// NewLocalHub creates an empty hub.
func NewLocalHub(log *slog.Logger) *LocalHub {
	if log == nil {
		log = slog.Default()
	}
	return &LocalHub{
		Log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		conns:    make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the connection until the
// client hangs up.
func (h *LocalHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
	h.Log.Info("websocket client connected", "remote_addr", r.RemoteAddr)

	// Inbound messages are ignored; the read loop only detects the close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.drop(conn)
	}()
}

// Publish sends the message to every connected client. Dead connections are
// dropped as they are discovered.
func (h *LocalHub) Publish(ctx context.Context, message Message) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.Log.Info("dropping dead websocket connection", "error", err)
			h.drop(conn)
		}
	}
	return nil
}

func (h *LocalHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		conn.Close()
	}
	h.mu.Unlock()
}
