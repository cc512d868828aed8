package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/statkit/absbridge/pkg/logging"
)

const (
	// writeWait bounds every outbound frame so one stalled peer cannot
	// block the hub behind its mutex
	writeWait = 10 * time.Second

	// pongWait is how long a connection may stay silent before its reads
	// fail and the client is dropped
	pongWait = 60 * time.Second

	// pingPeriod is how often pings go out to solicit pongs; must be
	// shorter than pongWait
	pingPeriod = (pongWait * 9) / 10
)

// wsHub manages WebSocket connections receiving cache refresh events
type wsHub struct {
	upgrader websocket.Upgrader
	conns    map[*websocket.Conn]bool
	mu       sync.Mutex
	logger   logging.Logger
}

func newWSHub(logger logging.Logger) *wsHub {
	return &wsHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The API is token-protected; origin checking adds nothing
				// for non-browser MCP hosts.
				return true
			},
		},
		conns:  make(map[*websocket.Conn]bool),
		logger: logger,
	}
}

// handleWebSocket upgrades the connection and streams refresh events to it
func (h *wsHub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", logging.F("error", err))
		return
	}

	// The hijacked connection inherits the server's request deadlines;
	// from here on liveness is governed by the ping/pong cycle.
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()

	go h.ping(conn)

	// Read loop only detects client disconnects; inbound messages are ignored
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// ping keeps the connection alive, dropping it when a ping cannot be
// delivered within the write deadline. Writes are serialized with broadcast
// through h.mu.
func (h *wsHub) ping(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.Lock()
		if !h.conns[conn] {
			h.mu.Unlock()
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := conn.WriteMessage(websocket.PingMessage, nil)
		h.mu.Unlock()

		if err != nil {
			h.remove(conn)
			return
		}
	}
}

// broadcast sends a message to every connected client. Each write carries
// its own deadline so a stalled peer is dropped instead of wedging the hub.
func (h *wsHub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("websocket write failed, dropping client", logging.F("error", err))
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// remove unregisters and closes a connection
func (h *wsHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[conn] {
		conn.Close()
		delete(h.conns, conn)
	}
}

// close shuts down every connection
func (h *wsHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		conn.Close()
		delete(h.conns, conn)
	}
}
