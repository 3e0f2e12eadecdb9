package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/eytandecker/simsensors/pkg/types"
)

const hubWriteTimeout = time.Second

// Hub broadcasts snapshots to websocket clients.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	// writeMu serializes writes; a websocket.Conn supports one writer at a time.
	writeMu sync.Mutex
}

// NewHub creates a Hub. A nil logger discards output.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger.With(slog.String("sink", "websocket")),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeWS upgrades the request and keeps the client until it disconnects.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", slog.String("error", err.Error()))
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("client connected", slog.Int("clients", n))

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(conn)
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		_ = conn.Close()
		h.logger.Info("client disconnected", slog.Int("clients", n))
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Name implements telemetry.Sink.
func (h *Hub) Name() string {
	return "websocket"
}

// Write implements telemetry.Sink. Clients that fail to receive are dropped.
func (h *Hub) Write(_ context.Context, snap types.Snapshot) error {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for _, c := range conns {
		_ = c.SetWriteDeadline(time.Now().Add(hubWriteTimeout))
		if err := c.WriteJSON(snap); err != nil {
			h.logger.Warn("write failed", slog.String("error", err.Error()))
			h.remove(c)
		}
	}
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.Close()
		delete(h.clients, c)
	}
	return nil
}
