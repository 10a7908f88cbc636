package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/probewatch/probewatch/internal/api"
	"github.com/probewatch/probewatch/internal/config"
	"github.com/probewatch/probewatch/internal/metrics"
	"github.com/probewatch/probewatch/internal/monitor"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins — callers should apply CORS at the reverse-proxy level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients on every broadcast tick.
type Message struct {
	Event string                `json:"event"`
	Data  api.DashboardResponse `json:"data"`
}

// Hub manages WebSocket client connections and broadcasts the current
// dashboard snapshot to all of them every interval.
type Hub struct {
	reg       *monitor.Registry
	ref       api.Refresher
	targets   api.TargetsFunc
	timeRange int
	interval  time.Duration

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client represents one connected WebSocket client.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub that refreshes via ref, reads reg and broadcasts every
// interval. Sparklines in the broadcast hold at most timeRange samples.
func New(reg *monitor.Registry, ref api.Refresher, targets api.TargetsFunc, timeRange int, interval time.Duration) *Hub {
	if targets == nil {
		targets = func() *config.Targets { return nil }
	}
	return &Hub{
		reg:       reg,
		ref:       ref,
		targets:   targets,
		timeRange: timeRange,
		interval:  interval,
		clients:   make(map[*client]struct{}),
	}
}

// Run starts the broadcast ticker loop. It refreshes from the probe logs and
// sends the fresh snapshot to all connected clients every interval. Run
// blocks until ctx is cancelled, then closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.broadcast(ctx)
		}
	}
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the client.
// It sends the current snapshot immediately on connect, then continues to
// receive broadcasts from the ticker loop. Blocks until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	h.register(c)
	defer h.unregister(c)

	// Send the current snapshot immediately so the dashboard has data right away.
	if data, err := h.buildMessage(r.Context()); err == nil {
		h.trySend(c, data)
	}

	go c.writePump()
	c.readPump() // blocks until connection closes
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	metrics.WSClients.Set(float64(len(h.clients)))
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	metrics.WSClients.Set(float64(len(h.clients)))
	h.mu.Unlock()
}

func (h *Hub) broadcast(ctx context.Context) {
	// Skip the refresh-and-build work entirely when nobody is listening.
	if h.Count() == 0 {
		return
	}

	data, err := h.buildMessage(ctx)
	if err != nil {
		return
	}

	// Sends happen only while the read lock is held and a channel is closed
	// only under the write lock, so a send can never hit a channel that a
	// concurrent disconnect already closed.
	var stalled []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	// Clients whose outgoing buffer is full get disconnected.
	for _, c := range stalled {
		h.unregister(c)
	}
}

// trySend delivers data to c if c is still registered and its buffer has
// room. Holding the read lock keeps the send ordered against channel closes.
func (h *Hub) trySend(c *client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) buildMessage(ctx context.Context) ([]byte, error) {
	msg := Message{
		Event: "snapshot",
		Data:  api.BuildDashboard(ctx, h.reg, h.ref, h.targets(), h.timeRange),
	}
	return json.Marshal(msg)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	metrics.WSClients.Set(0)
}

// writePump drains the client's send channel and forwards messages to the
// WebSocket connection. It also sends periodic ping frames. Runs in its own
// goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Channel was closed (hub is shutting down or client removed).
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames from the connection to process control messages (pong,
// close) and detect disconnects. Blocks until the connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
