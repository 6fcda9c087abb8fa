// internal/server/hub.go
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"droid-orchestrator/internal/common/logger"
	"droid-orchestrator/internal/common/metrics"
)

const (
	// subscriberBufferSize is the per-client outbound message buffer size.
	subscriberBufferSize = 256

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// Hub fans task progress out to every connected WebSocket subscriber. There
// are no channels or subscriptions: every subscriber sees every event, and
// delivery is best effort. A slow or gone subscriber never stalls a workflow.
type Hub struct {
	logger  logger.Logger
	clients map[*subscriber]struct{}
	mu      sync.RWMutex
}

// subscriber is one connected WebSocket client.
type subscriber struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// The broadcast stream is public read-only progress text.
		return true
	},
}

// NewHub creates a broadcast hub.
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		logger:  log,
		clients: make(map[*subscriber]struct{}),
	}
}

// Run blocks until the context is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

func (h *Hub) register(c *subscriber) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	metrics.BroadcastSubscribers.Set(float64(h.ClientCount()))
	h.logger.Debug("Subscriber connected", map[string]interface{}{"clients": h.ClientCount()})
}

// unregister removes a client. Only the goroutine that actually removes the
// client from the map closes the send channel, preventing double-close
// panics during shutdown.
func (h *Hub) unregister(c *subscriber) {
	h.mu.Lock()
	_, existed := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if existed {
		close(c.send)
	}
	metrics.BroadcastSubscribers.Set(float64(h.ClientCount()))
	h.logger.Debug("Subscriber disconnected", map[string]interface{}{"clients": h.ClientCount()})
}

// Publish sends a plain text progress line to every subscriber. Implements
// the workflow Notifier interface.
func (h *Hub) Publish(message string) {
	h.broadcast([]byte(message))
}

// PublishJSON marshals a payload and sends it to every subscriber.
func (h *Hub) PublishJSON(payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast payload", map[string]interface{}{"error": err.Error()})
		return
	}
	h.broadcast(data)
}

// broadcast snapshots the client list under the hub lock, then releases it
// before sending so a blocked client cannot hold the lock.
func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	clients := make([]*subscriber, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.trySend(data)
	}
	if len(clients) > 0 {
		metrics.BroadcastsSent.Inc()
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAll disconnects all clients so their write pumps exit cleanly.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		c.conn.Close()
		delete(h.clients, c)
	}
}

// HandleWebSocket upgrades the HTTP connection and attaches the client to
// the hub.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	c := &subscriber{
		hub:  h,
		conn: conn,
		send: make(chan []byte, subscriberBufferSize),
	}
	h.register(c)

	go c.writePump()
	go c.readPump()
}

// readPump drains the connection. Subscribers never send meaningful data;
// reading is only how we learn the peer went away.
func (c *subscriber) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// writePump writes queued messages and keepalive pings to the connection.
func (c *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend queues data for a client, silently dropping when the channel is
// closed (client left mid-broadcast) or the buffer is full (slow client).
func (c *subscriber) trySend(data []byte) {
	defer func() {
		recover()
	}()

	select {
	case c.send <- data:
	default:
		// Client buffer full, skip
	}
}
