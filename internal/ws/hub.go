package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"strom_dashboard/internal/log"
)

const writeWait = 10 * time.Second

// Client is one open dashboard connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// enqueue hands msg to the write pump without blocking the caller.
func (c *Client) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		log.Warnf("Dropping dashboard message, client buffer full")
		return false
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Hub tracks dashboard clients together with the day each one is looking
// at. An empty day means the client follows the live dashboard.
type Hub struct {
	mu      sync.RWMutex
	viewing map[*Client]string
}

func NewHub() *Hub {
	return &Hub{viewing: make(map[*Client]string)}
}

// Register adds c as a follower of the live dashboard.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.viewing[c] = ""
}

// Unregister forgets c and closes its send queue. Repeated calls are no-ops.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.viewing[c]; !ok {
		return
	}
	delete(h.viewing, c)
	close(c.send)
}

// View pins c to day; an empty day returns it to the live dashboard.
// It reports false when c is not registered.
func (h *Hub) View(c *Client, day string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.viewing[c]; !ok {
		return false
	}
	h.viewing[c] = day
	return true
}

// Viewing returns the day c is pinned to, "" for the live dashboard.
func (h *Hub) Viewing(c *Client) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	day, ok := h.viewing[c]
	return day, ok
}

// Broadcast queues a live snapshot for every client following the live
// dashboard and returns how many accepted it. Clients pinned to another
// day keep their view.
func (h *Hub) Broadcast(msg []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c, day := range h.viewing {
		if day != "" {
			continue
		}
		if c.enqueue(msg) {
			n++
		}
	}
	return n
}

// Send queues msg for c alone, unless c has gone away.
func (h *Hub) Send(c *Client, msg []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.viewing[c]; !ok {
		return false
	}
	return c.enqueue(msg)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewing)
}
