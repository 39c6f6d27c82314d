package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"strom_dashboard/internal/fetch"
	"strom_dashboard/internal/log"
	"strom_dashboard/internal/model"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler pushes dashboard snapshots to WebSocket clients. Each client gets
// one snapshot on connect; further snapshots are only rendered on request.
// A reload for a specific day pins the client to that day until it asks for
// a plain reload again.
type Handler struct {
	hub    *Hub
	bridge *Bridge
}

func NewHandler(hub *Hub, bridge *Bridge) *Handler {
	return &Handler{hub: hub, bridge: bridge}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 16),
	}

	h.hub.Register(client)
	go client.writePump()

	h.sendSnapshot(r.Context(), client, h.bridge.runner.Now())

	h.readPump(r.Context(), client)
}

func (h *Handler) readPump(ctx context.Context, c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("WebSocket read error: %v", err)
			}
			return
		}

		h.handleMessage(ctx, c, msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *Client, msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		log.Warnf("Invalid message: %v", err)
		h.sendError(c, "invalid message")
		return
	}

	switch env.Type {
	case TypeDashboardReload:
		var p ReloadPayload
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				log.Warnf("Invalid reload payload: %v", err)
				h.sendError(c, "invalid reload payload")
				return
			}
		}
		if p.Day == "" {
			h.hub.View(c, "")
			h.bridge.Refresh(ctx)
			return
		}
		if !fetch.ValidDay(p.Day) {
			h.sendError(c, "invalid day "+p.Day)
			return
		}
		h.hub.View(c, p.Day)
		ref, _ := model.ParseDay(p.Day, h.bridge.runner.Location())
		h.sendSnapshot(ctx, c, ref)

	default:
		log.Warnf("Unknown message type: %s", env.Type)
		h.sendError(c, "unknown message type "+env.Type)
	}
}

func (h *Handler) sendSnapshot(ctx context.Context, c *Client, ref time.Time) {
	msg, err := h.bridge.Snapshot(ctx, ref)
	if err != nil {
		log.Errorf("Error creating dashboard snapshot: %v", err)
		return
	}
	h.hub.Send(c, msg)
}

func (h *Handler) sendError(c *Client, message string) {
	msg, err := NewEnvelope(TypeError, ErrorPayload{Message: message})
	if err != nil {
		return
	}
	h.hub.Send(c, msg)
}
