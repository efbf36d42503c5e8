package wshub

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/coder/websocket"

	"github.com/arogoat/dubmaster-server/internal/events"
)

// ServerMessage is the JSON structure sent to clients.
type ServerMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Client represents a single WebSocket connection in the hub.
type Client struct {
	ConnID string
	Conn   *websocket.Conn
	Send   chan []byte
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub manages WebSocket connections and their lobby group membership.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	groups  map[string]map[string]struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]struct{}),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ConnID] = c
}

// Unregister removes a client from the hub and every group, and closes its
// Send channel.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	close(c.Send)
	delete(h.clients, connID)
	for lobbyID, members := range h.groups {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.groups, lobbyID)
		}
	}
}

// Join adds a connection to a lobby group.
func (h *Hub) Join(lobbyID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[lobbyID]
	if !ok {
		members = make(map[string]struct{})
		h.groups[lobbyID] = members
	}
	members[connID] = struct{}{}
}

// Leave removes a connection from a lobby group.
func (h *Hub) Leave(lobbyID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.groups[lobbyID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.groups, lobbyID)
		}
	}
}

// Broadcast sends a message to every member of a lobby group. Non-blocking:
// drops for clients whose channel is full.
func (h *Hub) Broadcast(lobbyID, event string, data any) {
	payload, err := json.Marshal(ServerMessage{Event: event, Data: data})
	if err != nil {
		log.Printf("[WSHub] Marshal error: %v\n", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for connID := range h.groups[lobbyID] {
		c, ok := h.clients[connID]
		if !ok {
			continue
		}
		select {
		case c.Send <- payload:
		default:
			// Drop message if channel full
		}
	}
}

// Send delivers a message to a single connection. Non-blocking.
func (h *Hub) Send(connID, event string, data any) {
	payload, err := json.Marshal(ServerMessage{Event: event, Data: data})
	if err != nil {
		log.Printf("[WSHub] Marshal error: %v\n", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[connID]
	if !ok {
		return
	}
	select {
	case c.Send <- payload:
	default:
	}
}

// Forward drains the outbound bus into the hub until the bus channel closes.
// Intended to run as a goroutine; it is the only consumer of the bus.
func (h *Hub) Forward(bus *events.Bus) {
	for out := range bus.Outbound {
		if out.ConnID != "" {
			h.Send(out.ConnID, out.Event, out.Data)
			continue
		}
		h.Broadcast(out.LobbyID, out.Event, out.Data)
	}
}
