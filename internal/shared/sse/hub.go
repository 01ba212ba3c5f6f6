package sse

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event a server-sent event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client a connected event stream
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub fan-out of events to connected clients
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register adds a client
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("sse client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.Int("total", len(h.clients)))
}

// Unregister removes a client and closes its channel
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("sse client unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// ClientCount number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends to every client; slow clients drop the event
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("sse client buffer full, skipping event", zap.String("client_id", client.ID))
		}
	}
}

// TicketUpdate payload of a ticket_update event
type TicketUpdate struct {
	Kind   string `json:"kind"` // complaint/intervention/response/evaluation
	ID     string `json:"id"`
	Name   string `json:"name"`
	Action string `json:"action"`
	State  string `json:"state,omitempty"`
}

// PublishTicketUpdate broadcasts a ticket lifecycle change. Safe on a nil hub.
func (h *Hub) PublishTicketUpdate(u TicketUpdate) {
	if h == nil {
		return
	}
	data, err := json.Marshal(u)
	if err != nil {
		return
	}
	h.Broadcast(Event{EventType: "ticket_update", Data: string(data)})
}
