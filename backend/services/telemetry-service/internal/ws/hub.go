package ws

import (
	"encoding/json"
	"sync"
	"time"
)

// Hub tracks subscriber connections and fans telemetry events out to them.
// Connection keepalive is handled per connection by its write pump.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*Connection
}

// NewHub builds connection hub.
func NewHub() *Hub {
	return &Hub{connections: make(map[string]*Connection)}
}

// Add registers new connection.
func (h *Hub) Add(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[conn.ClientID()] = conn
}

// Remove removes connection.
func (h *Hub) Remove(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.connections, clientID)
}

// Subscribers returns the current connection count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Broadcast marshals an event envelope and enqueues it to every subscriber.
// Slow subscribers drop messages instead of blocking the producer.
func (h *Hub) Broadcast(eventType string, payload any) {
	envelope := struct {
		Type      string    `json:"type"`
		Timestamp time.Time `json:"timestamp"`
		Data      any       `json:"data"`
	}{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	}
	msg, err := json.Marshal(envelope)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.connections {
		conn.Send(msg)
	}
}
