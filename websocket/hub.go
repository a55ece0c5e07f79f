package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 32
)

// Notification represents a message sent over WebSocket
type Notification struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	SentAt  time.Time   `json:"sentAt"`
}

// Client represents a connected WebSocket client
type Client struct {
	UserID int64
	Role   string
	conn   *websocket.Conn
	send   chan Notification
}

// Hub tracks connected clients by user and role
type Hub struct {
	clients map[int64]map[*Client]bool
	mu      sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]bool),
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[*Client]bool)
	}
	h.clients[client.UserID][client] = true
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[client.UserID]
	if !ok || !conns[client] {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	}
	close(client.send)
}

// SendToUser queues a notification on every connection of a user. It returns
// false when the user has no open connection.
func (h *Hub) SendToUser(userID int64, n Notification) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := h.clients[userID]
	for client := range conns {
		enqueue(client, n)
	}
	return len(conns) > 0
}

// NotifyUser builds a notification and sends it to every connection of a user
func (h *Hub) NotifyUser(userID int64, eventType, message string, data interface{}) bool {
	return h.SendToUser(userID, Notification{
		Type:    eventType,
		Message: message,
		Data:    data,
		SentAt:  time.Now(),
	})
}

// Publish queues a notification for every connected user with role. It never
// blocks; slow clients lose messages.
func (h *Hub) Publish(role, eventType, message string, data interface{}) {
	n := Notification{
		Type:    eventType,
		Message: message,
		Data:    data,
		SentAt:  time.Now(),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conns := range h.clients {
		for client := range conns {
			if client.Role == role {
				enqueue(client, n)
			}
		}
	}
}

// Connected returns the number of open connections with role
func (h *Hub) Connected(role string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, conns := range h.clients {
		for client := range conns {
			if client.Role == role {
				count++
			}
		}
	}
	return count
}

func enqueue(client *Client, n Notification) {
	select {
	case client.send <- n:
	default:
	}
}
