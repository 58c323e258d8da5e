package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"isuku-backend/internal/models"
)

// Event is a message fanned out to every client allowed to see CompanyID.
type Event struct {
	Type      string      `json:"type"`
	CompanyID *string     `json:"-"`
	Data      interface{} `json:"data"`
}

// Hub maintains active WebSocket connections and broadcasts schedule events
// to the tenants they belong to.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("✅ [WEBSOCKET] Client connected: %s (%s), total %d", client.Actor.UserID, client.Actor.Role, total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("🔴 [WEBSOCKET] Client disconnected: %s, remaining %d", client.Actor.UserID, len(h.clients))
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.deliver(event)

		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// join registers c with the running hub. It reports false once the hub has
// stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

// leave unregisters c. After Stop the hub has already closed every send
// channel, so there is nothing left to do.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

func (h *Hub) deliver(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("❌ Failed to marshal event %s: %v", event.Type, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if !client.Actor.CanAccessCompany(event.CompanyID) {
			continue
		}
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
			log.Printf("⚠️ Client buffer full, disconnecting: %s", client.Actor.UserID)
		}
	}
}

// Publish queues event for delivery. It never blocks the caller; events are
// dropped when the queue is full.
func (h *Hub) Publish(event Event) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("⚠️ [WEBSOCKET] Broadcast queue full, dropping %s", event.Type)
	}
}

// ScheduleChanged publishes the list representation of s as a schedule event.
func (h *Hub) ScheduleChanged(eventType string, s *models.Schedule) {
	h.Publish(Event{
		Type:      eventType,
		CompanyID: s.CompanyID,
		Data:      s.Present(models.ShapeList, time.Now()),
	})
}

func (h *Hub) Stop() {
	close(h.quit)
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
