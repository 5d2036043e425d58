// Package ws pushes the live feed (state updates, alert channel
// payloads, weather) to connected WebSocket clients.
package ws

import (
	"encoding/json"
	"log"
	"sync"

	"road-monitor/internal/domain"
)

// Hub tracks connected clients and fans feed messages out to them. A
// client too slow to drain its send buffer is disconnected rather than
// allowed to stall the feed.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case payload := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- payload:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast serializes one feed message and queues it for every
// connected client. A full hub queue drops the message; the feed is
// best-effort by design of the channel it mirrors.
func (h *Hub) Broadcast(msg *domain.FeedMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("feed message marshal failed (%s): %v", msg.Type, err)
		return
	}

	select {
	case h.broadcast <- payload:
	default:
	}
}

// ClientCount reports the number of connected clients. Served on the
// health endpoint.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
