package websocket

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
)

// Client is one connected dashboard session.
type Client struct {
	Conn   *websocket.Conn
	UserID int
	Mu     sync.Mutex
}

// Hub fans notification events out to connected clients.
type Hub struct {
	Clients    map[*Client]bool
	Broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Broadcast:  make(chan []byte, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// BroadcastJSON marshals v and queues it for every connected client.
// Safe to call with a nil hub (tests run without the ws loop).
func (h *Hub) BroadcastJSON(v interface{}) {
	if h == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case h.Broadcast <- payload:
	default:
		// No reader means the hub loop is not running; drop the event.
	}
}

// Run owns the client set. Register, unregister and broadcast all go
// through this loop, so no lock is needed around Clients.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.Clients[client] = true
		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				client.Conn.Close()
			}
		case message := <-h.Broadcast:
			for client := range h.Clients {
				client.Mu.Lock()
				err := client.Conn.WriteMessage(websocket.TextMessage, message)
				client.Mu.Unlock()
				if err != nil {
					delete(h.Clients, client)
					client.Conn.Close()
				}
			}
		}
	}
}
