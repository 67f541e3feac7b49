package feed

import (
	"sync"

	"github.com/closeloop/backend/internal/metrics"
	"github.com/rs/zerolog"
)

// Hub maintains the set of connected reporting clients and fans every
// recorded touchpoint out to them
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound touchpoint messages
	broadcast chan []byte

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex to protect clients map
	mu sync.RWMutex

	// Logger
	logger zerolog.Logger
}

// NewHub creates a new Hub
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	m := metrics.Get()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			m.RecordFeedConnect()
			h.logger.Info().
				Str("client_id", client.id).
				Int("total_clients", h.ClientCount()).
				Msg("feed client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				m.RecordFeedDisconnect()
				h.logger.Info().
					Str("client_id", client.id).
					Int("total_clients", len(h.clients)).
					Msg("feed client disconnected")
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.broadcastToAll(message)
		}
	}
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(message []byte) {
	h.broadcast <- message
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcastToAll(message []byte) {
	m := metrics.Get()

	// Write lock: slow clients get removed from the map below
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- message:
			m.RecordFeedMessage()
		default:
			// Client's send buffer is full, close and remove it
			close(client.send)
			delete(h.clients, client)
			m.RecordFeedError()
			h.logger.Warn().
				Str("client_id", client.id).
				Msg("feed client send buffer full, closing connection")
		}
	}
}
