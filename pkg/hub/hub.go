package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-flightschool/internal/log"
)

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Name for logging
	name string
	log  *slog.Logger

	// Registered clients
	clients map[*Client]bool

	// Outbound messages, broadcast or directed
	outbound chan Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Handles inbound client messages
	handler Handler

	// Mutex for client map access from outside the loop
	mu sync.RWMutex

	// Running state
	running  atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
	dropped  atomic.Uint64
}

// New creates a new Hub
func New(name string) *Hub {
	return &Hub{
		name:       name,
		log:        log.With("component", "hub", "hub", name),
		clients:    make(map[*Client]bool),
		outbound:   make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// SetHandler installs the inbound message handler. Call before clients
// connect.
func (h *Hub) SetHandler(fn Handler) {
	h.mu.Lock()
	h.handler = fn
	h.mu.Unlock()
}

func (h *Hub) handle(c *Client, data []byte) {
	h.mu.RLock()
	fn := h.handler
	h.mu.RUnlock()
	if fn != nil {
		fn(c, data)
	}
}

// Run starts the hub's main loop. Blocks until Stop is called.
func (h *Hub) Run() {
	h.running.Store(true)
	defer h.running.Store(false)

	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.log.Info("hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client connected", "client", client.ID(), "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client disconnected", "client", client.ID(), "clients", count)

		case message := <-h.outbound:
			h.mu.Lock()
			if message.To != nil {
				if h.clients[message.To] {
					h.deliver(message.To, message.Data)
				}
			} else {
				for client := range h.clients {
					h.deliver(client, message.Data)
				}
			}
			h.mu.Unlock()
		}
	}
}

// deliver queues data for one client, dropping the client when its buffer
// is full. Caller holds h.mu.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		close(client.send)
		delete(h.clients, client)
		h.log.Warn("dropped slow client", "client", client.ID())
	}
}

// Stop ends the loop and closes every client. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.outbound <- msg:
	default:
		// Outbound channel full - drop message
		if n := h.dropped.Add(1); n == 1 || n%100 == 0 {
			h.log.Warn("outbound channel full, dropping message", "dropped", n)
		}
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// Send queues pre-encoded data for one client
func (h *Hub) Send(to *Client, data []byte) {
	h.Broadcast(NewDirectMessage(to, data))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning returns whether the hub is running
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}
