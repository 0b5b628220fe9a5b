package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Hub maintains the set of active clients and broadcasts messages to them.
// With replay enabled, a client that joins late first receives the last
// message broadcast, so a dashboard shows the current state immediately.
type Hub struct {
	name   string
	replay bool
	logger *slog.Logger

	// Registered clients, owned by the Run goroutine
	clients map[*Client]bool

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// Guards count and last for readers outside Run
	mu    sync.RWMutex
	count int
	last  *Message

	startOnce sync.Once
	running   bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithReplay sends the most recent message to newly joined clients.
func WithReplay() Option {
	return func(h *Hub) {
		h.replay = true
	}
}

// WithLogger sets the hub's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

// New creates a new Hub
func New(name string, opts ...Option) *Hub {
	h := &Hub{
		name:       name,
		logger:     slog.Default(),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "hub", "hub", name)
	return h
}

// Run fans messages out until ctx is cancelled, then disconnects every
// client. It should be called in a goroutine, once.
func (h *Hub) Run(ctx context.Context) {
	h.startOnce.Do(func() {
		h.mu.Lock()
		h.running = true
		h.mu.Unlock()
	})

	defer func() {
		for client := range h.clients {
			h.drop(client)
		}
		h.mu.Lock()
		h.running = false
		h.mu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = true
			h.mu.Lock()
			h.count = len(h.clients)
			last := h.last
			h.mu.Unlock()

			if h.replay && last != nil {
				select {
				case client.send <- *last:
				default:
				}
			}
			h.logger.Debug("client connected", "clients", len(h.clients))

		case client := <-h.unregister:
			if h.clients[client] {
				h.drop(client)
			}
			h.logger.Debug("client disconnected", "clients", len(h.clients))

		case message := <-h.broadcast:
			if h.replay {
				h.mu.Lock()
				h.last = &message
				h.mu.Unlock()
			}
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's buffer is full - they're too slow
					h.drop(client)
					h.logger.Warn("dropped slow client", "clients", len(h.clients))
				}
			}
		}
	}
}

// drop removes a client. Only called from Run.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.mu.Lock()
	h.count = len(h.clients)
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients.
// It never blocks; when the queue is full the message is dropped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast queue full, dropping message")
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

// BroadcastBinary broadcasts binary data (e.g., annotated camera frames)
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(NewBinaryMessage(data))
}

// Last returns the most recent message fanned out when replay is enabled.
func (h *Hub) Last() (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return Message{}, false
	}
	return *h.last, true
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// IsRunning returns whether the hub is running
func (h *Hub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

// Done is closed when Run returns.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// join registers c unless the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave unregisters c unless the hub has stopped.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
