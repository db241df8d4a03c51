package websocket

import (
	"sync"

	"github.com/isdelr/taskmanager/internal/metrics"
	"github.com/isdelr/taskmanager/internal/session"
	"github.com/rs/zerolog/log"
)

// Hub maintains the set of connected pages and forwards session events to
// the pages of the affected user.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// A map of user IDs to the set of clients of that user.
	users map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	events       <-chan session.Event
	cancelEvents func()
	done         chan struct{}
	stopOnce     sync.Once
}

// NewHub creates a new Hub subscribed to every event of broker.
func NewHub(broker *session.Broker) *Hub {
	events, cancel := broker.Subscribe("")
	return &Hub{
		clients:      make(map[*Client]bool),
		users:        make(map[string]map[*Client]bool),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		events:       events,
		cancelEvents: cancel,
		done:         make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				h.remove(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			if h.users[client.UserID] == nil {
				h.users[client.UserID] = make(map[*Client]bool)
			}
			h.users[client.UserID][client] = true
			metrics.WebSocketClients.Inc()
			log.Debug().Str("user_id", client.UserID).Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.remove(client)
				log.Debug().Str("user_id", client.UserID).Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case e, ok := <-h.events:
			if !ok {
				h.events = nil
				continue
			}
			h.dispatch(e)
		}
	}
}

// Stop halts the loop and disconnects every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.cancelEvents()
		close(h.done)
	})
}

// Attach registers a client. It returns false once the hub stopped.
func (h *Hub) Attach(c *Client) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Detach unregisters a client.
func (h *Hub) Detach(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// dispatch sends e to the user's clients. Ending and expiry only reach the
// pages holding the affected session.
func (h *Hub) dispatch(e session.Event) {
	subs, ok := h.users[e.UserID]
	if !ok {
		return
	}
	message := NewSessionMessage(e)
	for client := range subs {
		if e.Type != session.EventStarted && client.SessionID != e.SessionID {
			continue
		}
		select {
		case client.Send <- message:
		default:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	if subs, ok := h.users[client.UserID]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.users, client.UserID)
		}
	}
	client.close()
	metrics.WebSocketClients.Dec()
}
