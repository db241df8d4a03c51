package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// EventType names a session lifecycle transition.
type EventType string

const (
	EventStarted EventType = "session.started"
	EventEnded   EventType = "session.ended"
	EventExpired EventType = "session.expired"
)

// Event is published whenever a session starts, ends or expires.
type Event struct {
	Type      EventType `json:"type"`
	UserID    string    `json:"userId"`
	SessionID string    `json:"sessionId"`
	At        time.Time `json:"at"`
}

type subscriber struct {
	ch     chan Event
	userID string
	once   sync.Once
}

// Broker is the process-wide session event bus. Subscribers filter by user
// ID; an empty user ID receives every event. Publish never blocks: events
// for a subscriber whose buffer is full are dropped.
type Broker struct {
	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	buffer int
}

// NewBroker creates a Broker with the given per-subscriber buffer size.
func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = 16
	}
	return &Broker{subs: make(map[*subscriber]struct{}), buffer: buffer}
}

// Subscribe registers interest in events for userID. The returned cancel
// function unregisters and closes the channel; it is safe to call twice.
func (b *Broker) Subscribe(userID string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, b.buffer), userID: userID}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		sub.once.Do(func() {
			b.mu.Lock()
			delete(b.subs, sub)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers e to every matching subscriber.
func (b *Broker) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		if sub.userID != "" && sub.userID != e.UserID {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			log.Warn().Str("user_id", e.UserID).Str("event", string(e.Type)).Msg("Dropping session event for slow subscriber")
		}
	}
}

// Subscribers returns the number of registered subscribers.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
