// internal/pubsub/pubsub.go
//
// Per-room event fan-out over Server-Sent Events.
//
//   - Subscribers are grouped by room and identified by a UUID.
//   - Publish never blocks: a subscriber whose buffer is full misses the
//     event (counted in metrics.EventsDropped).
//   - ServeSSE writes "event: <kind>" / "data: <json>" frames plus a
//     periodic heartbeat comment.
//   - Close ends every open stream; the HTTP server calls it on shutdown.
package pubsub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword-rooms/internal/metrics"
)

const (
	channelBuffer = 16
	heartbeat     = 30 * time.Second
)

// Event kinds.
const (
	KindState    = "state"
	KindSettings = "settings"
	KindComplete = "complete"
	KindShowClue = "show_clue"
	KindDeleted  = "deleted"
)

// Event is one message to a room's subscribers.
type Event struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// NewEvent marshals data into an event.
func NewEvent(kind string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s event: %w", kind, err)
	}
	return Event{Kind: kind, Data: raw}, nil
}

// Subscriber is a single event stream.
type Subscriber struct {
	ID   uuid.UUID
	Room string
	ch   chan Event
}

// C returns the subscriber's event channel. It is closed on Unsubscribe.
func (s *Subscriber) C() <-chan Event { return s.ch }

// Broker routes events to the subscribers of a room.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[uuid.UUID]*Subscriber // room -> id -> subscriber
	closed bool
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[uuid.UUID]*Subscriber)}
}

// Subscribe adds a subscriber to room. After Close the subscriber's channel
// is already closed.
func (b *Broker) Subscribe(room string) *Subscriber {
	s := &Subscriber{ID: uuid.New(), Room: room, ch: make(chan Event, channelBuffer)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(s.ch)
		return s
	}
	if b.subs[room] == nil {
		b.subs[room] = make(map[uuid.UUID]*Subscriber)
	}
	b.subs[room][s.ID] = s
	b.mu.Unlock()

	metrics.Subscribers.Inc()
	return s
}

// Unsubscribe removes s and closes its channel. Safe to call twice.
func (b *Broker) Unsubscribe(s *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	room := b.subs[s.Room]
	if _, ok := room[s.ID]; !ok {
		return
	}
	delete(room, s.ID)
	if len(room) == 0 {
		delete(b.subs, s.Room)
	}
	close(s.ch)
	metrics.Subscribers.Dec()
}

// Close removes every subscriber and closes its channel, which ends all
// ServeSSE streams.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for room, subs := range b.subs {
		for _, s := range subs {
			close(s.ch)
			metrics.Subscribers.Dec()
		}
		delete(b.subs, room)
	}
}

// Publish sends e to every subscriber of room without blocking.
func (b *Broker) Publish(room string, e Event) {
	metrics.EventsPublished.WithLabelValues(e.Kind).Inc()

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs[room] {
		select {
		case s.ch <- e:
		default:
			metrics.EventsDropped.Inc()
			log.Debug().Str("room", room).Str("subscriber", s.ID.String()).Str("kind", e.Kind).Msg("event dropped")
		}
	}
}

// Count returns the number of subscribers of room.
func (b *Broker) Count(room string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[room])
}

// ServeSSE streams room's events to w until the client disconnects or the
// subscription is closed. initial events are written first.
func (b *Broker) ServeSSE(w http.ResponseWriter, r *http.Request, room string, initial ...Event) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming unsupported"}`, http.StatusInternalServerError)
		return
	}

	s := b.Subscribe(room)
	defer b.Unsubscribe(s)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for _, e := range initial {
		writeEvent(w, e)
	}
	flusher.Flush()

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-s.ch:
			if !ok {
				return
			}
			writeEvent(w, e)
			flusher.Flush()
			if e.Kind == KindDeleted {
				return
			}
		case <-ticker.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, e Event) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, e.Data)
}
