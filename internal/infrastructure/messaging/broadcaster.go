// Package messaging provides the concrete implementation of the event broadcaster.
package messaging

import (
	"sync"
	"time"

	"github.com/UpperPublicidade/upperchat-go/internal/domain/events"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/observability/logging"
	"github.com/google/uuid"
)

// Subscriber is one open push-channel connection. Envelopes arrive on Events
// in exactly the order they were published while the subscriber was
// registered.
type Subscriber struct {
	ID           string
	RegisteredAt time.Time
	ch           chan events.Envelope
}

// Events returns the subscriber's delivery channel. It is closed on
// unsubscribe.
func (s *Subscriber) Events() <-chan events.Envelope {
	return s.ch
}

// SnapshotFunc builds the init payload for a new subscriber from the current
// session state. The broadcaster fills in the subscriber id afterwards.
type SnapshotFunc func() events.InitPayload

// EventBroadcaster fans typed envelopes out to every registered subscriber.
// Delivery to one subscriber never blocks or affects another: each has its own
// buffered channel, and a full channel drops the envelope for that subscriber
// only.
type EventBroadcaster struct {
	mu          sync.Mutex
	subscribers map[string]*Subscriber
	buffer      int
	snapshot    SnapshotFunc
	logger      *logging.ChanneledLogger
}

// NewEventBroadcaster creates a broadcaster whose subscribers each get a
// delivery buffer of the given size. snapshot provides the init payload each
// new subscriber receives first.
func NewEventBroadcaster(buffer int, snapshot SnapshotFunc, logger *logging.ChanneledLogger) *EventBroadcaster {
	return &EventBroadcaster{
		subscribers: make(map[string]*Subscriber),
		buffer:      buffer,
		snapshot:    snapshot,
		logger:      logger,
	}
}

// Subscribe registers a new subscriber. The subscriber's first envelope is
// always an init snapshot of the session state at subscribe time: it is
// seeded into the channel before the subscriber joins the registry, so no
// subsequently published envelope can precede it.
func (b *EventBroadcaster) Subscribe() *Subscriber {
	sub := &Subscriber{
		ID:           uuid.NewString(),
		RegisteredAt: time.Now().UTC(),
		ch:           make(chan events.Envelope, b.buffer),
	}

	payload := b.snapshot()
	payload.ClientID = sub.ID
	sub.ch <- events.New(events.TypeInit, payload)

	b.mu.Lock()
	b.subscribers[sub.ID] = sub
	count := len(b.subscribers)
	b.mu.Unlock()

	b.logger.SSE().Debug("Subscriber registered", "subscriberId", sub.ID, "total", count)
	return sub
}

// Unsubscribe removes a subscriber and closes its channel. Removing an
// unknown or already-removed id is a no-op.
func (b *EventBroadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	sub, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
	}
	count := len(b.subscribers)
	b.mu.Unlock()

	if !ok {
		return
	}
	close(sub.ch)
	b.logger.SSE().Debug("Subscriber unregistered", "subscriberId", id, "total", count)
}

// Publish delivers envelope to every currently-registered subscriber. The
// registry is walked under the mutex, so an Unsubscribe racing a broadcast
// can never close a channel mid-send; the per-subscriber sends are
// non-blocking, so holding the lock is cheap.
func (b *EventBroadcaster) Publish(envelope events.Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subscribers {
		select {
		case sub.ch <- envelope:
		default:
			b.logger.SSE().Warn("Subscriber channel full, envelope dropped",
				"subscriberId", sub.ID, "type", string(envelope.Type), "eventId", envelope.EventID)
		}
	}

	b.logger.SSE().Debug("Envelope published",
		"type", string(envelope.Type), "eventId", envelope.EventID, "subscribers", len(b.subscribers))
}

// Count returns the number of registered subscribers.
func (b *EventBroadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
