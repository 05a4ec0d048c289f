// Package realtime fans out state-change events to connected viewers.
package realtime

import (
	"sync"

	"github.com/bissquit/statusdeck/internal/domain"
	"github.com/bissquit/statusdeck/internal/pkg/metrics"
)

// DefaultSubscriberBuffer is the per-subscriber channel capacity used
// when no explicit buffer size is configured.
const DefaultSubscriberBuffer = 64

// Broker is an in-process fan-out hub. Publishing is fire-and-forget:
// it never blocks, never fails the caller, and drops events for
// subscribers whose buffer is full. There is no persistence or replay;
// a subscriber only sees events published while it is subscribed.
type Broker struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	buffer int
}

// NewBroker creates a broker with the given per-subscriber buffer size.
func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &Broker{
		subs:   make(map[uint64]*Subscription),
		buffer: buffer,
	}
}

// Subscribe registers a new viewer and returns its subscription handle.
// The caller must Close the subscription when done.
func (b *Broker) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		id:     b.nextID,
		broker: b,
		ch:     make(chan domain.StreamEvent, b.buffer),
	}
	b.subs[sub.id] = sub
	metrics.RealtimeSubscribers.Set(float64(len(b.subs)))
	return sub
}

// ServiceStatusUpdated broadcasts a service_status_updated event.
func (b *Broker) ServiceStatusUpdated(service *domain.ServiceDetail) {
	b.publish(domain.StreamEvent{Type: domain.StreamServiceStatusUpdated, Service: service})
}

// IncidentCreated broadcasts an incident_created event.
func (b *Broker) IncidentCreated(incident *domain.IncidentDetail) {
	b.publish(domain.StreamEvent{Type: domain.StreamIncidentCreated, Incident: incident})
}

// IncidentUpdated broadcasts an incident_updated event.
func (b *Broker) IncidentUpdated(incident *domain.IncidentDetail) {
	b.publish(domain.StreamEvent{Type: domain.StreamIncidentUpdated, Incident: incident})
}

// SubscriberCount returns the number of active subscriptions.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broker) publish(event domain.StreamEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	metrics.RealtimeEventsPublished.WithLabelValues(string(event.Type)).Inc()

	for _, sub := range b.subs {
		select {
		case sub.ch <- event:
		default:
			// Slow consumer: drop rather than block the publisher.
			metrics.RealtimeEventsDropped.Inc()
		}
	}
}

func (b *Broker) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(sub.ch)
	metrics.RealtimeSubscribers.Set(float64(len(b.subs)))
}

// Subscription is a disposable handle for one viewer's event feed.
type Subscription struct {
	id     uint64
	broker *Broker
	ch     chan domain.StreamEvent
}

// Events returns the channel events are delivered on. The channel is
// closed by Close.
func (s *Subscription) Events() <-chan domain.StreamEvent {
	return s.ch
}

// Close unsubscribes and closes the event channel. Safe to call more
// than once; events published after Close are never delivered.
func (s *Subscription) Close() {
	s.broker.unsubscribe(s.id)
}
