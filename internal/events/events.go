// Package events fans dashboard events out to Server-Sent Events subscribers.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"fde-dashboard/internal/metrics"
)

// Type identifies a dashboard event.
type Type string

const (
	// ThemeChanged is published when a client switches theme.
	ThemeChanged Type = "theme_changed"
	// AssetsRefreshed is published when an asset probe changes availability.
	AssetsRefreshed Type = "assets_refreshed"
	// Rendered is published after each page render.
	Rendered Type = "rendered"
)

// Event is a single dashboard event.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Theme     string    `json:"theme,omitempty"`
	Page      string    `json:"page,omitempty"`
	Asset     string    `json:"asset,omitempty"`
}

// Bus manages publishing and subscription for SSE consumers.
type Bus struct {
	events      chan Event
	subscribers map[chan Event]struct{}
	mu          sync.RWMutex
	metrics     *metrics.Metrics
	shutdown    chan struct{}
	once        sync.Once
}

// NewBus creates a bus with the given buffer size and starts forwarding.
func NewBus(bufferSize int, m *metrics.Metrics) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	b := &Bus{
		events:      make(chan Event, bufferSize),
		subscribers: make(map[chan Event]struct{}),
		metrics:     m,
		shutdown:    make(chan struct{}),
	}
	go b.forward()
	return b
}

func (b *Bus) forward() {
	for {
		select {
		case ev := <-b.events:
			b.mu.RLock()
			for ch := range b.subscribers {
				select {
				case ch <- ev:
				default:
					// slow subscriber, drop
				}
			}
			b.mu.RUnlock()
		case <-b.shutdown:
			return
		}
	}
}

// Publish enqueues an event. It never blocks; events are dropped when the
// buffer is full or the bus is shut down.
func (b *Bus) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case <-b.shutdown:
		return
	default:
	}
	select {
	case b.events <- ev:
	default:
	}
}

// Subscribe registers a new subscriber channel.
func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, 10)
	b.mu.Lock()
	select {
	case <-b.shutdown:
		close(ch)
	default:
		b.subscribers[ch] = struct{}{}
	}
	n := len(b.subscribers)
	b.mu.Unlock()
	b.metrics.UpdateSubscribers(n)
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
	n := len(b.subscribers)
	b.mu.Unlock()
	b.metrics.UpdateSubscribers(n)
}

// Subscribers returns the number of connected subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Shutdown stops forwarding and closes every subscriber channel.
func (b *Bus) Shutdown() {
	b.once.Do(func() {
		b.mu.Lock()
		close(b.shutdown)
		for ch := range b.subscribers {
			close(ch)
		}
		b.subscribers = make(map[chan Event]struct{})
		b.mu.Unlock()
		b.metrics.UpdateSubscribers(0)
	})
}

// FormatSSE formats an event as a Server-Sent Events frame.
func FormatSSE(ev Event) (string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	return "event: " + string(ev.Type) + "\ndata: " + string(data) + "\n\n", nil
}
