// Package events fans post change notifications out to in-process
// subscribers.
package events

import (
	"sync"
	"time"
)

type Kind string

const (
	PostCreated Kind = "post.created"
	PostUpdated Kind = "post.updated"
	PostDeleted Kind = "post.deleted"
)

type Event struct {
	Kind      Kind
	PostID    string
	AccountID string
	At        time.Time
}

// Broker delivers every published Event to every current subscriber.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Broker struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	buffer int
	closed bool
}

// NewBroker returns a Broker giving each subscriber a channel of size buffer.
func NewBroker(buffer int) *Broker {
	return &Broker{subs: make(map[int]chan Event), buffer: buffer}
}

// Subscribe registers a new subscriber. The returned func unsubscribes and
// closes the channel; calling it more than once is safe.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Publish hands e to every subscriber with room for it and reports how many
// received it.
func (b *Broker) Publish(e Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, ch := range b.subs {
		select {
		case ch <- e:
			delivered++
		default:
		}
	}
	return delivered
}

// Close unsubscribes everyone. Later Subscribe calls get a closed channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	b.closed = true
}
