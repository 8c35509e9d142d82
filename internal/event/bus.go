// internal/event/bus.go
package event

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Bus is a typed publish/subscribe fan-out. Delivery is synchronous and
// in subscription order; a panicking subscriber is isolated and logged,
// never preventing delivery to the remaining subscribers. There is no
// buffering or replay: a subscriber attached after an event fired never
// receives it.
type Bus struct {
	mu     sync.Mutex
	log    *logrus.Logger
	nextID uint64
	subs   map[Channel][]subscriber
}

type subscriber struct {
	id uint64
	cb Callback
}

// NewBus creates a bus. A nil logger falls back to the logrus standard
// logger.
func NewBus(log *logrus.Logger) *Bus {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Bus{
		log:  log,
		subs: make(map[Channel][]subscriber),
	}
}

// Subscribe registers cb on ch and returns its unsubscribe func.
// Unsubscribing twice is harmless.
func (b *Bus) Subscribe(ch Channel, cb Callback) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[ch] = append(b.subs[ch], subscriber{id: id, cb: cb})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[ch]
		for i, s := range list {
			if s.id == id {
				b.subs[ch] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers e to every current subscriber of e.Channel, in
// subscription order.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	list := b.subs[e.Channel]
	targets := make([]subscriber, len(list))
	copy(targets, list)
	b.mu.Unlock()

	for _, s := range targets {
		b.deliver(s, e)
	}
}

// deliver invokes one callback, containing any panic it raises.
func (b *Bus) deliver(s subscriber, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(logrus.Fields{
				"channel": e.Channel,
				"panic":   r,
			}).Error("event subscriber panicked")
		}
	}()
	s.cb(e)
}

// Clear drops every subscriber. Used on engine destroy.
func (b *Bus) Clear() {
	b.mu.Lock()
	b.subs = make(map[Channel][]subscriber)
	b.mu.Unlock()
}
