package events

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// allKinds is the routing key for SubscribeAll handlers.
const allKinds Kind = "*"

type subscription struct {
	id     string
	kind   Kind
	mu     sync.Mutex
	active bool
	cancel func()
}

func (s *subscription) ID() string { return s.id }
func (s *subscription) Kind() Kind { return s.kind }

func (s *subscription) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *subscription) Cancel() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.mu.Unlock()
	s.cancel()
}

type entry struct {
	sub     *subscription
	handler Handler
}

type inMemoryBus struct {
	mu sync.RWMutex
	// kind -> subscription id -> entry; insertion order kept in order
	handlers map[Kind]map[string]entry
	order    map[Kind][]string
}

// New returns an empty Bus.
func New() Bus {
	return &inMemoryBus{
		handlers: make(map[Kind]map[string]entry),
		order:    make(map[Kind][]string),
	}
}

// NewEvent stamps an event with the current time.
func NewEvent(kind Kind, source string, data any) Event {
	return Event{Kind: kind, Source: source, Timestamp: time.Now(), Data: data}
}

func (b *inMemoryBus) Subscribe(kind Kind, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[kind] == nil {
		b.handlers[kind] = make(map[string]entry)
	}
	id := uuid.NewString()
	s := &subscription{id: id, kind: kind, active: true}
	s.cancel = func() { b.remove(kind, id) }
	b.handlers[kind][id] = entry{sub: s, handler: handler}
	b.order[kind] = append(b.order[kind], id)
	return s
}

func (b *inMemoryBus) SubscribeAll(handler Handler) Subscription {
	return b.Subscribe(allKinds, handler)
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) {
	if sub == nil {
		return
	}
	sub.Cancel()
}

func (b *inMemoryBus) Subscribers(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if kind == allKinds {
		return len(b.handlers[allKinds])
	}
	return len(b.handlers[kind]) + len(b.handlers[allKinds])
}

func (b *inMemoryBus) Publish(event Event) error {
	if event.Kind == "" {
		return errors.New("events: event kind is empty")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Handlers are collected under the read lock and invoked outside of it so
	// a handler may subscribe or cancel without deadlocking.
	b.mu.RLock()
	targets := b.collectLocked(event.Kind)
	targets = append(targets, b.collectLocked(allKinds)...)
	b.mu.RUnlock()

	var all error
	for _, t := range targets {
		if !t.sub.Active() {
			continue
		}
		if err := t.handler(event); err != nil {
			all = errors.Join(all, fmt.Errorf("handler %s: %w", t.sub.id, err))
		}
	}
	return all
}

func (b *inMemoryBus) collectLocked(kind Kind) []entry {
	ids := b.order[kind]
	out := make([]entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := b.handlers[kind][id]; ok {
			out = append(out, e)
		}
	}
	return out
}

func (b *inMemoryBus) remove(kind Kind, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers[kind], id)
	ids := b.order[kind]
	for i, v := range ids {
		if v == id {
			b.order[kind] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
}
