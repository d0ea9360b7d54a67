package events

import "time"

// Publisher is what producers of scene changes depend on.
type Publisher interface {
	Publish(event Event) error
}

// Bus is an in-process, synchronous pub/sub bus.
//
// Handlers subscribe by Kind and run in the publisher's goroutine, so they
// should be quick. Handler errors are joined and returned from Publish.
// All methods are safe for concurrent use.
type Bus interface {
	Publisher
	// Subscribe registers handler for kind and returns a cancellable handle.
	Subscribe(kind Kind, handler Handler) Subscription
	// SubscribeAll registers handler for every kind.
	SubscribeAll(handler Handler) Subscription
	// Unsubscribe cancels sub. Nil is allowed.
	Unsubscribe(sub Subscription)
	// Subscribers reports how many active handlers would receive kind.
	Subscribers(kind Kind) int
}

type Kind string

const (
	KindEntityCreated Kind = "entity.created"
	KindEntityUpdated Kind = "entity.updated"
	KindEntityRemoved Kind = "entity.removed"
	KindSceneReplaced Kind = "scene.replaced"
)

// Event is an immutable notification. Data is owned by the event; producers
// hand over copies, consumers must not mutate it.
type Event struct {
	Kind      Kind
	Source    string
	Timestamp time.Time
	Data      any
}

type Handler func(Event) error

type Subscription interface {
	ID() string
	Kind() Kind
	Active() bool
	Cancel()
}
