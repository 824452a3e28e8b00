package eventbus

import (
	"sync"

	"github.com/bluetuith-org/blz/api/bluetooth"
	"github.com/cskr/pubsub/v2"
)

// DefaultCapacity is the channel capacity of each subscriber of the default handler.
const DefaultCapacity = 16

// EventPublisher represents an interface that provides an event publisher.
type EventPublisher interface {
	// Publish publishes an event to the event stream. It must not block.
	Publish(id bluetooth.EventID, data any)
}

// EventSubscriber represents an interface that provides an event subscriber.
type EventSubscriber interface {
	// Subscribe subscribes to an event stream.
	Subscribe(id bluetooth.EventID) (<-chan any, func())
}

// EventHandler represents an interface that provides an event publisher and subscriber.
type EventHandler interface {
	EventPublisher
	EventSubscriber
}

// defaultEventHandler publishes events through an in-process pubsub.
type defaultEventHandler struct {
	ps *pubsub.PubSub[bluetooth.EventID, any]
}

// nilEventHandler represents a disabled event handler.
type nilEventHandler struct{}

// handler is created on the first Subscribe, so that a process without
// subscribers runs no pubsub goroutine. Publish drops events until then.
var (
	handler EventHandler
	mu      sync.RWMutex
)

// RegisterEventHandler replaces the event handler. Passing nil disables events.
func RegisterEventHandler(eh EventHandler) {
	if eh == nil {
		eh = NilHandler()
	}

	mu.Lock()
	defer mu.Unlock()

	handler = eh
}

// DisableEvents unregisters the event handler.
func DisableEvents() {
	RegisterEventHandler(nil)
}

// Publish publishes an event of the given kind with the given action.
func Publish[T bluetooth.Events](id bluetooth.EventID, action bluetooth.EventAction, data T) {
	mu.RLock()
	h := handler
	mu.RUnlock()

	if h == nil {
		return
	}

	h.Publish(id, bluetooth.Event[T]{ID: id, Action: action, Data: data})
}

// Subscriber holds a typed subscription to an event stream.
type Subscriber[T bluetooth.Events] struct {
	C <-chan bluetooth.Event[T]

	done  chan struct{}
	unsub func()
	once  sync.Once
}

// Subscribe subscribes to the event stream of the given kind. Events whose
// payload is not of type T are skipped.
func Subscribe[T bluetooth.Events](id bluetooth.EventID) *Subscriber[T] {
	raw, unsub := currentHandler().Subscribe(id)
	out := make(chan bluetooth.Event[T], DefaultCapacity)
	s := &Subscriber[T]{C: out, done: make(chan struct{}), unsub: unsub}

	go func() {
		defer close(out)

		for {
			select {
			case <-s.done:
				return

			case ev, ok := <-raw:
				if !ok {
					return
				}

				typed, ok := ev.(bluetooth.Event[T])
				if !ok {
					continue
				}

				select {
				case out <- typed:
				case <-s.done:
					return
				}
			}
		}
	}()

	return s
}

// Unsubscribe stops the subscription and closes its channel.
func (s *Subscriber[T]) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		s.unsub()
	})
}

// currentHandler returns the registered handler, creating the default one
// if none was registered yet.
func currentHandler() EventHandler {
	mu.Lock()
	defer mu.Unlock()

	if handler == nil {
		handler = DefaultHandler()
	}

	return handler
}

// DefaultHandler returns the default event handler.
func DefaultHandler() EventHandler {
	return &defaultEventHandler{ps: pubsub.New[bluetooth.EventID, any](DefaultCapacity)}
}

// NilHandler returns a disabled event handler.
func NilHandler() EventHandler {
	return &nilEventHandler{}
}

// Publish publishes an event to the event stream, dropping it for subscribers
// that are not keeping up.
func (d *defaultEventHandler) Publish(id bluetooth.EventID, data any) {
	d.ps.TryPub(data, id)
}

// Subscribe subscribes to an event from the event stream.
func (d *defaultEventHandler) Subscribe(id bluetooth.EventID) (<-chan any, func()) {
	ch := d.ps.Sub(id)

	return ch, func() {
		go d.ps.Unsub(ch, id)
	}
}

// Publish does not do anything.
func (n *nilEventHandler) Publish(bluetooth.EventID, any) {
}

// Subscribe returns a closed channel.
func (n *nilEventHandler) Subscribe(bluetooth.EventID) (<-chan any, func()) {
	ch := make(chan any)
	close(ch)

	return ch, func() {}
}
