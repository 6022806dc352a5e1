package events

import (
	"time"

	"github.com/kelindar/event"
)

// Bus fans typed events out to subscribers through a kelindar/event
// dispatcher. Handlers run on the dispatcher's goroutines, never on the
// publisher's. A nil *Bus accepts every call and does nothing.
type Bus struct {
	dispatcher *event.Dispatcher
}

func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Publish delivers ev to the subscribers of its concrete type.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	switch e := ev.(type) {
	case ButtonStateChangedEvent:
		publish(b, e)
	case SessionStateChangedEvent:
		publish(b, e)
	case CommandReceivedEvent:
		publish(b, e)
	case FrameRenderedEvent:
		publish(b, e)
	case NetworkStateChangedEvent:
		publish(b, e)
	case FallbackChangedEvent:
		publish(b, e)
	}
}

// Subscribe registers handler, a func taking one of the event types, and
// returns its unsubscribe function. Other handler types are ignored.
func (b *Bus) Subscribe(handler any) func() {
	if b == nil {
		return func() {}
	}
	switch h := handler.(type) {
	case func(ButtonStateChangedEvent):
		return subscribe(b, h)
	case func(SessionStateChangedEvent):
		return subscribe(b, h)
	case func(CommandReceivedEvent):
		return subscribe(b, h)
	case func(FrameRenderedEvent):
		return subscribe(b, h)
	case func(NetworkStateChangedEvent):
		return subscribe(b, h)
	case func(FallbackChangedEvent):
		return subscribe(b, h)
	}
	return func() {}
}

func publish[T Event](b *Bus, e T) {
	event.Publish(b.dispatcher, e)
}

func subscribe[T Event](b *Bus, fn func(T)) func() {
	return event.Subscribe(b.dispatcher, fn)
}

// Now is the timestamp format shared by every event.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
