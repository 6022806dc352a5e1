package events

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

const quiet = 20 * time.Millisecond

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		var zero T
		t.Fatal("timed out waiting for event")
		return zero
	}
}

func expectNothing[T any](t *testing.T, ch <-chan T, what string) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("%s: unexpected %+v", what, v)
	case <-time.After(quiet):
	}
}

func TestPublishReachesEverySubscriberOfTheType(t *testing.T) {
	bus := New()
	a := make(chan CommandReceivedEvent, 1)
	b := make(chan CommandReceivedEvent, 1)
	defer bus.Subscribe(func(e CommandReceivedEvent) { a <- e })()
	defer bus.Subscribe(func(e CommandReceivedEvent) { b <- e })()

	sent := CommandReceivedEvent{Command: "on", Source: "broker", Timestamp: "2025-01-27T10:30:00Z"}
	bus.Publish(sent)

	if got := waitFor(t, a); got != sent {
		t.Errorf("first subscriber got %+v", got)
	}
	if got := waitFor(t, b); got != sent {
		t.Errorf("second subscriber got %+v", got)
	}
}

func TestSubscribersOnlySeeTheirType(t *testing.T) {
	bus := New()
	frames := make(chan FrameRenderedEvent, 1)
	network := make(chan NetworkStateChangedEvent, 1)
	defer bus.Subscribe(func(e FrameRenderedEvent) { frames <- e })()
	defer bus.Subscribe(func(e NetworkStateChangedEvent) { network <- e })()

	bus.Publish(FrameRenderedEvent{Color: 0xFFFFFF, Pixels: 144})
	waitFor(t, frames)
	expectNothing(t, network, "network subscriber after a frame")

	bus.Publish(NetworkStateChangedEvent{From: "idle", To: "connecting"})
	waitFor(t, network)
	expectNothing(t, frames, "frame subscriber after a network change")
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := New()
	got := make(chan SessionStateChangedEvent, 1)
	unsub := bus.Subscribe(func(e SessionStateChangedEvent) { got <- e })

	bus.Publish(SessionStateChangedEvent{Role: "listener", Connected: true})
	waitFor(t, got)

	unsub()
	bus.Publish(SessionStateChangedEvent{Role: "listener"})
	expectNothing(t, got, "after unsubscribe")
}

func TestEveryEventTypeIsRouted(t *testing.T) {
	bus := New()
	got := make(chan Event, 8)
	forward := func(e Event) { got <- e }

	unsubs := []func(){
		bus.Subscribe(func(e ButtonStateChangedEvent) { forward(e) }),
		bus.Subscribe(func(e SessionStateChangedEvent) { forward(e) }),
		bus.Subscribe(func(e CommandReceivedEvent) { forward(e) }),
		bus.Subscribe(func(e FrameRenderedEvent) { forward(e) }),
		bus.Subscribe(func(e NetworkStateChangedEvent) { forward(e) }),
		bus.Subscribe(func(e FallbackChangedEvent) { forward(e) }),
	}
	defer func() {
		for _, u := range unsubs {
			u()
		}
	}()

	all := []Event{
		ButtonStateChangedEvent{State: "released"},
		SessionStateChangedEvent{Role: "publisher"},
		CommandReceivedEvent{Command: "off"},
		FrameRenderedEvent{Pixels: 3},
		NetworkStateChangedEvent{To: "connected"},
		FallbackChangedEvent{Active: true},
	}
	for _, e := range all {
		bus.Publish(e)
		if out := waitFor(t, got); out.Type() != e.Type() {
			t.Errorf("published type %d, received type %d", e.Type(), out.Type())
		}
	}
}

func TestConcurrentPublish(t *testing.T) {
	const publishers, each = 8, 50

	bus := New()
	got := make(chan struct{}, publishers*each)
	defer bus.Subscribe(func(ButtonStateChangedEvent) { got <- struct{}{} })()

	var wg sync.WaitGroup
	for range publishers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range each {
				bus.Publish(ButtonStateChangedEvent{State: "pressed", Timestamp: Now()})
			}
		}()
	}
	wg.Wait()

	for range publishers * each {
		waitFor(t, got)
	}
}

func TestNilBusAndUnknownHandler(t *testing.T) {
	var nilBus *Bus
	nilBus.Publish(ButtonStateChangedEvent{State: "pressed"})
	nilBus.Subscribe(func(ButtonStateChangedEvent) {})()
	SubscribeToChannel[FallbackChangedEvent](nilBus, make(chan any))()

	New().Subscribe(func(string) {})()
}

func TestFrameRenderedJSON(t *testing.T) {
	data, err := json.Marshal(FrameRenderedEvent{Color: 0xFFFFFF, Pixels: 144, Timestamp: "2025-01-27T10:30:00Z"})
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["color"] != float64(0xFFFFFF) || decoded["pixels"] != float64(144) {
		t.Errorf("unexpected payload: %s", data)
	}
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 4)
	defer SubscribeToChannel[CommandReceivedEvent](bus, ch)()

	bus.Publish(CommandReceivedEvent{Command: "on", Source: "api"})

	cmd, ok := waitFor(t, ch).(CommandReceivedEvent)
	if !ok || cmd.Source != "api" {
		t.Errorf("received %+v", cmd)
	}
}

func TestSubscribeToChannelDropsWhenFull(t *testing.T) {
	bus := New()
	defer SubscribeToChannel[FallbackChangedEvent](bus, make(chan any))()

	done := make(chan struct{})
	go func() {
		bus.Publish(FallbackChangedEvent{Active: true})
		close(done)
	}()
	waitFor(t, done)
}
