package listener

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/switchlight/internal/broker"
	"github.com/smazurov/switchlight/internal/gpio"
	"github.com/smazurov/switchlight/internal/led"
	"github.com/smazurov/switchlight/internal/message"
	"github.com/smazurov/switchlight/internal/publisher"
	"github.com/smazurov/switchlight/internal/session"
)

// warnCounter counts records at warn and above.
type warnCounter struct {
	mu    sync.Mutex
	count int
}

func (w *warnCounter) Enabled(context.Context, slog.Level) bool { return true }

func (w *warnCounter) Handle(_ context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		w.mu.Lock()
		w.count++
		w.mu.Unlock()
	}
	return nil
}

func (w *warnCounter) WithAttrs([]slog.Attr) slog.Handler { return w }
func (w *warnCounter) WithGroup(string) slog.Handler      { return w }

func (w *warnCounter) warnings() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestListener(t *testing.T, pixels int) (*Listener, *led.Renderer, *led.Memory, *warnCounter) {
	t.Helper()
	strip := led.NewMemory(pixels)
	renderer := led.NewRenderer(strip, nil, quietLogger())
	counter := &warnCounter{}
	l := New(renderer, Config{Topic: "n8n/button/state", QoS: 1}, nil, slog.New(counter))
	return l, renderer, strip, counter
}

func TestLegacySwitchStateKeyTurnsOn(t *testing.T) {
	l, renderer, _, _ := newTestListener(t, 144)

	l.Handle("n8n/button/state", []byte(`{"switch_state":"pressed"}`))

	frame := renderer.Frame()
	if len(frame) != 144 {
		t.Fatalf("frame has %d pixels, want 144", len(frame))
	}
	if !frame.Uniform(led.White) {
		t.Error("expected every pixel 0xFFFFFF")
	}
}

func TestUnknownSwitchStateLeavesFrame(t *testing.T) {
	l, renderer, strip, counter := newTestListener(t, 144)

	l.Handle("n8n/button/state", []byte(`{"button_state":"pressed"}`))
	before := renderer.Frame()

	l.Handle("n8n/button/state", []byte(`{"switch_state":"bogus"}`))

	if got := counter.warnings(); got != 1 {
		t.Errorf("diagnostics = %d, want 1", got)
	}
	after := renderer.Frame()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("pixel %d changed", i)
		}
	}
	if len(strip.Frames()) != 1 {
		t.Errorf("strip received %d frames, want 1", len(strip.Frames()))
	}

	st := l.Status()
	if st.Received != 2 || st.Rejected != 1 || st.LastCommand != "on" {
		t.Errorf("status = %+v", st)
	}
}

func TestStatusJSONOmitsLastMessageUntilReceived(t *testing.T) {
	l, _, _, _ := newTestListener(t, 4)

	raw, err := json.Marshal(l.Status())
	if err != nil {
		t.Fatal(err)
	}
	var fresh map[string]any
	if err := json.Unmarshal(raw, &fresh); err != nil {
		t.Fatal(err)
	}
	if _, ok := fresh["last_message_at"]; ok {
		t.Errorf("idle status carries last_message_at: %s", raw)
	}

	l.Handle("t", []byte(`{"button_state":"pressed"}`))
	raw, err = json.Marshal(l.Status())
	if err != nil {
		t.Fatal(err)
	}
	var got Status
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got.LastMessageAt.IsZero() || time.Since(got.LastMessageAt) > time.Minute {
		t.Errorf("last_message_at = %v in %s", got.LastMessageAt, raw)
	}
}

func TestMalformedPayloadsLeaveFrame(t *testing.T) {
	payloads := []string{"", "{", "null", `{"state":"pressed"}`, `{"button_state":true}`, `[1,2]`}
	l, renderer, strip, counter := newTestListener(t, 8)

	for _, p := range payloads {
		l.Handle("n8n/button/state", []byte(p))
	}

	if !renderer.Frame().Uniform(led.Black) {
		t.Error("frame changed on malformed input")
	}
	if len(strip.Frames()) != 0 {
		t.Errorf("strip received %d frames, want 0", len(strip.Frames()))
	}
	if counter.warnings() != len(payloads) {
		t.Errorf("diagnostics = %d, want %d", counter.warnings(), len(payloads))
	}
}

func TestReleasedTurnsOff(t *testing.T) {
	l, renderer, _, _ := newTestListener(t, 10)
	l.Handle("t", []byte(`{"button_state":"pressed"}`))
	l.Handle("t", []byte(`{"button_state":"released"}`))
	if !renderer.Frame().Uniform(led.Black) {
		t.Error("expected all off after released")
	}
	if renderer.LastCommand() != message.Off {
		t.Errorf("LastCommand() = %v", renderer.LastCommand())
	}
}

func TestStartFailureClosesSession(t *testing.T) {
	l, _, _, _ := newTestListener(t, 4)
	sess, err := session.New(session.Config{URL: "nats://127.0.0.1:1", ClientID: "x", ConnectTimeout: time.Second}, nil, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Start(context.Background(), sess); !session.IsCode(err, session.ErrCodeTransport) {
		t.Errorf("Start error = %v, want transport failure", err)
	}
	if l.Status().Connected {
		t.Error("listener reports connected after failure")
	}
	if err := l.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestButtonToStripEndToEnd(t *testing.T) {
	srv := broker.NewServer(broker.Options{Port: broker.RandomPort, Logger: quietLogger()})
	if err := srv.Start(); err != nil {
		t.Fatalf("broker: %v", err)
	}
	defer srv.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, renderer, _, _ := newTestListener(t, 144)
	subSess, err := session.New(session.Config{URL: srv.ClientURL(), ClientID: "button_state_update_subscriber_n8n", Role: "listener"}, nil, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Start(ctx, subSess); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer l.Stop()
	if !l.Status().Connected {
		t.Error("listener should report connected")
	}

	pubSess, err := session.New(session.Config{URL: srv.ClientURL(), ClientID: "button_n8n_testing_publisher", Role: "publisher"}, nil, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := pubSess.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	defer pubSess.Close()

	button := gpio.NewFake(true, false)
	loop := publisher.NewLoop(button, pubSess, publisher.Config{Topic: "n8n/button/state", QoS: 1, Interval: 5 * time.Millisecond}, nil, quietLogger())
	go loop.Run(ctx)

	waitFrame := func(c led.Color) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for !renderer.Frame().Uniform(c) || renderer.Renders() == 0 {
			if time.Now().After(deadline) {
				t.Fatalf("strip never showed %v", c)
			}
			time.Sleep(5 * time.Millisecond)
		}
	}

	waitFrame(led.White)
	button.Set(true)
	waitFrame(led.Black)
}
