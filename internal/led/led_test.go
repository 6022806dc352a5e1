package led

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/smazurov/switchlight/internal/events"
	"github.com/smazurov/switchlight/internal/message"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestColorRGB(t *testing.T) {
	r, g, b := Color(0x123456).RGB()
	if r != 0x12 || g != 0x34 || b != 0x56 {
		t.Errorf("RGB() = %x %x %x", r, g, b)
	}
	if White.String() != "#FFFFFF" {
		t.Errorf("String() = %q", White.String())
	}
}

func TestFrameRGBBytes(t *testing.T) {
	f := Frame{Red, Color(0x80FF00)}
	got := f.RGBBytes(255)
	want := []byte{0xFF, 0, 0, 0x80, 0xFF, 0}
	if string(got) != string(want) {
		t.Errorf("RGBBytes(255) = %v, want %v", got, want)
	}

	half := Frame{White}.RGBBytes(128)
	if half[0] != 128 || half[1] != 128 || half[2] != 128 {
		t.Errorf("RGBBytes(128) = %v", half)
	}
}

func TestNewDrivers(t *testing.T) {
	s, err := New(Config{Driver: "noop", Count: 8}, testLogger())
	if err != nil {
		t.Fatalf("noop driver: %v", err)
	}
	if s.Len() != 8 {
		t.Errorf("Len() = %d, want 8", s.Len())
	}
	if err := s.Render(NewFrame(8, White)); err != nil {
		t.Errorf("Render: %v", err)
	}
	if err := s.Render(NewFrame(3, White)); err == nil {
		t.Error("expected length mismatch error")
	}
	_ = s.Close()

	tests := []Config{
		{Driver: "noop", Count: 0},
		{Driver: "dmx", Count: 4},
	}
	for _, cfg := range tests {
		_, err := New(cfg, testLogger())
		var lerr *Error
		if !errors.As(err, &lerr) || lerr.Code != ErrCodeConfiguration {
			t.Errorf("New(%+v) error = %v, want configuration failure", cfg, err)
		}
	}
}

func TestRendererApply(t *testing.T) {
	strip := NewMemory(144)
	r := NewRenderer(strip, nil, testLogger())

	applied, err := r.Apply(message.On)
	if err != nil || !applied {
		t.Fatalf("Apply(On) = %v, %v", applied, err)
	}
	frame := r.Frame()
	if len(frame) != 144 || !frame.Uniform(White) {
		t.Errorf("expected 144 white pixels, got %d pixels", len(frame))
	}

	applied, err = r.Apply(message.Off)
	if err != nil || !applied {
		t.Fatalf("Apply(Off) = %v, %v", applied, err)
	}
	if !r.Frame().Uniform(Black) {
		t.Error("expected all black after Off")
	}
	if r.LastCommand() != message.Off {
		t.Errorf("LastCommand() = %v", r.LastCommand())
	}

	applied, err = r.Apply(message.Unknown)
	if err != nil || applied {
		t.Errorf("Apply(Unknown) = %v, %v, want no-op", applied, err)
	}
	if got := len(strip.Frames()); got != 2 {
		t.Errorf("strip received %d frames, want 2", got)
	}
	if r.Renders() != 2 {
		t.Errorf("Renders() = %d, want 2", r.Renders())
	}
}

func TestRendererIdempotent(t *testing.T) {
	for _, cmd := range []message.Command{message.On, message.Off} {
		r := NewRenderer(NewMemory(10), nil, testLogger())
		if _, err := r.Apply(cmd); err != nil {
			t.Fatal(err)
		}
		once := r.Frame()
		if _, err := r.Apply(cmd); err != nil {
			t.Fatal(err)
		}
		twice := r.Frame()
		for i := range once {
			if once[i] != twice[i] {
				t.Fatalf("%v: pixel %d differs after repeat", cmd, i)
			}
		}
	}
}

func TestRendererRenderError(t *testing.T) {
	strip := NewMemory(4)
	r := NewRenderer(strip, nil, testLogger())
	if _, err := r.Apply(message.On); err != nil {
		t.Fatal(err)
	}

	strip.FailWith(errors.New("spi busy"))
	if _, err := r.Apply(message.Off); err == nil {
		t.Fatal("expected render error")
	}
	if !r.Frame().Uniform(White) {
		t.Error("frame should keep the last successful render")
	}
	if r.LastCommand() != message.On {
		t.Errorf("LastCommand() = %v, want on", r.LastCommand())
	}
}

func TestRendererPublishesFrames(t *testing.T) {
	bus := events.New()
	received := make(chan events.FrameRenderedEvent, 1)
	unsub := bus.Subscribe(func(e events.FrameRenderedEvent) {
		select {
		case received <- e:
		default:
		}
	})
	defer unsub()

	r := NewRenderer(NewMemory(5), bus, testLogger())
	if _, err := r.Apply(message.On); err != nil {
		t.Fatal(err)
	}

	select {
	case e := <-received:
		if e.Color != uint32(White) || e.Pixels != 5 {
			t.Errorf("event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for FrameRenderedEvent")
	}
}

func TestFallbackCycle(t *testing.T) {
	strip := NewMemory(6)
	r := NewRenderer(strip, nil, testLogger())
	fb := NewFallback(r, 5*time.Millisecond, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		fb.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for len(strip.Frames()) < 6 {
		select {
		case <-deadline:
			t.Fatalf("only %d frames rendered", len(strip.Frames()))
		case <-time.After(5 * time.Millisecond):
		}
	}
	if !fb.Active() {
		t.Error("Active() = false while running")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fallback did not stop after cancel")
	}
	if fb.Active() {
		t.Error("Active() = true after stop")
	}

	frames := strip.Frames()
	for i, f := range frames {
		want := FallbackSequence[i%len(FallbackSequence)]
		if !f.Uniform(want) {
			t.Errorf("frame %d = %v, want uniform %v", i, f[0], want)
		}
	}

	if err := r.Clear(); err != nil {
		t.Fatal(err)
	}
	if !r.Frame().Uniform(Black) {
		t.Error("expected all off after clear")
	}
}

func TestFallbackDefaultInterval(t *testing.T) {
	fb := NewFallback(NewRenderer(NewMemory(1), nil, nil), 0, nil, nil)
	if fb.interval != DefaultFallbackInterval {
		t.Errorf("interval = %v, want %v", fb.interval, DefaultFallbackInterval)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"#FF0000", Red, false},
		{"00ff00", Green, false},
		{" #0000FF ", Blue, false},
		{"#FFF", Black, true},
		{"#GG0000", Black, true},
		{"", Black, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
