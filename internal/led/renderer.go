package led

import (
	"log/slog"
	"sync"

	"github.com/smazurov/switchlight/internal/events"
	"github.com/smazurov/switchlight/internal/message"
	"github.com/smazurov/switchlight/internal/metrics"
)

// Renderer turns commands into frames and pushes them to a strip.
// Renders are serialized; the broker callback, the HTTP API and the
// fallback loop may all call it.
type Renderer struct {
	mu      sync.Mutex
	strip   Strip
	frame   Frame
	last    message.Command
	bus     *events.Bus
	logger  *slog.Logger
	renders uint64
}

// NewRenderer wraps strip. The initial frame is all off but nothing is
// pushed until the first render. bus may be nil.
func NewRenderer(strip Strip, bus *events.Bus, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		strip:  strip,
		frame:  NewFrame(strip.Len(), Black),
		last:   message.Unknown,
		bus:    bus,
		logger: logger,
	}
}

// ColorFor returns the uniform color a command paints, and false for
// commands that leave the strip alone.
func ColorFor(cmd message.Command) (Color, bool) {
	switch cmd {
	case message.On:
		return White, true
	case message.Off:
		return Black, true
	default:
		return Black, false
	}
}

// Apply renders the frame for cmd. Unknown is a no-op and returns false.
func (r *Renderer) Apply(cmd message.Command) (bool, error) {
	c, ok := ColorFor(cmd)
	if !ok {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.renderLocked(NewFrame(r.strip.Len(), c)); err != nil {
		return false, err
	}
	r.last = cmd
	return true, nil
}

// Fill renders a uniform frame of c.
func (r *Renderer) Fill(c Color) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renderLocked(NewFrame(r.strip.Len(), c))
}

// Clear renders all pixels off.
func (r *Renderer) Clear() error {
	return r.Fill(Black)
}

// Frame returns a copy of the last rendered frame.
func (r *Renderer) Frame() Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame.Clone()
}

// LastCommand returns the last command that changed the strip.
func (r *Renderer) LastCommand() message.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Renders returns how many frames reached the strip.
func (r *Renderer) Renders() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renders
}

// Len returns the number of pixels.
func (r *Renderer) Len() int {
	return r.strip.Len()
}

func (r *Renderer) renderLocked(frame Frame) error {
	if err := r.strip.Render(frame); err != nil {
		metrics.IncRenderError()
		r.logger.Error("Failed to render frame", "error", err)
		return err
	}
	r.frame = frame
	r.renders++

	var first Color
	if len(frame) > 0 {
		first = frame[0]
	}
	metrics.ObserveRender(uint32(first))
	r.bus.Publish(events.FrameRenderedEvent{
		Color:     uint32(first),
		Pixels:    len(frame),
		Timestamp: events.Now(),
	})
	r.logger.Debug("Frame rendered", "color", first.String(), "pixels", len(frame))
	return nil
}
