package led

import "sync"

// Memory is a Strip that records every rendered frame.
type Memory struct {
	mu     sync.Mutex
	count  int
	frames []Frame
	closed bool
	err    error
}

// NewMemory returns a recording strip of count pixels.
func NewMemory(count int) *Memory {
	return &Memory{count: count}
}

// Len returns the number of pixels.
func (m *Memory) Len() int { return m.count }

// Render records a copy of frame.
func (m *Memory) Render(frame Frame) error {
	if err := checkLen(m, frame); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.frames = append(m.frames, frame.Clone())
	return nil
}

// FailWith makes subsequent renders return err. Nil restores normal behavior.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Frames returns copies of all recorded frames in render order.
func (m *Memory) Frames() []Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Frame, len(m.frames))
	for i, f := range m.frames {
		out[i] = f.Clone()
	}
	return out
}

// Close marks the strip closed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
