package gpio

import "sync"

// Fake replays a scripted sequence of levels. Once the script is exhausted
// the last level is held.
type Fake struct {
	mu     sync.Mutex
	levels []bool
	pos    int
	reads  int
	closed bool
}

// NewFake returns a Fake that yields levels in order.
func NewFake(levels ...bool) *Fake {
	return &Fake{levels: levels}
}

// Sample returns the next scripted level, or high when nothing was scripted.
func (f *Fake) Sample() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if len(f.levels) == 0 {
		return true
	}
	level := f.levels[f.pos]
	if f.pos < len(f.levels)-1 {
		f.pos++
	}
	return level
}

// Set replaces the script with a single held level.
func (f *Fake) Set(high bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels = []bool{high}
	f.pos = 0
}

// Reads returns how many times Sample was called.
func (f *Fake) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Close marks the fake closed.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
