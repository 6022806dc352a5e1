// Package gpio samples the level of the button line.
package gpio

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Reader samples a digital input line.
type Reader interface {
	// Sample returns true when the line is high.
	Sample() bool
	Close() error
}

// PinReader reads a periph.io pin configured as a pulled-up input.
type PinReader struct {
	pin gpio.PinIO
}

var hostInit = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

// Open initializes the host drivers and configures the named line.
func Open(name string) (*PinReader, error) {
	if err := hostInit(); err != nil {
		return nil, newError(ErrCodeConfiguration, "host driver init failed", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, newError(ErrCodeConfiguration, fmt.Sprintf("gpio line %q not found", name), nil)
	}
	return NewPinReader(pin)
}

// NewPinReader configures pin as an input with the pull-up enabled and edge
// detection disabled. The line is polled.
func NewPinReader(pin gpio.PinIO) (*PinReader, error) {
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, newError(ErrCodeConfiguration, fmt.Sprintf("configure %s as input", pin.Name()), err)
	}
	return &PinReader{pin: pin}, nil
}

// Sample returns the current level.
func (r *PinReader) Sample() bool {
	return r.pin.Read() == gpio.High
}

// Name returns the line name.
func (r *PinReader) Name() string {
	return r.pin.Name()
}

// Close releases the line.
func (r *PinReader) Close() error {
	return r.pin.Halt()
}
