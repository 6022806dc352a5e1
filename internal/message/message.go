// Package message defines the JSON wire format exchanged between the button
// publisher and the LED listener.
package message

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ButtonState is the logical state of the push button.
type ButtonState string

// Button states carried on the wire.
const (
	Pressed  ButtonState = "pressed"
	Released ButtonState = "released"
)

// StateFromLevel maps a sampled line level to a button state.
// The line is pulled up, so high means released.
func StateFromLevel(high bool) ButtonState {
	if high {
		return Released
	}
	return Pressed
}

// Valid reports whether s is one of the two known states.
func (s ButtonState) Valid() bool {
	return s == Pressed || s == Released
}

// StateChangeEvent is the payload published on every button edge.
type StateChangeEvent struct {
	State ButtonState `json:"button_state"`
}

// Marshal serializes the event to its wire form.
func (e StateChangeEvent) Marshal() ([]byte, error) {
	if !e.State.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownState, e.State)
	}
	return json.Marshal(e)
}

// Decode errors. Every one of them wraps ErrMalformed.
var (
	ErrMalformed    = errors.New("malformed message")
	ErrMissingField = fmt.Errorf("%w: missing state field", ErrMalformed)
	ErrUnknownState = fmt.Errorf("%w: unknown state", ErrMalformed)
)

// Command is the action the LED listener takes for a message.
type Command int

// Commands decoded from a payload.
const (
	Unknown Command = iota
	On
	Off
)

func (c Command) String() string {
	switch c {
	case On:
		return "on"
	case Off:
		return "off"
	default:
		return "unknown"
	}
}

// CommandFor maps a button state to the LED command.
func CommandFor(s ButtonState) Command {
	switch s {
	case Pressed:
		return On
	case Released:
		return Off
	default:
		return Unknown
	}
}

// ParseCommand accepts "on", "off" and the two button states, case sensitive.
func ParseCommand(s string) (Command, error) {
	switch s {
	case "on", string(Pressed):
		return On, nil
	case "off", string(Released):
		return Off, nil
	default:
		return Unknown, fmt.Errorf("%w: %q", ErrUnknownState, s)
	}
}

type wirePayload struct {
	ButtonState *string `json:"button_state"`
	SwitchState *string `json:"switch_state"`
}

// Decode parses a payload into a command. The button_state key is read
// first; switch_state is accepted for older publishers. Unknown keys are
// ignored. A payload whose state is not recognised returns Unknown together
// with ErrUnknownState.
func Decode(payload []byte) (Command, error) {
	var p wirePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Unknown, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	state := p.ButtonState
	if state == nil {
		state = p.SwitchState
	}
	if state == nil {
		return Unknown, ErrMissingField
	}

	cmd := CommandFor(ButtonState(*state))
	if cmd == Unknown {
		return Unknown, fmt.Errorf("%w: %q", ErrUnknownState, *state)
	}
	return cmd, nil
}
