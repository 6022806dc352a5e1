package events

// Event type constants for kelindar/event.
const (
	TypeButtonStateChanged uint32 = iota + 1
	TypeSessionStateChanged
	TypeCommandReceived
	TypeFrameRendered
	TypeNetworkStateChanged
	TypeFallbackChanged
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ButtonStateChangedEvent is published by the publisher loop on every edge.
type ButtonStateChangedEvent struct {
	State     string `json:"state" example:"pressed" doc:"New button state"`
	Published bool   `json:"published" doc:"Whether the broker accepted the message"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Transition timestamp"`
}

// Type returns the event type identifier for ButtonStateChangedEvent.
func (e ButtonStateChangedEvent) Type() uint32 { return TypeButtonStateChanged }

// SessionStateChangedEvent reports broker session connects and drops.
type SessionStateChangedEvent struct {
	Role      string `json:"role" example:"listener" doc:"Session owner: publisher or listener"`
	Connected bool   `json:"connected" doc:"Whether the session is up"`
	Error     string `json:"error,omitempty" doc:"Reason for a drop"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionStateChangedEvent.
func (e SessionStateChangedEvent) Type() uint32 { return TypeSessionStateChanged }

// CommandReceivedEvent is published for every message the listener decodes,
// including ones that decoded to an unknown command.
type CommandReceivedEvent struct {
	Command   string `json:"command" example:"on" doc:"Decoded command: on, off or unknown"`
	Source    string `json:"source" example:"broker" doc:"Where the command came from: broker or api"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CommandReceivedEvent.
func (e CommandReceivedEvent) Type() uint32 { return TypeCommandReceived }

// FrameRenderedEvent is published after a frame reached the strip.
type FrameRenderedEvent struct {
	Color     uint32 `json:"color" doc:"Color of the first pixel, 0xRRGGBB"`
	Pixels    int    `json:"pixels" example:"144" doc:"Number of pixels rendered"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for FrameRenderedEvent.
func (e FrameRenderedEvent) Type() uint32 { return TypeFrameRendered }

// NetworkStateChangedEvent reports bring-up state machine transitions.
type NetworkStateChangedEvent struct {
	From      string `json:"from" example:"connecting" doc:"Previous state"`
	To        string `json:"to" example:"connected" doc:"New state"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for NetworkStateChangedEvent.
func (e NetworkStateChangedEvent) Type() uint32 { return TypeNetworkStateChanged }

// FallbackChangedEvent reports the fallback pattern starting or stopping.
type FallbackChangedEvent struct {
	Active    bool   `json:"active" doc:"Whether the fallback pattern is running"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for FallbackChangedEvent.
func (e FallbackChangedEvent) Type() uint32 { return TypeFallbackChanged }
