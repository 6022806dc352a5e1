// Package models holds the request and response bodies of the status API.
package models

import "time"

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"switchlight is running" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.2.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:30:00Z" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.11" doc:"Go toolchain version"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Operating system and architecture"`
}

type VersionResponse struct {
	Body VersionData
}

// Status models
type SessionStatus struct {
	Connected     bool       `json:"connected" doc:"Whether the listener session is up"`
	Topic         string     `json:"topic" example:"n8n/button/state" doc:"Subscribed topic"`
	Received      uint64     `json:"received" doc:"Messages delivered to the listener"`
	Rejected      uint64     `json:"rejected" doc:"Messages dropped as malformed"`
	LastCommand   string     `json:"last_command" example:"on" doc:"Last command decoded from the broker"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty" doc:"When the last message arrived"`
}

type LEDStatus struct {
	Pixels      int    `json:"pixels" example:"144" doc:"Number of pixels on the strip"`
	Color       string `json:"color" example:"#FFFFFF" doc:"Color of the first pixel"`
	Uniform     bool   `json:"uniform" doc:"Whether every pixel shows the same color"`
	LastCommand string `json:"last_command" example:"off" doc:"Last command that changed the strip"`
	Renders     uint64 `json:"renders" doc:"Frames pushed to the strip"`
}

type CounterStatus struct {
	ButtonTransitions uint64 `json:"button_transitions" doc:"Button edges detected in this process"`
	PublishFailures   uint64 `json:"publish_failures" doc:"State changes the broker did not accept"`
	MessagesReceived  uint64 `json:"messages_received" doc:"Messages delivered to the listener"`
	MessagesRejected  uint64 `json:"messages_rejected" doc:"Messages the listener dropped"`
	Renders           uint64 `json:"renders" doc:"Frames rendered"`
}

type StatusData struct {
	Session  *SessionStatus `json:"session,omitempty" doc:"Listener session, absent when not running"`
	LED      *LEDStatus     `json:"led,omitempty" doc:"LED strip, absent when not configured"`
	Fallback bool           `json:"fallback" doc:"Whether the fallback pattern is running"`
	Counters CounterStatus  `json:"counters" doc:"Process-wide counters"`
}

type StatusResponse struct {
	Body StatusData
}

// LED control models
type LEDRequestData struct {
	Command string `json:"command,omitempty" enum:"on,off,pressed,released" example:"on" doc:"Command to render"`
	Color   string `json:"color,omitempty" pattern:"^#?[0-9A-Fa-f]{6}$" example:"#FF0000" doc:"Uniform color to render instead of a command"`
}

type LEDRequest struct {
	Body LEDRequestData
}

type LEDResponse struct {
	Body LEDStatus
}

// Log models
type LogEntry struct {
	Timestamp  time.Time      `json:"timestamp" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"listener" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

type LogsRequest struct {
	Limit  int    `query:"limit" minimum:"0" maximum:"500" default:"100" doc:"Maximum number of entries, newest last"`
	Module string `query:"module" doc:"Only entries from this module"`
	Level  string `query:"level" enum:"debug,info,warn,error" doc:"Minimum level"`
}

type LogsData struct {
	Entries []LogEntry `json:"entries" doc:"Log entries in chronological order"`
	Count   int        `json:"count" doc:"Number of entries returned"`
}

type LogsResponse struct {
	Body LogsData
}
