package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/switchlight/internal/events"
)

// registerSSERoutes streams bus events to dashboards.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time button, session, command, render, network and fallback events",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"button-state-changed":  events.ButtonStateChangedEvent{},
		"session-state-changed": events.SessionStateChangedEvent{},
		"command-received":      events.CommandReceivedEvent{},
		"frame-rendered":        events.FrameRenderedEvent{},
		"network-state-changed": events.NetworkStateChangedEvent{},
		"fallback-changed":      events.FallbackChangedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.ButtonStateChangedEvent](s.opts.EventBus, eventCh),
			events.SubscribeToChannel[events.SessionStateChangedEvent](s.opts.EventBus, eventCh),
			events.SubscribeToChannel[events.CommandReceivedEvent](s.opts.EventBus, eventCh),
			events.SubscribeToChannel[events.FrameRenderedEvent](s.opts.EventBus, eventCh),
			events.SubscribeToChannel[events.NetworkStateChangedEvent](s.opts.EventBus, eventCh),
			events.SubscribeToChannel[events.FallbackChangedEvent](s.opts.EventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
