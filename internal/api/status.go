package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/switchlight/internal/api/models"
	"github.com/smazurov/switchlight/internal/led"
	"github.com/smazurov/switchlight/internal/metrics"
)

func (s *Server) registerStatusRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Status",
		Description: "Listener session, LED strip, fallback pattern and process counters",
		Tags:        []string{"system"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.StatusResponse, error) {
		return &models.StatusResponse{Body: s.status()}, nil
	})
}

func (s *Server) status() models.StatusData {
	snap := metrics.GetSnapshot()
	data := models.StatusData{
		Counters: models.CounterStatus{
			ButtonTransitions: snap.ButtonTransitions,
			PublishFailures:   snap.PublishFailures,
			MessagesReceived:  snap.MessagesReceived,
			MessagesRejected:  snap.MessagesRejected,
			Renders:           snap.Renders,
		},
	}

	if s.opts.Listener != nil {
		st := s.opts.Listener.Status()
		data.Session = &models.SessionStatus{
			Connected:   st.Connected,
			Topic:       st.Topic,
			Received:    st.Received,
			Rejected:    st.Rejected,
			LastCommand: st.LastCommand,
		}
		if !st.LastMessageAt.IsZero() {
			at := st.LastMessageAt
			data.Session.LastMessageAt = &at
		}
	}

	if s.opts.LED != nil {
		status := ledStatus(s.opts.LED)
		data.LED = &status
	}

	if s.opts.FallbackActive != nil {
		data.Fallback = s.opts.FallbackActive()
	}

	return data
}

func ledStatus(c LEDController) models.LEDStatus {
	frame := c.Frame()
	first := led.Black
	if len(frame) > 0 {
		first = frame[0]
	}
	return models.LEDStatus{
		Pixels:      c.Len(),
		Color:       first.String(),
		Uniform:     frame.Uniform(first),
		LastCommand: c.LastCommand().String(),
		Renders:     c.Renders(),
	}
}
