package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/switchlight/internal/api/models"
	"github.com/smazurov/switchlight/internal/events"
	"github.com/smazurov/switchlight/internal/led"
	"github.com/smazurov/switchlight/internal/message"
)

// registerLEDRoutes registers manual LED control.
func (s *Server) registerLEDRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-leds",
		Method:      http.MethodGet,
		Path:        "/api/leds",
		Summary:     "Get LED strip",
		Description: "Current frame color, pixel count and last command",
		Tags:        []string{"leds"},
		Errors:      []int{401, 503},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.LEDResponse, error) {
		if s.opts.LED == nil {
			return nil, huma.Error503ServiceUnavailable("LED strip not configured")
		}
		return &models.LEDResponse{Body: ledStatus(s.opts.LED)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "control-leds",
		Method:      http.MethodPost,
		Path:        "/api/leds",
		Summary:     "Control LED strip",
		Description: "Render a command (on, off, pressed, released) or a uniform color. " +
			"The next broker message overrides it.",
		Tags:     []string{"leds"},
		Errors:   []int{400, 401, 500, 503},
		Security: withAuth(),
	}, func(_ context.Context, input *models.LEDRequest) (*models.LEDResponse, error) {
		if s.opts.LED == nil {
			return nil, huma.Error503ServiceUnavailable("LED strip not configured")
		}

		body := input.Body
		switch {
		case body.Command != "" && body.Color != "":
			return nil, huma.Error400BadRequest("command and color are mutually exclusive")

		case body.Command != "":
			cmd, err := message.ParseCommand(body.Command)
			if err != nil {
				return nil, huma.Error400BadRequest("Invalid command", err)
			}
			s.opts.EventBus.Publish(events.CommandReceivedEvent{
				Command:   cmd.String(),
				Source:    "api",
				Timestamp: events.Now(),
			})
			if _, err := s.opts.LED.Apply(cmd); err != nil {
				return nil, huma.Error500InternalServerError("Failed to render command", err)
			}
			s.logger.Info("LED command applied", "command", cmd.String())

		case body.Color != "":
			c, err := led.ParseColor(body.Color)
			if err != nil {
				return nil, huma.Error400BadRequest("Invalid color", err)
			}
			if err := s.opts.LED.Fill(c); err != nil {
				return nil, huma.Error500InternalServerError("Failed to render color", err)
			}
			s.logger.Info("LED color applied", "color", c.String())

		default:
			return nil, huma.Error400BadRequest("command or color is required")
		}

		return &models.LEDResponse{Body: ledStatus(s.opts.LED)}, nil
	})
}
