package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/switchlight/internal/events"
	"github.com/smazurov/switchlight/internal/led"
	"github.com/smazurov/switchlight/internal/listener"
	"github.com/smazurov/switchlight/internal/logging"
	"github.com/smazurov/switchlight/internal/message"
	"github.com/smazurov/switchlight/internal/version"
)

// LEDController is the part of the renderer the API drives.
type LEDController interface {
	Apply(cmd message.Command) (bool, error)
	Fill(c led.Color) error
	Frame() led.Frame
	LastCommand() message.Command
	Renders() uint64
	Len() int
}

// StatusSource reports the listener session.
type StatusSource interface {
	Status() listener.Status
}

// Options configures the API server.
type Options struct {
	AuthUsername      string
	AuthPassword      string
	EventBus          *events.Bus
	LED               LEDController // Optional, LED routes report 503 without it
	Listener          StatusSource  // Optional
	FallbackActive    func() bool   // Optional
	PrometheusHandler http.Handler  // Optional Prometheus metrics handler
}

// Server is the status and control API of the LED daemon.
type Server struct {
	api    huma.API
	mux    *http.ServeMux
	http   *http.Server
	opts   Options
	logger *slog.Logger
}

// NewServer builds the huma API on a stdlib ServeMux. A nil opts serves
// only the system routes and reports the strip as unavailable.
func NewServer(opts *Options) *Server {
	s := &Server{mux: http.NewServeMux(), logger: logging.GetLogger("api")}
	if opts != nil {
		s.opts = *opts
	}

	cors := DefaultCORSConfig()
	AddCORSHandler(s.mux, cors)

	cfg := huma.DefaultConfig("switchlight API", version.Version)
	cfg.Info.Description = "Status and manual control of the switchlight LED daemon"
	cfg.Servers = nil
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		authScheme: {Type: "http", Scheme: "basic"},
	}
	s.api = humago.New(s.mux, cfg)

	s.api.UseMiddleware(NewCORSMiddleware(cors), HTTPLoggingMiddleware)
	if s.opts.AuthUsername != "" && s.opts.AuthPassword != "" {
		s.api.UseMiddleware(requireAuth(s.api, credentials{
			user: []byte(s.opts.AuthUsername),
			pass: []byte(s.opts.AuthPassword),
		}))
	}
	if s.opts.PrometheusHandler != nil {
		s.mux.Handle("GET /metrics", s.opts.PrometheusHandler)
	}

	s.registerSystemRoutes()
	s.registerStatusRoutes()
	s.registerLEDRoutes()
	s.registerLogRoutes()
	s.registerSSERoutes()
	return s
}

func (s *Server) GetMux() *http.ServeMux { return s.mux }

func (s *Server) GetAPI() huma.API { return s.api }

// Start serves on addr until Stop is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("API listening", "addr", addr, "docs", "http://"+addr+"/docs")
	s.http = &http.Server{Addr: addr, Handler: s.mux, ReadHeaderTimeout: 10 * time.Second}
	return s.http.ListenAndServe()
}

// Stop closes the listener and every open connection, SSE streams included.
func (s *Server) Stop() error {
	if s.http == nil {
		return nil
	}
	s.logger.Info("API stopping")
	return s.http.Close()
}
