package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/switchlight/internal/api/models"
	"github.com/smazurov/switchlight/internal/version"
)

func (s *Server) registerSystemRoutes() {
	huma.Get(s.api, "/api/health", func(context.Context, *struct{}) (*models.HealthResponse, error) {
		resp := &models.HealthResponse{}
		resp.Body.Status = "ok"
		resp.Body.Message = "switchlight is running"
		return resp, nil
	}, func(op *huma.Operation) {
		op.OperationID = "health"
		op.Summary = "Liveness probe"
		op.Tags = []string{"system"}
		op.Security = public()
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Build metadata",
		Tags:        []string{"system"},
		Security:    public(),
	}, func(context.Context, *struct{}) (*models.VersionResponse, error) {
		v := version.Get()
		return &models.VersionResponse{Body: models.VersionData(v)}, nil
	})
}
