package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/switchlight/internal/api/models"
	"github.com/smazurov/switchlight/internal/logging"
)

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// registerLogRoutes exposes the in-memory log ring buffer.
func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent logs",
		Description: "Most recent log entries from the in-memory ring buffer, oldest first. A limit of 0 returns everything retained.",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, input *models.LogsRequest) (*models.LogsResponse, error) {
		buffer := logging.GetBuffer()
		var entries []logging.LogEntry
		if input.Module == "" && input.Level == "" {
			entries = buffer.Last(input.Limit)
		} else {
			entries = filterLogs(buffer.ReadAll(), input.Module, input.Level)
			if input.Limit > 0 && len(entries) > input.Limit {
				entries = entries[len(entries)-input.Limit:]
			}
		}

		out := make([]models.LogEntry, 0, len(entries))
		for _, e := range entries {
			out = append(out, models.LogEntry{
				Timestamp:  e.Timestamp,
				Level:      e.Level,
				Module:     e.Module,
				Message:    e.Message,
				Attributes: e.Attributes,
			})
		}
		return &models.LogsResponse{Body: models.LogsData{Entries: out, Count: len(out)}}, nil
	})
}

func filterLogs(entries []logging.LogEntry, module, level string) []logging.LogEntry {
	minRank := levelRank[level]
	filtered := entries[:0:0]
	for _, e := range entries {
		if module != "" && e.Module != module {
			continue
		}
		if level != "" && levelRank[e.Level] < minRank {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}
