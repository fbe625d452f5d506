// Package v1 serves the assistant's JSON HTTP API.
package v1

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shvkateryna/internship/plugin/ai/agent/tools"
	"github.com/shvkateryna/internship/plugin/ai/metrics"
	"github.com/shvkateryna/internship/plugin/ai/vector"
	apierrors "github.com/shvkateryna/internship/server/internal/errors"
	"github.com/shvkateryna/internship/server/internal/observability"
	"github.com/shvkateryna/internship/server/middleware"
)

// Asker answers one conversational turn.
type Asker interface {
	Ask(ctx context.Context, input, sessionID string) (string, error)
}

// ToolRegistry lists and invokes tools by name.
type ToolRegistry interface {
	List() []tools.Definition
	Invoke(ctx context.Context, name string, args tools.Args) (string, error)
}

// SessionClearer drops a session's history.
type SessionClearer interface {
	Clear(ctx context.Context, sessionID string) error
}

// IndexStatus reports the generation currently serving queries.
type IndexStatus interface {
	Active() *vector.Generation
}

// APIV1Service bundles the collaborators behind the HTTP API.
type APIV1Service struct {
	Agent    Asker
	Tools    ToolRegistry
	Sessions SessionClearer
	Index    IndexStatus
	Metrics  metrics.MetricsService
	Version  string

	limiter *middleware.RateLimiter
}

// NewAPIV1Service creates the API service. A nil limiter disables rate limiting.
func NewAPIV1Service(agent Asker, registry ToolRegistry, sessions SessionClearer, index IndexStatus, m metrics.MetricsService, limiter *middleware.RateLimiter) *APIV1Service {
	return &APIV1Service{
		Agent:    agent,
		Tools:    registry,
		Sessions: sessions,
		Index:    index,
		Metrics:  m,
		limiter:  limiter,
	}
}

// RegisterRoutes mounts the API on e.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", s.Healthz)

	g := e.Group("/api/v1")
	if s.limiter != nil {
		g.Use(middleware.RateLimit(s.limiter, middleware.ClientIP))
	}
	g.POST("/ask", s.Ask)
	g.POST("/about-me/search", s.SearchAboutMe)
	g.POST("/translate", s.Translate)
	g.POST("/rag/reindex", s.Reindex)
	g.GET("/tools", s.ListTools)
	g.DELETE("/sessions/:id", s.ClearSession)
	g.GET("/metrics", s.GetMetricsOverview)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code  apierrors.ErrorCode `json:"code"`
	Error string              `json:"error"`
}

// HealthResponse reports liveness and the serving index.
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version,omitempty"`
	IndexVersion uint64 `json:"index_version"`
	IndexChunks  int    `json:"index_chunks"`
}

// Healthz reports liveness.
// GET /healthz
func (s *APIV1Service) Healthz(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Version: s.Version}
	if s.Index != nil {
		if gen := s.Index.Active(); gen != nil {
			resp.IndexVersion = gen.Version
			resp.IndexChunks = gen.Len()
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// writeError logs err and answers with its classified status.
func writeError(c echo.Context, err error) error {
	apiErr := apierrors.Classify(err)
	rc := observability.FromContextOrNew(c.Request().Context(), "http")
	if apiErr.HTTPStatus() >= http.StatusInternalServerError {
		rc.Error("request failed", err, slog.String(observability.LogFieldErrorCode, string(apiErr.Code)))
	} else {
		rc.Warn("request rejected",
			slog.String(observability.LogFieldErrorCode, string(apiErr.Code)),
			slog.String("error", err.Error()))
	}
	return c.JSON(apiErr.HTTPStatus(), ErrorResponse{Code: apiErr.Code, Error: apiErr.Message})
}

func invalidArgument(c echo.Context, msg string) error {
	return writeError(c, apierrors.InvalidArgument(msg))
}
