// Package middleware holds the echo middleware shared by the HTTP API.
package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/shvkateryna/internship/server/internal/observability"
)

// HeaderRequestID is echoed back on every response.
const HeaderRequestID = echo.HeaderXRequestID

// RequestContext attaches an observability.RequestContext to every request
// and logs its completion.
func RequestContext(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rc := observability.NewRequestContextWithID(logger, req.Header.Get(HeaderRequestID), "http")
			c.SetRequest(req.WithContext(observability.WithRequestContext(req.Context(), rc)))
			c.Response().Header().Set(HeaderRequestID, rc.RequestID)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			rc.Info("request completed",
				slog.String("method", req.Method),
				slog.String("path", c.Path()),
				slog.Int("status", c.Response().Status),
				slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
			return nil
		}
	}
}
