package v1

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/shvkateryna/internship/plugin/ai/timeout"
	apierrors "github.com/shvkateryna/internship/server/internal/errors"
	"github.com/shvkateryna/internship/server/internal/observability"
)

// AskRequest is one user turn.
type AskRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// AskResponse carries the reply and the session it belongs to. Code and
// Error are set when the reply was produced but the turn was not stored.
type AskResponse struct {
	Reply     string              `json:"reply"`
	SessionID string              `json:"session_id"`
	Code      apierrors.ErrorCode `json:"code,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// Ask answers one turn of a conversation. A missing session id starts a new
// session; the id is returned either way.
// POST /api/v1/ask
func (s *APIV1Service) Ask(c echo.Context) error {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		return invalidArgument(c, "malformed request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return invalidArgument(c, "message is required")
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = shortuuid.New()
	}

	rc := observability.FromContextOrNew(c.Request().Context(), "http")
	rc.SessionID = sessionID

	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout.AskTimeout)
	defer cancel()

	reply, err := s.Agent.Ask(ctx, req.Message, sessionID)
	if err != nil {
		if reply == "" {
			return writeError(c, err)
		}
		apiErr := apierrors.Classify(err)
		rc.Error("turn answered but not stored", err, slog.String(observability.LogFieldErrorCode, string(apiErr.Code)))
		return c.JSON(apiErr.HTTPStatus(), AskResponse{
			Reply:     reply,
			SessionID: sessionID,
			Code:      apiErr.Code,
			Error:     apiErr.Message,
		})
	}

	rc.Debug("turn answered", slog.Int(observability.LogFieldMessageLen, len(req.Message)))
	return c.JSON(http.StatusOK, AskResponse{Reply: reply, SessionID: sessionID})
}
