package v1

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/shvkateryna/internship/plugin/ai/agent/tools"
	"github.com/shvkateryna/internship/plugin/ai/lang"
	"github.com/shvkateryna/internship/plugin/ai/timeout"
	"github.com/shvkateryna/internship/server/internal/observability"
)

// ToolResponse is the output of a direct tool call. Fallback is true when
// the tool failed and Output holds its fallback message.
type ToolResponse struct {
	Tool     string `json:"tool"`
	Output   string `json:"output"`
	Fallback bool   `json:"fallback,omitempty"`
}

// SearchAboutMeRequest asks one question about the owner.
type SearchAboutMeRequest struct {
	Question string `json:"question"`
}

// TranslateRequest asks for a translation.
type TranslateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
}

// ListTools returns every registered tool definition.
// GET /api/v1/tools
func (s *APIV1Service) ListTools(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]tools.Definition{"tools": s.Tools.List()})
}

// SearchAboutMe answers a question from the personal corpus.
// POST /api/v1/about-me/search
func (s *APIV1Service) SearchAboutMe(c echo.Context) error {
	var req SearchAboutMeRequest
	if err := c.Bind(&req); err != nil {
		return invalidArgument(c, "malformed request body")
	}
	return s.invoke(c, tools.AboutMeToolName, tools.Args{"question": req.Question}, req.Question)
}

// Translate translates text, Ukrainian by default.
// POST /api/v1/translate
func (s *APIV1Service) Translate(c echo.Context) error {
	var req TranslateRequest
	if err := c.Bind(&req); err != nil {
		return invalidArgument(c, "malformed request body")
	}
	args := tools.Args{"text": req.Text}
	if t := strings.TrimSpace(req.TargetLanguage); t != "" {
		args["target_language"] = t
	}
	return s.invoke(c, tools.TranslateToolName, args, req.Text)
}

// Reindex rebuilds the retrieval index. The old index keeps serving if it fails.
// POST /api/v1/rag/reindex
func (s *APIV1Service) Reindex(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout.ReindexTimeout)
	defer cancel()

	out, err := s.Tools.Invoke(ctx, tools.ReindexToolName, nil)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ToolResponse{Tool: tools.ReindexToolName, Output: out})
}

// invoke runs a tool with fallback messages in the language of text.
func (s *APIV1Service) invoke(c echo.Context, name string, args tools.Args, text string) error {
	ctx := lang.NewContext(c.Request().Context(), lang.Detect(text))
	out, err := s.Tools.Invoke(ctx, name, args)
	if err == nil {
		return c.JSON(http.StatusOK, ToolResponse{Tool: name, Output: out})
	}

	var execErr *tools.ToolExecutionError
	if errors.As(err, &execErr) && execErr.Fallback != "" {
		observability.FromContextOrNew(ctx, "http").Warn("tool failed, serving fallback",
			slog.String("tool", name),
			slog.String("error", err.Error()))
		return c.JSON(http.StatusOK, ToolResponse{Tool: name, Output: execErr.Fallback, Fallback: true})
	}
	return writeError(c, err)
}
