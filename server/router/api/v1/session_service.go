package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ClearSession forgets a session's history. Unknown ids are not an error.
// DELETE /api/v1/sessions/:id
func (s *APIV1Service) ClearSession(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return invalidArgument(c, "session id is required")
	}
	if err := s.Sessions.Clear(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
