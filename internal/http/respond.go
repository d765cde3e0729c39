package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ctks/admin-console/internal/apiclient"
	"github.com/ctks/admin-console/internal/console"
	"github.com/ctks/admin-console/internal/http/middleware"
	"github.com/ctks/admin-console/internal/session"
	"github.com/ctks/admin-console/internal/validation"
)

type reply struct {
	Data    any              `json:"data,omitempty"`
	Notices []console.Notice `json:"notices"`
}

type failure struct {
	Error    string           `json:"error"`
	Field    string           `json:"field,omitempty"`
	Redirect string           `json:"redirect,omitempty"`
	Notices  []console.Notice `json:"notices,omitempty"`
}

// screenFunc runs one screen operation for the caller's workspace.
type screenFunc func(c echo.Context, ws *console.Workspace) (any, error)

// screen resolves the workspace of the guarded session and renders the
// result with the session's live notices.
func (s *Server) screen(fn screenFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, ok := middleware.SessionFromCtx(c)
		if !ok {
			return middleware.Unauthorized(c, "not logged in")
		}
		ws := s.workspaces.get(sess)
		out, err := fn(c, ws)
		if err != nil {
			return s.fail(c, ws, err)
		}
		return c.JSON(http.StatusOK, reply{Data: out, Notices: ws.Notices().Active()})
	}
}

// statusOf maps the error taxonomy onto HTTP.
func statusOf(err error) int {
	var verr *validation.Error
	var apiErr *apiclient.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, console.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, console.ErrRowBusy),
		errors.Is(err, console.ErrTransition),
		errors.Is(err, console.ErrNoConfirmation),
		errors.Is(err, console.ErrDialogClosed),
		errors.Is(err, console.ErrStale):
		return http.StatusConflict
	case errors.Is(err, session.ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr):
		switch apiErr.Kind {
		case apiclient.KindValidation:
			if apiErr.Status >= 400 && apiErr.Status < 500 {
				return apiErr.Status
			}
			return http.StatusBadRequest
		case apiclient.KindAuth:
			return http.StatusUnauthorized
		case apiclient.KindTransport:
			return http.StatusServiceUnavailable
		default:
			return http.StatusBadGateway
		}
	}
	return http.StatusBadRequest
}

func (s *Server) fail(c echo.Context, ws *console.Workspace, err error) error {
	status := statusOf(err)
	body := failure{Error: apiclient.MessageOf(err, err.Error())}
	if errors.Is(err, session.ErrNotAdmin) {
		body.Error = session.NotAdminMessage
	}

	var verr *validation.Error
	if errors.As(err, &verr) {
		body.Field = verr.Field
	}
	if status == http.StatusUnauthorized {
		// the session was invalidated by the API client's hook
		s.clearCookie(c)
		body.Redirect = "/"
	}
	if ws != nil {
		body.Notices = ws.Notices().Active()
	}
	return c.JSON(status, body)
}

func bind[T any](c echo.Context) (T, error) {
	var v T
	if err := c.Bind(&v); err != nil {
		return v, &validation.Error{Message: "malformed request body"}
	}
	return v, nil
}
