package middleware

import (
	"context"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"

	"github.com/ctks/admin-console/internal/session"
)

const (
	ctxSession = "console_session"

	// SessionHeader carries the session id for non-browser clients.
	SessionHeader = "X-Console-Session"
)

// SessionSource resolves a console session id.
type SessionSource interface {
	Current(ctx context.Context, id string) (*session.Session, error)
}

// SessionFromCtx returns the session stored by SessionGuard.
func SessionFromCtx(c echo.Context) (*session.Session, bool) {
	s, ok := c.Get(ctxSession).(*session.Session)
	return s, ok && s != nil
}

// SessionID reads the console session id from the cookie or the header.
func SessionID(c echo.Context, cookieName string) string {
	if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	return strings.TrimSpace(c.Request().Header.Get(SessionHeader))
}

// Unauthorized is the guard's refusal: the shell redirects to the login view.
func Unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": msg, "redirect": "/"})
}

// SessionGuard lets a request through only with a known session holding a
// token and the admin role.
func SessionGuard(cookieName string, sessions SessionSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := SessionID(c, cookieName)
			if id == "" {
				return Unauthorized(c, "not logged in")
			}
			s, err := sessions.Current(c.Request().Context(), id)
			if err != nil {
				return Unauthorized(c, "session expired")
			}
			if !s.IsAdmin() {
				return Unauthorized(c, session.NotAdminMessage)
			}
			c.Set(ctxSession, s)
			return next(c)
		}
	}
}
