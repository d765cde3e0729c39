package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ctks/admin-console/internal/apiclient"
	"github.com/ctks/admin-console/internal/http/middleware"
	"github.com/ctks/admin-console/internal/session"
	"github.com/ctks/admin-console/internal/validation"
)

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionInfo struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (s *Server) login(c echo.Context) error {
	req, err := bind[loginReq](c)
	if err != nil {
		return s.fail(c, nil, err)
	}

	sess, err := s.sessions.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return s.loginFailed(c, err)
	}

	c.SetCookie(&http.Cookie{
		Name:     s.cfg.HTTP.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.HTTP.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.cfg.Session.TTL.Seconds()),
	})
	return c.JSON(http.StatusOK, sessionInfo{Username: sess.Username, Role: sess.Role})
}

// loginFailed keeps the admin on the login view with the server's message,
// or "Login failed".
func (s *Server) loginFailed(c echo.Context, err error) error {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusUnprocessableEntity, failure{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, session.ErrNotAdmin):
		return c.JSON(http.StatusForbidden, failure{Error: session.NotAdminMessage})
	case apiclient.IsKind(err, apiclient.KindTransport), apiclient.IsKind(err, apiclient.KindServer):
		s.log.Warn("login: backend unavailable", zap.Error(err))
		return c.JSON(http.StatusBadGateway, failure{Error: apiclient.MessageOf(err, "Login failed")})
	default:
		return c.JSON(http.StatusUnauthorized, failure{Error: apiclient.MessageOf(err, "Login failed")})
	}
}

// logout always ends the local session; a backend failure is only logged.
func (s *Server) logout(c echo.Context) error {
	id := middleware.SessionID(c, s.cfg.HTTP.CookieName)
	if id != "" {
		if err := s.sessions.Logout(c.Request().Context(), id); err != nil && !errors.Is(err, session.ErrNoSession) {
			s.log.Warn("logout", zap.String("session_id", id), zap.Error(err))
		}
	}
	s.clearCookie(c)
	return c.JSON(http.StatusOK, map[string]string{"redirect": "/"})
}

func (s *Server) clearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     s.cfg.HTTP.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.HTTP.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
