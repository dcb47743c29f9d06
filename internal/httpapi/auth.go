package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bibliojobs/sift/internal/auth"
	"github.com/bibliojobs/sift/internal/globaltime"
)

const principalContextKey = "auth.principal"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) requireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, found := s.sessionTokenFromRequest(c)
			if !found {
				return unauthorizedResponse(c)
			}

			session, ok := s.sessions.Lookup(token)
			if !ok {
				s.clearSessionCookie(c)
				return unauthorizedResponse(c)
			}

			c.Set(principalContextKey, session)
			return next(c)
		}
	}
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	username := auth.NormalizeUsername(req.Username)
	password := strings.TrimSpace(req.Password)
	if username == "" || password == "" {
		return failValidation(c, map[string]string{
			"username": "is required",
			"password": "is required",
		})
	}

	if strings.TrimSpace(s.opts.AdminPasswordHash) == "" {
		s.logger.Warn().Msg("login attempted but no admin password hash is configured")
		return fail(c, http.StatusUnauthorized, "Invalid username or password", nil)
	}

	if !auth.VerifyCredentials(username, password, s.opts.AdminUser, s.opts.AdminPasswordHash) {
		return fail(c, http.StatusUnauthorized, "Invalid username or password", nil)
	}

	session := s.sessions.Issue(username)
	s.setSessionCookie(c, session)
	return success(c, map[string]any{
		"username":   session.Username,
		"expires_at": session.ExpiresAt,
	})
}

func (s *Server) handleLogout(c echo.Context) error {
	if token, found := s.sessionTokenFromRequest(c); found {
		s.sessions.Revoke(token)
	}
	s.clearSessionCookie(c)
	return success(c, map[string]any{"logged_out": true})
}

// sessionTokenFromRequest accepts the session cookie or a bearer token, the
// latter for scripted API use.
func (s *Server) sessionTokenFromRequest(c echo.Context) (string, bool) {
	if cookie, err := c.Cookie(s.opts.SessionCookie); err == nil {
		if token := strings.TrimSpace(cookie.Value); token != "" {
			return token, true
		}
	}

	header := strings.TrimSpace(c.Request().Header.Get("Authorization"))
	if rest, ok := strings.CutPrefix(header, "Bearer "); ok {
		if token := strings.TrimSpace(rest); token != "" {
			return token, true
		}
	}
	return "", false
}

func (s *Server) setSessionCookie(c echo.Context, session auth.Session) {
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}

	c.SetCookie(&http.Cookie{
		Name:     s.opts.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SessionSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
		MaxAge:   maxAge,
	})
}

func (s *Server) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     s.opts.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SessionSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  globaltime.UTC().Add(-1 * time.Hour),
	})
}

func unauthorizedResponse(c echo.Context) error {
	return fail(c, http.StatusUnauthorized, "Authentication required", nil)
}
