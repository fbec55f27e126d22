package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/session-auth/internal/core/domain"
)

// CookieConfig names the session cookie and sets its transport flags.
type CookieConfig struct {
	Name   string
	Secure bool
}

// CookieName defaults to access_token.
func (cc CookieConfig) CookieName() string {
	if cc.Name == "" {
		return "access_token"
	}
	return cc.Name
}

// setSessionCookie stores the token as an http-only, SameSite=Lax cookie.
// Only persistent sessions get an expiry; the rest end with the browser.
func setSessionCookie(c echo.Context, cc CookieConfig, s *domain.Session) {
	cookie := &http.Cookie{
		Name:     cc.CookieName(),
		Value:    s.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if s.Persistent {
		cookie.Expires = s.Claims.ExpiresAt
		cookie.MaxAge = int(time.Until(s.Claims.ExpiresAt).Seconds())
	}
	c.SetCookie(cookie)
}

func clearSessionCookie(c echo.Context, cc CookieConfig) {
	c.SetCookie(&http.Cookie{
		Name:     cc.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
