package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/session-auth/internal/api/metrics"
	"github.com/99minutos/session-auth/internal/core/domain"
)

// Context keys set by Session for downstream handlers.
const (
	CtxUsername = "username"
	CtxRole     = "role"
)

// Authorizer validates a session token.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (*domain.SessionClaims, error)
}

// Session guards a route with the session token from cookieName, falling back
// to an "Authorization: Bearer" header. Every rejection is a plain
// domain.ErrUnauthenticated; expired vs malformed is only counted.
func Session(auth Authorizer, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := TokenFromRequest(c, cookieName)
			if token == "" {
				metrics.SessionsRejectedTotal.WithLabelValues("missing").Inc()
				return domain.ErrUnauthenticated
			}

			claims, err := auth.Authorize(c.Request().Context(), token)
			if err != nil {
				reason := "malformed"
				if errors.Is(err, domain.ErrTokenExpired) {
					reason = "expired"
				}
				metrics.SessionsRejectedTotal.WithLabelValues(reason).Inc()
				return domain.ErrUnauthenticated
			}

			c.Set(CtxUsername, claims.Subject)
			c.Set(CtxRole, claims.Role)

			return next(c)
		}
	}
}

// TokenFromRequest returns the session token carried by the request, or "".
func TokenFromRequest(c echo.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
