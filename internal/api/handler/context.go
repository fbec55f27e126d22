package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/session-auth/internal/api/middleware"
	"github.com/99minutos/session-auth/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the Session middleware. An
// empty username means the middleware did not run for this route.
func ctxIdentity(c echo.Context) (username, role string, err error) {
	username, _ = c.Get(middleware.CtxUsername).(string)
	role, _ = c.Get(middleware.CtxRole).(string)
	if username == "" {
		return "", "", domain.ErrUnauthenticated
	}
	return username, role, nil
}
