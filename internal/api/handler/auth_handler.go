package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/session-auth/internal/api/metrics"
	"github.com/99minutos/session-auth/internal/api/middleware"
	"github.com/99minutos/session-auth/internal/core/domain"
	"github.com/99minutos/session-auth/internal/core/ports"
)

// AuthHandler serves the challenge, registration, login and session routes.
type AuthHandler struct {
	auth   ports.AuthService
	cookie CookieConfig
}

func NewAuthHandler(auth ports.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie}
}

// Challenge issues a single-use captcha.
//
// @Summary      Get a captcha challenge
// @Tags         auth
// @Produce      json
// @Success      200  {object}  challengeResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/challenge [get]
// @Router       /api/captcha [get]
func (h *AuthHandler) Challenge(c echo.Context) error {
	p, err := h.auth.Challenge(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, challengeResponse{ID: p.ID, Word: p.Text, ExpiresAt: p.ExpiresAt})
}

// Register creates a new user account. Requesting the admin role requires an
// admin session.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid_input").Inc()
		return err
	}

	if req.Role == domain.RoleAdmin && !h.callerIsAdmin(c) {
		metrics.RegistrationsTotal.WithLabelValues("forbidden").Inc()
		return domain.ErrForbidden
	}

	user, err := h.auth.Register(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(registerResult(err)).Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusCreated, userResponse{ID: user.ID, Username: user.Username, Role: user.Role})
}

// Login verifies the captcha and credentials and sets the session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials and captcha answer"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid_input").Inc()
		return err
	}

	session, err := h.auth.Login(c.Request().Context(), ports.LoginInput{
		Username:    req.Username,
		Password:    req.Password,
		ChallengeID: req.CaptchaID,
		Answer:      req.Captcha,
		Remember:    req.Remember,
	})
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(loginResult(err)).Inc()
		return err
	}

	setSessionCookie(c, h.cookie, session)
	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, loginResponse{Msg: "ok", Role: session.Claims.Role})
}

// Logout clears the session cookie. It always succeeds.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.auth.Logout(c.Request().Context(), middleware.TokenFromRequest(c, h.cookie.CookieName()))
	clearSessionCookie(c, h.cookie)
	return c.JSON(http.StatusOK, messageResponse{Msg: "Logged out"})
}

// WhoAmI returns the identity behind the session cookie.
//
// @Summary      Current session identity
// @Tags         auth
// @Produce      json
// @Success      200  {object}  whoAmIResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/whoami [get]
// @Router       /api/dashboard [get]
func (h *AuthHandler) WhoAmI(c echo.Context) error {
	claims, err := h.auth.WhoAmI(c.Request().Context(), middleware.TokenFromRequest(c, h.cookie.CookieName()))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, whoAmIResponse{Username: claims.Subject, Role: claims.Role})
}

// Dashboard is the page gate; it must run behind the Session middleware.
//
// @Summary      Dashboard gate
// @Tags         auth
// @Produce      json
// @Success      200  {object}  statusResponse
// @Failure      401  {object}  errorResponse
// @Router       /dashboard [get]
func (h *AuthHandler) Dashboard(c echo.Context) error {
	if _, _, err := ctxIdentity(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "ok"})
}

func (h *AuthHandler) callerIsAdmin(c echo.Context) bool {
	token := middleware.TokenFromRequest(c, h.cookie.CookieName())
	if token == "" {
		return false
	}
	claims, err := h.auth.Authorize(c.Request().Context(), token)
	return err == nil && claims.Role == domain.RoleAdmin
}

func registerResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrUserExists):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrChallengeInvalid):
		return "challenge_invalid"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "error"
	}
}
