package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/session-auth/internal/api/metrics"
	"github.com/99minutos/session-auth/internal/core/domain"
)

const maxLoginBody = 64 << 10

// AttemptLimiter is the counter behind LoginRateLimit.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// LoginRateLimit limits login attempts per username and client IP. A nil
// limiter disables it; limiter errors let the request through. A successful
// login clears the counter.
func LoginRateLimit(limiter AttemptLimiter, log zerolog.Logger) echo.MiddlewareFunc {
	log = log.With().Str("component", "login_rate_limit").Logger()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limiter == nil {
			return next
		}
		return func(c echo.Context) error {
			key := attemptKey(c)
			ctx := c.Request().Context()

			ok, err := limiter.Allow(ctx, key)
			if err != nil {
				log.Warn().Err(err).Msg("attempt limiter unavailable, allowing request")
			}
			if !ok {
				metrics.LoginsTotal.WithLabelValues("rate_limited").Inc()
				return domain.ErrTooManyAttempts
			}

			if err := next(c); err != nil {
				return err
			}
			if c.Response().Status == http.StatusOK {
				if err := limiter.Reset(ctx, key); err != nil {
					log.Warn().Err(err).Msg("attempt limiter reset failed")
				}
			}
			return nil
		}
	}
}

// peekedBody replays the bytes already read, then the rest of the original body.
type peekedBody struct {
	io.Reader
	io.Closer
}

// attemptKey peeks at the JSON username without consuming the body. Only the
// first maxLoginBody bytes are inspected; the handler still sees all of it.
func attemptKey(c echo.Context) string {
	req := c.Request()
	var body struct {
		Username string `json:"username"`
	}
	if req.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(req.Body, maxLoginBody))
		if err == nil {
			_ = json.Unmarshal(raw, &body)
		}
		req.Body = peekedBody{Reader: io.MultiReader(bytes.NewReader(raw), req.Body), Closer: req.Body}
	}

	username := strings.ToLower(strings.TrimSpace(body.Username))
	return username + "|" + c.RealIP()
}
