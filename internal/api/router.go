package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/session-auth/internal/api/docs"
	"github.com/99minutos/session-auth/internal/api/handler"
	"github.com/99minutos/session-auth/internal/api/middleware"
	"github.com/99minutos/session-auth/internal/core/domain"
	"github.com/99minutos/session-auth/internal/core/ports"
	"github.com/99minutos/session-auth/internal/infrastructure/http/handlers"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Auth  ports.AuthService
	Users ports.CredentialStore
	// Limiter may be nil, which disables login attempt limiting.
	Limiter middleware.AttemptLimiter
	// Readiness maps dependency names to their probes for /health/ready.
	Readiness map[string]handlers.Pinger
	Cookie    handler.CookieConfig
	Log       zerolog.Logger

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "auth",
		Registerer: d.Registerer,
	}))

	authHandler := handler.NewAuthHandler(d.Auth, d.Cookie)
	userHandler := handler.NewUserHandler(d.Users)
	session := middleware.Session(d.Auth, d.Cookie.CookieName())

	// --- Auth routes ---
	api := e.Group("/api")
	api.GET("/challenge", authHandler.Challenge)
	api.GET("/captcha", authHandler.Challenge)
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login, middleware.LoginRateLimit(d.Limiter, d.Log))
	api.POST("/logout", authHandler.Logout)
	api.GET("/whoami", authHandler.WhoAmI)
	api.GET("/dashboard", authHandler.WhoAmI)

	e.GET("/dashboard", authHandler.Dashboard, session)

	// --- Admin user management ---
	users := api.Group("/users", session, middleware.RBAC(domain.RoleAdmin))
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.PATCH("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	readinessHandler := handlers.NewReadinessHandler(d.Readiness)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
