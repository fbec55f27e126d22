package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/session-auth/internal/api"
	"github.com/99minutos/session-auth/internal/api/handler"
	"github.com/99minutos/session-auth/internal/api/metrics"
	"github.com/99minutos/session-auth/internal/api/middleware"
	"github.com/99minutos/session-auth/internal/core/ports"
	"github.com/99minutos/session-auth/internal/core/service"
	"github.com/99minutos/session-auth/internal/infrastructure/captcha"
	"github.com/99minutos/session-auth/internal/infrastructure/config"
	mongostore "github.com/99minutos/session-auth/internal/infrastructure/db/mongo"
	pgstore "github.com/99minutos/session-auth/internal/infrastructure/db/postgres"
	redisstore "github.com/99minutos/session-auth/internal/infrastructure/db/redis"
	"github.com/99minutos/session-auth/internal/infrastructure/http/handlers"
	"github.com/99minutos/session-auth/internal/infrastructure/queue"
	"github.com/99minutos/session-auth/internal/infrastructure/security"
	"github.com/99minutos/session-auth/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "session-auth",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("server exited cleanly")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// --- Credential storage ---
	repo, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	readiness := map[string]handlers.Pinger{"store": repo}

	// --- Login attempt limiter (optional) ---
	var limiter middleware.AttemptLimiter
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn().Err(err).Msg("close redis")
			}
		}()
		attempts := redisstore.NewAttemptLimiter(rdb, cfg.Redis.MaxAttempts, cfg.Redis.AttemptWindow)
		limiter = attempts
		readiness["redis"] = attempts
	} else {
		log.Info().Msg("REDIS_ADDR not set, login attempt limiting disabled")
	}

	// --- Security primitives ---
	bcryptHasher, err := security.NewBcryptHasher(cfg.Hash.Cost)
	if err != nil {
		return err
	}
	pool := queue.NewPool(cfg.Hash.Workers, log)
	pool.Start(ctx)
	defer pool.Close()
	hasher := security.NewPooledHasher(bcryptHasher, pool, metrics.ObserveHash)

	tokens, err := security.NewJWTService(cfg.JWT.Secret)
	if err != nil {
		return err
	}

	captchaOpts := []captcha.Option{
		captcha.WithTTL(cfg.Captcha.TTL),
		captcha.WithLogger(log),
		captcha.WithObserver(metrics.ChallengeObserver{}),
	}
	if cfg.Captcha.Bypass {
		captchaOpts = append(captchaOpts, captcha.WithBypass(cfg.Captcha.BypassWord))
	}
	challenges := captcha.NewManager(captchaOpts...)
	go challenges.Run(ctx, cfg.Captcha.SweepInterval)

	// --- Services ---
	users := service.NewCredentialService(repo, hasher, log)
	auth := service.NewAuthService(users, hasher, tokens, challenges, service.SessionConfig{
		TTL:         cfg.Session.TTL,
		RememberTTL: cfg.Session.RememberTTL,
	}, log)

	if cfg.Bootstrap.AdminUsername != "" {
		created, err := users.EnsureAdmin(ctx, cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			log.Info().Str("username", cfg.Bootstrap.AdminUsername).Msg("bootstrap admin created")
		}
	}

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Auth:      auth,
		Users:     users,
		Limiter:   limiter,
		Readiness: readiness,
		Cookie:    handler.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure},
		Log:       logger.Component("http"),
	})

	srvLog := logger.Component("server")
	srvErrCh := make(chan error, 1)
	go func() {
		srvLog.Info().Str("port", cfg.Port).Str("env", cfg.Env).Str("store", cfg.Store.Driver).Msg("http server listening")
		srvErrCh <- e.Start(":" + cfg.Port)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		srvLog.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-srvErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	// The sweeper and hash workers stop with ctx; deferred closers run next.
	cancel()
	return nil
}

// openStore connects the configured credential store and prepares its schema.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.UserRepository, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := pgstore.Open(ctx, pgstore.Config{DSN: cfg.Store.PostgresDSN})
		if err != nil {
			return nil, nil, err
		}
		if err := pgstore.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		closer := func() {
			if err := db.Close(); err != nil {
				log.Warn().Err(err).Msg("close postgres")
			}
		}
		return pgstore.NewUserRepository(db), closer, nil

	default:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Store.MongoURI, Database: cfg.Store.MongoDB})
		if err != nil {
			return nil, nil, err
		}
		repo := mongostore.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		closer := func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(dctx); err != nil {
				log.Warn().Err(err).Msg("close mongo")
			}
		}
		return repo, closer, nil
	}
}
