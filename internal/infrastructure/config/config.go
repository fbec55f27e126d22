package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/session-auth/internal/infrastructure/security"
)

const (
	EnvProduction = "production"

	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	JWT       JWTConfig
	Session   SessionConfig
	Hash      HashConfig
	Captcha   CaptchaConfig
	Store     StoreConfig
	Redis     RedisConfig
	Bootstrap BootstrapConfig
}

type JWTConfig struct {
	Secret    string `env:"JWT_SECRET"`
	Algorithm string `env:"JWT_ALGORITHM, default=HS256"`
}

type SessionConfig struct {
	TTL          time.Duration `env:"SESSION_TTL,          default=24h"`
	RememberTTL  time.Duration `env:"SESSION_REMEMBER_TTL, default=720h"`
	CookieSecure bool          `env:"COOKIE_SECURE,        default=false"`
	CookieName   string        `env:"COOKIE_NAME,          default=access_token"`
}

type HashConfig struct {
	Cost    int `env:"BCRYPT_COST,  default=10"`
	Workers int `env:"HASH_WORKERS, default=4"`
}

type CaptchaConfig struct {
	TTL           time.Duration `env:"CAPTCHA_TTL,            default=5m"`
	SweepInterval time.Duration `env:"CAPTCHA_SWEEP_INTERVAL, default=1m"`
	Bypass        bool          `env:"CAPTCHA_BYPASS,         default=false"`
	BypassWord    string        `env:"CAPTCHA_BYPASS_WORD,    default=ADMIN"`
}

type StoreConfig struct {
	Driver      string `env:"STORE_DRIVER, default=mongo"`
	MongoURI    string `env:"MONGO_URI,    default=mongodb://localhost:27017"`
	MongoDB     string `env:"MONGO_DB,     default=session_auth"`
	PostgresDSN string `env:"POSTGRES_DSN"`
}

// RedisConfig with an empty Addr disables login attempt limiting.
type RedisConfig struct {
	Addr          string        `env:"REDIS_ADDR"`
	DB            int           `env:"REDIS_DB,             default=0"`
	MaxAttempts   int           `env:"LOGIN_MAX_ATTEMPTS,   default=5"`
	AttemptWindow time.Duration `env:"LOGIN_ATTEMPT_WINDOW, default=1m"`
}

type BootstrapConfig struct {
	AdminUsername string `env:"BOOTSTRAP_ADMIN_USERNAME"`
	AdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// Validate reports every rule the loaded values break.
func (c *Config) Validate() error {
	var errs []error

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWT.Algorithm != security.Algorithm {
		errs = append(errs, fmt.Errorf("JWT_ALGORITHM %q is not supported, only %s", c.JWT.Algorithm, security.Algorithm))
	}
	if c.Session.TTL <= 0 || c.Session.RememberTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL and SESSION_REMEMBER_TTL must be positive"))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("COOKIE_NAME must not be empty"))
	}
	if c.Hash.Cost < bcrypt.MinCost || c.Hash.Cost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.Hash.Workers <= 0 {
		errs = append(errs, errors.New("HASH_WORKERS must be positive"))
	}
	if c.Captcha.TTL <= 0 || c.Captcha.SweepInterval <= 0 {
		errs = append(errs, errors.New("CAPTCHA_TTL and CAPTCHA_SWEEP_INTERVAL must be positive"))
	}
	if c.Captcha.Bypass {
		if c.Production() {
			errs = append(errs, errors.New("CAPTCHA_BYPASS cannot be enabled in production"))
		}
		if strings.TrimSpace(c.Captcha.BypassWord) == "" {
			errs = append(errs, errors.New("CAPTCHA_BYPASS_WORD must not be empty"))
		}
	}
	switch c.Store.Driver {
	case DriverMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDB == "" {
			errs = append(errs, errors.New("MONGO_URI and MONGO_DB are required for the mongo driver"))
		}
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not one of %s, %s", c.Store.Driver, DriverMongo, DriverPostgres))
	}
	if c.Redis.Addr != "" && (c.Redis.MaxAttempts <= 0 || c.Redis.AttemptWindow <= 0) {
		errs = append(errs, errors.New("LOGIN_MAX_ATTEMPTS and LOGIN_ATTEMPT_WINDOW must be positive"))
	}
	if (c.Bootstrap.AdminUsername == "") != (c.Bootstrap.AdminPassword == "") {
		errs = append(errs, errors.New("BOOTSTRAP_ADMIN_USERNAME and BOOTSTRAP_ADMIN_PASSWORD must be set together"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
