package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func loadMap(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	return load(context.Background(), envconfig.MapLookuper(env))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadMap(t, map[string]string{"JWT_SECRET": "s3cret"})
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	if cfg.Port != "8080" || cfg.Env != "development" {
		t.Fatalf("unexpected server defaults: %+v", cfg)
	}
	if cfg.Session.TTL != 24*time.Hour || cfg.Session.RememberTTL != 720*time.Hour {
		t.Fatalf("unexpected session ttl: %+v", cfg.Session)
	}
	if cfg.Session.CookieName != "access_token" || cfg.Session.CookieSecure {
		t.Fatalf("unexpected cookie defaults: %+v", cfg.Session)
	}
	if cfg.Captcha.TTL != 5*time.Minute || cfg.Captcha.Bypass || cfg.Captcha.BypassWord != "ADMIN" {
		t.Fatalf("unexpected captcha defaults: %+v", cfg.Captcha)
	}
	if cfg.Store.Driver != DriverMongo || cfg.Hash.Workers != 4 || cfg.Hash.Cost != 10 {
		t.Fatalf("unexpected defaults: store=%+v hash=%+v", cfg.Store, cfg.Hash)
	}
	if cfg.Redis.Addr != "" || cfg.Redis.MaxAttempts != 5 {
		t.Fatalf("unexpected redis defaults: %+v", cfg.Redis)
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := loadMap(t, map[string]string{
		"JWT_SECRET":           "s3cret",
		"SESSION_TTL":          "2h",
		"COOKIE_SECURE":        "true",
		"STORE_DRIVER":         "postgres",
		"POSTGRES_DSN":         "postgres://localhost/auth",
		"REDIS_ADDR":           "localhost:6379",
		"LOGIN_ATTEMPT_WINDOW": "30s",
	})
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Session.TTL != 2*time.Hour || !cfg.Session.CookieSecure {
		t.Fatalf("unexpected session: %+v", cfg.Session)
	}
	if cfg.Store.Driver != DriverPostgres || cfg.Redis.AttemptWindow != 30*time.Second {
		t.Fatalf("unexpected store/redis: %+v %+v", cfg.Store, cfg.Redis)
	}
}

func TestLoad_Rejects(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET"},
		{"other algorithm", map[string]string{"JWT_SECRET": "s", "JWT_ALGORITHM": "RS256"}, "JWT_ALGORITHM"},
		{"bypass in production", map[string]string{"JWT_SECRET": "s", "ENV": "production", "CAPTCHA_BYPASS": "true"}, "CAPTCHA_BYPASS"},
		{"unknown driver", map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "sqlite"}, "STORE_DRIVER"},
		{"postgres without dsn", map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "postgres"}, "POSTGRES_DSN"},
		{"bcrypt cost", map[string]string{"JWT_SECRET": "s", "BCRYPT_COST": "40"}, "BCRYPT_COST"},
		{"half bootstrap", map[string]string{"JWT_SECRET": "s", "BOOTSTRAP_ADMIN_USERNAME": "root"}, "BOOTSTRAP_ADMIN"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadMap(t, tc.env)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %s", err, tc.want)
			}
		})
	}
}

func TestLoad_BypassAllowedOutsideProduction(t *testing.T) {
	cfg, err := loadMap(t, map[string]string{"JWT_SECRET": "s", "CAPTCHA_BYPASS": "true"})
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if !cfg.Captcha.Bypass {
		t.Fatalf("expected bypass enabled")
	}
}
