package security

import (
	"context"
	"time"

	"github.com/99minutos/session-auth/internal/core/ports"
)

// Runner executes fn on a bounded set of workers and waits for it.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

// PooledHasher moves the expensive hash work onto a Runner so the number of
// concurrent bcrypt computations stays bounded.
type PooledHasher struct {
	inner   ports.PasswordHasher
	runner  Runner
	observe func(op string, d time.Duration)
}

// NewPooledHasher wraps inner. observe, when non-nil, receives the duration of
// each operation (queue wait included).
func NewPooledHasher(inner ports.PasswordHasher, runner Runner, observe func(op string, d time.Duration)) *PooledHasher {
	return &PooledHasher{inner: inner, runner: runner, observe: observe}
}

func (p *PooledHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	start := time.Now()
	var (
		digest  string
		hashErr error
	)
	if err := p.runner.Do(ctx, func() {
		digest, hashErr = p.inner.Hash(ctx, plaintext)
	}); err != nil {
		return "", err
	}
	p.record("hash", start)
	return digest, hashErr
}

func (p *PooledHasher) Verify(ctx context.Context, plaintext, digest string) bool {
	start := time.Now()
	ok := false
	if err := p.runner.Do(ctx, func() {
		ok = p.inner.Verify(ctx, plaintext, digest)
	}); err != nil {
		return false
	}
	p.record("verify", start)
	return ok
}

func (p *PooledHasher) record(op string, start time.Time) {
	if p.observe != nil {
		p.observe(op, time.Since(start))
	}
}
