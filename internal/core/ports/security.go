package ports

import (
	"context"
	"time"

	"github.com/99minutos/session-auth/internal/core/domain"
)

// PasswordHasher hashes and verifies passwords. Verify never errors: a
// malformed digest is simply a mismatch.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, digest string) bool
}

// TokenService mints and checks signed session tokens.
type TokenService interface {
	Issue(subject, role string, ttl time.Duration) (string, domain.SessionClaims, error)
	Validate(token string) (*domain.SessionClaims, error)
}

// ChallengeManager issues single-use captcha challenges.
type ChallengeManager interface {
	Issue() (domain.Puzzle, error)
	Validate(id, answer string) bool
}
