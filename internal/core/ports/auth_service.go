package ports

import (
	"context"

	"github.com/99minutos/session-auth/internal/core/domain"
)

// RegisterInput is the payload of a registration request.
type RegisterInput struct {
	Username string
	Password string
	Role     string
}

// LoginInput is the payload of a login request.
type LoginInput struct {
	Username    string
	Password    string
	ChallengeID string
	Answer      string
	Remember    bool
}

// AuthService drives the captcha-gated login and the session lifecycle.
type AuthService interface {
	Challenge(ctx context.Context) (domain.Puzzle, error)
	Register(ctx context.Context, in RegisterInput) (domain.PublicUser, error)
	Login(ctx context.Context, in LoginInput) (*domain.Session, error)
	Logout(ctx context.Context, token string)
	WhoAmI(ctx context.Context, token string) (*domain.SessionClaims, error)
	Authorize(ctx context.Context, token string) (*domain.SessionClaims, error)
}
