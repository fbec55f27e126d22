package ports

import (
	"context"

	"github.com/99minutos/session-auth/internal/core/domain"
)

// NewUserInput carries a plaintext password; the store hashes it exactly once.
type NewUserInput struct {
	Username string
	Password string
	Role     string
}

// CredentialStore owns user records and is the only place passwords are hashed.
type CredentialStore interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, in NewUserInput) (*domain.User, error)
	Update(ctx context.Context, id string, upd domain.UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]*domain.User, error)
}
