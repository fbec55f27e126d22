package ports

import (
	"context"

	"github.com/99minutos/session-auth/internal/core/domain"
)

// UserPatch is the persistence-level form of a domain.UserUpdate: the
// password has already been hashed.
type UserPatch struct {
	Username     *string
	Role         *string
	PasswordHash *string
}

// UserRepository persists user records. Implementations must enforce username
// uniqueness themselves and report a violation as domain.ErrUserExists. Driver
// failures are reported wrapped in domain.ErrStorageUnavailable.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, id string, patch UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]*domain.User, error)
	Ping(ctx context.Context) error
}
