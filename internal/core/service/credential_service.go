package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/99minutos/session-auth/internal/core/domain"
	"github.com/99minutos/session-auth/internal/core/ports"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 64
	minPasswordLen = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72

	defaultListLimit = 20
	maxListLimit     = 100
)

// CredentialService is the credential store used by the rest of the core. It
// validates user input and is the single place where passwords get hashed.
type CredentialService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	now    func() time.Time
	log    zerolog.Logger
}

// NewCredentialService wires a repository and a hasher into a CredentialStore.
func NewCredentialService(repo ports.UserRepository, hasher ports.PasswordHasher, log zerolog.Logger) *CredentialService {
	return &CredentialService{
		repo:   repo,
		hasher: hasher,
		now:    func() time.Time { return time.Now().UTC() },
		log:    log.With().Str("component", "credentials").Logger(),
	}
}

func (s *CredentialService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrUserNotFound
	}
	return s.repo.FindByID(ctx, id)
}

func (s *CredentialService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	username = normalizeUsername(username)
	if username == "" {
		return nil, domain.ErrUserNotFound
	}
	return s.repo.FindByUsername(ctx, username)
}

// Create validates the input, hashes the password and stores the user. The
// role defaults to domain.RoleUser.
func (s *CredentialService) Create(ctx context.Context, in ports.NewUserInput) (*domain.User, error) {
	username := normalizeUsername(in.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	created, err := s.repo.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Str("role", created.Role).Msg("user created")
	return created, nil
}

// Update applies the named fields of upd. Every field is validated before
// anything is written; a password change is always rehashed.
func (s *CredentialService) Update(ctx context.Context, id string, upd domain.UserUpdate) (*domain.User, error) {
	if upd.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrInvalidInput)
	}

	var patch ports.UserPatch
	if upd.Username != nil {
		username := normalizeUsername(*upd.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		patch.Username = &username
	}
	if upd.Role != nil {
		role := strings.TrimSpace(*upd.Role)
		if !domain.ValidRole(role) {
			return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
		}
		patch.Role = &role
	}
	if upd.Password != nil {
		if err := validatePassword(*upd.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(ctx, *upd.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		patch.PasswordHash = &hash
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", id).
		Bool("username_changed", patch.Username != nil).
		Bool("role_changed", patch.Role != nil).
		Bool("password_changed", patch.PasswordHash != nil).
		Msg("user updated")
	return updated, nil
}

func (s *CredentialService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

// List pages through users ordered by creation. Limit is clamped to
// [1, maxListLimit] and defaults to defaultListLimit.
func (s *CredentialService) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	if offset < 0 {
		offset = 0
	}
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	return s.repo.List(ctx, offset, limit)
}

func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < minUsernameLen || n > maxUsernameLen {
		return fmt.Errorf("%w: username must be %d-%d characters", domain.ErrInvalidInput, minUsernameLen, maxUsernameLen)
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLen)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidInput, maxPasswordBytes)
	}
	return nil
}

// EnsureAdmin creates username as an admin unless the account already exists.
// An existing account is left untouched. It reports whether a user was created.
func (s *CredentialService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if _, err := s.GetByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return false, err
	}

	_, err := s.Create(ctx, ports.NewUserInput{Username: username, Password: password, Role: domain.RoleAdmin})
	if errors.Is(err, domain.ErrUserExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
