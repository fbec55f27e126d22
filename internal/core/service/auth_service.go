package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/session-auth/internal/core/domain"
	"github.com/99minutos/session-auth/internal/core/ports"
)

const (
	defaultSessionTTL  = 24 * time.Hour
	defaultRememberTTL = 30 * 24 * time.Hour
)

// SessionConfig selects the lifetime of issued sessions.
type SessionConfig struct {
	TTL         time.Duration
	RememberTTL time.Duration
}

// AuthService is the session-based authentication flow over a CredentialStore.
type AuthService struct {
	users       ports.CredentialStore
	hasher      ports.PasswordHasher
	tokens      ports.TokenService
	challenges  ports.ChallengeManager
	sessionTTL  time.Duration
	rememberTTL time.Duration
	log         zerolog.Logger
}

func NewAuthService(
	users ports.CredentialStore,
	hasher ports.PasswordHasher,
	tokens ports.TokenService,
	challenges ports.ChallengeManager,
	cfg SessionConfig,
	log zerolog.Logger,
) *AuthService {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultSessionTTL
	}
	if cfg.RememberTTL <= 0 {
		cfg.RememberTTL = defaultRememberTTL
	}
	return &AuthService{
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		challenges:  challenges,
		sessionTTL:  cfg.TTL,
		rememberTTL: cfg.RememberTTL,
		log:         log.With().Str("component", "auth").Logger(),
	}
}

// Challenge hands out a fresh captcha.
func (s *AuthService) Challenge(_ context.Context) (domain.Puzzle, error) {
	return s.challenges.Issue()
}

// Register creates a user with the given role (default "user").
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (domain.PublicUser, error) {
	// Fast path only. Concurrent registrations are settled by the storage
	// uniqueness constraint, which Create reports as ErrUserExists.
	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return domain.PublicUser{}, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.PublicUser{}, err
	}

	user, err := s.users.Create(ctx, ports.NewUserInput{
		Username: in.Username,
		Password: in.Password,
		Role:     in.Role,
	})
	if err != nil {
		return domain.PublicUser{}, err
	}
	return user.Public(), nil
}

// Login checks the captcha, then the credentials, and mints a session.
// The captcha is checked first so that a bad challenge answer never touches
// the credential store.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*domain.Session, error) {
	if !s.challenges.Validate(in.ChallengeID, in.Answer) {
		return nil, domain.ErrChallengeInvalid
	}

	user, err := s.users.GetByUsername(ctx, in.Username)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		// Burn the same work as a real comparison so a missing user is not
		// distinguishable by latency.
		s.hasher.Verify(ctx, in.Password, "")
		s.log.Info().Str("username", in.Username).Str("reason", "unknown_user").Msg("login rejected")
		return nil, domain.ErrInvalidCredentials
	case err != nil:
		return nil, err
	}

	if !s.hasher.Verify(ctx, in.Password, user.PasswordHash) {
		s.log.Info().Str("username", in.Username).Str("reason", "bad_password").Msg("login rejected")
		return nil, domain.ErrInvalidCredentials
	}

	ttl := s.sessionTTL
	if in.Remember {
		ttl = s.rememberTTL
	}
	token, claims, err := s.tokens.Issue(user.Username, user.Role, ttl)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("username", user.Username).
		Str("role", user.Role).
		Bool("remember", in.Remember).
		Time("expires_at", claims.ExpiresAt).
		Msg("login succeeded")

	return &domain.Session{Token: token, Claims: claims, Persistent: in.Remember}, nil
}

// Logout is stateless: the caller clears the cookie. Issued tokens stay
// valid until they expire.
func (s *AuthService) Logout(_ context.Context, token string) {
	if token == "" {
		return
	}
	if claims, err := s.tokens.Validate(token); err == nil {
		s.log.Info().Str("username", claims.Subject).Msg("logout")
	}
}

// WhoAmI returns the identity behind token. Every failure is reported as
// domain.ErrUnauthenticated.
func (s *AuthService) WhoAmI(ctx context.Context, token string) (*domain.SessionClaims, error) {
	claims, err := s.Authorize(ctx, token)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}

// Authorize guards protected resources. The returned error is
// domain.ErrTokenExpired or domain.ErrTokenMalformed, both of which match
// domain.ErrUnauthenticated.
func (s *AuthService) Authorize(_ context.Context, token string) (*domain.SessionClaims, error) {
	if token == "" {
		return nil, domain.ErrTokenMalformed
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, domain.ErrTokenExpired) {
			reason = "expired"
		}
		s.log.Debug().Str("reason", reason).Msg("session rejected")
		return nil, err
	}
	return claims, nil
}
