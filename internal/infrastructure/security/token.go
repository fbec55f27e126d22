package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/session-auth/internal/core/domain"
)

// Algorithm is the only signing scheme the service accepts.
const Algorithm = "HS256"

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService signs session tokens with a shared secret.
type JWTService struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

// JWTOption customises a JWTService.
type JWTOption func(*JWTService)

// WithTokenClock replaces the wall clock, for tests.
func WithTokenClock(now func() time.Time) JWTOption {
	return func(s *JWTService) { s.now = now }
}

func NewJWTService(secret string, opts ...JWTOption) (*JWTService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	s := &JWTService{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{Algorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	return s, nil
}

// Issue signs a token for subject valid for ttl from now.
func (s *JWTService) Issue(subject, role string, ttl time.Duration) (string, domain.SessionClaims, error) {
	if ttl <= 0 {
		return "", domain.SessionClaims{}, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	now := s.now().UTC().Truncate(time.Second)
	exp := now.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", domain.SessionClaims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, domain.SessionClaims{Subject: subject, Role: role, IssuedAt: now, ExpiresAt: exp}, nil
}

// Validate checks the signature and expiry of token. Errors are
// domain.ErrTokenExpired or domain.ErrTokenMalformed.
func (s *JWTService) Validate(token string) (*domain.SessionClaims, error) {
	claims := &sessionClaims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		// Expiry is only reported once the signature checked out.
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenMalformed
	}
	if claims.Subject == "" {
		return nil, domain.ErrTokenMalformed
	}

	out := &domain.SessionClaims{Subject: claims.Subject, Role: claims.Role}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
