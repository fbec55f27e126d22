// Package captcha keeps short-lived, single-use human verification challenges
// in process memory.
//
// Challenges are not persisted and not shared between processes. Every
// Validate call consumes the challenge, whatever the outcome.
package captcha

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/session-auth/internal/core/domain"
)

const (
	DefaultTTL        = 5 * time.Minute
	DefaultBypassWord = "ADMIN"

	alphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	minLength = 4
	maxLength = 6
)

// Renderer turns an answer into what the client is shown.
type Renderer func(answer string) string

// Observer is told about every issue and validation outcome.
type Observer interface {
	ChallengeIssued()
	ChallengeValidated(result string)
	ChallengesSwept(n int)
}

// Validation results passed to Observer.ChallengeValidated.
const (
	ResultOK       = "ok"
	ResultWrong    = "wrong"
	ResultExpired  = "expired"
	ResultUnknown  = "unknown"
	ResultBypassed = "bypassed"
)

// Manager issues and validates challenges. It is safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	entries map[string]domain.Challenge

	ttl      time.Duration
	now      func() time.Time
	render   Renderer
	bypass   string
	observer Observer
	log      zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithRenderer(r Renderer) Option {
	return func(m *Manager) { m.render = r }
}

func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// WithBypass makes Validate accept word (case-insensitive) for any live
// challenge. Never enable this outside development.
func WithBypass(word string) Option {
	return func(m *Manager) {
		m.bypass = strings.ToUpper(strings.TrimSpace(word))
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		entries: make(map[string]domain.Challenge),
		ttl:     DefaultTTL,
		now:     time.Now,
		render:  func(answer string) string { return answer },
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With().Str("component", "captcha").Logger()
	if m.bypass != "" {
		m.log.Warn().Msg("captcha bypass is ENABLED; the bypass word passes every challenge")
	}
	return m
}

// Issue creates a challenge, stores it and returns the puzzle for the client.
func (m *Manager) Issue() (domain.Puzzle, error) {
	answer, err := randomAnswer()
	if err != nil {
		return domain.Puzzle{}, fmt.Errorf("generate captcha: %w", err)
	}
	c := domain.Challenge{
		ID:        uuid.NewString(),
		Answer:    answer,
		ExpiresAt: m.now().Add(m.ttl),
	}

	m.mu.Lock()
	m.entries[c.ID] = c
	m.mu.Unlock()

	if m.observer != nil {
		m.observer.ChallengeIssued()
	}
	return domain.Puzzle{ID: c.ID, Text: m.render(c.Answer), ExpiresAt: c.ExpiresAt}, nil
}

// Validate consumes the challenge id and reports whether answer matches it.
// Unknown, consumed and expired ids always fail.
func (m *Manager) Validate(id, answer string) bool {
	result := m.validate(id, answer)
	if m.observer != nil {
		m.observer.ChallengeValidated(result)
	}
	return result == ResultOK || result == ResultBypassed
}

func (m *Manager) validate(id, answer string) string {
	if id == "" {
		return ResultUnknown
	}

	m.mu.Lock()
	c, ok := m.entries[id]
	delete(m.entries, id)
	m.mu.Unlock()

	if !ok {
		return ResultUnknown
	}
	if c.Expired(m.now()) {
		return ResultExpired
	}

	claimed := strings.ToUpper(strings.TrimSpace(answer))
	if m.bypass != "" && claimed == m.bypass {
		m.log.Warn().Str("challenge_id", id).Msg("captcha bypass word accepted")
		return ResultBypassed
	}
	if claimed == c.Answer {
		return ResultOK
	}
	return ResultWrong
}

// Sweep drops expired challenges and returns how many were removed.
func (m *Manager) Sweep() int {
	now := m.now()
	n := 0

	m.mu.Lock()
	for id, c := range m.entries {
		if c.Expired(now) {
			delete(m.entries, id)
			n++
		}
	}
	m.mu.Unlock()

	if n > 0 {
		m.log.Debug().Int("removed", n).Msg("expired challenges swept")
	}
	if m.observer != nil {
		m.observer.ChallengesSwept(n)
	}
	return n
}

// Len reports the number of challenges currently held.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Debug().Msg("captcha sweeper stopped")
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func randomAnswer() (string, error) {
	span := big.NewInt(int64(maxLength - minLength + 1))
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	length := minLength + int(n.Int64())

	max := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String(), nil
}
