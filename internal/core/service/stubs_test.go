package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/99minutos/session-auth/internal/core/domain"
	"github.com/99minutos/session-auth/internal/core/ports"
)

// stubUserRepo mimics a store with a unique index on username.
type stubUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	nextID  int
	findErr error
	lookups int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.byID {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	created := cloneUser(user)
	created.ID = strconv.Itoa(r.nextID)
	r.byID[created.ID] = cloneUser(created)
	return created, nil
}

func (r *stubUserRepo) Update(_ context.Context, id string, patch ports.UserPatch) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if patch.Username != nil {
		for otherID, other := range r.byID {
			if otherID != id && other.Username == *patch.Username {
				return nil, domain.ErrUserExists
			}
		}
		u.Username = *patch.Username
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubUserRepo) List(_ context.Context, offset, limit int) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int, 0, len(r.byID))
	for id := range r.byID {
		n, _ := strconv.Atoi(id)
		ids = append(ids, n)
	}
	sort.Ints(ids)
	out := []*domain.User{}
	for i, n := range ids {
		if i < offset || len(out) == limit {
			continue
		}
		out = append(out, cloneUser(r.byID[strconv.Itoa(n)]))
	}
	return out, nil
}

func (r *stubUserRepo) Ping(context.Context) error { return nil }

func (r *stubUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// fakeHasher is reversible on purpose so tests can assert what got stored.
type fakeHasher struct {
	mu       sync.Mutex
	hashes   int
	verifies int
}

func (h *fakeHasher) Hash(_ context.Context, plaintext string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hashes++
	return "hashed:" + plaintext, nil
}

func (h *fakeHasher) Verify(_ context.Context, plaintext, digest string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.verifies++
	if !strings.HasPrefix(digest, "hashed:") {
		return false
	}
	return digest == "hashed:"+plaintext
}

// stubTokens encodes claims in the token string itself.
type stubTokens struct {
	now func() time.Time
}

func (s *stubTokens) Issue(subject, role string, ttl time.Duration) (string, domain.SessionClaims, error) {
	now := s.now()
	claims := domain.SessionClaims{Subject: subject, Role: role, IssuedAt: now, ExpiresAt: now.Add(ttl)}
	return subject + "|" + role + "|" + strconv.FormatInt(claims.ExpiresAt.Unix(), 10), claims, nil
}

func (s *stubTokens) Validate(token string) (*domain.SessionClaims, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 3 {
		return nil, domain.ErrTokenMalformed
	}
	exp, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, domain.ErrTokenMalformed
	}
	if s.now().Unix() > exp {
		return nil, domain.ErrTokenExpired
	}
	return &domain.SessionClaims{Subject: parts[0], Role: parts[1], ExpiresAt: time.Unix(exp, 0)}, nil
}

// stubChallenges accepts exactly the answers it was told about, once.
type stubChallenges struct {
	mu      sync.Mutex
	answers map[string]string
}

func newStubChallenges() *stubChallenges {
	return &stubChallenges{answers: make(map[string]string)}
}

func (c *stubChallenges) add(id, answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answers[id] = answer
}

func (c *stubChallenges) Issue() (domain.Puzzle, error) {
	id := "c" + strconv.Itoa(len(c.answers)+1)
	c.add(id, "AB12")
	return domain.Puzzle{ID: id, Text: "AB12"}, nil
}

func (c *stubChallenges) Validate(id, answer string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	want, ok := c.answers[id]
	if !ok {
		return false
	}
	delete(c.answers, id)
	return strings.EqualFold(strings.TrimSpace(answer), want)
}

var errStorageDown = domain.StorageError("find user", errors.New("connection refused"))
