package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/99minutos/session-auth/internal/core/domain"
	"github.com/99minutos/session-auth/internal/core/ports"
)

func strPtr(s string) *string { return &s }

func newCredentialFixture(t *testing.T) (*CredentialService, *stubUserRepo, *fakeHasher, *domain.User) {
	t.Helper()
	repo := newStubUserRepo()
	hasher := &fakeHasher{}
	svc := NewCredentialService(repo, hasher, zerolog.Nop())
	user, err := svc.Create(context.Background(), ports.NewUserInput{Username: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return svc, repo, hasher, user
}

func TestCredentialService_Create_Validation(t *testing.T) {
	svc := NewCredentialService(newStubUserRepo(), &fakeHasher{}, zerolog.Nop())

	cases := []ports.NewUserInput{
		{Username: "ab", Password: "secret"},
		{Username: strings.Repeat("x", 65), Password: "secret"},
		{Username: "carol", Password: "short"},
		{Username: "carol", Password: strings.Repeat("p", 73)},
		{Username: "carol", Password: "secret", Role: "owner"},
	}
	for _, in := range cases {
		if _, err := svc.Create(context.Background(), in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("input %+v: expected ErrInvalidInput, got %v", in, err)
		}
	}
}

func TestCredentialService_Create_TrimsUsername(t *testing.T) {
	svc := NewCredentialService(newStubUserRepo(), &fakeHasher{}, zerolog.Nop())

	user, err := svc.Create(context.Background(), ports.NewUserInput{Username: "  dave ", Password: "secret"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.Username != "dave" {
		t.Fatalf("expected trimmed username, got %q", user.Username)
	}

	if _, err := svc.GetByUsername(context.Background(), "dave "); err != nil {
		t.Fatalf("lookup with padding failed: %v", err)
	}
}

func TestCredentialService_Update_RehashesPassword(t *testing.T) {
	svc, repo, hasher, user := newCredentialFixture(t)

	updated, err := svc.Update(context.Background(), user.ID, domain.UserUpdate{Password: strPtr("n3wpass")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.PasswordHash != "hashed:n3wpass" {
		t.Fatalf("expected new hash, got %q", updated.PasswordHash)
	}
	if hasher.hashes != 2 {
		t.Fatalf("expected two hash calls (create + update), got %d", hasher.hashes)
	}
	stored, _ := repo.FindByID(context.Background(), user.ID)
	if stored.PasswordHash != "hashed:n3wpass" {
		t.Fatalf("stored hash not updated: %q", stored.PasswordHash)
	}
}

func TestCredentialService_Update_RoleAndUsername(t *testing.T) {
	svc, _, hasher, user := newCredentialFixture(t)

	updated, err := svc.Update(context.Background(), user.ID, domain.UserUpdate{
		Username: strPtr("alicia"),
		Role:     strPtr(domain.RoleAdmin),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Username != "alicia" || updated.Role != domain.RoleAdmin {
		t.Fatalf("unexpected user: %+v", updated)
	}
	if hasher.hashes != 1 {
		t.Fatalf("password untouched but hash called %d times", hasher.hashes)
	}
}

func TestCredentialService_Update_ValidatesBeforeWriting(t *testing.T) {
	svc, repo, _, user := newCredentialFixture(t)

	_, err := svc.Update(context.Background(), user.ID, domain.UserUpdate{
		Username: strPtr("alicia"),
		Role:     strPtr("root"),
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	stored, _ := repo.FindByID(context.Background(), user.ID)
	if stored.Username != "alice" {
		t.Fatalf("partial update applied: %+v", stored)
	}
}

func TestCredentialService_Update_Empty(t *testing.T) {
	svc, _, _, user := newCredentialFixture(t)

	if _, err := svc.Update(context.Background(), user.ID, domain.UserUpdate{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCredentialService_Update_Conflict(t *testing.T) {
	svc, _, _, user := newCredentialFixture(t)
	if _, err := svc.Create(context.Background(), ports.NewUserInput{Username: "bob", Password: "secret"}); err != nil {
		t.Fatalf("create bob: %v", err)
	}

	if _, err := svc.Update(context.Background(), user.ID, domain.UserUpdate{Username: strPtr("bob")}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestCredentialService_DeleteAndGet(t *testing.T) {
	svc, _, _, user := newCredentialFixture(t)

	if err := svc.Delete(context.Background(), user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), user.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := svc.Delete(context.Background(), user.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
}

func TestCredentialService_List_ClampsLimit(t *testing.T) {
	svc, _, _, _ := newCredentialFixture(t)
	for _, name := range []string{"bob", "carol", "dave"} {
		if _, err := svc.Create(context.Background(), ports.NewUserInput{Username: name, Password: "secret"}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	all, err := svc.List(context.Background(), -5, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 users, got %d", len(all))
	}

	page, err := svc.List(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 2 || page[0].Username != "bob" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestCredentialService_EnsureAdmin(t *testing.T) {
	svc, repo, _, _ := newCredentialFixture(t)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "root", "rootpass")
	if err != nil || !created {
		t.Fatalf("expected admin to be created, got %v %v", created, err)
	}
	root, err := svc.GetByUsername(ctx, "root")
	if err != nil || root.Role != domain.RoleAdmin {
		t.Fatalf("unexpected admin %+v %v", root, err)
	}

	created, err = svc.EnsureAdmin(ctx, "root", "another1")
	if err != nil || created {
		t.Fatalf("second call must be a no-op, got %v %v", created, err)
	}
	if repo.count() != 2 {
		t.Fatalf("expected 2 users, got %d", repo.count())
	}

	// An existing non-admin account is not promoted.
	if created, err := svc.EnsureAdmin(ctx, "alice", "whatever"); err != nil || created {
		t.Fatalf("existing user: %v %v", created, err)
	}
	alice, _ := svc.GetByUsername(ctx, "alice")
	if alice.Role != domain.RoleUser {
		t.Fatalf("existing user must keep its role, got %s", alice.Role)
	}
}

func TestCredentialService_EnsureAdmin_StorageDown(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errStorageDown
	svc := NewCredentialService(repo, &fakeHasher{}, zerolog.Nop())

	if _, err := svc.EnsureAdmin(context.Background(), "root", "rootpass"); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
