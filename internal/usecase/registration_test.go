package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/domain"
	"github.com/jahid-csedu/iam-system-sub000/internal/infra/security"
)

func newRegistrationFixture(t *testing.T, users ...domain.User) (*RegistrationService, *fakeUserRepo, *fakeEventPublisher) {
	t.Helper()
	repo := newFakeUserRepo(users...)
	events := &fakeEventPublisher{}
	service := NewRegistrationService(repo, events, security.DefaultPasswordValidator(), zaptest.NewLogger(t))
	return service, repo, events
}

func TestRegisterCreatesActiveUser(t *testing.T) {
	service, repo, events := newRegistrationFixture(t)

	user, err := service.Register(context.Background(), RegisterUserInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Str0ng!Passphrase",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if user.ID == "" {
		t.Fatal("expected a generated user id")
	}
	if !user.Active {
		t.Fatal("expected a new account to be active")
	}
	if user.PasswordHash == "Str0ng!Passphrase" {
		t.Fatal("expected the password to be hashed, not stored verbatim")
	}

	ok, err := security.VerifyPassword("Str0ng!Passphrase", user.PasswordHash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected the stored hash to verify the password")
	}

	stored := repo.snapshot("alice")
	if stored.ID != user.ID {
		t.Fatal("expected the user to be persisted")
	}

	if len(events.registered) != 1 {
		t.Fatalf("expected one registration event, got %d", len(events.registered))
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	service, repo, _ := newRegistrationFixture(t)

	_, err := service.Register(context.Background(), RegisterUserInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	if !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("expected ErrPasswordPolicyViolation, got %v", err)
	}

	if stored := repo.snapshot("alice"); stored.ID != "" {
		t.Fatal("expected no user to be created for a rejected password")
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	service, _, _ := newRegistrationFixture(t, domain.User{
		ID:       "u1",
		Username: "alice",
		Email:    "alice@example.com",
	})

	_, err := service.Register(context.Background(), RegisterUserInput{
		Username: "alice",
		Email:    "other@example.com",
		Password: "Str0ng!Passphrase",
	})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	service, _, _ := newRegistrationFixture(t, domain.User{
		ID:       "u1",
		Username: "alice",
		Email:    "alice@example.com",
	})

	_, err := service.Register(context.Background(), RegisterUserInput{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "Str0ng!Passphrase",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}
