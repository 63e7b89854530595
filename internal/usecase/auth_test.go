package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/domain"
	"github.com/jahid-csedu/iam-system-sub000/internal/infra/security"
)

type authFixture struct {
	service *AuthService
	lockout *LockoutService
	engine  *security.TokenEngine
	users   *fakeUserRepo
	events  *fakeEventPublisher
	now     time.Time
}

func newAuthFixture(t *testing.T, users ...domain.User) *authFixture {
	t.Helper()

	engine, err := security.NewTokenEngine(security.TokenEngineConfig{
		AccessSecret:    []byte("access-secret-for-tests"),
		RefreshSecret:   []byte("refresh-secret-for-tests"),
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "iam-test",
	})
	if err != nil {
		t.Fatalf("NewTokenEngine returned error: %v", err)
	}

	repo := newFakeUserRepo(users...)
	events := &fakeEventPublisher{}
	lockout := NewLockoutService(repo, events, zaptest.NewLogger(t), 5, 15*time.Minute)
	resolver := NewAuthorityResolver(newFakePermissionRepo())
	service := NewAuthService(repo, resolver, lockout, engine, zaptest.NewLogger(t))

	f := &authFixture{
		service: service,
		lockout: lockout,
		engine:  engine,
		users:   repo,
		events:  events,
		now:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	lockout.WithClock(func() time.Time { return f.now })
	engine.WithClock(func() time.Time { return f.now })
	return f
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	return hash
}

func TestLoginSuccess(t *testing.T) {
	f := newAuthFixture(t, domain.User{
		ID:           "u1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: mustHash(t, "Sup3r!Secret"),
		Active:       true,
	})

	pair, err := f.service.Login(context.Background(), "alice", "Sup3r!Secret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be minted")
	}

	claims, err := f.engine.Validate(pair.AccessToken, security.TokenKindAccess)
	if err != nil {
		t.Fatalf("minted access token failed validation: %v", err)
	}
	if claims.Subject != "alice" {
		t.Fatalf("expected subject alice, got %q", claims.Subject)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.service.Login(context.Background(), "ghost", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	f := newAuthFixture(t, domain.User{
		ID:           "u1",
		Username:     "alice",
		PasswordHash: mustHash(t, "Sup3r!Secret"),
		Active:       false,
	})

	if _, err := f.service.Login(context.Background(), "alice", "Sup3r!Secret"); !errors.Is(err, ErrInactiveAccount) {
		t.Fatalf("expected ErrInactiveAccount, got %v", err)
	}
}

func TestLoginLockoutLifecycle(t *testing.T) {
	f := newAuthFixture(t, domain.User{
		ID:           "u1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: mustHash(t, "Sup3r!Secret"),
		Active:       true,
	})
	ctx := context.Background()

	// Four wrong passwords: invalid credentials each time, no lock yet.
	for i := 0; i < 4; i++ {
		if _, err := f.service.Login(ctx, "alice", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}
	if user := f.users.snapshot("alice"); user.UserLocked {
		t.Fatal("expected account unlocked after four failures")
	}

	// Fifth failure crosses the threshold and locks the account.
	if _, err := f.service.Login(ctx, "alice", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("fifth attempt: expected ErrInvalidCredentials, got %v", err)
	}
	if user := f.users.snapshot("alice"); !user.UserLocked {
		t.Fatal("expected account locked after the fifth failure")
	}
	if len(f.events.locked) != 1 {
		t.Fatalf("expected one lock event, got %d", len(f.events.locked))
	}

	// The correct password is rejected while the window is active and the
	// caller cannot tell whether the credentials were right.
	if _, err := f.service.Login(ctx, "alice", "Sup3r!Secret"); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked inside the window, got %v", err)
	}

	// Once the window elapses the stale flag no longer blocks the login and
	// the success clears all lockout bookkeeping.
	f.now = f.now.Add(16 * time.Minute)

	pair, err := f.service.Login(ctx, "alice", "Sup3r!Secret")
	if err != nil {
		t.Fatalf("expected login after window expiry, got %v", err)
	}
	if pair.AccessToken == "" {
		t.Fatal("expected an access token after recovery")
	}

	user := f.users.snapshot("alice")
	if user.FailedLoginAttempts != 0 || user.UserLocked || user.AccountLockedUntil != nil {
		t.Fatalf("expected lock state cleared after success, got %+v", user)
	}
}

func TestLoginFailureWhileLockedDoesNotIncrement(t *testing.T) {
	f := newAuthFixture(t, domain.User{
		ID:           "u1",
		Username:     "alice",
		PasswordHash: mustHash(t, "Sup3r!Secret"),
		Active:       true,
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := f.service.Login(ctx, "alice", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	before := f.users.incrementCalls
	if _, err := f.service.Login(ctx, "alice", "wrong-password"); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
	if f.users.incrementCalls != before {
		t.Fatal("expected no counter increment while the lockout gate is active")
	}
}

func TestRefreshMintsNewPair(t *testing.T) {
	f := newAuthFixture(t, domain.User{
		ID:           "u1",
		Username:     "alice",
		PasswordHash: mustHash(t, "Sup3r!Secret"),
		Active:       true,
	})
	ctx := context.Background()

	pair, err := f.service.Login(ctx, "alice", "Sup3r!Secret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	refreshed, err := f.service.Refresh(ctx, pair.RefreshToken, "alice")
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if refreshed.AccessToken == "" || refreshed.RefreshToken == "" {
		t.Fatal("expected a full token pair from refresh")
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newAuthFixture(t, domain.User{
		ID:           "u1",
		Username:     "alice",
		PasswordHash: mustHash(t, "Sup3r!Secret"),
		Active:       true,
	})
	ctx := context.Background()

	pair, err := f.service.Login(ctx, "alice", "Sup3r!Secret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if _, err := f.service.Refresh(ctx, pair.AccessToken, "alice"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for an access token, got %v", err)
	}
}

func TestRefreshRejectsMismatchedUsername(t *testing.T) {
	f := newAuthFixture(t, domain.User{
		ID:           "u1",
		Username:     "alice",
		PasswordHash: mustHash(t, "Sup3r!Secret"),
		Active:       true,
	})
	ctx := context.Background()

	pair, err := f.service.Login(ctx, "alice", "Sup3r!Secret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if _, err := f.service.Refresh(ctx, pair.RefreshToken, "mallory"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for a mismatched subject, got %v", err)
	}
}

func TestParseAccessToken(t *testing.T) {
	f := newAuthFixture(t, domain.User{
		ID:           "u1",
		Username:     "alice",
		PasswordHash: mustHash(t, "Sup3r!Secret"),
		Active:       true,
	})

	pair, err := f.service.Login(context.Background(), "alice", "Sup3r!Secret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	identity, err := f.service.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken returned error: %v", err)
	}
	if identity.Username != "alice" {
		t.Fatalf("expected username alice, got %q", identity.Username)
	}

	if _, err := f.service.ParseAccessToken("garbage.token.value"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage input, got %v", err)
	}
}
