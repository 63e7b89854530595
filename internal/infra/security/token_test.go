package security

import (
	"errors"
	"testing"
	"time"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/domain"
)

func newTestEngine(t *testing.T) *TokenEngine {
	t.Helper()

	engine, err := NewTokenEngine(TokenEngineConfig{
		AccessSecret:    []byte("access-secret-for-tests"),
		RefreshSecret:   []byte("refresh-secret-for-tests"),
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "iam-test",
	})
	if err != nil {
		t.Fatalf("NewTokenEngine returned error: %v", err)
	}

	return engine
}

func TestNewTokenEngineRejectsSharedSecret(t *testing.T) {
	_, err := NewTokenEngine(TokenEngineConfig{
		AccessSecret:  []byte("same-secret"),
		RefreshSecret: []byte("same-secret"),
	})
	if err == nil {
		t.Fatal("expected error for identical access and refresh secrets")
	}
}

func TestNewTokenEngineRejectsInvertedTTLs(t *testing.T) {
	_, err := NewTokenEngine(TokenEngineConfig{
		AccessSecret:    []byte("access-secret"),
		RefreshSecret:   []byte("refresh-secret"),
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: time.Minute,
	})
	if err == nil {
		t.Fatal("expected error when access TTL is not shorter than refresh TTL")
	}
}

func TestIssueAndValidateAccessToken(t *testing.T) {
	engine := newTestEngine(t)

	user := domain.User{ID: "user-1", Username: "alice"}
	authorities := []string{"IAM:READ", "IAM:WRITE"}

	token, err := engine.Issue(user, authorities, TokenKindAccess)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := engine.Validate(token, TokenKindAccess)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	if claims.Subject != "alice" {
		t.Fatalf("expected subject alice, got %q", claims.Subject)
	}
	if len(claims.Authorities) != 2 {
		t.Fatalf("expected 2 authorities, got %d", len(claims.Authorities))
	}
	if claims.Root {
		t.Fatal("expected root flag to be false")
	}
}

func TestIssueEmbedsRootFlag(t *testing.T) {
	engine := newTestEngine(t)

	token, err := engine.Issue(domain.User{Username: "root", IsRootUser: true}, nil, TokenKindAccess)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := engine.Validate(token, TokenKindAccess)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	if !claims.Root {
		t.Fatal("expected root flag on access token for root user")
	}
}

func TestRefreshTokenOmitsAuthorities(t *testing.T) {
	engine := newTestEngine(t)

	token, err := engine.Issue(domain.User{Username: "alice"}, []string{"IAM:READ"}, TokenKindRefresh)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := engine.Validate(token, TokenKindRefresh)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	if len(claims.Authorities) != 0 {
		t.Fatalf("refresh token must not carry authorities, got %v", claims.Authorities)
	}
}

func TestValidateRejectsCrossKindTokens(t *testing.T) {
	engine := newTestEngine(t)

	access, err := engine.Issue(domain.User{Username: "alice"}, nil, TokenKindAccess)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := engine.Validate(access, TokenKindRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for access token in refresh domain, got %v", err)
	}

	refresh, err := engine.Issue(domain.User{Username: "alice"}, nil, TokenKindRefresh)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := engine.Validate(refresh, TokenKindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for refresh token in access domain, got %v", err)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	engine := newTestEngine(t)

	issuedAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	engine.WithClock(func() time.Time { return issuedAt })

	token, err := engine.Issue(domain.User{Username: "alice"}, nil, TokenKindAccess)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	engine.WithClock(func() time.Time { return issuedAt.Add(16 * time.Minute) })

	if _, err := engine.Validate(token, TokenKindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	engine := newTestEngine(t)

	token, err := engine.Issue(domain.User{Username: "alice"}, nil, TokenKindAccess)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := engine.Validate(tampered, TokenKindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestValidateForUserBindsSubject(t *testing.T) {
	engine := newTestEngine(t)

	token, err := engine.Issue(domain.User{Username: "alice"}, nil, TokenKindRefresh)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	ok, err := engine.ValidateForUser(token, TokenKindRefresh, "alice")
	if err != nil {
		t.Fatalf("ValidateForUser returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected token to match its subject")
	}

	ok, err = engine.ValidateForUser(token, TokenKindRefresh, "mallory")
	if err != nil {
		t.Fatalf("ValidateForUser returned error: %v", err)
	}
	if ok {
		t.Fatal("expected token to be rejected for a different subject")
	}
}
