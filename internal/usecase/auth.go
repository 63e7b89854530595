package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/domain"
	"github.com/jahid-csedu/iam-system-sub000/internal/core/port"
	"github.com/jahid-csedu/iam-system-sub000/internal/infra/security"
	"github.com/jahid-csedu/iam-system-sub000/internal/repository"
)

// TokenPair bundles a freshly minted access and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService coordinates authentication: the lockout gate runs before
// credential verification, failures feed the lockout state machine, and a
// success clears it before tokens are minted.
type AuthService struct {
	users    port.UserRepository
	resolver *AuthorityResolver
	lockout  *LockoutService
	engine   *security.TokenEngine
	logger   *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(users port.UserRepository, resolver *AuthorityResolver, lockout *LockoutService, engine *security.TokenEngine, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AuthService{
		users:    users,
		resolver: resolver,
		lockout:  lockout,
		engine:   engine,
		logger:   logger,
	}
}

// Login authenticates the credentials and mints a token pair. The lockout
// read gate runs before the password is checked so a locked account never
// reveals whether the password was correct.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.Active {
		return nil, ErrInactiveAccount
	}

	if s.lockout.IsLockedOut(*user) {
		return nil, ErrAccountLocked
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		if lockErr := s.lockout.OnAuthFailure(ctx, *user); lockErr != nil {
			s.logger.Error("record auth failure", zap.String("username", username), zap.Error(lockErr))
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.lockout.OnAuthSuccess(ctx, *user); err != nil {
		return nil, err
	}

	return s.issuePair(ctx, *user)
}

// Refresh validates the refresh token against the caller-supplied identity
// and mints a new token pair with freshly resolved authorities.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, username string) (*TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}

	ok, err := s.engine.ValidateForUser(refreshToken, security.TokenKindRefresh, username)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !ok {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.Active {
		return nil, ErrInactiveAccount
	}

	return s.issuePair(ctx, *user)
}

// ParseAccessToken validates an access token and builds the per-request
// identity view from its claims.
func (s *AuthService) ParseAccessToken(tokenString string) (*Identity, error) {
	claims, err := s.engine.Validate(tokenString, security.TokenKindAccess)
	if err != nil {
		return nil, ErrInvalidToken
	}

	identity := NewIdentity(claims.Subject, claims.Authorities, claims.Root)
	return &identity, nil
}

func (s *AuthService) issuePair(ctx context.Context, user domain.User) (*TokenPair, error) {
	authorities, err := s.resolver.Resolve(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	access, err := s.engine.Issue(user, authorities, security.TokenKindAccess)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := s.engine.Issue(user, nil, security.TokenKindRefresh)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
