package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/domain"
)

// TokenKind selects which trust domain a token belongs to. Access and refresh
// tokens are signed with independent secrets and are never interchangeable.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// ErrInvalidToken covers bad signature, malformed input, and expiry alike.
// The failure modes are deliberately indistinguishable to the caller.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the identity payload of a signed token. Authorities are only
// present on access tokens and reflect a snapshot taken at issuance; Root is
// the wildcard short-circuit for root users, kept out of the authority set.
type Claims struct {
	Authorities []string `json:"authorities,omitempty"`
	Root        bool     `json:"root,omitempty"`
	jwt.RegisteredClaims
}

// TokenEngineConfig supplies the per-kind secrets and lifetimes.
type TokenEngineConfig struct {
	AccessSecret    []byte
	RefreshSecret   []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
}

// TokenEngine issues and validates HS256-signed session tokens. Issuance and
// validation are pure computations; the engine holds no mutable state and is
// safe for unbounded concurrent use.
type TokenEngine struct {
	cfg TokenEngineConfig
	now func() time.Time
}

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 24 * time.Hour
)

// NewTokenEngine constructs a TokenEngine from explicit configuration.
func NewTokenEngine(cfg TokenEngineConfig) (*TokenEngine, error) {
	if len(cfg.AccessSecret) == 0 {
		return nil, fmt.Errorf("token engine: access secret is required")
	}
	if len(cfg.RefreshSecret) == 0 {
		return nil, fmt.Errorf("token engine: refresh secret is required")
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, fmt.Errorf("token engine: access and refresh secrets must differ")
	}

	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = defaultAccessTokenTTL
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = defaultRefreshTokenTTL
	}
	if cfg.AccessTokenTTL >= cfg.RefreshTokenTTL {
		return nil, fmt.Errorf("token engine: access TTL must be shorter than refresh TTL")
	}

	return &TokenEngine{cfg: cfg, now: time.Now}, nil
}

// WithClock overrides the engine clock, used in tests.
func (e *TokenEngine) WithClock(clock func() time.Time) {
	if clock != nil {
		e.now = clock
	}
}

// Issue builds and signs a token of the requested kind for the user. Access
// tokens embed the caller-resolved authority snapshot; refresh tokens carry
// identity only.
func (e *TokenEngine) Issue(user domain.User, authorities []string, kind TokenKind) (string, error) {
	if strings.TrimSpace(user.Username) == "" {
		return "", fmt.Errorf("token engine: username is required")
	}

	secret, ttl, err := e.kindParams(kind)
	if err != nil {
		return "", err
	}

	now := e.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			Issuer:    e.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	if kind == TokenKindAccess {
		claims.Authorities = authorities
		claims.Root = user.IsRootUser
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("token engine: sign token: %w", err)
	}

	return signed, nil
}

// Validate verifies the signature with the kind-specific secret and checks
// expiry. Every failure surfaces as ErrInvalidToken.
func (e *TokenEngine) Validate(tokenString string, kind TokenKind) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	secret, _, err := e.kindParams(kind)
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(e.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || parsed == nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ValidateForUser validates the token and additionally binds it to the
// expected subject. Used to tie refresh-token redemption to the caller
// supplied identity before new tokens are minted.
func (e *TokenEngine) ValidateForUser(tokenString string, kind TokenKind, expectedUsername string) (bool, error) {
	claims, err := e.Validate(tokenString, kind)
	if err != nil {
		return false, err
	}
	return claims.Subject == strings.TrimSpace(expectedUsername), nil
}

// AccessTokenTTL exposes the configured access token lifetime.
func (e *TokenEngine) AccessTokenTTL() time.Duration {
	return e.cfg.AccessTokenTTL
}

// RefreshTokenTTL exposes the configured refresh token lifetime.
func (e *TokenEngine) RefreshTokenTTL() time.Duration {
	return e.cfg.RefreshTokenTTL
}

func (e *TokenEngine) kindParams(kind TokenKind) ([]byte, time.Duration, error) {
	switch kind {
	case TokenKindAccess:
		return e.cfg.AccessSecret, e.cfg.AccessTokenTTL, nil
	case TokenKindRefresh:
		return e.cfg.RefreshSecret, e.cfg.RefreshTokenTTL, nil
	default:
		return nil, 0, fmt.Errorf("token engine: unknown token kind %q", kind)
	}
}
