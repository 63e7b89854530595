package port

import (
	"context"
	"time"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/domain"
)

// UserRepository exposes persistence behavior for users.
//
// IncrementFailedAttempts, SetLockStatus, and ResetLockState must be applied
// as single atomic statements on the storage side: concurrent failed logins
// from multiple connections must never under-count attempts.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error

	// IncrementFailedAttempts applies a database-side increment and returns
	// the post-increment counter value.
	IncrementFailedAttempts(ctx context.Context, username string) (int, error)
	// SetLockStatus updates the lock flag and window boundary.
	SetLockStatus(ctx context.Context, username string, locked bool, lockedUntil *time.Time) error
	// ResetLockState clears the failed-attempt counter, lock flag, and window
	// in one statement.
	ResetLockState(ctx context.Context, username string) error

	AssignRoles(ctx context.Context, userID string, roleIDs []string) error
	RevokeRoles(ctx context.Context, userID string, roleIDs []string) error
}
