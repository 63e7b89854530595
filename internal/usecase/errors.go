package usecase

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials indicates the provided username or password are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount indicates the account is disabled.
	ErrInactiveAccount = errors.New("account is not active")
	// ErrAccountLocked indicates authentication is blocked by an active lockout window.
	ErrAccountLocked = errors.New("account locked")
	// ErrInvalidToken indicates a token failed signature, structure, or expiry checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrAccessDenied indicates the authenticated caller lacks the required capability.
	ErrAccessDenied = errors.New("access denied")
	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidOTP indicates the supplied reset code is unknown.
	ErrInvalidOTP = errors.New("invalid otp")
	// ErrOTPOwnershipMismatch indicates the reset code belongs to a different account.
	ErrOTPOwnershipMismatch = errors.New("otp does not belong to this account")
	// ErrOTPExpired indicates the reset code can no longer be redeemed.
	ErrOTPExpired = errors.New("otp expired")
	// ErrPasswordPolicyViolation indicates a password failed policy validation.
	ErrPasswordPolicyViolation = errors.New("password does not meet policy requirements")
	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrRoleExists indicates a role with the provided name already exists.
	ErrRoleExists = errors.New("role already exists")
	// ErrRoleNotFound is returned when the referenced role does not exist.
	ErrRoleNotFound = errors.New("role not found")
	// ErrPermissionExists indicates a permission for the capability already exists.
	ErrPermissionExists = errors.New("permission already exists")
	// ErrPermissionNotFound is returned when the referenced permission does not exist.
	ErrPermissionNotFound = errors.New("permission not found")
)

// RateLimitExceededError reports a throttled operation and when to retry.
type RateLimitExceededError struct {
	Scope      string
	RetryAfter time.Duration
}

// Error implements error.
func (e *RateLimitExceededError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded for %s, retry after %s", e.Scope, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded for %s", e.Scope)
}
