package domain

import "time"

// PasswordResetOTP is a single-use numeric code authorizing a password reset.
// At most one live OTP exists per user; issuing a new one supersedes any prior
// code, and redemption deletes the record immediately.
type PasswordResetOTP struct {
	ID        string
	OTP       string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the code can still be redeemed.
func (o PasswordResetOTP) IsExpired(at time.Time) bool {
	return !o.ExpiresAt.After(at)
}
