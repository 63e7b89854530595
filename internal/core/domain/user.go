package domain

import "time"

// User mirrors the persisted representation in the users table.
// Version is an optimistic-concurrency counter incremented on every persisted
// mutation; lockout counters are maintained through atomic repository updates
// rather than read-modify-write on this struct.
type User struct {
	ID                  string
	Username            string
	Email               string
	PasswordHash        string
	IsRootUser          bool
	Active              bool
	PasswordExpired     bool
	PasswordExpiryDate  *time.Time
	UserLocked          bool
	FailedLoginAttempts int
	AccountLockedUntil  *time.Time
	CreatedBy           *string
	Version             int64
	CreatedAt           time.Time
}

// IsLockedOut reports whether the account is inside an active lockout window.
// The UserLocked flag alone is not sufficient: once AccountLockedUntil has
// elapsed the account is treated as not locked even though the flag stays set
// until the next successful authentication clears it.
func (u User) IsLockedOut(at time.Time) bool {
	if !u.UserLocked {
		return false
	}
	if u.AccountLockedUntil == nil {
		return false
	}
	return at.Before(*u.AccountLockedUntil)
}

// HasDirtyLockState reports whether a successful authentication must reset
// lockout bookkeeping.
func (u User) HasDirtyLockState() bool {
	return u.FailedLoginAttempts > 0 || u.UserLocked
}

// IsPasswordExpired reports whether the password must be rotated before use.
func (u User) IsPasswordExpired(at time.Time) bool {
	if u.PasswordExpired {
		return true
	}
	return u.PasswordExpiryDate != nil && !u.PasswordExpiryDate.After(at)
}
