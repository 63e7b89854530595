package domain

import "time"

// UserRegisteredEvent represents the payload for iam.user.registered messages.
type UserRegisteredEvent struct {
	EventID      string
	UserID       string
	Username     string
	Email        string
	RegisteredAt time.Time
	CreatedBy    *string
}

// AccountLockedEvent represents the payload for iam.user.locked messages.
type AccountLockedEvent struct {
	EventID        string
	UserID         string
	Username       string
	FailedAttempts int
	LockedAt       time.Time
	LockedUntil    time.Time
}

// PasswordChangedEvent represents the payload for iam.user.password.changed messages.
type PasswordChangedEvent struct {
	EventID   string
	UserID    string
	ChangedAt time.Time
	Reason    string
}

// PasswordResetRequestedEvent represents the payload for
// iam.user.password.reset_requested messages. Destination is masked before
// publication; the OTP itself never rides on the event bus.
type PasswordResetRequestedEvent struct {
	EventID           string
	UserID            string
	RequestedAt       time.Time
	MaskedDestination string
	ExpiresAt         time.Time
}
