package port

import (
	"context"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/domain"
)

// OTPRepository persists password reset codes.
type OTPRepository interface {
	Save(ctx context.Context, otp domain.PasswordResetOTP) error
	GetByCode(ctx context.Context, code string) (*domain.PasswordResetOTP, error)
	GetByUser(ctx context.Context, userID string) (*domain.PasswordResetOTP, error)
	Delete(ctx context.Context, id string) error
	// DeleteByUser removes any live code for the user, enforcing the
	// one-live-OTP-per-user invariant when a new request supersedes it.
	DeleteByUser(ctx context.Context, userID string) error
}
