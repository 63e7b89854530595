package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/domain"
	"github.com/jahid-csedu/iam-system-sub000/internal/core/port"
	"github.com/jahid-csedu/iam-system-sub000/internal/infra/logger"
	"github.com/jahid-csedu/iam-system-sub000/internal/infra/security"
	"github.com/jahid-csedu/iam-system-sub000/internal/repository"
)

const (
	defaultOTPTTL    = 10 * time.Minute
	defaultOTPLength = 6

	passwordResetRateLimitScope = "password_reset"
	passwordResetReason         = "password_reset"

	resetCodeSubject     = "Your password reset code"
	resetPasswordSubject = "Your new password"
)

// PasswordResetService coordinates the one-time-password reset workflow:
// request generates and delivers a short-lived numeric code, redeem exchanges
// the code for a freshly generated credential. A new request supersedes any
// prior live code and a code is destroyed on first successful redemption.
type PasswordResetService struct {
	users      port.UserRepository
	otps       port.OTPRepository
	notifier   port.Notifier
	events     port.EventPublisher
	rateLimits port.RateLimitStore
	logger     *zap.Logger
	now        func() time.Time
	otpTTL     time.Duration
	otpLength  int

	rateLimitMax    int
	rateLimitWindow time.Duration
}

// NewPasswordResetService constructs a PasswordResetService.
func NewPasswordResetService(users port.UserRepository, otps port.OTPRepository, notifier port.Notifier, events port.EventPublisher, rateLimits port.RateLimitStore, lg *zap.Logger) *PasswordResetService {
	if lg == nil {
		lg = zap.NewNop()
	}

	return &PasswordResetService{
		users:      users,
		otps:       otps,
		notifier:   notifier,
		events:     events,
		rateLimits: rateLimits,
		logger:     lg,
		now:        time.Now,
		otpTTL:     defaultOTPTTL,
		otpLength:  defaultOTPLength,
	}
}

// WithClock overrides the service clock, used in tests.
func (s *PasswordResetService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// WithTTL overrides the OTP lifetime.
func (s *PasswordResetService) WithTTL(ttl time.Duration) {
	if ttl > 0 {
		s.otpTTL = ttl
	}
}

// WithOTPLength overrides the generated code length.
func (s *PasswordResetService) WithOTPLength(length int) {
	if length >= 4 {
		s.otpLength = length
	}
}

// WithRateLimit configures sliding-window throttling for reset requests.
func (s *PasswordResetService) WithRateLimit(max int, window time.Duration) {
	s.rateLimitMax = max
	s.rateLimitWindow = window
}

// RequestReset generates a fresh reset code for the account behind the email
// address, superseding any live code, and delivers it out of band. Retrying a
// request never duplicates codes: the prior one is deleted first.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}

	now := s.now().UTC()
	if err := s.enforceRateLimit(ctx, email, now); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if err := s.otps.DeleteByUser(ctx, user.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("supersede previous otp: %w", err)
	}

	code, err := security.GenerateNumericCode(s.otpLength)
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}

	otp := domain.PasswordResetOTP{
		ID:        uuid.NewString(),
		OTP:       code,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.otpTTL),
	}

	if err := s.otps.Save(ctx, otp); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	body := fmt.Sprintf("Your password reset code is %s. It expires in %s.", code, s.otpTTL)
	if err := s.notifier.Send(ctx, user.Email, resetCodeSubject, body); err != nil {
		return fmt.Errorf("deliver reset code: %w", err)
	}

	s.publishResetRequested(ctx, user, otp.ExpiresAt, now)

	return nil
}

// Redeem exchanges a valid reset code for a newly generated password. The
// code must belong to the account behind the supplied email and be inside its
// expiry window. A failed attempt never extends the window; only an explicit
// re-request replaces the code.
func (s *PasswordResetService) Redeem(ctx context.Context, code, email string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrInvalidOTP
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}

	otp, err := s.otps.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOTP
		}
		return fmt.Errorf("lookup otp: %w", err)
	}

	user, err := s.users.GetByID(ctx, otp.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOTP
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if !strings.EqualFold(user.Email, email) {
		return ErrOTPOwnershipMismatch
	}

	now := s.now().UTC()
	if otp.IsExpired(now) {
		return ErrOTPExpired
	}

	password, err := security.GeneratePassword(security.MinGeneratedPasswordLength)
	if err != nil {
		return fmt.Errorf("generate password: %w", err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}

	// Single-use: the code is consumed the moment the credential rotates,
	// before delivery. A failed delivery must not leave a live code behind.
	if err := s.otps.Delete(ctx, otp.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("consume otp: %w", err)
	}

	body := fmt.Sprintf("Your new password is: %s\nChange it after your next login.", password)
	if err := s.notifier.Send(ctx, user.Email, resetPasswordSubject, body); err != nil {
		return fmt.Errorf("deliver new password: %w", err)
	}

	s.publishPasswordChanged(ctx, user.ID, now)

	return nil
}

func (s *PasswordResetService) enforceRateLimit(ctx context.Context, email string, now time.Time) error {
	if s.rateLimits == nil || s.rateLimitMax <= 0 {
		return nil
	}

	window := s.rateLimitWindow
	if window <= 0 {
		window = time.Hour
	}

	key := fmt.Sprintf("%s:%s", passwordResetRateLimitScope, strings.ToLower(email))

	if err := s.rateLimits.TrimWindow(ctx, key, window, now); err != nil {
		s.logger.Warn("password reset rate limit trim failed", zap.Error(err))
		return nil
	}

	count, err := s.rateLimits.CountAttempts(ctx, key, window, now)
	if err != nil {
		s.logger.Warn("password reset rate limit count failed", zap.Error(err))
		return nil
	}

	if count >= s.rateLimitMax {
		retryAfter := time.Duration(0)
		if oldest, ok, err := s.rateLimits.OldestAttempt(ctx, key, window, now); err == nil && ok {
			if reset := oldest.Add(window); reset.After(now) {
				retryAfter = reset.Sub(now)
			}
		}
		return &RateLimitExceededError{Scope: passwordResetRateLimitScope, RetryAfter: retryAfter}
	}

	if err := s.rateLimits.RecordAttempt(ctx, key, now); err != nil {
		s.logger.Warn("password reset rate limit record failed", zap.Error(err))
	}

	return nil
}

func (s *PasswordResetService) publishResetRequested(ctx context.Context, user *domain.User, expiresAt, requestedAt time.Time) {
	if s.events == nil {
		return
	}

	event := domain.PasswordResetRequestedEvent{
		EventID:           uuid.NewString(),
		UserID:            user.ID,
		RequestedAt:       requestedAt,
		MaskedDestination: logger.MaskEmail(user.Email),
		ExpiresAt:         expiresAt,
	}

	if err := s.events.PublishPasswordResetRequested(ctx, event); err != nil {
		s.logger.Warn("publish reset requested event failed", zap.String("user_id", user.ID), zap.Error(err))
	}
}

func (s *PasswordResetService) publishPasswordChanged(ctx context.Context, userID string, changedAt time.Time) {
	if s.events == nil {
		return
	}

	event := domain.PasswordChangedEvent{
		EventID:   uuid.NewString(),
		UserID:    userID,
		ChangedAt: changedAt,
		Reason:    passwordResetReason,
	}

	if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
		s.logger.Warn("publish password changed event failed", zap.String("user_id", userID), zap.Error(err))
	}
}
