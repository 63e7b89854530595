package usecase

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/domain"
	"github.com/jahid-csedu/iam-system-sub000/internal/core/port"
)

const (
	defaultLockoutThreshold = 5
	defaultLockoutWindow    = 15 * time.Minute
)

// LockoutService applies the failed-login state machine. Counter increments
// go through the repository's atomic update so concurrent failures from
// multiple connections never under-count.
type LockoutService struct {
	users     port.UserRepository
	events    port.EventPublisher
	logger    *zap.Logger
	threshold int
	window    time.Duration
	now       func() time.Time
}

// NewLockoutService constructs a LockoutService.
func NewLockoutService(users port.UserRepository, events port.EventPublisher, logger *zap.Logger, threshold int, window time.Duration) *LockoutService {
	if threshold <= 0 {
		threshold = defaultLockoutThreshold
	}
	if window <= 0 {
		window = defaultLockoutWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LockoutService{
		users:     users,
		events:    events,
		logger:    logger,
		threshold: threshold,
		window:    window,
		now:       time.Now,
	}
}

// WithClock overrides the service clock, used in tests.
func (s *LockoutService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// IsLockedOut is the read-time gate used during authentication. The account
// counts as locked only while the window is active; an elapsed window leaves
// the UserLocked flag in place until the next successful login clears it.
func (s *LockoutService) IsLockedOut(user domain.User) bool {
	return user.IsLockedOut(s.now().UTC())
}

// OnAuthFailure records a failed authentication attempt. When the
// post-increment counter reaches the threshold the account is locked for the
// configured window.
func (s *LockoutService) OnAuthFailure(ctx context.Context, user domain.User) error {
	attempts, err := s.users.IncrementFailedAttempts(ctx, user.Username)
	if err != nil {
		return fmt.Errorf("increment failed attempts: %w", err)
	}

	if attempts < s.threshold {
		return nil
	}

	now := s.now().UTC()
	until := now.Add(s.window)
	if err := s.users.SetLockStatus(ctx, user.Username, true, &until); err != nil {
		return fmt.Errorf("set lock status: %w", err)
	}

	s.logger.Warn("account locked after repeated authentication failures",
		zap.String("username", user.Username),
		zap.Int("failed_attempts", attempts),
		zap.Time("locked_until", until),
	)

	s.publishAccountLocked(ctx, user, attempts, now, until)

	return nil
}

// OnAuthSuccess clears lockout bookkeeping after a successful authentication.
// The reset only runs when there is anything to clear.
func (s *LockoutService) OnAuthSuccess(ctx context.Context, user domain.User) error {
	if !user.HasDirtyLockState() {
		return nil
	}

	if err := s.users.ResetLockState(ctx, user.Username); err != nil {
		return fmt.Errorf("reset lock state: %w", err)
	}

	return nil
}

func (s *LockoutService) publishAccountLocked(ctx context.Context, user domain.User, attempts int, lockedAt, lockedUntil time.Time) {
	if s.events == nil {
		return
	}

	event := domain.AccountLockedEvent{
		EventID:        uuid.NewString(),
		UserID:         user.ID,
		Username:       user.Username,
		FailedAttempts: attempts,
		LockedAt:       lockedAt,
		LockedUntil:    lockedUntil,
	}

	if err := s.events.PublishAccountLocked(ctx, event); err != nil {
		s.logger.Warn("publish account locked event failed", zap.String("user_id", user.ID), zap.Error(err))
	}
}
