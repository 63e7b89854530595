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
	"github.com/jahid-csedu/iam-system-sub000/internal/infra/security"
	"github.com/jahid-csedu/iam-system-sub000/internal/repository"
)

// RegisterUserInput carries the fields needed to create an account.
type RegisterUserInput struct {
	Username  string
	Email     string
	Password  string
	CreatedBy *string
}

// RegistrationService creates new accounts: password policy first, then
// uniqueness, then the hashed credential is persisted.
type RegistrationService struct {
	users     port.UserRepository
	events    port.EventPublisher
	validator *security.PasswordValidator
	logger    *zap.Logger
	now       func() time.Time
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(users port.UserRepository, events port.EventPublisher, validator *security.PasswordValidator, lg *zap.Logger) *RegistrationService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if lg == nil {
		lg = zap.NewNop()
	}

	return &RegistrationService{
		users:     users,
		events:    events,
		validator: validator,
		logger:    lg,
		now:       time.Now,
	}
}

// WithClock overrides the service clock, used in tests.
func (s *RegistrationService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Register validates and creates the account, returning the stored user.
func (s *RegistrationService) Register(ctx context.Context, input RegisterUserInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	if err := s.validator.Validate(input.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Active:       true,
		CreatedBy:    input.CreatedBy,
		CreatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.publishRegistered(ctx, user, now)

	return &user, nil
}

func (s *RegistrationService) publishRegistered(ctx context.Context, user domain.User, registeredAt time.Time) {
	if s.events == nil {
		return
	}

	event := domain.UserRegisteredEvent{
		EventID:      uuid.NewString(),
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		RegisteredAt: registeredAt,
		CreatedBy:    user.CreatedBy,
	}

	if err := s.events.PublishUserRegistered(ctx, event); err != nil {
		s.logger.Warn("publish user registered event failed", zap.String("user_id", user.ID), zap.Error(err))
	}
}
