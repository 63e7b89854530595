package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/domain"
	"github.com/jahid-csedu/iam-system-sub000/internal/core/port"
	"github.com/jahid-csedu/iam-system-sub000/internal/repository"
)

// PermissionService manages the (service, action) capability catalog. A
// capability tuple is the permission's identity: only the description may
// change after creation.
type PermissionService struct {
	permissions port.PermissionRepository
	logger      *zap.Logger
}

// NewPermissionService constructs a PermissionService.
func NewPermissionService(permissions port.PermissionRepository, lg *zap.Logger) *PermissionService {
	if lg == nil {
		lg = zap.NewNop()
	}

	return &PermissionService{permissions: permissions, logger: lg}
}

// Create registers a new capability. The (service, action) tuple must be
// unique. The service name is normalized to canonical upper-case before the
// uniqueness check and storage; "payments" and "PAYMENTS" name the same
// capability, and tokens minted from the catalog carry the canonical form.
func (s *PermissionService) Create(ctx context.Context, serviceName, rawAction string, description *string) (*domain.Permission, error) {
	serviceName = strings.ToUpper(strings.TrimSpace(serviceName))
	if serviceName == "" {
		return nil, fmt.Errorf("service name is required")
	}

	action, err := domain.ParseAction(rawAction)
	if err != nil {
		return nil, err
	}

	if _, err := s.permissions.GetByCapability(ctx, serviceName, action); err == nil {
		return nil, ErrPermissionExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check capability: %w", err)
	}

	permission := domain.Permission{
		ID:          uuid.NewString(),
		ServiceName: serviceName,
		Action:      action,
		Description: description,
	}

	if err := s.permissions.Create(ctx, permission); err != nil {
		return nil, fmt.Errorf("create permission: %w", err)
	}

	return &permission, nil
}

// Get loads a permission by id.
func (s *PermissionService) Get(ctx context.Context, id string) (*domain.Permission, error) {
	permission, err := s.permissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPermissionNotFound
		}
		return nil, fmt.Errorf("get permission: %w", err)
	}
	return permission, nil
}

// UpdateDescription changes the only mutable field of a permission.
func (s *PermissionService) UpdateDescription(ctx context.Context, id string, description *string) error {
	if err := s.permissions.UpdateDescription(ctx, id, description); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPermissionNotFound
		}
		return fmt.Errorf("update permission description: %w", err)
	}
	return nil
}

// Delete removes the permission. Role links are removed with it on the
// storage side.
func (s *PermissionService) Delete(ctx context.Context, id string) error {
	if err := s.permissions.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPermissionNotFound
		}
		return fmt.Errorf("delete permission: %w", err)
	}
	return nil
}

// List returns the whole capability catalog.
func (s *PermissionService) List(ctx context.Context) ([]domain.Permission, error) {
	permissions, err := s.permissions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return permissions, nil
}
