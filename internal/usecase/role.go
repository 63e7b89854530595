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

// RoleService manages roles and their permission and user links.
type RoleService struct {
	roles       port.RoleRepository
	permissions port.PermissionRepository
	users       port.UserRepository
	logger      *zap.Logger
}

// NewRoleService constructs a RoleService.
func NewRoleService(roles port.RoleRepository, permissions port.PermissionRepository, users port.UserRepository, lg *zap.Logger) *RoleService {
	if lg == nil {
		lg = zap.NewNop()
	}

	return &RoleService{
		roles:       roles,
		permissions: permissions,
		users:       users,
		logger:      lg,
	}
}

// Create registers a new role under a unique name.
func (s *RoleService) Create(ctx context.Context, name string, description *string) (*domain.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("role name is required")
	}

	if _, err := s.roles.GetByName(ctx, name); err == nil {
		return nil, ErrRoleExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check role name: %w", err)
	}

	role := domain.Role{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
	}

	if err := s.roles.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}

	return &role, nil
}

// Get loads a role with its permissions.
func (s *RoleService) Get(ctx context.Context, id string) (*domain.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	return role, nil
}

// List returns all roles.
func (s *RoleService) List(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// AttachPermissions links the permissions to the role. Already-linked
// permissions are left untouched, so re-attaching is a no-op rather than an
// error.
func (s *RoleService) AttachPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	if len(permissionIDs) == 0 {
		return nil
	}

	if _, err := s.roles.GetByID(ctx, roleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("get role: %w", err)
	}

	for _, permissionID := range permissionIDs {
		if _, err := s.permissions.GetByID(ctx, permissionID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrPermissionNotFound, permissionID)
			}
			return fmt.Errorf("get permission: %w", err)
		}
	}

	if err := s.roles.AttachPermissions(ctx, roleID, permissionIDs); err != nil {
		return fmt.Errorf("attach permissions: %w", err)
	}

	return nil
}

// DetachPermissions unlinks the permissions from the role. Absent links are
// ignored.
func (s *RoleService) DetachPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	if len(permissionIDs) == 0 {
		return nil
	}

	if _, err := s.roles.GetByID(ctx, roleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("get role: %w", err)
	}

	if err := s.roles.DetachPermissions(ctx, roleID, permissionIDs); err != nil {
		return fmt.Errorf("detach permissions: %w", err)
	}

	return nil
}

// AssignToUser grants the roles to the user. Permission changes made through
// roles take effect on the next token issuance; outstanding access tokens keep
// the authority snapshot they were minted with.
func (s *RoleService) AssignToUser(ctx context.Context, userID string, roleIDs []string) error {
	if len(roleIDs) == 0 {
		return nil
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}

	for _, roleID := range roleIDs {
		if _, err := s.roles.GetByID(ctx, roleID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrRoleNotFound, roleID)
			}
			return fmt.Errorf("get role: %w", err)
		}
	}

	if err := s.users.AssignRoles(ctx, userID, roleIDs); err != nil {
		return fmt.Errorf("assign roles: %w", err)
	}

	return nil
}

// RevokeFromUser removes the role assignments from the user.
func (s *RoleService) RevokeFromUser(ctx context.Context, userID string, roleIDs []string) error {
	if len(roleIDs) == 0 {
		return nil
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}

	if err := s.users.RevokeRoles(ctx, userID, roleIDs); err != nil {
		return fmt.Errorf("revoke roles: %w", err)
	}

	return nil
}

// ListForUser returns the roles assigned to the user.
func (s *RoleService) ListForUser(ctx context.Context, userID string) ([]domain.Role, error) {
	roles, err := s.roles.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}
	return roles, nil
}
