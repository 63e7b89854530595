package port

import (
	"context"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/domain"
)

// RoleRepository handles role CRUD and membership links.
type RoleRepository interface {
	Create(ctx context.Context, role domain.Role) error
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	// AttachPermissions and DetachPermissions are idempotent with respect to
	// already-present or already-absent links.
	AttachPermissions(ctx context.Context, roleID string, permissionIDs []string) error
	DetachPermissions(ctx context.Context, roleID string, permissionIDs []string) error
	ListByUser(ctx context.Context, userID string) ([]domain.Role, error)
}
