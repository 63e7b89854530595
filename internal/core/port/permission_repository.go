package port

import (
	"context"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/domain"
)

// PermissionRepository manages permission storage. ServiceName values are
// stored in canonical upper-case form; callers normalize before writing or
// querying, so authority strings minted from the catalog always compare
// byte-equal to stored capabilities.
type PermissionRepository interface {
	Create(ctx context.Context, permission domain.Permission) error
	GetByID(ctx context.Context, id string) (*domain.Permission, error)
	GetByCapability(ctx context.Context, serviceName string, action domain.Action) (*domain.Permission, error)
	UpdateDescription(ctx context.Context, id string, description *string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Permission, error)
	ListByRole(ctx context.Context, roleID string) ([]domain.Permission, error)
	// ListByUser resolves the union of permissions across all roles assigned
	// to the user, deduplicated by capability.
	ListByUser(ctx context.Context, userID string) ([]domain.Permission, error)
}
