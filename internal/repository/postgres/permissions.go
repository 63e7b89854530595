package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/domain"
	"github.com/jahid-csedu/iam-system-sub000/internal/core/port"
	"github.com/jahid-csedu/iam-system-sub000/internal/repository"
)

// PermissionRepository implements port.PermissionRepository over PostgreSQL.
type PermissionRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewPermissionRepository constructs a permission repository instance.
func NewPermissionRepository(pool *pgxpool.Pool) *PermissionRepository {
	return &PermissionRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *PermissionRepository) WithTx(tx pgx.Tx) *PermissionRepository {
	if tx == nil {
		return r
	}
	return &PermissionRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new permission row.
func (r *PermissionRepository) Create(ctx context.Context, permission domain.Permission) error {
	stmt, args, err := r.builder.Insert("iam.permissions").
		Columns("id", "service_name", "action", "description").
		Values(permission.ID, permission.ServiceName, permission.Action, permission.Description).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert permission sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert permission: %w", err)
	}

	return nil
}

// GetByID retrieves a permission by identifier.
func (r *PermissionRepository) GetByID(ctx context.Context, id string) (*domain.Permission, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByCapability retrieves a permission by its (service, action) tuple.
func (r *PermissionRepository) GetByCapability(ctx context.Context, serviceName string, action domain.Action) (*domain.Permission, error) {
	return r.getOne(ctx, squirrel.Eq{"service_name": serviceName, "action": action})
}

func (r *PermissionRepository) getOne(ctx context.Context, where squirrel.Eq) (*domain.Permission, error) {
	stmt, args, err := r.builder.Select("id", "service_name", "action", "description").
		From("iam.permissions").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select permission sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var permission domain.Permission
	if err := row.Scan(&permission.ID, &permission.ServiceName, &permission.Action, &permission.Description); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan permission: %w", err)
	}

	return &permission, nil
}

// UpdateDescription changes the description of an existing permission.
func (r *PermissionRepository) UpdateDescription(ctx context.Context, id string, description *string) error {
	stmt, args, err := r.builder.Update("iam.permissions").
		Set("description", description).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update permission sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update permission: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a permission. Role links go with it via the foreign key
// cascade.
func (r *PermissionRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("iam.permissions").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete permission sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns the whole capability catalog.
func (r *PermissionRepository) List(ctx context.Context) ([]domain.Permission, error) {
	stmt, args, err := r.builder.Select("id", "service_name", "action", "description").
		From("iam.permissions").
		OrderBy("service_name ASC", "action ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list permissions sql: %w", err)
	}

	return r.queryPermissions(ctx, stmt, args)
}

// ListByRole returns the permissions linked to the role.
func (r *PermissionRepository) ListByRole(ctx context.Context, roleID string) ([]domain.Permission, error) {
	stmt, args, err := r.builder.Select("p.id", "p.service_name", "p.action", "p.description").
		From("iam.permissions p").
		Join("iam.role_permissions rp ON rp.permission_id = p.id").
		Where(squirrel.Eq{"rp.role_id": roleID}).
		OrderBy("p.service_name ASC", "p.action ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list role permissions sql: %w", err)
	}

	return r.queryPermissions(ctx, stmt, args)
}

// ListByUser resolves the union of permissions across all roles assigned to
// the user, deduplicated by capability.
func (r *PermissionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Permission, error) {
	stmt, args, err := r.builder.Select("p.id", "p.service_name", "p.action", "p.description").
		Distinct().
		From("iam.permissions p").
		Join("iam.role_permissions rp ON rp.permission_id = p.id").
		Join("iam.user_roles ur ON ur.role_id = rp.role_id").
		Where(squirrel.Eq{"ur.user_id": userID}).
		OrderBy("p.service_name ASC", "p.action ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list user permissions sql: %w", err)
	}

	return r.queryPermissions(ctx, stmt, args)
}

func (r *PermissionRepository) queryPermissions(ctx context.Context, stmt string, args []any) ([]domain.Permission, error) {
	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query permissions: %w", err)
	}
	defer rows.Close()

	permissions := make([]domain.Permission, 0)
	for rows.Next() {
		var permission domain.Permission
		if err := rows.Scan(&permission.ID, &permission.ServiceName, &permission.Action, &permission.Description); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		permissions = append(permissions, permission)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permissions: %w", err)
	}

	return permissions, nil
}

var _ port.PermissionRepository = (*PermissionRepository)(nil)
