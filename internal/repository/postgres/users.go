package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/domain"
	"github.com/jahid-csedu/iam-system-sub000/internal/core/port"
	"github.com/jahid-csedu/iam-system-sub000/internal/repository"
)

var userColumns = []string{
	"id",
	"username",
	"email",
	"password_hash",
	"is_root_user",
	"active",
	"password_expired",
	"password_expiry_date",
	"user_locked",
	"failed_login_attempts",
	"account_locked_until",
	"created_by",
	"version",
	"created_at",
}

// UserRepository implements port.UserRepository using PostgreSQL. Lockout
// counter updates run as single statements so concurrent failures never
// under-count.
type UserRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository wires a PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	if tx == nil {
		return r
	}
	return &UserRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	stmt, args, err := r.builder.Insert("iam.users").
		Columns(userColumns...).
		Values(
			user.ID,
			user.Username,
			user.Email,
			user.PasswordHash,
			user.IsRootUser,
			user.Active,
			user.PasswordExpired,
			user.PasswordExpiryDate,
			user.UserLocked,
			user.FailedLoginAttempts,
			user.AccountLockedUntil,
			user.CreatedBy,
			user.Version,
			user.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username})
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Eq) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("iam.users").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsRootUser,
		&user.Active,
		&user.PasswordExpired,
		&user.PasswordExpiryDate,
		&user.UserLocked,
		&user.FailedLoginAttempts,
		&user.AccountLockedUntil,
		&user.CreatedBy,
		&user.Version,
		&user.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &user, nil
}

// UpdatePassword replaces the stored credential and clears expiry flags.
func (r *UserRepository) UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error {
	stmt, args, err := r.builder.Update("iam.users").
		Set("password_hash", passwordHash).
		Set("password_expired", false).
		Set("password_expiry_date", nil).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// IncrementFailedAttempts bumps the counter database-side and returns the
// post-increment value.
func (r *UserRepository) IncrementFailedAttempts(ctx context.Context, username string) (int, error) {
	stmt := `
		UPDATE iam.users
		   SET failed_login_attempts = failed_login_attempts + 1,
		       version = version + 1
		 WHERE username = $1
		RETURNING failed_login_attempts
	`

	var attempts int
	if err := r.exec.QueryRow(ctx, stmt, username).Scan(&attempts); err != nil {
		if err == pgx.ErrNoRows {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("increment failed attempts: %w", err)
	}

	return attempts, nil
}

// SetLockStatus updates the lock flag and window boundary.
func (r *UserRepository) SetLockStatus(ctx context.Context, username string, locked bool, lockedUntil *time.Time) error {
	stmt, args, err := r.builder.Update("iam.users").
		Set("user_locked", locked).
		Set("account_locked_until", lockedUntil).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"username": username}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set lock status sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set lock status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ResetLockState clears the counter, lock flag, and window in one statement.
func (r *UserRepository) ResetLockState(ctx context.Context, username string) error {
	stmt, args, err := r.builder.Update("iam.users").
		Set("failed_login_attempts", 0).
		Set("user_locked", false).
		Set("account_locked_until", nil).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"username": username}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build reset lock state sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("reset lock state: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// AssignRoles links the user to the provided set of role identifiers.
func (r *UserRepository) AssignRoles(ctx context.Context, userID string, roleIDs []string) error {
	if len(roleIDs) == 0 {
		return nil
	}

	query := r.builder.Insert("iam.user_roles").
		Columns("user_id", "role_id")

	for _, roleID := range roleIDs {
		query = query.Values(userID, roleID)
	}

	stmt, args, err := query.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build assign roles sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("assign roles: %w", err)
	}

	return nil
}

// RevokeRoles removes the specified role assignments from the user.
func (r *UserRepository) RevokeRoles(ctx context.Context, userID string, roleIDs []string) error {
	if len(roleIDs) == 0 {
		return nil
	}

	stmt, args, err := r.builder.Delete("iam.user_roles").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Eq{"role_id": roleIDs}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build revoke roles sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("revoke roles: %w", err)
	}

	return nil
}

var _ port.UserRepository = (*UserRepository)(nil)
