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

// OTPRepository implements port.OTPRepository over PostgreSQL.
type OTPRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewOTPRepository constructs an OTP repository instance.
func NewOTPRepository(pool *pgxpool.Pool) *OTPRepository {
	return &OTPRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *OTPRepository) WithTx(tx pgx.Tx) *OTPRepository {
	if tx == nil {
		return r
	}
	return &OTPRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Save inserts a fresh reset code.
func (r *OTPRepository) Save(ctx context.Context, otp domain.PasswordResetOTP) error {
	stmt, args, err := r.builder.Insert("iam.password_reset_otps").
		Columns("id", "otp", "user_id", "expires_at", "created_at").
		Values(otp.ID, otp.OTP, otp.UserID, otp.ExpiresAt, otp.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert otp sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert otp: %w", err)
	}

	return nil
}

// GetByCode retrieves a stored reset code by its value.
func (r *OTPRepository) GetByCode(ctx context.Context, code string) (*domain.PasswordResetOTP, error) {
	return r.getOne(ctx, squirrel.Eq{"otp": code})
}

// GetByUser retrieves the live reset code for the user.
func (r *OTPRepository) GetByUser(ctx context.Context, userID string) (*domain.PasswordResetOTP, error) {
	return r.getOne(ctx, squirrel.Eq{"user_id": userID})
}

func (r *OTPRepository) getOne(ctx context.Context, where squirrel.Eq) (*domain.PasswordResetOTP, error) {
	stmt, args, err := r.builder.Select("id", "otp", "user_id", "expires_at", "created_at").
		From("iam.password_reset_otps").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select otp sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var otp domain.PasswordResetOTP
	if err := row.Scan(&otp.ID, &otp.OTP, &otp.UserID, &otp.ExpiresAt, &otp.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan otp: %w", err)
	}

	return &otp, nil
}

// Delete removes the reset code by identifier.
func (r *OTPRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("iam.password_reset_otps").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete otp sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeleteByUser removes any live code for the user. Deleting when none exists
// is not an error; a fresh request must always be able to supersede.
func (r *OTPRepository) DeleteByUser(ctx context.Context, userID string) error {
	stmt, args, err := r.builder.Delete("iam.password_reset_otps").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete user otps sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete user otps: %w", err)
	}

	return nil
}

var _ port.OTPRepository = (*OTPRepository)(nil)
