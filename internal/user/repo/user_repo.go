package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-globalseller/internal/common"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-globalseller/pkg/database"
)

const emailConstraint = "users_email_key"

const selectUser = `SELECT id, email, password_hash, password_algo, password_updated_at, role, created_at, updated_at FROM users`

// UserRepo provides data access for users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user row with a caller-assigned id. A concurrent
// signup for the same email loses on the unique constraint and gets
// common.ErrDuplicateEmail.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id, email, password_hash, password_algo, password_updated_at, role, created_at, updated_at)
		VALUES (:id, :email, :password_hash, :password_algo, :password_updated_at, :role, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, u); err != nil {
		if database.IsUniqueViolation(err, emailConstraint) {
			return common.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// GetByEmail returns a user matched by email (case-insensitive due to citext) or sql.ErrNoRows.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var row entity.User
	if err := r.db.GetContext(ctx, &row, selectUser+` WHERE email=$1`, email); err != nil {
		return nil, err
	}
	return &row, nil
}

// GetByID fetches a full user row or sql.ErrNoRows.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	var row entity.User
	if err := r.db.GetContext(ctx, &row, selectUser+` WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdatePassword replaces hash and algo. Returns sql.ErrNoRows when the user is gone.
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, hash, algo string, at time.Time) error {
	const q = `UPDATE users SET password_hash=$2, password_algo=$3, password_updated_at=$4, updated_at=$4 WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id, hash, algo, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool { return errors.Is(err, sql.ErrNoRows) }
