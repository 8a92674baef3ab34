package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-globalseller/internal/session/entity"
	userentity "github.com/ovaphlow/pitchfork/service-globalseller/internal/user/entity"
)

// expected table schema: see pkg/database/migrations (sessions).

type SessionRepo struct {
	db *sqlx.DB
}

func NewSessionRepo(db *sqlx.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Save(ctx context.Context, s *entity.Session) error {
	const q = `INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, q, s.ID, s.UserID, s.CreatedAt, s.ExpiresAt)
	return err
}

// GetWithUser loads the session and its owning user in one round trip.
// Returns sql.ErrNoRows when the token is unknown. Expiry is not checked here.
func (r *SessionRepo) GetWithUser(ctx context.Context, token string) (*entity.Session, *userentity.User, error) {
	const q = `SELECT s.id, s.user_id, s.created_at, s.expires_at,
		u.email, u.password_hash, u.password_algo, u.password_updated_at, u.role, u.created_at AS user_created_at, u.updated_at AS user_updated_at
	  FROM sessions s JOIN users u ON u.id = s.user_id
	  WHERE s.id = $1`
	var row struct {
		entity.Session
		Email             string          `db:"email"`
		PasswordHash      string          `db:"password_hash"`
		PasswordAlgo      string          `db:"password_algo"`
		PasswordUpdatedAt *time.Time      `db:"password_updated_at"`
		Role              userentity.Role `db:"role"`
		UserCreatedAt     time.Time       `db:"user_created_at"`
		UserUpdatedAt     time.Time       `db:"user_updated_at"`
	}
	if err := r.db.GetContext(ctx, &row, q, token); err != nil {
		return nil, nil, err
	}
	s := row.Session
	u := &userentity.User{
		ID:                row.UserID,
		Email:             row.Email,
		PasswordHash:      row.PasswordHash,
		PasswordAlgo:      row.PasswordAlgo,
		PasswordUpdatedAt: row.PasswordUpdatedAt,
		Role:              row.Role,
		CreatedAt:         row.UserCreatedAt,
		UpdatedAt:         row.UserUpdatedAt,
	}
	return &s, u, nil
}

// Delete removes a session; deleting an unknown token is not an error.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, token)
	return err
}

// DeleteExpired purges sessions whose expiry is at or before now.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
