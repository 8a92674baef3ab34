package session

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-globalseller/internal/common"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/session/entity"
	userentity "github.com/ovaphlow/pitchfork/service-globalseller/internal/user/entity"
)

// TTL is the fixed lifetime of a session.
const TTL = 7 * 24 * time.Hour

// 256 bits of entropy per token
const tokenBytes = 32

// Repository is the session persistence contract. *repo.SessionRepo satisfies it.
type Repository interface {
	Save(ctx context.Context, s *entity.Session) error
	GetWithUser(ctx context.Context, token string) (*entity.Session, *userentity.User, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Store issues, resolves and revokes opaque session tokens.
type Store struct {
	repo   Repository
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewStore(r Repository, logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{repo: r, logger: logger, now: time.Now}
}

// WithClock overrides the time source; used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Create persists a new session for userID expiring TTL from now.
func (s *Store) Create(ctx context.Context, userID int64) (*entity.Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	now := s.now().UTC()
	sess := &entity.Session{
		ID:        token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(TTL),
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("%w: save session: %w", common.ErrStorage, err)
	}
	return sess, nil
}

// Resolve maps a token to its account. ok is false when the token is
// unknown or expired; err is reserved for storage failures.
func (s *Store) Resolve(ctx context.Context, token string) (*userentity.User, bool, error) {
	if token == "" {
		return nil, false, nil
	}
	sess, u, err := s.repo.GetWithUser(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: load session: %w", common.ErrStorage, err)
	}
	if sess.ExpiredAt(s.now()) {
		return nil, false, nil
	}
	return u, true, nil
}

// Destroy deletes the session. Unknown tokens are ignored.
func (s *Store) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repo.Delete(ctx, token); err != nil {
		return fmt.Errorf("%w: delete session: %w", common.ErrStorage, err)
	}
	return nil
}

// SweepExpired physically removes expired sessions and returns how many
// were purged. Resolve never depends on it.
func (s *Store) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: sweep sessions: %w", common.ErrStorage, err)
	}
	return n, nil
}

// RunSweeper calls SweepExpired every interval until ctx is done.
// A non-positive interval disables sweeping.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepExpired(ctx)
			if err != nil {
				s.logger.Warnw("session sweep failed", "err", err)
				continue
			}
			if n > 0 {
				s.logger.Infow("expired sessions purged", "count", n)
			}
		}
	}
}
