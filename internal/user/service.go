package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-globalseller/internal/common"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-globalseller/internal/user/repo"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
)

// Repository is the user store the service depends on. *userrepo.UserRepo satisfies it.
type Repository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	UpdatePassword(ctx context.Context, id int64, hash, algo string, at time.Time) error
}

// IDSource hands out new account ids.
type IDSource interface {
	NewID() int64
}

// UserService owns credential checks and the account lifecycle.
type UserService struct {
	repo   Repository
	hasher PasswordHasher
	ids    IDSource
	logger *zap.SugaredLogger
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(r Repository, hasher PasswordHasher, ids IDSource, logger *zap.SugaredLogger) *UserService {
	if hasher == nil {
		hasher = PBKDF2Hasher{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &UserService{repo: r, hasher: hasher, ids: ids, logger: logger, now: time.Now}
}

// WithClock overrides the time source; used by tests.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(pw string) error {
	if len(pw) < minPasswordLen || len(pw) > maxPasswordLen {
		return fmt.Errorf("%w: password must be %d to %d characters", common.ErrValidation, minPasswordLen, maxPasswordLen)
	}
	return nil
}

// SignupUser creates an operator account. Fails with common.ErrDuplicateEmail
// when the email is already registered.
func (s *UserService) SignupUser(ctx context.Context, email, password string) (*entity.User, error) {
	email = normalizeEmail(email)
	if err := common.Validator().Var(email, "required,email,max=254"); err != nil {
		return nil, fmt.Errorf("%w: invalid email", common.ErrValidation)
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return nil, common.ErrDuplicateEmail
	case err != nil && !userrepo.IsNotFound(err):
		return nil, fmt.Errorf("%w: lookup email: %w", common.ErrStorage, err)
	}

	hash, algo, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := &entity.User{
		ID:                s.ids.NewID(),
		Email:             email,
		PasswordHash:      hash,
		PasswordAlgo:      algo,
		PasswordUpdatedAt: &now,
		Role:              entity.RoleOperator,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: create user: %w", common.ErrStorage, err)
	}
	return u, nil
}

// AuthenticatePassword checks email/password. Unknown email and wrong
// password both yield common.ErrInvalidCredentials.
func (s *UserService) AuthenticatePassword(ctx context.Context, email, password string) (*entity.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.ErrInvalidCredentials
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if userrepo.IsNotFound(err) {
			// spend the same KDF time as a real check
			s.hasher.Verify(s.dummy(), password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: lookup email: %w", common.ErrStorage, err)
	}

	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(u.PasswordHash) {
		if newHash, algo, hErr := s.hasher.Hash(password); hErr == nil {
			if uErr := s.repo.UpdatePassword(ctx, u.ID, newHash, algo, s.now().UTC()); uErr != nil {
				s.logger.Warnw("password rehash failed", "user_id", u.ID, "err", uErr)
			} else {
				u.PasswordHash, u.PasswordAlgo = newHash, algo
			}
		}
	}
	return u, nil
}

// ChangePassword verifies current against the stored hash before storing
// next. Existing sessions stay valid.
func (s *UserService) ChangePassword(ctx context.Context, id int64, current, next string) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if userrepo.IsNotFound(err) {
			return common.ErrInvalidCredentials
		}
		return fmt.Errorf("%w: load user: %w", common.ErrStorage, err)
	}
	if !s.hasher.Verify(u.PasswordHash, current) {
		return common.ErrInvalidCredentials
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	hash, algo, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, id, hash, algo, s.now().UTC()); err != nil {
		return fmt.Errorf("%w: update password: %w", common.ErrStorage, err)
	}
	return nil
}

// GetByID returns the account or common.ErrNotFoundOrForbidden.
func (s *UserService) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if userrepo.IsNotFound(err) {
			return nil, common.ErrNotFoundOrForbidden
		}
		return nil, fmt.Errorf("%w: load user: %w", common.ErrStorage, err)
	}
	return u, nil
}

func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _, _ = s.hasher.Hash("dummy-password-for-timing")
	})
	return s.dummyHash
}
