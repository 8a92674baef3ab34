package auth

import (
	"context"

	"go.uber.org/zap"

	sessionentity "github.com/ovaphlow/pitchfork/service-globalseller/internal/session/entity"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/user/entity"
)

// Accounts is the account side of authentication. *user.UserService satisfies it.
type Accounts interface {
	SignupUser(ctx context.Context, email, password string) (*entity.User, error)
	AuthenticatePassword(ctx context.Context, email, password string) (*entity.User, error)
	ChangePassword(ctx context.Context, id int64, current, next string) error
}

// Sessions is the session store. *session.Store satisfies it.
type Sessions interface {
	Create(ctx context.Context, userID int64) (*sessionentity.Session, error)
	Resolve(ctx context.Context, token string) (*entity.User, bool, error)
	Destroy(ctx context.Context, token string) error
}

// Service drives the Anonymous -> Authenticated -> Anonymous lifecycle.
type Service struct {
	accounts Accounts
	sessions Sessions
	logger   *zap.SugaredLogger
}

func NewService(accounts Accounts, sessions Sessions, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{accounts: accounts, sessions: sessions, logger: logger}
}

// Signup registers the account and immediately opens a session for it.
func (s *Service) Signup(ctx context.Context, email, password string) (*entity.User, *sessionentity.Session, error) {
	u, err := s.accounts.SignupUser(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.sessions.Create(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Infow("account created", "user_id", u.ID)
	return u, sess, nil
}

// Login opens a new session. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*entity.User, *sessionentity.Session, error) {
	u, err := s.accounts.AuthenticatePassword(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.sessions.Create(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Debugw("login", "user_id", u.ID)
	return u, sess, nil
}

// Logout destroys the session and always succeeds from the caller's view.
// A failed delete only leaves a row that expires on its own.
func (s *Service) Logout(ctx context.Context, token string) {
	if err := s.sessions.Destroy(ctx, token); err != nil {
		s.logger.Warnw("logout: session not destroyed", "err", err)
	}
}

// ResolveSession returns the account behind token, or ok=false when the
// token is unknown or expired.
func (s *Service) ResolveSession(ctx context.Context, token string) (*entity.User, bool, error) {
	return s.sessions.Resolve(ctx, token)
}

// ChangePassword replaces the password after verifying current. Other
// sessions of the account stay valid.
func (s *Service) ChangePassword(ctx context.Context, accountID int64, current, next string) error {
	if err := s.accounts.ChangePassword(ctx, accountID, current, next); err != nil {
		return err
	}
	s.logger.Infow("password changed", "user_id", accountID)
	return nil
}
