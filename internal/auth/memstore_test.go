package auth

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/ovaphlow/pitchfork/service-globalseller/internal/common"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/session"
	sessionentity "github.com/ovaphlow/pitchfork/service-globalseller/internal/session/entity"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/user"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/user/entity"
)

// memStore backs both the user and the session repository contracts.
type memStore struct {
	mu       sync.Mutex
	users    map[int64]entity.User
	sessions map[string]sessionentity.Session
}

func newMemStore() *memStore {
	return &memStore{users: map[int64]entity.User{}, sessions: map[string]sessionentity.Session{}}
}

func (m *memStore) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return common.ErrDuplicateEmail
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) GetByID(_ context.Context, id int64) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (m *memStore) UpdatePassword(_ context.Context, id int64, hash, algo string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash, u.PasswordAlgo, u.PasswordUpdatedAt = hash, algo, &at
	m.users[id] = u
	return nil
}

func (m *memStore) Save(_ context.Context, s *sessionentity.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *memStore) GetWithUser(_ context.Context, token string) (*sessionentity.Session, *entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, nil, sql.ErrNoRows
	}
	u := m.users[s.UserID]
	return &s, &u, nil
}

func (m *memStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *memStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if !s.ExpiresAt.After(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

type seqIDs struct {
	mu sync.Mutex
	n  int64
}

func (s *seqIDs) NewID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	store *memStore
	clock *testClock
	svc   *Service
}

func newFixture() *fixture {
	store := newMemStore()
	clock := &testClock{t: time.Now().UTC()}
	accounts := user.NewUserService(store, user.PBKDF2Hasher{Iterations: 1000}, &seqIDs{}, nil).WithClock(clock.now)
	sessions := session.NewStore(store, nil).WithClock(clock.now)
	return &fixture{store: store, clock: clock, svc: NewService(accounts, sessions, nil)}
}
