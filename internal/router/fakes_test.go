package router

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ovaphlow/pitchfork/service-globalseller/internal/common"
	sellerentity "github.com/ovaphlow/pitchfork/service-globalseller/internal/seller/entity"
	sessionentity "github.com/ovaphlow/pitchfork/service-globalseller/internal/session/entity"
	userentity "github.com/ovaphlow/pitchfork/service-globalseller/internal/user/entity"
)

type accountStore struct {
	mu       sync.Mutex
	users    map[int64]userentity.User
	sessions map[string]sessionentity.Session
}

func (m *accountStore) Create(_ context.Context, u *userentity.User) error {
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

func (m *accountStore) GetByEmail(_ context.Context, email string) (*userentity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *accountStore) GetByID(_ context.Context, id int64) (*userentity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (m *accountStore) UpdatePassword(_ context.Context, id int64, hash, algo string, at time.Time) error {
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

func (m *accountStore) Save(_ context.Context, s *sessionentity.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *accountStore) GetWithUser(_ context.Context, token string) (*sessionentity.Session, *userentity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, nil, sql.ErrNoRows
	}
	u := m.users[s.UserID]
	return &s, &u, nil
}

func (m *accountStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *accountStore) DeleteExpired(context.Context, time.Time) (int64, error) { return 0, nil }

type sellerStore struct {
	mu   sync.Mutex
	rows map[int64]sellerentity.GlobalSeller
}

func (s *sellerStore) Create(_ context.Context, g *sellerentity.GlobalSeller) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[g.ID] = *g
	return nil
}

func (s *sellerStore) Update(_ context.Context, g *sellerentity.GlobalSeller) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[g.ID]
	if !ok || row.UserID != g.UserID {
		return sql.ErrNoRows
	}
	s.rows[g.ID] = *g
	return nil
}

func (s *sellerStore) Delete(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || row.UserID != userID {
		return sql.ErrNoRows
	}
	delete(s.rows, id)
	return nil
}

func (s *sellerStore) GetByID(_ context.Context, id int64) (*sellerentity.GlobalSeller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &row, nil
}

func (s *sellerStore) ListByUserID(_ context.Context, userID int64) ([]sellerentity.GlobalSeller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []sellerentity.GlobalSeller{}
	for _, row := range s.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *sellerStore) ExistsForUser(_ context.Context, userID int64, mlUserID string, excludeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.UserID == userID && row.MLUserID == mlUserID && row.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
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

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }
