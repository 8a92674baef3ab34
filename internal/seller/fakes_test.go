package seller

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ovaphlow/pitchfork/service-globalseller/internal/common"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/seller/entity"
)

type fakeRepo struct {
	mu      sync.Mutex
	rows    map[int64]entity.GlobalSeller
	failErr error
}

func newFakeRepo() *fakeRepo { return &fakeRepo{rows: map[int64]entity.GlobalSeller{}} }

func (f *fakeRepo) conflict(g *entity.GlobalSeller) bool {
	for _, row := range f.rows {
		if row.ID != g.ID && row.UserID == g.UserID && row.MLUserID == g.MLUserID {
			return true
		}
	}
	return false
}

func (f *fakeRepo) Create(_ context.Context, g *entity.GlobalSeller) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	if f.conflict(g) {
		return common.ErrDuplicateExternalAccount
	}
	f.rows[g.ID] = *g
	return nil
}

func (f *fakeRepo) Update(_ context.Context, g *entity.GlobalSeller) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	row, ok := f.rows[g.ID]
	if !ok || row.UserID != g.UserID {
		return sql.ErrNoRows
	}
	if f.conflict(g) {
		return common.ErrDuplicateExternalAccount
	}
	f.rows[g.ID] = *g
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok || row.UserID != userID {
		return sql.ErrNoRows
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id int64) (*entity.GlobalSeller, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &row, nil
}

func (f *fakeRepo) ListByUserID(_ context.Context, userID int64) ([]entity.GlobalSeller, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	out := []entity.GlobalSeller{}
	for _, row := range f.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeRepo) ExistsForUser(_ context.Context, userID int64, mlUserID string, excludeID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.UserID == userID && row.MLUserID == mlUserID && row.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

var errUpstream = errors.New("marketplace: status 401: invalid access token")

// fakeFetcher answers per token; unknown tokens fail like a rejected token.
type fakeFetcher struct {
	mu       sync.Mutex
	profiles map[string]*entity.Profile
	calls    int
}

func (f *fakeFetcher) FetchProfile(_ context.Context, token string) (*entity.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	p, ok := f.profiles[token]
	if !ok {
		return nil, errUpstream
	}
	cp := *p
	return &cp, nil
}

type seqIDs struct {
	mu   sync.Mutex
	next int64
}

func (s *seqIDs) NewID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func strp(s string) *string { return &s }

type fixture struct {
	repo    *fakeRepo
	fetcher *fakeFetcher
	clock   *testClock
	svc     *Service
}

func newFixture() *fixture {
	f := &fixture{
		repo: newFakeRepo(),
		fetcher: &fakeFetcher{profiles: map[string]*entity.Profile{
			"tok1": {Nickname: strp("shopa"), FirstName: strp("Ana"), LastName: strp("Souza"), CountryID: strp("BR")},
			"tok2": {Nickname: strp("shopa2"), SiteID: strp("MLB")},
			"tok3": {Nickname: strp("  nick3  ")},
			"tok4": {},
		}},
		clock: &testClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.svc = NewService(f.repo, f.fetcher, &seqIDs{}, nil).WithClock(f.clock.Now)
	return f
}
