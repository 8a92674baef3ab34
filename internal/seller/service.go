package seller

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-globalseller/internal/common"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/seller/entity"
)

// Repository is the seller store. *repo.SellerRepo satisfies it.
type Repository interface {
	Create(ctx context.Context, g *entity.GlobalSeller) error
	Update(ctx context.Context, g *entity.GlobalSeller) error
	Delete(ctx context.Context, id, userID int64) error
	GetByID(ctx context.Context, id int64) (*entity.GlobalSeller, error)
	ListByUserID(ctx context.Context, userID int64) ([]entity.GlobalSeller, error)
	ExistsForUser(ctx context.Context, userID int64, mlUserID string, excludeID int64) (bool, error)
}

// ProfileFetcher resolves a marketplace access token into profile data.
// Implementations own any retry policy; the service calls it once.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, accessToken string) (*entity.Profile, error)
}

// IDSource hands out new record ids.
type IDSource interface {
	NewID() int64
}

// Service manages global seller records: local validation, then
// enrichment from the marketplace, then a single write.
type Service struct {
	repo    Repository
	fetcher ProfileFetcher
	ids     IDSource
	logger  *zap.SugaredLogger
	now     func() time.Time
}

func NewService(r Repository, fetcher ProfileFetcher, ids IDSource, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{repo: r, fetcher: fetcher, ids: ids, logger: logger, now: time.Now}
}

// WithClock overrides the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type input struct {
	mlUserID string
	token    string
	name     *string
}

func normalize(mlUserID, token string, name *string) (input, error) {
	in := input{mlUserID: strings.TrimSpace(mlUserID), token: strings.TrimSpace(token)}
	if in.mlUserID == "" {
		return in, fmt.Errorf("%w: ml_user_id is required", common.ErrValidation)
	}
	if in.token == "" {
		return in, fmt.Errorf("%w: access_token is required", common.ErrValidation)
	}
	if name != nil {
		if n := strings.TrimSpace(*name); n != "" {
			in.name = &n
		}
	}
	return in, nil
}

// displayName prefers the caller's name, then the profile's full name,
// then its nickname.
func displayName(explicit *string, p *entity.Profile) *string {
	if explicit != nil {
		return explicit
	}
	if full := p.FullName(); full != "" {
		return &full
	}
	if p.Nickname != nil {
		if nick := strings.TrimSpace(*p.Nickname); nick != "" {
			return &nick
		}
	}
	return nil
}

func (s *Service) checkUnique(ctx context.Context, userID int64, mlUserID string, excludeID int64) error {
	exists, err := s.repo.ExistsForUser(ctx, userID, mlUserID, excludeID)
	if err != nil {
		return fmt.Errorf("%w: check duplicate: %w", common.ErrStorage, err)
	}
	if exists {
		return common.ErrDuplicateExternalAccount
	}
	return nil
}

func (s *Service) enrich(ctx context.Context, userID int64, mlUserID, token string) (*entity.Profile, error) {
	profile, err := s.fetcher.FetchProfile(ctx, token)
	if err != nil {
		s.logger.Warnw("marketplace profile fetch failed", "user_id", userID, "ml_user_id", mlUserID, "err", err)
		return nil, fmt.Errorf("%w: %w", common.ErrEnrichmentFailed, err)
	}
	if profile == nil {
		profile = &entity.Profile{}
	}
	return profile, nil
}

// storageErr keeps sentinel errors produced by the repository intact.
func storageErr(op string, err error) error {
	if errors.Is(err, common.ErrDuplicateExternalAccount) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", common.ErrStorage, op, err)
}

// Create registers a marketplace account for userID. Nothing is written
// unless the profile fetch with token succeeds.
func (s *Service) Create(ctx context.Context, userID int64, mlUserID, token string, name *string) (*entity.GlobalSeller, error) {
	in, err := normalize(mlUserID, token, name)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, userID, in.mlUserID, 0); err != nil {
		return nil, err
	}
	profile, err := s.enrich(ctx, userID, in.mlUserID, in.token)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	g := &entity.GlobalSeller{
		ID:          s.ids.NewID(),
		UserID:      userID,
		MLUserID:    in.mlUserID,
		AccessToken: in.token,
		Name:        displayName(in.name, profile),
		Profile:     *profile,
		EnrichedAt:  &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, storageErr("create seller", err)
	}
	s.logger.Infow("global seller created", "user_id", userID, "seller_id", g.ID, "ml_user_id", g.MLUserID)
	return g, nil
}

// Update re-enriches a record owned by userID and replaces token, name and
// profile wholesale. On any failure the stored record is left untouched.
func (s *Service) Update(ctx context.Context, id, userID int64, mlUserID, token string, name *string) (*entity.GlobalSeller, error) {
	existing, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	in, err := normalize(mlUserID, token, name)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, userID, in.mlUserID, id); err != nil {
		return nil, err
	}
	profile, err := s.enrich(ctx, userID, in.mlUserID, in.token)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	g := &entity.GlobalSeller{
		ID:          existing.ID,
		UserID:      userID,
		MLUserID:    in.mlUserID,
		AccessToken: in.token,
		Name:        displayName(in.name, profile),
		Profile:     *profile,
		EnrichedAt:  &now,
		CreatedAt:   existing.CreatedAt,
		UpdatedAt:   now,
	}
	if err := s.repo.Update(ctx, g); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFoundOrForbidden
		}
		return nil, storageErr("update seller", err)
	}
	s.logger.Infow("global seller updated", "user_id", userID, "seller_id", g.ID)
	return g, nil
}

// Delete removes a record owned by userID. A missing id and a foreign
// record both yield common.ErrNotFoundOrForbidden.
func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFoundOrForbidden
		}
		return storageErr("delete seller", err)
	}
	s.logger.Infow("global seller deleted", "user_id", userID, "seller_id", id)
	return nil
}

// GetByUserID lists the records of userID, newest first.
func (s *Service) GetByUserID(ctx context.Context, userID int64) ([]entity.GlobalSeller, error) {
	out, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, storageErr("list sellers", err)
	}
	return out, nil
}

// GetByID is an unscoped fetch; callers must check ownership before
// exposing the result.
func (s *Service) GetByID(ctx context.Context, id int64) (*entity.GlobalSeller, bool, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, storageErr("get seller", err)
	}
	return g, true, nil
}

// GetOwned returns the record only when userID owns it.
func (s *Service) GetOwned(ctx context.Context, id, userID int64) (*entity.GlobalSeller, error) {
	g, ok, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok || g.UserID != userID {
		return nil, common.ErrNotFoundOrForbidden
	}
	return g, nil
}
