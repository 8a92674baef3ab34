package repo

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-globalseller/internal/common"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/seller/entity"
	"github.com/ovaphlow/pitchfork/service-globalseller/pkg/database"
)

const userMLConstraint = "global_sellers_user_ml_key"

const sellerColumns = `id, user_id, ml_user_id, access_token, name,
	nickname, email, first_name, last_name, country_id, site_id, registration_date,
	phone, address, city, state, zip_code, tax_id, corporate_name, brand_name, seller_experience,
	enriched_at, created_at, updated_at`

// SellerRepo stores global seller records.
type SellerRepo struct {
	db *sqlx.DB
}

func NewSellerRepo(db *sqlx.DB) *SellerRepo { return &SellerRepo{db: db} }

// Create inserts g. The (user_id, ml_user_id) unique constraint is the
// authoritative duplicate guard and surfaces as common.ErrDuplicateExternalAccount.
func (r *SellerRepo) Create(ctx context.Context, g *entity.GlobalSeller) error {
	const q = `INSERT INTO global_sellers (` + sellerColumns + `) VALUES (
		:id, :user_id, :ml_user_id, :access_token, :name,
		:nickname, :email, :first_name, :last_name, :country_id, :site_id, :registration_date,
		:phone, :address, :city, :state, :zip_code, :tax_id, :corporate_name, :brand_name, :seller_experience,
		:enriched_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, g); err != nil {
		if database.IsUniqueViolation(err, userMLConstraint) {
			return common.ErrDuplicateExternalAccount
		}
		return err
	}
	return nil
}

// Update replaces token, name and the whole enrichment bundle of a record
// owned by g.UserID. Returns sql.ErrNoRows when no owned row matched.
func (r *SellerRepo) Update(ctx context.Context, g *entity.GlobalSeller) error {
	const q = `UPDATE global_sellers SET
		ml_user_id=:ml_user_id, access_token=:access_token, name=:name,
		nickname=:nickname, email=:email, first_name=:first_name, last_name=:last_name,
		country_id=:country_id, site_id=:site_id, registration_date=:registration_date,
		phone=:phone, address=:address, city=:city, state=:state, zip_code=:zip_code,
		tax_id=:tax_id, corporate_name=:corporate_name, brand_name=:brand_name,
		seller_experience=:seller_experience, enriched_at=:enriched_at, updated_at=:updated_at
		WHERE id=:id AND user_id=:user_id`
	res, err := r.db.NamedExecContext(ctx, q, g)
	if err != nil {
		if database.IsUniqueViolation(err, userMLConstraint) {
			return common.ErrDuplicateExternalAccount
		}
		return err
	}
	return expectOneRow(res)
}

// Delete removes a record only when owned by userID. Returns sql.ErrNoRows
// when nothing matched, whether the id is missing or foreign.
func (r *SellerRepo) Delete(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM global_sellers WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// GetByID fetches a record regardless of owner or sql.ErrNoRows.
func (r *SellerRepo) GetByID(ctx context.Context, id int64) (*entity.GlobalSeller, error) {
	var g entity.GlobalSeller
	if err := r.db.GetContext(ctx, &g, `SELECT `+sellerColumns+` FROM global_sellers WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &g, nil
}

// ListByUserID returns records of userID, newest first.
func (r *SellerRepo) ListByUserID(ctx context.Context, userID int64) ([]entity.GlobalSeller, error) {
	out := []entity.GlobalSeller{}
	q := `SELECT ` + sellerColumns + ` FROM global_sellers WHERE user_id=$1 ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}

// ExistsForUser reports whether userID already registered mlUserID on a
// record other than excludeID (0 excludes nothing).
func (r *SellerRepo) ExistsForUser(ctx context.Context, userID int64, mlUserID string, excludeID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM global_sellers WHERE user_id=$1 AND ml_user_id=$2 AND id<>$3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, q, userID, mlUserID, excludeID); err != nil {
		return false, err
	}
	return exists, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
