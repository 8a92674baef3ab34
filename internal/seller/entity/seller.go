package entity

import (
	"strings"
	"time"
)

// Profile is the enrichment bundle fetched from the marketplace. Every
// field may be absent. It is always stored and replaced as a whole.
type Profile struct {
	Nickname         *string `db:"nickname" json:"nickname"`
	Email            *string `db:"email" json:"email"`
	FirstName        *string `db:"first_name" json:"first_name"`
	LastName         *string `db:"last_name" json:"last_name"`
	CountryID        *string `db:"country_id" json:"country_id"`
	SiteID           *string `db:"site_id" json:"site_id"`
	RegistrationDate *string `db:"registration_date" json:"registration_date"`
	Phone            *string `db:"phone" json:"phone"`
	Address          *string `db:"address" json:"address"`
	City             *string `db:"city" json:"city"`
	State            *string `db:"state" json:"state"`
	ZipCode          *string `db:"zip_code" json:"zip_code"`
	TaxID            *string `db:"tax_id" json:"tax_id"`
	CorporateName    *string `db:"corporate_name" json:"corporate_name"`
	BrandName        *string `db:"brand_name" json:"brand_name"`
	SellerExperience *string `db:"seller_experience" json:"seller_experience"`
}

// FullName joins first and last name, or returns "" when both are blank.
func (p *Profile) FullName() string {
	var parts []string
	for _, s := range []*string{p.FirstName, p.LastName} {
		if s != nil && strings.TrimSpace(*s) != "" {
			parts = append(parts, strings.TrimSpace(*s))
		}
	}
	return strings.Join(parts, " ")
}

// GlobalSeller links an account to one marketplace account.
type GlobalSeller struct {
	ID          int64   `db:"id"`
	UserID      int64   `db:"user_id"`
	MLUserID    string  `db:"ml_user_id"`
	AccessToken string  `db:"access_token" json:"-"`
	Name        *string `db:"name"`
	Profile
	EnrichedAt *time.Time `db:"enriched_at"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

// SellerView is the outward projection; it never carries the access token.
type SellerView struct {
	ID       int64   `json:"id,string"`
	MLUserID string  `json:"ml_user_id"`
	Name     *string `json:"name"`
	Profile
	EnrichedAt *time.Time `json:"enriched_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (g *GlobalSeller) View() SellerView {
	return SellerView{
		ID:         g.ID,
		MLUserID:   g.MLUserID,
		Name:       g.Name,
		Profile:    g.Profile,
		EnrichedAt: g.EnrichedAt,
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.UpdatedAt,
	}
}
