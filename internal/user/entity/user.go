package entity

import "time"

// Role is the single authorization attribute of an account.
type Role string

const (
	RoleOperator   Role = "operator"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOperator, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// User represents an account row in the `users` table.
// PasswordHash embeds salt and iteration count and never leaves the service layer.
type User struct {
	ID                int64      `db:"id"`
	Email             string     `db:"email"`
	PasswordHash      string     `db:"password_hash" json:"-"`
	PasswordAlgo      string     `db:"password_algo" json:"-"`
	PasswordUpdatedAt *time.Time `db:"password_updated_at" json:"-"`
	Role              Role       `db:"role"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

// AccountView is the outward projection of a user.
type AccountView struct {
	ID        int64     `json:"id,string"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) View() AccountView {
	return AccountView{ID: u.ID, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}
