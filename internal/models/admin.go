package models

import "time"

// AdminRole is the closed role enumeration for staff accounts.
type AdminRole string

const (
	RoleSuperAdmin AdminRole = "super_admin"
	RoleRegistrar  AdminRole = "registrar"
	RoleViewer     AdminRole = "viewer"
)

// Valid reports whether the role belongs to the closed set.
func (r AdminRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleRegistrar, RoleViewer:
		return true
	}
	return false
}

// Admin is a staff account scoped to one school, or global for root operators.
type Admin struct {
	ID               string     `db:"id" json:"id"`
	SchoolID         *string    `db:"school_id" json:"school_id,omitempty"`
	Email            string     `db:"email" json:"email"`
	PasswordHash     string     `db:"password_hash" json:"-"`
	Name             string     `db:"name" json:"name"`
	Role             AdminRole  `db:"role" json:"role"`
	ResetToken       *string    `db:"reset_token" json:"-"`
	ResetTokenExpiry *time.Time `db:"reset_token_expiry" json:"-"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}
