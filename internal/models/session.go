package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims carry the staff identity inside the short-lived access token.
// SchoolID is nil for global super admins.
type SessionClaims struct {
	AdminID  string    `json:"admin_id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     AdminRole `json:"role"`
	SchoolID *string   `json:"school_id,omitempty"`
	jwt.RegisteredClaims
}

// Scoped reports whether queries for this identity must be tenant-filtered.
func (c *SessionClaims) Scoped() bool {
	return c.Role != RoleSuperAdmin
}

// LoginRequest is the credential exchange payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued session token and identity summary.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	Admin       AdminInfo `json:"admin"`
}

// AdminInfo is the public identity shape embedded in login responses.
type AdminInfo struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     AdminRole `json:"role"`
	SchoolID *string   `json:"school_id,omitempty"`
}
