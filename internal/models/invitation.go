package models

import "time"

// Invitation is a single-use, time-limited code binding a target school and a
// role, redeemable exactly once by a new staff signup.
type Invitation struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	Role      AdminRole `db:"role" json:"role"`
	Code      string    `db:"code" json:"code"`
	Used      bool      `db:"used" json:"used"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	SchoolName string `db:"school_name" json:"school_name,omitempty"`
}

// Redeemable reports whether the invitation can still be consumed at now.
func (i Invitation) Redeemable(now time.Time) bool {
	return !i.Used && now.Before(i.ExpiresAt)
}
