package models

import "time"

// Grade is a named level ("Grade 9") unique within one school. Classes
// reference a grade; delete is blocked while classes remain attached.
type Grade struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	Level     string    `db:"level" json:"level"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
