package models

import "time"

// Class is a section within a grade, with optional capacity. Applications are
// assigned to classes by school staff, never by the applicant.
type Class struct {
	ID          string    `db:"id" json:"id"`
	SchoolID    string    `db:"school_id" json:"school_id"`
	GradeID     string    `db:"grade_id" json:"grade_id"`
	Name        string    `db:"name" json:"name"`
	GradeLevel  string    `db:"grade_level" json:"grade_level"`
	Description string    `db:"description" json:"description,omitempty"`
	Capacity    *int      `db:"capacity" json:"capacity,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ClassWithCount augments a class with its current application count.
type ClassWithCount struct {
	Class
	ApplicationCount int `db:"application_count" json:"application_count"`
}

// ClassFilter narrows public class listings.
type ClassFilter struct {
	SchoolID   string
	GradeLevel string
}
