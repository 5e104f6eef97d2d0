package models

import "time"

// School is the tenant root owning admins, grades, classes and applications.
type School struct {
	ID          string    `db:"id" json:"id"`
	Slug        string    `db:"slug" json:"slug"`
	Name        string    `db:"name" json:"name"`
	Address     string    `db:"address" json:"address,omitempty"`
	Phone       string    `db:"phone" json:"phone,omitempty"`
	Email       string    `db:"email" json:"email,omitempty"`
	Website     string    `db:"website" json:"website,omitempty"`
	Description string    `db:"description" json:"description,omitempty"`
	LogoURL     string    `db:"logo_url" json:"logo_url,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SchoolSummary is the public listing shape with an application count.
type SchoolSummary struct {
	ID               string `db:"id" json:"id"`
	Slug             string `db:"slug" json:"slug"`
	Name             string `db:"name" json:"name"`
	ApplicationCount int    `db:"application_count" json:"application_count"`
}

// SchoolProfile combines tenant metadata with aggregate counts for the
// staff "my school" view.
type SchoolProfile struct {
	School
	ApplicationCount int `db:"application_count" json:"application_count"`
	AdminCount       int `db:"admin_count" json:"admin_count"`
}

// SchoolPublic is the apply-form payload: profile plus grade levels.
type SchoolPublic struct {
	ID     string  `json:"id"`
	Slug   string  `json:"slug"`
	Name   string  `json:"name"`
	Grades []Grade `json:"grades"`
}
