package models

import (
	"time"

	"github.com/lib/pq"
)

// ApplicationStatus is the closed lifecycle state set for an application.
type ApplicationStatus string

const (
	StatusWaiting     ApplicationStatus = "waiting"
	StatusUnderReview ApplicationStatus = "under_review"
	StatusApproved    ApplicationStatus = "approved"
	StatusRejected    ApplicationStatus = "rejected"
	StatusOnHold      ApplicationStatus = "on_hold"
)

// Valid reports whether the status belongs to the closed set.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusUnderReview, StatusApproved, StatusRejected, StatusOnHold:
		return true
	}
	return false
}

// ActiveStatuses are the states counted towards the public queue estimate.
var ActiveStatuses = []ApplicationStatus{StatusWaiting, StatusUnderReview}

// Application is the central admissions record, created once by public
// submission and mutated only by staff actions.
type Application struct {
	ID       string  `db:"id" json:"id"`
	SchoolID *string `db:"school_id" json:"school_id,omitempty"`
	ClassID  *string `db:"class_id" json:"class_id,omitempty"`

	StudentName   string    `db:"student_name" json:"student_name"`
	MiddleName    string    `db:"middle_name" json:"middle_name,omitempty"`
	PreferredName string    `db:"preferred_name" json:"preferred_name,omitempty"`
	StudentGrade  string    `db:"student_grade" json:"student_grade"`
	DateOfBirth   time.Time `db:"date_of_birth" json:"date_of_birth"`
	Gender        string    `db:"gender" json:"gender"`
	Address       string    `db:"address" json:"address"`
	StudentPhoto  string    `db:"student_photo" json:"student_photo,omitempty"`

	PreviousSchool string `db:"previous_school" json:"previous_school,omitempty"`
	MedicalInfo    string `db:"medical_info" json:"medical_info,omitempty"`

	ParentName   string `db:"parent_name" json:"parent_name"`
	ParentEmail  string `db:"parent_email" json:"parent_email"`
	ParentPhone  string `db:"parent_phone" json:"parent_phone,omitempty"`
	FamilyPhone  string `db:"family_phone" json:"family_phone,omitempty"`
	LocationLink string `db:"location_link" json:"location_link,omitempty"`

	EmergencyContact1Name     string `db:"emergency_contact1_name" json:"emergency_contact1_name,omitempty"`
	EmergencyContact1Phone    string `db:"emergency_contact1_phone" json:"emergency_contact1_phone,omitempty"`
	EmergencyContact1Relation string `db:"emergency_contact1_relation" json:"emergency_contact1_relation,omitempty"`
	EmergencyContact2Name     string `db:"emergency_contact2_name" json:"emergency_contact2_name,omitempty"`
	EmergencyContact2Phone    string `db:"emergency_contact2_phone" json:"emergency_contact2_phone,omitempty"`
	EmergencyContact2Relation string `db:"emergency_contact2_relation" json:"emergency_contact2_relation,omitempty"`

	Allergies             string `db:"allergies" json:"allergies,omitempty"`
	MedicalConditions     string `db:"medical_conditions" json:"medical_conditions,omitempty"`
	DietaryRestrictions   string `db:"dietary_restrictions" json:"dietary_restrictions,omitempty"`
	SpecialAccommodations string `db:"special_accommodations" json:"special_accommodations,omitempty"`

	SiblingsAtSchool     string `db:"siblings_at_school" json:"siblings_at_school,omitempty"`
	TransportationMethod string `db:"transportation_method" json:"transportation_method,omitempty"`
	PreferredLanguage    string `db:"preferred_language" json:"preferred_language,omitempty"`
	AcademicRecords      string `db:"academic_records" json:"academic_records,omitempty"`

	PriorityFlags pq.StringArray    `db:"priority_flags" json:"priority_flags"`
	Status        ApplicationStatus `db:"status" json:"status"`
	InternalNotes string            `db:"internal_notes" json:"internal_notes,omitempty"`
	TrackingCode  string            `db:"tracking_code" json:"tracking_code"`
	Notes         string            `db:"notes" json:"notes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Documents []Document `json:"documents,omitempty"`
	Logs      []AuditLog `json:"logs,omitempty"`
}

// Document is a file reference attached to exactly one application.
type Document struct {
	ID            string    `db:"id" json:"id"`
	ApplicationID string    `db:"application_id" json:"application_id"`
	Name          string    `db:"name" json:"name"`
	URL           string    `db:"url" json:"url"`
	Type          string    `db:"type" json:"type"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// ApplicationFilter scopes staff listings; empty SchoolID means unscoped.
type ApplicationFilter struct {
	SchoolID string
	Status   ApplicationStatus
	Search   string
}

// TrackingResult is the public status lookup payload, including the
// point-in-time queue estimate.
type TrackingResult struct {
	StudentName  string            `json:"studentName"`
	Status       ApplicationStatus `json:"status"`
	TrackingCode string            `json:"trackingCode"`
	CreatedAt    time.Time         `json:"createdAt"`
	Position     int               `json:"position"`
	Total        int               `json:"total"`
}
