package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/clae-hq/admissions-api/internal/models"
	"github.com/clae-hq/admissions-api/internal/repository"
	appErrors "github.com/clae-hq/admissions-api/pkg/errors"
)

// statusNotifier decouples services from notification delivery. Calls happen
// only after the owning transaction has committed.
type statusNotifier interface {
	NotifyStatusChange(applicationID string, status models.ApplicationStatus, adminID string)
}

type intakeApplicationRepository interface {
	CreateWithDocuments(ctx context.Context, app *models.Application, docs []models.Document) error
}

type intakeSchoolRepository interface {
	FindBySlug(ctx context.Context, slug string) (*models.School, error)
}

// SubmitDocument is one uploaded file reference attached at submission time.
type SubmitDocument struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required"`
	Type string `json:"type"`
}

// SubmitApplicationRequest is the public enrollment form payload.
type SubmitApplicationRequest struct {
	SchoolSlug string `json:"school_slug"`
	ClassID    string `json:"class_id"`

	StudentName   string `json:"student_name" validate:"required,min=2"`
	MiddleName    string `json:"middle_name"`
	PreferredName string `json:"preferred_name"`
	StudentGrade  string `json:"student_grade" validate:"required"`
	DateOfBirth   string `json:"date_of_birth" validate:"required"`
	Gender        string `json:"gender" validate:"required"`
	Address       string `json:"address" validate:"required,min=5"`
	StudentPhoto  string `json:"student_photo"`

	PreviousSchool string `json:"previous_school"`
	MedicalInfo    string `json:"medical_info"`

	ParentName   string `json:"parent_name" validate:"required,min=2"`
	ParentEmail  string `json:"parent_email" validate:"required,email"`
	ParentPhone  string `json:"parent_phone"`
	FamilyPhone  string `json:"family_phone"`
	LocationLink string `json:"location_link"`

	EmergencyContact1Name     string `json:"emergency_contact1_name"`
	EmergencyContact1Phone    string `json:"emergency_contact1_phone"`
	EmergencyContact1Relation string `json:"emergency_contact1_relation"`
	EmergencyContact2Name     string `json:"emergency_contact2_name"`
	EmergencyContact2Phone    string `json:"emergency_contact2_phone"`
	EmergencyContact2Relation string `json:"emergency_contact2_relation"`

	Allergies             string `json:"allergies"`
	MedicalConditions     string `json:"medical_conditions"`
	DietaryRestrictions   string `json:"dietary_restrictions"`
	SpecialAccommodations string `json:"special_accommodations"`

	SiblingsAtSchool     string `json:"siblings_at_school"`
	TransportationMethod string `json:"transportation_method"`
	PreferredLanguage    string `json:"preferred_language"`
	AcademicRecords      string `json:"academic_records"`

	PriorityFlags []string         `json:"priority_flags"`
	Notes         string           `json:"notes"`
	Documents     []SubmitDocument `json:"documents" validate:"dive"`
}

// IntakeConfig tunes tracking code generation.
type IntakeConfig struct {
	TrackingPrefix string
	CodeRetries    int
}

// IntakeService accepts public enrollment submissions.
type IntakeService struct {
	apps      intakeApplicationRepository
	schools   intakeSchoolRepository
	notifier  statusNotifier
	validator *validator.Validate
	logger    *zap.Logger
	config    IntakeConfig
}

// NewIntakeService constructs an IntakeService instance.
func NewIntakeService(apps intakeApplicationRepository, schools intakeSchoolRepository, notifier statusNotifier, validate *validator.Validate, logger *zap.Logger, config IntakeConfig) *IntakeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TrackingPrefix == "" {
		config.TrackingPrefix = "CLAE"
	}
	if config.CodeRetries <= 0 {
		config.CodeRetries = 3
	}
	return &IntakeService{apps: apps, schools: schools, notifier: notifier, validator: validate, logger: logger, config: config}
}

// Submit validates an enrollment form, resolves the tenant from the slug,
// persists the application with its documents, and acknowledges receipt to
// the parent once the write has committed.
func (s *IntakeService) Submit(ctx context.Context, req SubmitApplicationRequest) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date_of_birth must be YYYY-MM-DD")
	}

	var schoolID *string
	if slug := strings.ToLower(strings.TrimSpace(req.SchoolSlug)); slug != "" {
		school, err := s.schools.FindBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve school")
		}
		schoolID = &school.ID
	}

	app := s.buildApplication(req, schoolID, dob)
	docs := make([]models.Document, 0, len(req.Documents))
	for _, d := range req.Documents {
		docs = append(docs, models.Document{Name: d.Name, URL: d.URL, Type: d.Type})
	}

	for attempt := 0; attempt < s.config.CodeRetries; attempt++ {
		code, err := s.generateTrackingCode()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate tracking code")
		}
		app.TrackingCode = code

		err = s.apps.CreateWithDocuments(ctx, app, docs)
		if err == nil {
			s.logger.Info("application submitted",
				zap.String("application_id", app.ID),
				zap.String("tracking_code", app.TrackingCode))
			if s.notifier != nil {
				s.notifier.NotifyStatusChange(app.ID, models.StatusWaiting, "")
			}
			return app, nil
		}
		if repository.IsUniqueViolation(err) {
			s.logger.Warn("tracking code collision, regenerating", zap.String("code", code))
			continue
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store application")
	}

	return nil, appErrors.Clone(appErrors.ErrInternal, "could not allocate a unique tracking code")
}

func (s *IntakeService) buildApplication(req SubmitApplicationRequest, schoolID *string, dob time.Time) *models.Application {
	var classID *string
	if req.ClassID != "" {
		classID = &req.ClassID
	}
	return &models.Application{
		SchoolID: schoolID,
		ClassID:  classID,

		StudentName:   req.StudentName,
		MiddleName:    req.MiddleName,
		PreferredName: req.PreferredName,
		StudentGrade:  req.StudentGrade,
		DateOfBirth:   dob,
		Gender:        req.Gender,
		Address:       req.Address,
		StudentPhoto:  req.StudentPhoto,

		PreviousSchool: req.PreviousSchool,
		MedicalInfo:    req.MedicalInfo,

		ParentName:   req.ParentName,
		ParentEmail:  req.ParentEmail,
		ParentPhone:  req.ParentPhone,
		FamilyPhone:  req.FamilyPhone,
		LocationLink: req.LocationLink,

		EmergencyContact1Name:     req.EmergencyContact1Name,
		EmergencyContact1Phone:    req.EmergencyContact1Phone,
		EmergencyContact1Relation: req.EmergencyContact1Relation,
		EmergencyContact2Name:     req.EmergencyContact2Name,
		EmergencyContact2Phone:    req.EmergencyContact2Phone,
		EmergencyContact2Relation: req.EmergencyContact2Relation,

		Allergies:             req.Allergies,
		MedicalConditions:     req.MedicalConditions,
		DietaryRestrictions:   req.DietaryRestrictions,
		SpecialAccommodations: req.SpecialAccommodations,

		SiblingsAtSchool:     req.SiblingsAtSchool,
		TransportationMethod: req.TransportationMethod,
		PreferredLanguage:    req.PreferredLanguage,
		AcademicRecords:      req.AcademicRecords,

		PriorityFlags: pq.StringArray(req.PriorityFlags),
		Status:        models.StatusWaiting,
		Notes:         req.Notes,
	}
}

const trackingAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func (s *IntakeService) generateTrackingCode() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = trackingAlphabet[int(buf[i])%len(trackingAlphabet)]
	}
	return fmt.Sprintf("%s-%d-%s", s.config.TrackingPrefix, time.Now().UTC().Year(), string(buf)), nil
}
