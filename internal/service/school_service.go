package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/clae-hq/admissions-api/internal/models"
	"github.com/clae-hq/admissions-api/internal/repository"
	appErrors "github.com/clae-hq/admissions-api/pkg/errors"
)

type schoolRepository interface {
	List(ctx context.Context) ([]models.SchoolSummary, error)
	ListAll(ctx context.Context) ([]models.School, error)
	FindByID(ctx context.Context, id string) (*models.School, error)
	FindBySlug(ctx context.Context, slug string) (*models.School, error)
	Profile(ctx context.Context, id string) (*models.SchoolProfile, error)
	Create(ctx context.Context, school *models.School) error
	Update(ctx context.Context, school *models.School) error
}

type schoolGradeRepository interface {
	ListBySchool(ctx context.Context, schoolID string) ([]models.Grade, error)
}

// CreateSchoolRequest provisions a new tenant.
type CreateSchoolRequest struct {
	Name string `json:"name" validate:"required,min=2"`
	Slug string `json:"slug" validate:"required,min=2,max=64"`
}

// UpdateSchoolRequest edits the tenant profile. Nil fields are left as is.
type UpdateSchoolRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2"`
	Address     *string `json:"address"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Website     *string `json:"website"`
	Description *string `json:"description"`
	LogoURL     *string `json:"logo_url"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// SchoolService covers the public school directory, the staff profile view
// and super admin tenant provisioning.
type SchoolService struct {
	schools   schoolRepository
	grades    schoolGradeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSchoolService constructs a SchoolService instance.
func NewSchoolService(schools schoolRepository, grades schoolGradeRepository, validate *validator.Validate, logger *zap.Logger) *SchoolService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchoolService{schools: schools, grades: grades, validator: validate, logger: logger}
}

// ListPublic returns the public school directory.
func (s *SchoolService) ListPublic(ctx context.Context) ([]models.SchoolSummary, error) {
	schools, err := s.schools.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schools")
	}
	return schools, nil
}

// PublicBySlug resolves one school with its grade levels for the apply form.
func (s *SchoolService) PublicBySlug(ctx context.Context, slug string) (*models.SchoolPublic, error) {
	school, err := s.schools.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch school")
	}

	grades, err := s.grades.ListBySchool(ctx, school.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}

	return &models.SchoolPublic{
		ID:     school.ID,
		Slug:   school.Slug,
		Name:   school.Name,
		Grades: grades,
	}, nil
}

// ListAll returns full tenant records for the super admin console.
func (s *SchoolService) ListAll(ctx context.Context) ([]models.School, error) {
	schools, err := s.schools.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schools")
	}
	return schools, nil
}

// Create provisions a tenant with a unique slug.
func (s *SchoolService) Create(ctx context.Context, req CreateSchoolRequest) (*models.School, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school payload")
	}
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !slugPattern.MatchString(slug) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "slug must be lowercase letters, digits and hyphens")
	}

	school := &models.School{
		Name: strings.TrimSpace(req.Name),
		Slug: slug,
	}
	if err := s.schools.Create(ctx, school); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a school with that slug already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create school")
	}

	s.logger.Info("school provisioned", zap.String("school_id", school.ID), zap.String("slug", school.Slug))
	return school, nil
}

// MySchool returns the caller's tenant profile with aggregate counts.
func (s *SchoolService) MySchool(ctx context.Context, claims *models.SessionClaims) (*models.SchoolProfile, error) {
	if claims.SchoolID == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "account is not attached to a school")
	}
	profile, err := s.schools.Profile(ctx, *claims.SchoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch school profile")
	}
	return profile, nil
}

// UpdateMySchool edits the caller's tenant profile fields.
func (s *SchoolService) UpdateMySchool(ctx context.Context, claims *models.SessionClaims, req UpdateSchoolRequest) (*models.School, error) {
	if claims.SchoolID == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "account is not attached to a school")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school payload")
	}

	school, err := s.schools.FindByID(ctx, *claims.SchoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch school")
	}

	if req.Name != nil {
		school.Name = strings.TrimSpace(*req.Name)
	}
	if req.Address != nil {
		school.Address = *req.Address
	}
	if req.Phone != nil {
		school.Phone = *req.Phone
	}
	if req.Email != nil {
		school.Email = *req.Email
	}
	if req.Website != nil {
		school.Website = *req.Website
	}
	if req.Description != nil {
		school.Description = *req.Description
	}
	if req.LogoURL != nil {
		school.LogoURL = *req.LogoURL
	}

	if err := s.schools.Update(ctx, school); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update school")
	}
	return school, nil
}
