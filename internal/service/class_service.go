package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/clae-hq/admissions-api/internal/models"
	appErrors "github.com/clae-hq/admissions-api/pkg/errors"
)

type classRepository interface {
	ListBySchool(ctx context.Context, schoolID string) ([]models.ClassWithCount, error)
	ListPublic(ctx context.Context, filter models.ClassFilter) ([]models.ClassWithCount, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
}

type classGradeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Grade, error)
}

type classSchoolRepository interface {
	FindBySlug(ctx context.Context, slug string) (*models.School, error)
}

// ClassRequest creates or edits a class section.
type ClassRequest struct {
	GradeID     string `json:"grade_id" validate:"required"`
	Name        string `json:"name" validate:"required,min=1,max=64"`
	Description string `json:"description"`
	Capacity    *int   `json:"capacity" validate:"omitempty,min=1"`
}

// ClassService manages class sections and their public listing.
type ClassService struct {
	classes   classRepository
	grades    classGradeRepository
	schools   classSchoolRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs a ClassService instance.
func NewClassService(classes classRepository, grades classGradeRepository, schools classSchoolRepository, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{classes: classes, grades: grades, schools: schools, validator: validate, logger: logger}
}

// List returns the caller's classes with application counts.
func (s *ClassService) List(ctx context.Context, claims *models.SessionClaims) ([]models.ClassWithCount, error) {
	schoolID, err := requireSchool(claims)
	if err != nil {
		return nil, err
	}
	classes, err := s.classes.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// ListPublic returns classes for the apply form of one school, optionally
// narrowed to a grade level. The slug must resolve to a known school.
func (s *ClassService) ListPublic(ctx context.Context, slug, gradeLevel string) ([]models.ClassWithCount, error) {
	school, err := s.schools.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve school")
	}

	classes, err := s.classes.ListPublic(ctx, models.ClassFilter{SchoolID: school.ID, GradeLevel: gradeLevel})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// Create adds a class section under one of the caller's grades.
func (s *ClassService) Create(ctx context.Context, claims *models.SessionClaims, req ClassRequest) (*models.Class, error) {
	schoolID, err := requireSchool(claims)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	grade, err := s.grades.FindByID(ctx, req.GradeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch grade")
	}
	if grade.SchoolID != schoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
	}

	class := &models.Class{
		SchoolID:    schoolID,
		GradeID:     grade.ID,
		Name:        strings.TrimSpace(req.Name),
		GradeLevel:  grade.Level,
		Description: req.Description,
		Capacity:    req.Capacity,
	}
	if err := s.classes.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// Update edits a class section.
func (s *ClassService) Update(ctx context.Context, claims *models.SessionClaims, id string, req ClassRequest) (*models.Class, error) {
	schoolID, err := requireSchool(claims)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class, err := s.fetchScoped(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}

	if req.GradeID != class.GradeID {
		grade, err := s.grades.FindByID(ctx, req.GradeID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch grade")
		}
		if grade.SchoolID != schoolID {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		class.GradeID = grade.ID
		class.GradeLevel = grade.Level
	}

	class.Name = strings.TrimSpace(req.Name)
	class.Description = req.Description
	class.Capacity = req.Capacity

	if err := s.classes.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return class, nil
}

// Delete removes a class section.
func (s *ClassService) Delete(ctx context.Context, claims *models.SessionClaims, id string) error {
	schoolID, err := requireSchool(claims)
	if err != nil {
		return err
	}
	class, err := s.fetchScoped(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if err := s.classes.Delete(ctx, class.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	return nil
}

func (s *ClassService) fetchScoped(ctx context.Context, schoolID, id string) (*models.Class, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch class")
	}
	if class.SchoolID != schoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	return class, nil
}
