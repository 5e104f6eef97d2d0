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

type gradeRepository interface {
	ListBySchool(ctx context.Context, schoolID string) ([]models.Grade, error)
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	ExistsByLevel(ctx context.Context, schoolID, level string) (bool, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id string) error
	CountClasses(ctx context.Context, gradeID string) (int, error)
}

// GradeRequest creates or renames a grade level within the caller's school.
type GradeRequest struct {
	Level string `json:"level" validate:"required,min=1,max=64"`
}

// GradeService manages grade levels for the staff dashboard.
type GradeService struct {
	repo      gradeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs a GradeService instance.
func NewGradeService(repo gradeRepository, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{repo: repo, validator: validate, logger: logger}
}

// List returns the caller's grade levels ordered by level.
func (s *GradeService) List(ctx context.Context, claims *models.SessionClaims) ([]models.Grade, error) {
	schoolID, err := requireSchool(claims)
	if err != nil {
		return nil, err
	}
	grades, err := s.repo.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// Create adds a grade level, rejecting duplicates within the school.
func (s *GradeService) Create(ctx context.Context, claims *models.SessionClaims, req GradeRequest) (*models.Grade, error) {
	schoolID, err := requireSchool(claims)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	level := strings.TrimSpace(req.Level)
	exists, err := s.repo.ExistsByLevel(ctx, schoolID, level)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check grade level")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "grade level already exists")
	}

	grade := &models.Grade{SchoolID: schoolID, Level: level}
	if err := s.repo.Create(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade")
	}
	return grade, nil
}

// Update renames a grade level.
func (s *GradeService) Update(ctx context.Context, claims *models.SessionClaims, id string, req GradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	grade, err := s.fetchScoped(ctx, claims, id)
	if err != nil {
		return nil, err
	}

	grade.Level = strings.TrimSpace(req.Level)
	if err := s.repo.Update(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade")
	}
	return grade, nil
}

// Delete removes a grade level. Grades that still own classes are protected.
func (s *GradeService) Delete(ctx context.Context, claims *models.SessionClaims, id string) error {
	grade, err := s.fetchScoped(ctx, claims, id)
	if err != nil {
		return err
	}

	count, err := s.repo.CountClasses(ctx, grade.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count classes")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "grade still has classes attached")
	}

	if err := s.repo.Delete(ctx, grade.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade")
	}
	return nil
}

func (s *GradeService) fetchScoped(ctx context.Context, claims *models.SessionClaims, id string) (*models.Grade, error) {
	schoolID, err := requireSchool(claims)
	if err != nil {
		return nil, err
	}
	grade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch grade")
	}
	if grade.SchoolID != schoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
	}
	return grade, nil
}

// requireSchool extracts the tenant from the session claims. Super admins do
// not own a school so tenant-bound endpoints reject them here.
func requireSchool(claims *models.SessionClaims) (string, error) {
	if claims == nil || claims.SchoolID == nil || *claims.SchoolID == "" {
		return "", appErrors.Clone(appErrors.ErrForbidden, "account is not attached to a school")
	}
	return *claims.SchoolID, nil
}
