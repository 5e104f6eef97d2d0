package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clae-hq/admissions-api/internal/models"
	appErrors "github.com/clae-hq/admissions-api/pkg/errors"
)

type mockGradeRepo struct {
	grades     map[string]*models.Grade
	classCount int
	deleted    []string
}

func (m *mockGradeRepo) ListBySchool(ctx context.Context, schoolID string) ([]models.Grade, error) {
	grades := make([]models.Grade, 0, len(m.grades))
	for _, grade := range m.grades {
		if grade.SchoolID == schoolID {
			grades = append(grades, *grade)
		}
	}
	return grades, nil
}

func (m *mockGradeRepo) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	grade, ok := m.grades[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *grade
	return &clone, nil
}

func (m *mockGradeRepo) ExistsByLevel(ctx context.Context, schoolID, level string) (bool, error) {
	for _, grade := range m.grades {
		if grade.SchoolID == schoolID && grade.Level == level {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockGradeRepo) Create(ctx context.Context, grade *models.Grade) error {
	grade.ID = "grade-new"
	return nil
}

func (m *mockGradeRepo) Update(ctx context.Context, grade *models.Grade) error {
	m.grades[grade.ID] = grade
	return nil
}

func (m *mockGradeRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockGradeRepo) CountClasses(ctx context.Context, gradeID string) (int, error) {
	return m.classCount, nil
}

func seededGradeRepo() *mockGradeRepo {
	return &mockGradeRepo{grades: map[string]*models.Grade{
		"grade-1": {ID: "grade-1", SchoolID: "school-1", Level: "Grade 9"},
		"grade-2": {ID: "grade-2", SchoolID: "school-2", Level: "Grade 9"},
	}}
}

func TestGradeListScopedToSchool(t *testing.T) {
	svc := NewGradeService(seededGradeRepo(), validator.New(), zap.NewNop())

	grades, err := svc.List(context.Background(), scopedClaims("school-1"))
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, "grade-1", grades[0].ID)
}

func TestGradeListRequiresSchool(t *testing.T) {
	svc := NewGradeService(seededGradeRepo(), validator.New(), zap.NewNop())

	_, err := svc.List(context.Background(), rootClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestGradeCreate(t *testing.T) {
	svc := NewGradeService(seededGradeRepo(), validator.New(), zap.NewNop())

	grade, err := svc.Create(context.Background(), scopedClaims("school-1"), GradeRequest{Level: " Grade 10 "})
	require.NoError(t, err)
	assert.Equal(t, "grade-new", grade.ID)
	assert.Equal(t, "Grade 10", grade.Level)
	assert.Equal(t, "school-1", grade.SchoolID)
}

func TestGradeCreateDuplicateLevel(t *testing.T) {
	svc := NewGradeService(seededGradeRepo(), validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), scopedClaims("school-1"), GradeRequest{Level: "Grade 9"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestGradeUpdateOtherTenantHidden(t *testing.T) {
	svc := NewGradeService(seededGradeRepo(), validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), scopedClaims("school-1"), "grade-2", GradeRequest{Level: "Grade 11"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGradeDelete(t *testing.T) {
	repo := seededGradeRepo()
	svc := NewGradeService(repo, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), scopedClaims("school-1"), "grade-1"))
	assert.Equal(t, []string{"grade-1"}, repo.deleted)
}

func TestGradeDeleteBlockedByClasses(t *testing.T) {
	repo := seededGradeRepo()
	repo.classCount = 2
	svc := NewGradeService(repo, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), scopedClaims("school-1"), "grade-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}
