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

type mockClassRepo struct {
	classes    map[string]*models.Class
	lastFilter models.ClassFilter
	deleted    []string
	updated    *models.Class
}

func (m *mockClassRepo) ListBySchool(ctx context.Context, schoolID string) ([]models.ClassWithCount, error) {
	classes := make([]models.ClassWithCount, 0, len(m.classes))
	for _, class := range m.classes {
		if class.SchoolID == schoolID {
			classes = append(classes, models.ClassWithCount{Class: *class})
		}
	}
	return classes, nil
}

func (m *mockClassRepo) ListPublic(ctx context.Context, filter models.ClassFilter) ([]models.ClassWithCount, error) {
	m.lastFilter = filter
	return nil, nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	class, ok := m.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *class
	return &clone, nil
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	class.ID = "class-new"
	return nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.Class) error {
	m.updated = class
	return nil
}

func (m *mockClassRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockClassGradeRepo struct {
	grades map[string]*models.Grade
}

func (m *mockClassGradeRepo) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	grade, ok := m.grades[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return grade, nil
}

func classFixtures() (*mockClassRepo, *mockClassGradeRepo) {
	classes := &mockClassRepo{classes: map[string]*models.Class{
		"class-1": {ID: "class-1", SchoolID: "school-1", GradeID: "grade-1", Name: "9A", GradeLevel: "Grade 9"},
	}}
	grades := &mockClassGradeRepo{grades: map[string]*models.Grade{
		"grade-1": {ID: "grade-1", SchoolID: "school-1", Level: "Grade 9"},
		"grade-2": {ID: "grade-2", SchoolID: "school-1", Level: "Grade 10"},
		"grade-9": {ID: "grade-9", SchoolID: "school-2", Level: "Grade 9"},
	}}
	return classes, grades
}

func TestClassCreate(t *testing.T) {
	classes, grades := classFixtures()
	svc := NewClassService(classes, grades, riversideRepo(), validator.New(), zap.NewNop())

	class, err := svc.Create(context.Background(), scopedClaims("school-1"), ClassRequest{GradeID: "grade-2", Name: " 10B "})
	require.NoError(t, err)
	assert.Equal(t, "class-new", class.ID)
	assert.Equal(t, "10B", class.Name)
	assert.Equal(t, "Grade 10", class.GradeLevel)
}

func TestClassCreateForeignGrade(t *testing.T) {
	classes, grades := classFixtures()
	svc := NewClassService(classes, grades, riversideRepo(), validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), scopedClaims("school-1"), ClassRequest{GradeID: "grade-9", Name: "9A"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassUpdateReassignsGrade(t *testing.T) {
	classes, grades := classFixtures()
	svc := NewClassService(classes, grades, riversideRepo(), validator.New(), zap.NewNop())

	class, err := svc.Update(context.Background(), scopedClaims("school-1"), "class-1", ClassRequest{GradeID: "grade-2", Name: "10A"})
	require.NoError(t, err)
	assert.Equal(t, "grade-2", class.GradeID)
	assert.Equal(t, "Grade 10", class.GradeLevel)
	require.NotNil(t, classes.updated)
	assert.Equal(t, "10A", classes.updated.Name)
}

func TestClassListPublic(t *testing.T) {
	classes, grades := classFixtures()
	svc := NewClassService(classes, grades, riversideRepo(), validator.New(), zap.NewNop())

	_, err := svc.ListPublic(context.Background(), "Riverside", "Grade 9")
	require.NoError(t, err)
	assert.Equal(t, "school-1", classes.lastFilter.SchoolID)
	assert.Equal(t, "Grade 9", classes.lastFilter.GradeLevel)
}

func TestClassListPublicUnknownSchool(t *testing.T) {
	classes, grades := classFixtures()
	svc := NewClassService(classes, grades, riversideRepo(), validator.New(), zap.NewNop())

	_, err := svc.ListPublic(context.Background(), "northside", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassDeleteOtherTenantHidden(t *testing.T) {
	classes, grades := classFixtures()
	svc := NewClassService(classes, grades, riversideRepo(), validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), scopedClaims("school-2"), "class-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, classes.deleted)
}
