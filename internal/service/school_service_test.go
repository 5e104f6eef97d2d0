package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clae-hq/admissions-api/internal/models"
	appErrors "github.com/clae-hq/admissions-api/pkg/errors"
)

type mockSchoolRepo struct {
	schools   map[string]*models.School
	profile   *models.SchoolProfile
	createErr error
	updated   *models.School
}

func (m *mockSchoolRepo) List(ctx context.Context) ([]models.SchoolSummary, error) {
	summaries := make([]models.SchoolSummary, 0, len(m.schools))
	for _, school := range m.schools {
		summaries = append(summaries, models.SchoolSummary{ID: school.ID, Slug: school.Slug, Name: school.Name})
	}
	return summaries, nil
}

func (m *mockSchoolRepo) ListAll(ctx context.Context) ([]models.School, error) {
	schools := make([]models.School, 0, len(m.schools))
	for _, school := range m.schools {
		schools = append(schools, *school)
	}
	return schools, nil
}

func (m *mockSchoolRepo) FindByID(ctx context.Context, id string) (*models.School, error) {
	for _, school := range m.schools {
		if school.ID == id {
			clone := *school
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockSchoolRepo) FindBySlug(ctx context.Context, slug string) (*models.School, error) {
	school, ok := m.schools[slug]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *school
	return &clone, nil
}

func (m *mockSchoolRepo) Profile(ctx context.Context, id string) (*models.SchoolProfile, error) {
	if m.profile == nil || m.profile.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.profile, nil
}

func (m *mockSchoolRepo) Create(ctx context.Context, school *models.School) error {
	if m.createErr != nil {
		return m.createErr
	}
	school.ID = "school-new"
	return nil
}

func (m *mockSchoolRepo) Update(ctx context.Context, school *models.School) error {
	m.updated = school
	return nil
}

type mockSchoolGradeRepo struct {
	grades []models.Grade
}

func (m *mockSchoolGradeRepo) ListBySchool(ctx context.Context, schoolID string) ([]models.Grade, error) {
	return m.grades, nil
}

func riversideRepo() *mockSchoolRepo {
	return &mockSchoolRepo{schools: map[string]*models.School{
		"riverside": {ID: "school-1", Slug: "riverside", Name: "Riverside High School"},
	}}
}

func TestPublicBySlug(t *testing.T) {
	grades := &mockSchoolGradeRepo{grades: []models.Grade{{ID: "grade-1", Level: "Grade 9"}}}
	svc := NewSchoolService(riversideRepo(), grades, validator.New(), zap.NewNop())

	school, err := svc.PublicBySlug(context.Background(), "  Riverside ")
	require.NoError(t, err)
	assert.Equal(t, "school-1", school.ID)
	require.Len(t, school.Grades, 1)
	assert.Equal(t, "Grade 9", school.Grades[0].Level)
}

func TestPublicBySlugUnknown(t *testing.T) {
	svc := NewSchoolService(riversideRepo(), &mockSchoolGradeRepo{}, validator.New(), zap.NewNop())

	_, err := svc.PublicBySlug(context.Background(), "northside")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateSchool(t *testing.T) {
	repo := riversideRepo()
	svc := NewSchoolService(repo, &mockSchoolGradeRepo{}, validator.New(), zap.NewNop())

	school, err := svc.Create(context.Background(), CreateSchoolRequest{Name: " Northside Academy ", Slug: "Northside-Academy"})
	require.NoError(t, err)
	assert.Equal(t, "school-new", school.ID)
	assert.Equal(t, "Northside Academy", school.Name)
	assert.Equal(t, "northside-academy", school.Slug)
}

func TestCreateSchoolRejectsBadSlug(t *testing.T) {
	svc := NewSchoolService(riversideRepo(), &mockSchoolGradeRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateSchoolRequest{Name: "Northside", Slug: "north side!"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateSchoolDuplicateSlug(t *testing.T) {
	repo := riversideRepo()
	repo.createErr = &pq.Error{Code: "23505"}
	svc := NewSchoolService(repo, &mockSchoolGradeRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateSchoolRequest{Name: "Riverside", Slug: "riverside"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestMySchoolProfile(t *testing.T) {
	repo := riversideRepo()
	repo.profile = &models.SchoolProfile{School: models.School{ID: "school-1", Name: "Riverside High School"}, AdminCount: 3}
	svc := NewSchoolService(repo, &mockSchoolGradeRepo{}, validator.New(), zap.NewNop())

	profile, err := svc.MySchool(context.Background(), scopedClaims("school-1"))
	require.NoError(t, err)
	assert.Equal(t, 3, profile.AdminCount)
}

func TestMySchoolWithoutTenant(t *testing.T) {
	svc := NewSchoolService(riversideRepo(), &mockSchoolGradeRepo{}, validator.New(), zap.NewNop())

	_, err := svc.MySchool(context.Background(), rootClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateMySchoolPartial(t *testing.T) {
	repo := riversideRepo()
	svc := NewSchoolService(repo, &mockSchoolGradeRepo{}, validator.New(), zap.NewNop())

	phone := "+15550123"
	school, err := svc.UpdateMySchool(context.Background(), scopedClaims("school-1"), UpdateSchoolRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Riverside High School", school.Name)
	assert.Equal(t, "+15550123", school.Phone)
	require.NotNil(t, repo.updated)
	assert.Equal(t, "+15550123", repo.updated.Phone)
}
