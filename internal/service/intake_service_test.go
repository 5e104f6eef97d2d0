package service

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clae-hq/admissions-api/internal/models"
	appErrors "github.com/clae-hq/admissions-api/pkg/errors"
)

type mockIntakeAppRepo struct {
	created   []*models.Application
	docs      [][]models.Document
	failsLeft int
	createErr error
}

func (m *mockIntakeAppRepo) CreateWithDocuments(ctx context.Context, app *models.Application, docs []models.Document) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.failsLeft > 0 {
		m.failsLeft--
		return &pq.Error{Code: "23505"}
	}
	app.ID = "app-1"
	m.created = append(m.created, app)
	m.docs = append(m.docs, docs)
	return nil
}

type mockIntakeSchoolRepo struct {
	school *models.School
}

func (m *mockIntakeSchoolRepo) FindBySlug(ctx context.Context, slug string) (*models.School, error) {
	if m.school == nil || m.school.Slug != slug {
		return nil, sql.ErrNoRows
	}
	return m.school, nil
}

type mockNotifier struct {
	calls []struct {
		applicationID string
		status        models.ApplicationStatus
		adminID       string
	}
}

func (m *mockNotifier) NotifyStatusChange(applicationID string, status models.ApplicationStatus, adminID string) {
	m.calls = append(m.calls, struct {
		applicationID string
		status        models.ApplicationStatus
		adminID       string
	}{applicationID, status, adminID})
}

func validSubmission() SubmitApplicationRequest {
	return SubmitApplicationRequest{
		StudentName:  "Ava Reyes",
		StudentGrade: "Grade 9",
		DateOfBirth:  "2011-04-02",
		Gender:       "female",
		Address:      "12 Elm Street",
		ParentName:   "Marco Reyes",
		ParentEmail:  "marco@example.com",
		ParentPhone:  "+15550100",
		Documents: []SubmitDocument{
			{Name: "birth-certificate.pdf", URL: "/uploads/bc.pdf", Type: "application/pdf"},
		},
	}
}

func testIntakeService(apps *mockIntakeAppRepo, schools *mockIntakeSchoolRepo, notifier *mockNotifier) *IntakeService {
	return NewIntakeService(apps, schools, notifier, validator.New(), zap.NewNop(), IntakeConfig{TrackingPrefix: "CLAE", CodeRetries: 3})
}

var trackingCodePattern = regexp.MustCompile(`^CLAE-\d{4}-[A-Z0-9]{5}$`)

func TestIntakeSubmitSuccess(t *testing.T) {
	apps := &mockIntakeAppRepo{}
	notifier := &mockNotifier{}
	svc := testIntakeService(apps, &mockIntakeSchoolRepo{}, notifier)

	app, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	assert.Regexp(t, trackingCodePattern, app.TrackingCode)
	assert.Equal(t, models.StatusWaiting, app.Status)
	assert.Nil(t, app.SchoolID)
	require.Len(t, apps.docs, 1)
	assert.Len(t, apps.docs[0], 1)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "app-1", notifier.calls[0].applicationID)
	assert.Equal(t, models.StatusWaiting, notifier.calls[0].status)
	assert.Empty(t, notifier.calls[0].adminID)
}

func TestIntakeSubmitResolvesSchoolSlug(t *testing.T) {
	apps := &mockIntakeAppRepo{}
	schools := &mockIntakeSchoolRepo{school: &models.School{ID: "school-1", Slug: "riverside"}}
	svc := testIntakeService(apps, schools, &mockNotifier{})

	req := validSubmission()
	req.SchoolSlug = "riverside"

	app, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, app.SchoolID)
	assert.Equal(t, "school-1", *app.SchoolID)
}

func TestIntakeSubmitNormalizesSchoolSlug(t *testing.T) {
	apps := &mockIntakeAppRepo{}
	schools := &mockIntakeSchoolRepo{school: &models.School{ID: "school-1", Slug: "riverside"}}
	svc := testIntakeService(apps, schools, &mockNotifier{})

	req := validSubmission()
	req.SchoolSlug = " Riverside "

	app, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, app.SchoolID)
	assert.Equal(t, "school-1", *app.SchoolID)
}

func TestIntakeSubmitUnknownSlug(t *testing.T) {
	apps := &mockIntakeAppRepo{}
	svc := testIntakeService(apps, &mockIntakeSchoolRepo{}, &mockNotifier{})

	req := validSubmission()
	req.SchoolSlug = "nowhere"

	_, err := svc.Submit(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, apps.created)
}

func TestIntakeSubmitRetriesOnCodeCollision(t *testing.T) {
	apps := &mockIntakeAppRepo{failsLeft: 2}
	svc := testIntakeService(apps, &mockIntakeSchoolRepo{}, &mockNotifier{})

	app, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	assert.Regexp(t, trackingCodePattern, app.TrackingCode)
	assert.Len(t, apps.created, 1)
}

func TestIntakeSubmitExhaustsCodeRetries(t *testing.T) {
	apps := &mockIntakeAppRepo{failsLeft: 3}
	svc := testIntakeService(apps, &mockIntakeSchoolRepo{}, &mockNotifier{})

	_, err := svc.Submit(context.Background(), validSubmission())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Empty(t, apps.created)
}

func TestIntakeSubmitRejectsBadDateOfBirth(t *testing.T) {
	svc := testIntakeService(&mockIntakeAppRepo{}, &mockIntakeSchoolRepo{}, &mockNotifier{})

	req := validSubmission()
	req.DateOfBirth = "02/04/2011"

	_, err := svc.Submit(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestIntakeSubmitRejectsTooShortFields(t *testing.T) {
	apps := &mockIntakeAppRepo{}
	svc := testIntakeService(apps, &mockIntakeSchoolRepo{}, &mockNotifier{})

	cases := map[string]func(*SubmitApplicationRequest){
		"student name": func(r *SubmitApplicationRequest) { r.StudentName = "A" },
		"parent name":  func(r *SubmitApplicationRequest) { r.ParentName = "M" },
		"address":      func(r *SubmitApplicationRequest) { r.Address = "x" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validSubmission()
			mutate(&req)

			_, err := svc.Submit(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
			assert.Empty(t, apps.created)
		})
	}
}

func TestIntakeSubmitRejectsMissingFields(t *testing.T) {
	svc := testIntakeService(&mockIntakeAppRepo{}, &mockIntakeSchoolRepo{}, &mockNotifier{})

	_, err := svc.Submit(context.Background(), SubmitApplicationRequest{StudentName: "Ava"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
