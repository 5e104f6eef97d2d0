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

type mockApplicationRepo struct {
	apps       map[string]*models.Application
	lastFilter models.ApplicationFilter
	listResult []models.Application
	docs       []models.Document
	logs       []models.AuditLog

	updatedStatus models.ApplicationStatus
	updatedNotes  string
	auditEntries  []models.AuditLog
	updateErr     error
}

func (m *mockApplicationRepo) FindByID(ctx context.Context, id string) (*models.Application, error) {
	app, ok := m.apps[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *app
	return &copied, nil
}

func (m *mockApplicationRepo) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	m.lastFilter = filter
	return m.listResult, nil
}

func (m *mockApplicationRepo) UpdateStatusWithAudit(ctx context.Context, id string, status models.ApplicationStatus, notes string, entries []models.AuditLog) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updatedStatus = status
	m.updatedNotes = notes
	m.auditEntries = entries
	return nil
}

func (m *mockApplicationRepo) ListLogs(ctx context.Context, applicationID string) ([]models.AuditLog, error) {
	return m.logs, nil
}

func (m *mockApplicationRepo) ListDocuments(ctx context.Context, applicationID string) ([]models.Document, error) {
	return m.docs, nil
}

func scopedClaims(schoolID string) *models.SessionClaims {
	return &models.SessionClaims{AdminID: "admin-1", Role: models.RoleRegistrar, SchoolID: &schoolID}
}

func rootClaims() *models.SessionClaims {
	return &models.SessionClaims{AdminID: "root-1", Role: models.RoleSuperAdmin}
}

func waitingApplication(schoolID string) *models.Application {
	return &models.Application{
		ID:            "app-1",
		SchoolID:      &schoolID,
		StudentName:   "Ava Reyes",
		ParentName:    "Marco Reyes",
		ParentEmail:   "marco@example.com",
		Status:        models.StatusWaiting,
		TrackingCode:  "CLAE-2026-AB12C",
		InternalNotes: "",
	}
}

func TestApplicationListPinsTenantFilter(t *testing.T) {
	repo := &mockApplicationRepo{}
	svc := NewApplicationService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.List(context.Background(), scopedClaims("school-1"), models.ApplicationFilter{SchoolID: "school-2"})
	require.NoError(t, err)
	assert.Equal(t, "school-1", repo.lastFilter.SchoolID)
}

func TestApplicationListSuperAdminKeepsFilter(t *testing.T) {
	repo := &mockApplicationRepo{}
	svc := NewApplicationService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.List(context.Background(), rootClaims(), models.ApplicationFilter{SchoolID: "school-2"})
	require.NoError(t, err)
	assert.Equal(t, "school-2", repo.lastFilter.SchoolID)
}

func TestApplicationListRejectsUnknownStatus(t *testing.T) {
	svc := NewApplicationService(&mockApplicationRepo{}, nil, validator.New(), zap.NewNop())

	_, err := svc.List(context.Background(), rootClaims(), models.ApplicationFilter{Status: "archived"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestApplicationGetAttachesDocumentsAndLogs(t *testing.T) {
	repo := &mockApplicationRepo{
		apps: map[string]*models.Application{"app-1": waitingApplication("school-1")},
		docs: []models.Document{{ID: "doc-1"}},
		logs: []models.AuditLog{{ID: "log-1", Action: "STATUS_UPDATE_APPROVED"}},
	}
	svc := NewApplicationService(repo, nil, validator.New(), zap.NewNop())

	app, err := svc.Get(context.Background(), scopedClaims("school-1"), "app-1")
	require.NoError(t, err)
	assert.Len(t, app.Documents, 1)
	assert.Len(t, app.Logs, 1)
}

func TestApplicationGetHidesOtherTenants(t *testing.T) {
	repo := &mockApplicationRepo{
		apps: map[string]*models.Application{"app-1": waitingApplication("school-2")},
	}
	svc := NewApplicationService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.Get(context.Background(), scopedClaims("school-1"), "app-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestApplicationActStatusChange(t *testing.T) {
	repo := &mockApplicationRepo{
		apps: map[string]*models.Application{"app-1": waitingApplication("school-1")},
	}
	notifier := &mockNotifier{}
	svc := NewApplicationService(repo, notifier, validator.New(), zap.NewNop())

	app, err := svc.Act(context.Background(), scopedClaims("school-1"), "app-1", ApplicationActionRequest{
		Status: "approved",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, app.Status)
	assert.Equal(t, models.StatusApproved, repo.updatedStatus)

	require.Len(t, repo.auditEntries, 1)
	assert.Equal(t, "STATUS_UPDATE_APPROVED", repo.auditEntries[0].Action)
	assert.Equal(t, "admin-1", repo.auditEntries[0].AdminID)
	assert.Equal(t, "Changed status to approved", repo.auditEntries[0].Details)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, models.StatusApproved, notifier.calls[0].status)
	assert.Equal(t, "admin-1", notifier.calls[0].adminID)
}

func TestApplicationActNoteOnly(t *testing.T) {
	repo := &mockApplicationRepo{
		apps: map[string]*models.Application{"app-1": waitingApplication("school-1")},
	}
	notifier := &mockNotifier{}
	svc := NewApplicationService(repo, notifier, validator.New(), zap.NewNop())

	notes := "Sibling already enrolled"
	app, err := svc.Act(context.Background(), scopedClaims("school-1"), "app-1", ApplicationActionRequest{
		InternalNotes: &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, app.Status)
	assert.Equal(t, notes, repo.updatedNotes)

	require.Len(t, repo.auditEntries, 1)
	assert.Equal(t, models.AuditActionNoteUpdate, repo.auditEntries[0].Action)
	assert.Equal(t, notes, repo.auditEntries[0].Details)
	assert.Empty(t, notifier.calls)
}

func TestApplicationActStatusAndNotes(t *testing.T) {
	repo := &mockApplicationRepo{
		apps: map[string]*models.Application{"app-1": waitingApplication("school-1")},
	}
	svc := NewApplicationService(repo, &mockNotifier{}, validator.New(), zap.NewNop())

	notes := "Waiting on records"
	_, err := svc.Act(context.Background(), scopedClaims("school-1"), "app-1", ApplicationActionRequest{
		Status:        "on_hold",
		InternalNotes: &notes,
	})
	require.NoError(t, err)
	require.Len(t, repo.auditEntries, 1)
	assert.Equal(t, "STATUS_UPDATE_ON_HOLD", repo.auditEntries[0].Action)
	assert.Equal(t, notes, repo.auditEntries[0].Details)
}

func TestApplicationActSameStatusStillAudits(t *testing.T) {
	repo := &mockApplicationRepo{
		apps: map[string]*models.Application{"app-1": waitingApplication("school-1")},
	}
	notifier := &mockNotifier{}
	svc := NewApplicationService(repo, notifier, validator.New(), zap.NewNop())

	app, err := svc.Act(context.Background(), scopedClaims("school-1"), "app-1", ApplicationActionRequest{Status: "waiting"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, app.Status)

	require.Len(t, repo.auditEntries, 1)
	assert.Equal(t, "STATUS_UPDATE_WAITING", repo.auditEntries[0].Action)
	assert.Empty(t, notifier.calls)
}

func TestApplicationActRejectsUnknownStatus(t *testing.T) {
	repo := &mockApplicationRepo{
		apps: map[string]*models.Application{"app-1": waitingApplication("school-1")},
	}
	svc := NewApplicationService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.Act(context.Background(), scopedClaims("school-1"), "app-1", ApplicationActionRequest{Status: "deleted"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestApplicationActRejectsEmptyRequest(t *testing.T) {
	repo := &mockApplicationRepo{
		apps: map[string]*models.Application{"app-1": waitingApplication("school-1")},
	}
	svc := NewApplicationService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.Act(context.Background(), scopedClaims("school-1"), "app-1", ApplicationActionRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
