package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/clae-hq/admissions-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestApplicationRepositoryCreateWithDocuments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO applications").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO documents").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	app := &models.Application{StudentName: "Ava Reyes", Status: models.StatusWaiting, TrackingCode: "CLAE-2026-AB12C"}
	docs := []models.Document{{Name: "birth-certificate.pdf", URL: "/uploads/bc.pdf"}}
	require.NoError(t, repo.CreateWithDocuments(context.Background(), app, docs))
	require.NotEmpty(t, app.ID)
	require.Equal(t, app.ID, docs[0].ApplicationID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryUpdateStatusWithAudit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications SET status = $2, internal_notes = $3, updated_at = $4 WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entries := []models.AuditLog{
		{ApplicationID: "app-1", AdminID: "admin-1", Action: models.StatusUpdateAction(models.StatusApproved)},
		{ApplicationID: "app-1", AdminID: "admin-1", Action: models.AuditActionNoteUpdate},
	}
	err := repo.UpdateStatusWithAudit(context.Background(), "app-1", models.StatusApproved, "looks good", entries)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryUpdateStatusRollsBackOnAuditFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE applications SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	entries := []models.AuditLog{{ApplicationID: "app-1", AdminID: "admin-1", Action: models.AuditActionNoteUpdate}}
	err := repo.UpdateStatusWithAudit(context.Background(), "app-1", models.StatusApproved, "", entries)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryCountActiveBefore(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM applications WHERE created_at < $1 AND status = ANY($2)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountActiveBefore(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, 4, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryListDocuments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "application_id", "name", "url", "type", "created_at"}).
		AddRow("doc-1", "app-1", "birth-certificate.pdf", "/uploads/bc.pdf", "pdf", time.Now())
	mock.ExpectQuery("SELECT id, application_id, name, url, type, created_at FROM documents").
		WithArgs("app-1").
		WillReturnRows(rows)

	docs, err := repo.ListDocuments(context.Background(), "app-1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "birth-certificate.pdf", docs[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
