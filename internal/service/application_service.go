package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/clae-hq/admissions-api/internal/models"
	appErrors "github.com/clae-hq/admissions-api/pkg/errors"
)

type applicationRepository interface {
	FindByID(ctx context.Context, id string) (*models.Application, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error)
	UpdateStatusWithAudit(ctx context.Context, id string, status models.ApplicationStatus, notes string, entries []models.AuditLog) error
	ListLogs(ctx context.Context, applicationID string) ([]models.AuditLog, error)
	ListDocuments(ctx context.Context, applicationID string) ([]models.Document, error)
}

// ApplicationActionRequest mutates one application from the staff dashboard.
// Status and InternalNotes are independently optional; at least one must be
// present.
type ApplicationActionRequest struct {
	Status        string  `json:"status"`
	InternalNotes *string `json:"internal_notes"`
}

// ApplicationService serves the staff dashboard views and the status
// transition workflow.
type ApplicationService struct {
	repo      applicationRepository
	notifier  statusNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewApplicationService constructs an ApplicationService instance.
func NewApplicationService(repo applicationRepository, notifier statusNotifier, validate *validator.Validate, logger *zap.Logger) *ApplicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{repo: repo, notifier: notifier, validator: validate, logger: logger}
}

// List returns applications visible to the caller. Non super admins are
// always pinned to their own school regardless of the requested filter.
func (s *ApplicationService) List(ctx context.Context, claims *models.SessionClaims, filter models.ApplicationFilter) ([]models.Application, error) {
	if claims.Scoped() {
		if claims.SchoolID == nil {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "account is not attached to a school")
		}
		filter.SchoolID = *claims.SchoolID
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status filter")
	}

	apps, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return apps, nil
}

// Get returns one application with its documents and audit trail.
func (s *ApplicationService) Get(ctx context.Context, claims *models.SessionClaims, id string) (*models.Application, error) {
	app, err := s.fetchScoped(ctx, claims, id)
	if err != nil {
		return nil, err
	}

	docs, err := s.repo.ListDocuments(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	logs, err := s.repo.ListLogs(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	app.Documents = docs
	app.Logs = logs
	return app, nil
}

// Act applies a status transition and/or internal note update, records a
// single audit entry atomically with the mutation, and queues the parent
// notification once the transaction has committed. Every accepted action
// leaves an audit row even when it changes nothing.
func (s *ApplicationService) Act(ctx context.Context, claims *models.SessionClaims, id string, req ApplicationActionRequest) (*models.Application, error) {
	app, err := s.fetchScoped(ctx, claims, id)
	if err != nil {
		return nil, err
	}

	if req.Status == "" && req.InternalNotes == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status or internal_notes is required")
	}

	newStatus := app.Status
	if req.Status != "" {
		newStatus = models.ApplicationStatus(req.Status)
		if !newStatus.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown application status")
		}
	}
	newNotes := app.InternalNotes
	if req.InternalNotes != nil {
		newNotes = *req.InternalNotes
	}
	statusChanged := req.Status != "" && newStatus != app.Status

	action := models.AuditActionNoteUpdate
	if req.Status != "" {
		action = models.StatusUpdateAction(newStatus)
	}
	details := fmt.Sprintf("Changed status to %s", newStatus)
	if req.InternalNotes != nil && *req.InternalNotes != "" {
		details = *req.InternalNotes
	}
	entries := []models.AuditLog{{
		ApplicationID: app.ID,
		AdminID:       claims.AdminID,
		Action:        action,
		Details:       details,
	}}

	if err := s.repo.UpdateStatusWithAudit(ctx, app.ID, newStatus, newNotes, entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application")
	}

	app.Status = newStatus
	app.InternalNotes = newNotes

	if statusChanged && s.notifier != nil {
		s.notifier.NotifyStatusChange(app.ID, newStatus, claims.AdminID)
	}

	s.logger.Info("application updated",
		zap.String("application_id", app.ID),
		zap.String("status", string(newStatus)),
		zap.Bool("notified", statusChanged))
	return app, nil
}

func (s *ApplicationService) fetchScoped(ctx context.Context, claims *models.SessionClaims, id string) (*models.Application, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch application")
	}
	if claims.Scoped() {
		if claims.SchoolID == nil || app.SchoolID == nil || *app.SchoolID != *claims.SchoolID {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
	}
	return app, nil
}
