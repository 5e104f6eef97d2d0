package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clae-hq/admissions-api/internal/models"
	"github.com/clae-hq/admissions-api/pkg/jobs"
	"github.com/clae-hq/admissions-api/pkg/mailer"
)

type notificationApplicationRepository interface {
	FindByID(ctx context.Context, id string) (*models.Application, error)
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
}

// statusNotification is the queued payload for one outbound parent message.
type statusNotification struct {
	ApplicationID string
	Status        models.ApplicationStatus
	AdminID       string
}

// NotificationService delivers parent notifications out of band. Status
// transitions enqueue a job after their transaction commits; delivery failures
// are retried by the queue and never surface to the staff request.
type NotificationService struct {
	repo    notificationApplicationRepository
	mail    mailer.Mailer
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
	enabled bool
}

// NewNotificationService wires the delivery worker pool.
func NewNotificationService(repo notificationApplicationRepository, mail mailer.Mailer, metrics *MetricsService, logger *zap.Logger, cfg jobs.QueueConfig, enabled bool) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{repo: repo, mail: mail, metrics: metrics, logger: logger, enabled: enabled}
	cfg.Logger = logger
	s.queue = jobs.NewQueue("notifications", s.deliver, cfg)
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Templates lists the notification catalogue for staff screens.
func (s *NotificationService) Templates() []NotificationTemplate {
	return Templates()
}

// NotifyStatusChange enqueues delivery of the template bound to the new
// status. AdminID is empty for system-generated sends such as the intake
// acknowledgement.
func (s *NotificationService) NotifyStatusChange(applicationID string, status models.ApplicationStatus, adminID string) {
	if !s.enabled {
		return
	}
	job := jobs.Job{
		ID: uuid.New().String(),
		Payload: statusNotification{
			ApplicationID: applicationID,
			Status:        status,
			AdminID:       adminID,
		},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue notification",
			zap.String("application_id", applicationID),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(statusNotification)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}

	tmpl, ok := TemplateForStatus(payload.Status)
	if !ok {
		s.logger.Warn("no template for status", zap.String("status", string(payload.Status)))
		return nil
	}

	app, err := s.repo.FindByID(ctx, payload.ApplicationID)
	if err != nil {
		return fmt.Errorf("load application %s: %w", payload.ApplicationID, err)
	}

	subject, body := RenderTemplate(tmpl, app)
	msg := mailer.Message{
		ToName:    app.ParentName,
		ToAddress: app.ParentEmail,
		Subject:   subject,
		Body:      body,
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.metrics.RecordNotification("failed")
		return fmt.Errorf("send notification for %s: %w", payload.ApplicationID, err)
	}
	s.metrics.RecordNotification("delivered")

	if payload.AdminID != "" {
		entry := &models.AuditLog{
			ApplicationID: app.ID,
			AdminID:       payload.AdminID,
			Action:        models.AuditActionCommunicationSent,
			Details:       fmt.Sprintf("Sent %q to %s", tmpl.Name, app.ParentEmail),
		}
		if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("failed to record communication audit",
				zap.String("application_id", app.ID),
				zap.Error(err))
		}
	}

	s.logger.Info("notification delivered",
		zap.String("application_id", app.ID),
		zap.String("template", tmpl.ID),
		zap.String("to", app.ParentEmail))
	return nil
}
