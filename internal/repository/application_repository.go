package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/clae-hq/admissions-api/internal/models"
)

// ApplicationRepository manages persistence for admissions applications and
// their attached documents and audit trail.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs a new application repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `id, school_id, class_id, student_name, middle_name, preferred_name, student_grade,
	date_of_birth, gender, address, student_photo, previous_school, medical_info,
	parent_name, parent_email, parent_phone, family_phone, location_link,
	emergency_contact1_name, emergency_contact1_phone, emergency_contact1_relation,
	emergency_contact2_name, emergency_contact2_phone, emergency_contact2_relation,
	allergies, medical_conditions, dietary_restrictions, special_accommodations,
	siblings_at_school, transportation_method, preferred_language, academic_records,
	priority_flags, status, internal_notes, tracking_code, notes, created_at, updated_at`

const applicationInsert = `INSERT INTO applications (` + applicationColumns + `) VALUES (
	:id, :school_id, :class_id, :student_name, :middle_name, :preferred_name, :student_grade,
	:date_of_birth, :gender, :address, :student_photo, :previous_school, :medical_info,
	:parent_name, :parent_email, :parent_phone, :family_phone, :location_link,
	:emergency_contact1_name, :emergency_contact1_phone, :emergency_contact1_relation,
	:emergency_contact2_name, :emergency_contact2_phone, :emergency_contact2_relation,
	:allergies, :medical_conditions, :dietary_restrictions, :special_accommodations,
	:siblings_at_school, :transportation_method, :preferred_language, :academic_records,
	:priority_flags, :status, :internal_notes, :tracking_code, :notes, :created_at, :updated_at)`

// CreateWithDocuments inserts the application and its documents in one
// transaction so a failed document write leaves no partial record.
func (r *ApplicationRepository) CreateWithDocuments(ctx context.Context, app *models.Application, docs []models.Document) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	if app.PriorityFlags == nil {
		app.PriorityFlags = pq.StringArray{}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create application: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.NamedExecContext(ctx, applicationInsert, app); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create application: %w", err)
	}

	const docInsert = `INSERT INTO documents (id, application_id, name, url, type, created_at)
		VALUES (:id, :application_id, :name, :url, :type, :created_at)`
	for i := range docs {
		docs[i].ApplicationID = app.ID
		if docs[i].ID == "" {
			docs[i].ID = uuid.NewString()
		}
		if docs[i].CreatedAt.IsZero() {
			docs[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, docInsert, docs[i]); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create application: %w", err)
	}
	return nil
}

// FindByID returns an application record by ID.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE id = $1`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// FindByTrackingCode returns the application holding the given tracking code.
func (r *ApplicationRepository) FindByTrackingCode(ctx context.Context, code string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE tracking_code = $1`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, code); err != nil {
		return nil, err
	}
	return &app, nil
}

// FindLatestByParentPhone returns the most recently created application for a
// guardian phone number.
func (r *ApplicationRepository) FindLatestByParentPhone(ctx context.Context, phone string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE parent_phone = $1 ORDER BY created_at DESC LIMIT 1`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, phone); err != nil {
		return nil, err
	}
	return &app, nil
}

// List returns applications matching the filter, newest first. An empty
// SchoolID leaves the query unscoped (super admin view).
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE 1=1`, applicationColumns)
	var args []interface{}
	if filter.SchoolID != "" {
		args = append(args, filter.SchoolID)
		query += fmt.Sprintf(" AND school_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (student_name ILIKE $%d OR tracking_code ILIKE $%d)", len(args), len(args))
	}
	query += " ORDER BY created_at DESC"

	var apps []models.Application
	if err := r.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// UpdateStatusWithAudit updates status and internal notes and appends the
// audit entries in a single transaction.
func (r *ApplicationRepository) UpdateStatusWithAudit(ctx context.Context, id string, status models.ApplicationStatus, notes string, entries []models.AuditLog) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin status update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const update = `UPDATE applications SET status = $2, internal_notes = $3, updated_at = $4 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, id, status, notes, time.Now().UTC()); err != nil {
		return fmt.Errorf("update application status: %w", err)
	}

	for i := range entries {
		if err := insertAuditLog(ctx, tx, &entries[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit status update: %w", err)
	}
	return nil
}

// CreateAuditLog appends a standalone audit entry.
func (r *ApplicationRepository) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return insertAuditLog(ctx, r.db, entry)
}

func insertAuditLog(ctx context.Context, ext sqlx.ExtContext, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, application_id, admin_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := ext.ExecContext(ctx, query, entry.ID, entry.ApplicationID, entry.AdminID, entry.Action, entry.Details, entry.CreatedAt); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// ListLogs returns the audit trail for one application, newest first, with
// acting admin names joined in.
func (r *ApplicationRepository) ListLogs(ctx context.Context, applicationID string) ([]models.AuditLog, error) {
	const query = `SELECT l.id, l.application_id, l.admin_id, l.action, l.details, l.created_at, m.name AS admin_name
		FROM audit_logs l
		LEFT JOIN admins m ON m.id = l.admin_id
		WHERE l.application_id = $1
		ORDER BY l.created_at DESC`
	var logs []models.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, applicationID); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}

// ListDocuments returns documents attached to one application.
func (r *ApplicationRepository) ListDocuments(ctx context.Context, applicationID string) ([]models.Document, error) {
	const query = `SELECT id, application_id, name, url, type, created_at FROM documents WHERE application_id = $1 ORDER BY created_at ASC`
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, applicationID); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func activeStatusList() pq.StringArray {
	statuses := make(pq.StringArray, 0, len(models.ActiveStatuses))
	for _, s := range models.ActiveStatuses {
		statuses = append(statuses, string(s))
	}
	return statuses
}

// CountActiveBefore counts applications created strictly before the given
// time that are still in an active queue status.
func (r *ApplicationRepository) CountActiveBefore(ctx context.Context, before time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM applications WHERE created_at < $1 AND status = ANY($2)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, before, activeStatusList()); err != nil {
		return 0, fmt.Errorf("count active before: %w", err)
	}
	return count, nil
}

// CountActive counts all applications in an active queue status.
func (r *ApplicationRepository) CountActive(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM applications WHERE status = ANY($1)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, activeStatusList()); err != nil {
		return 0, fmt.Errorf("count active: %w", err)
	}
	return count, nil
}
