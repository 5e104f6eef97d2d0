package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clae-hq/admissions-api/internal/models"
)

// InvitationRepository manages persistence for staff invitation codes.
type InvitationRepository struct {
	db *sqlx.DB
}

// NewInvitationRepository constructs a new invitation repository.
func NewInvitationRepository(db *sqlx.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// Create persists an invitation record.
func (r *InvitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	if invitation.ID == "" {
		invitation.ID = uuid.NewString()
	}
	if invitation.CreatedAt.IsZero() {
		invitation.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO invitations (id, school_id, role, code, used, expires_at, created_at)
		VALUES (:id, :school_id, :role, :code, :used, :expires_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, invitation); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

// ListActive returns unused, unexpired invitations, newest first, with school
// names joined in.
func (r *InvitationRepository) ListActive(ctx context.Context) ([]models.Invitation, error) {
	const query = `SELECT i.id, i.school_id, i.role, i.code, i.used, i.expires_at, i.created_at, s.name AS school_name
		FROM invitations i
		JOIN schools s ON s.id = i.school_id
		WHERE i.used = false AND i.expires_at > $1
		ORDER BY i.created_at DESC`
	var invitations []models.Invitation
	if err := r.db.SelectContext(ctx, &invitations, query, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	return invitations, nil
}

// FindByCode returns an invitation record by its unique code.
func (r *InvitationRepository) FindByCode(ctx context.Context, code string) (*models.Invitation, error) {
	const query = `SELECT id, school_id, role, code, used, expires_at, created_at FROM invitations WHERE code = $1`
	var invitation models.Invitation
	if err := r.db.GetContext(ctx, &invitation, query, code); err != nil {
		return nil, err
	}
	return &invitation, nil
}

// Redeem marks the invitation used and creates the new admin in one
// transaction; both succeed or neither does. The used = false guard makes a
// concurrent double redemption lose the race.
func (r *InvitationRepository) Redeem(ctx context.Context, invitationID string, admin *models.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = now
	}
	admin.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin invitation redemption: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `UPDATE invitations SET used = true WHERE id = $1 AND used = false`, invitationID)
	if err != nil {
		return fmt.Errorf("mark invitation used: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark invitation used: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	const adminInsert = `INSERT INTO admins (id, school_id, email, password_hash, name, role, created_at, updated_at)
		VALUES (:id, :school_id, :email, :password_hash, :name, :role, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, adminInsert, admin); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create invited admin: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit invitation redemption: %w", err)
	}
	return nil
}
