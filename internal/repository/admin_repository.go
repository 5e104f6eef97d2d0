package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clae-hq/admissions-api/internal/models"
)

// AdminRepository manages persistence for staff accounts.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository constructs a new admin repository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

const adminColumns = `id, school_id, email, password_hash, name, role, reset_token, reset_token_expiry, created_at, updated_at`

// List returns staff accounts, newest first. A non-empty schoolID restricts
// results to one tenant.
func (r *AdminRepository) List(ctx context.Context, schoolID string) ([]models.Admin, error) {
	query := fmt.Sprintf(`SELECT %s FROM admins`, adminColumns)
	args := []interface{}{}
	if schoolID != "" {
		query += " WHERE school_id = $1"
		args = append(args, schoolID)
	}
	query += " ORDER BY created_at DESC"

	var admins []models.Admin
	if err := r.db.SelectContext(ctx, &admins, query, args...); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// FindByID returns an admin record by ID.
func (r *AdminRepository) FindByID(ctx context.Context, id string) (*models.Admin, error) {
	query := fmt.Sprintf(`SELECT %s FROM admins WHERE id = $1`, adminColumns)
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, id); err != nil {
		return nil, err
	}
	return &admin, nil
}

// FindByEmail returns an admin record by unique email.
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	query := fmt.Sprintf(`SELECT %s FROM admins WHERE email = $1`, adminColumns)
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, email); err != nil {
		return nil, err
	}
	return &admin, nil
}

// FindByResetToken returns an admin holding the given password reset token.
func (r *AdminRepository) FindByResetToken(ctx context.Context, token string) (*models.Admin, error) {
	query := fmt.Sprintf(`SELECT %s FROM admins WHERE reset_token = $1`, adminColumns)
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, token); err != nil {
		return nil, err
	}
	return &admin, nil
}

// Create persists an admin record.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = now
	}
	admin.UpdatedAt = now

	const query = `INSERT INTO admins (id, school_id, email, password_hash, name, role, reset_token, reset_token_expiry, created_at, updated_at)
		VALUES (:id, :school_id, :email, :password_hash, :name, :role, :reset_token, :reset_token_expiry, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, admin); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// Delete removes an admin record.
func (r *AdminRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM admins WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	return nil
}

// SetResetToken stores a password reset token and its expiry.
func (r *AdminRepository) SetResetToken(ctx context.Context, id, token string, expiry time.Time) error {
	const query = `UPDATE admins SET reset_token = $2, reset_token_expiry = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, token, expiry, time.Now().UTC()); err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	return nil
}

// UpdatePassword replaces the password hash and clears any reset token.
func (r *AdminRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE admins SET password_hash = $2, reset_token = NULL, reset_token_expiry = NULL, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
