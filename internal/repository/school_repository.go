package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/clae-hq/admissions-api/internal/models"
)

// IsUniqueViolation reports whether the error is a Postgres unique constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// SchoolRepository manages persistence for tenant schools.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository constructs a new school repository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

const schoolColumns = `id, slug, name, address, phone, email, website, description, logo_url, created_at, updated_at`

// List returns all schools with application counts, name ascending.
func (r *SchoolRepository) List(ctx context.Context) ([]models.SchoolSummary, error) {
	const query = `SELECT s.id, s.slug, s.name, COUNT(a.id) AS application_count
		FROM schools s
		LEFT JOIN applications a ON a.school_id = s.id
		GROUP BY s.id, s.slug, s.name
		ORDER BY s.name ASC`
	var schools []models.SchoolSummary
	if err := r.db.SelectContext(ctx, &schools, query); err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	return schools, nil
}

// ListAll returns full school records, newest first.
func (r *SchoolRepository) ListAll(ctx context.Context) ([]models.School, error) {
	query := fmt.Sprintf(`SELECT %s FROM schools ORDER BY created_at DESC`, schoolColumns)
	var schools []models.School
	if err := r.db.SelectContext(ctx, &schools, query); err != nil {
		return nil, fmt.Errorf("list all schools: %w", err)
	}
	return schools, nil
}

// FindByID returns a school record by ID.
func (r *SchoolRepository) FindByID(ctx context.Context, id string) (*models.School, error) {
	query := fmt.Sprintf(`SELECT %s FROM schools WHERE id = $1`, schoolColumns)
	var school models.School
	if err := r.db.GetContext(ctx, &school, query, id); err != nil {
		return nil, err
	}
	return &school, nil
}

// FindBySlug returns a school record by its URL slug.
func (r *SchoolRepository) FindBySlug(ctx context.Context, slug string) (*models.School, error) {
	query := fmt.Sprintf(`SELECT %s FROM schools WHERE slug = $1`, schoolColumns)
	var school models.School
	if err := r.db.GetContext(ctx, &school, query, slug); err != nil {
		return nil, err
	}
	return &school, nil
}

// Profile returns the school plus application and staff counts.
func (r *SchoolRepository) Profile(ctx context.Context, id string) (*models.SchoolProfile, error) {
	const query = `SELECT s.id, s.slug, s.name, s.address, s.phone, s.email, s.website, s.description, s.logo_url, s.created_at, s.updated_at,
		(SELECT COUNT(*) FROM applications a WHERE a.school_id = s.id) AS application_count,
		(SELECT COUNT(*) FROM admins m WHERE m.school_id = s.id) AS admin_count
		FROM schools s WHERE s.id = $1`
	var profile models.SchoolProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Create persists a school record.
func (r *SchoolRepository) Create(ctx context.Context, school *models.School) error {
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if school.CreatedAt.IsZero() {
		school.CreatedAt = now
	}
	school.UpdatedAt = now

	const query = `INSERT INTO schools (id, slug, name, address, phone, email, website, description, logo_url, created_at, updated_at)
		VALUES (:id, :slug, :name, :address, :phone, :email, :website, :description, :logo_url, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, school); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create school: %w", err)
	}
	return nil
}

// Update modifies the mutable profile fields of a school.
func (r *SchoolRepository) Update(ctx context.Context, school *models.School) error {
	school.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schools SET name = :name, address = :address, phone = :phone, email = :email,
		website = :website, description = :description, logo_url = :logo_url, updated_at = :updated_at
		WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, school); err != nil {
		return fmt.Errorf("update school: %w", err)
	}
	return nil
}
