package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clae-hq/admissions-api/internal/models"
)

// ClassRepository manages persistence for class sections.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classColumns = `c.id, c.school_id, c.grade_id, c.name, c.grade_level, c.description, c.capacity, c.created_at, c.updated_at`

// ListBySchool returns a school's classes with application counts, newest
// first.
func (r *ClassRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.ClassWithCount, error) {
	query := fmt.Sprintf(`SELECT %s, COUNT(a.id) AS application_count
		FROM classes c
		LEFT JOIN applications a ON a.class_id = c.id
		WHERE c.school_id = $1
		GROUP BY c.id
		ORDER BY c.created_at DESC`, classColumns)
	var classes []models.ClassWithCount
	if err := r.db.SelectContext(ctx, &classes, query, schoolID); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// ListPublic returns classes for the apply form, optionally filtered by grade
// level, ordered by level then name.
func (r *ClassRepository) ListPublic(ctx context.Context, filter models.ClassFilter) ([]models.ClassWithCount, error) {
	query := fmt.Sprintf(`SELECT %s, COUNT(a.id) AS application_count
		FROM classes c
		LEFT JOIN applications a ON a.class_id = c.id
		WHERE c.school_id = $1`, classColumns)
	args := []interface{}{filter.SchoolID}
	if filter.GradeLevel != "" {
		query += " AND c.grade_level = $2"
		args = append(args, filter.GradeLevel)
	}
	query += " GROUP BY c.id ORDER BY c.grade_level ASC, c.name ASC"

	var classes []models.ClassWithCount
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("list public classes: %w", err)
	}
	return classes, nil
}

// FindByID returns a class record by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, school_id, grade_id, name, grade_level, description, capacity, created_at, updated_at FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// Create persists a class record.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now

	const query = `INSERT INTO classes (id, school_id, grade_id, name, grade_level, description, capacity, created_at, updated_at)
		VALUES (:id, :school_id, :grade_id, :name, :grade_level, :description, :capacity, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update modifies a class record.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET name = :name, grade_level = :grade_level, description = :description, capacity = :capacity, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// Delete removes a class record.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}
