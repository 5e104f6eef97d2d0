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

// GradeRepository manages persistence for grade levels.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// ListBySchool returns grades for one school ordered by level.
func (r *GradeRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.Grade, error) {
	const query = `SELECT id, school_id, level, created_at, updated_at FROM grades WHERE school_id = $1 ORDER BY level ASC`
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, schoolID); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// FindByID returns a grade record by ID.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	const query = `SELECT id, school_id, level, created_at, updated_at FROM grades WHERE id = $1`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		return nil, err
	}
	return &grade, nil
}

// ExistsByLevel checks whether the school already has a grade with the level.
func (r *GradeRepository) ExistsByLevel(ctx context.Context, schoolID, level string) (bool, error) {
	const query = `SELECT 1 FROM grades WHERE school_id = $1 AND LOWER(level) = LOWER($2) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, schoolID, level); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check grade level: %w", err)
	}
	return true, nil
}

// Create persists a grade record.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now

	const query = `INSERT INTO grades (id, school_id, level, created_at, updated_at)
		VALUES (:id, :school_id, :level, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// Update modifies a grade record.
func (r *GradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	grade.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grades SET level = :level, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	return nil
}

// Delete removes a grade record.
func (r *GradeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM grades WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}
	return nil
}

// CountClasses returns how many classes reference the grade.
func (r *GradeRepository) CountClasses(ctx context.Context, gradeID string) (int, error) {
	const query = `SELECT COUNT(*) FROM classes WHERE grade_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, gradeID); err != nil {
		return 0, fmt.Errorf("count grade classes: %w", err)
	}
	return count, nil
}
