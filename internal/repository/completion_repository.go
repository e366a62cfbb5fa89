package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/pkg/database"
)

// CompletionUniqueConstraint guards one completion per (student, course).
const CompletionUniqueConstraint = "completed_courses_student_id_course_id_key"

// CompletionRepository persists the completion ledger.
type CompletionRepository struct {
	db *sqlx.DB
}

// NewCompletionRepository creates a new instance of CompletionRepository.
func NewCompletionRepository(db *sqlx.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// Insert records a completion. There is no existence pre-check: a concurrent
// or repeated insert for the same pair fails on the unique constraint and is
// reported as ErrDuplicateCompletion.
func (r *CompletionRepository) Insert(ctx context.Context, completion *models.CompletedCourse) error {
	if completion.ID == "" {
		completion.ID = uuid.NewString()
	}
	if completion.CompletedAt.IsZero() {
		completion.CompletedAt = time.Now().UTC()
	}
	const query = `INSERT INTO completed_courses (id, student_id, course_id, credit_awarded, semester, completed_at) VALUES (:id, :student_id, :course_id, :credit_awarded, :semester, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, completion); err != nil {
		if database.IsUniqueViolation(err, CompletionUniqueConstraint) {
			return ErrDuplicateCompletion
		}
		return fmt.Errorf("insert completion: %w", err)
	}
	return nil
}

// Delete removes the completion for the pair. A missing row is not an error.
func (r *CompletionRepository) Delete(ctx context.Context, studentID, courseID string) error {
	const query = `DELETE FROM completed_courses WHERE student_id = $1 AND course_id = $2`
	if _, err := r.db.ExecContext(ctx, query, studentID, courseID); err != nil {
		return fmt.Errorf("delete completion: %w", err)
	}
	return nil
}

// ListByStudent returns the student's completions joined with the course taxonomy.
func (r *CompletionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.CompletionDetail, error) {
	const query = `SELECT cc.id, cc.student_id, cc.course_id, cc.credit_awarded, cc.semester, cc.completed_at,
c.code AS course_code, c.title AS course_title, c.type AS course_type,
c.vertical_id, v.name AS vertical_name, c.basket_id, b.name AS basket_name
FROM completed_courses cc
JOIN courses c ON c.id = cc.course_id
JOIN verticals v ON v.id = c.vertical_id
JOIN baskets b ON b.id = c.basket_id
WHERE cc.student_id = $1
ORDER BY cc.semester ASC, c.code ASC`
	var rows []models.CompletionDetail
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	return rows, nil
}

// CountByCourse returns how many completions reference the course.
func (r *CompletionRepository) CountByCourse(ctx context.Context, courseID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM completed_courses WHERE course_id = $1`, courseID); err != nil {
		return 0, fmt.Errorf("count completions: %w", err)
	}
	return count, nil
}
