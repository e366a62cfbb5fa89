package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/credit-tracker-api/internal/dto"
)

// DashboardRepository runs the read-only aggregate queries behind the admin dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository creates a new instance of DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Counts returns headline totals.
func (r *DashboardRepository) Counts(ctx context.Context) (*dto.DashboardCounts, error) {
	const query = `SELECT
(SELECT COUNT(*) FROM students) AS total_students,
(SELECT COUNT(*) FROM students WHERE active) AS active_students,
(SELECT COUNT(*) FROM courses) AS total_courses,
(SELECT COUNT(*) FROM completed_courses) AS total_completions,
(SELECT COALESCE(SUM(credit_awarded), 0) FROM completed_courses) AS credits_awarded,
(SELECT COUNT(*) FROM admins WHERE active) AS active_admins`
	var counts dto.DashboardCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}
	return &counts, nil
}

// StudentsBySemester counts active students per selected semester.
func (r *DashboardRepository) StudentsBySemester(ctx context.Context) ([]dto.SemesterHeadcount, error) {
	const query = `SELECT semester, COUNT(*) AS students FROM students WHERE active AND semester IS NOT NULL GROUP BY semester ORDER BY semester ASC`
	var rows []dto.SemesterHeadcount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("students by semester: %w", err)
	}
	return rows, nil
}

// CreditsByVertical sums awarded credits per vertical, including verticals with none.
func (r *DashboardRepository) CreditsByVertical(ctx context.Context) ([]dto.VerticalCredits, error) {
	const query = `SELECT v.id AS vertical_id, v.name AS vertical_name, COALESCE(SUM(cc.credit_awarded), 0) AS credits_awarded, COUNT(cc.id) AS completions
FROM verticals v
LEFT JOIN courses c ON c.vertical_id = v.id
LEFT JOIN completed_courses cc ON cc.course_id = c.id
GROUP BY v.id, v.name, v.display_order
ORDER BY v.display_order ASC, v.name ASC`
	var rows []dto.VerticalCredits
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("credits by vertical: %w", err)
	}
	return rows, nil
}
