package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/pkg/database"
)

const courseSelect = `SELECT c.id, c.code, c.title, c.type, c.credits, c.semester, c.vertical_id, v.name AS vertical_name, c.basket_id, b.name AS basket_name, c.degree, c.branch, c.created_at, c.updated_at
FROM courses c
JOIN verticals v ON v.id = c.vertical_id
JOIN baskets b ON b.id = c.basket_id`

// CourseRepository provides database access for the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new instance of CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course with its vertical and basket names.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := r.db.GetContext(ctx, &course, courseSelect+" WHERE c.id = $1 LIMIT 1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	return &course, nil
}

// List returns a page of courses matching the filter and the total count.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	where, args := buildCourseWhere(filter)

	sortColumns := map[string]string{
		"code":       "c.code",
		"title":      "c.title",
		"semester":   "c.semester",
		"credits":    "c.credits",
		"created_at": "c.created_at",
	}
	sortBy, ok := sortColumns[filter.SortBy]
	if !ok {
		sortBy = "c.code"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "ASC"
	}
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("%s%s ORDER BY %s %s LIMIT %d OFFSET %d", courseSelect, where, sortBy, sortOrder, pageSize, offset)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM courses c"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindAll returns every course matching the filter, ignoring pagination.
func (r *CourseRepository) FindAll(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	where, args := buildCourseWhere(filter)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, courseSelect+where+" ORDER BY c.semester ASC, c.code ASC", args...); err != nil {
		return nil, fmt.Errorf("find courses: %w", err)
	}
	return courses, nil
}

// CountByCodePrefix counts courses whose code starts with prefix.
func (r *CourseRepository) CountByCodePrefix(ctx context.Context, prefix string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM courses WHERE code LIKE $1`, prefix+"%"); err != nil {
		return 0, fmt.Errorf("count course codes: %w", err)
	}
	return count, nil
}

// Create inserts a new course. A taken code is reported as ErrDuplicate.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	const query = `INSERT INTO courses (id, code, title, type, credits, semester, vertical_id, basket_id, degree, branch, created_at, updated_at)
VALUES (:id, :code, :title, :type, :credits, :semester, :vertical_id, :basket_id, :degree, :branch, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		if database.IsUniqueViolation(err, "") {
			return fmt.Errorf("create course: %w", ErrDuplicate)
		}
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update writes mutable course fields.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET code = :code, title = :title, type = :type, credits = :credits, semester = :semester, vertical_id = :vertical_id, basket_id = :basket_id, degree = :degree, branch = :branch, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, course)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return fmt.Errorf("update course: %w", ErrDuplicate)
		}
		return fmt.Errorf("update course: %w", err)
	}
	return requireAffected(res, "update course")
}

// Delete removes a course. Completions referencing it block the delete.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("delete course: %w", ErrReferenced)
		}
		return fmt.Errorf("delete course: %w", err)
	}
	return requireAffected(res, "delete course")
}

func buildCourseWhere(filter models.CourseFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(c.title) LIKE $%d OR LOWER(c.code) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Semester != nil {
		conditions = append(conditions, fmt.Sprintf("c.semester = $%d", len(args)+1))
		args = append(args, *filter.Semester)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("c.type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.VerticalID != "" {
		conditions = append(conditions, fmt.Sprintf("c.vertical_id = $%d", len(args)+1))
		args = append(args, filter.VerticalID)
	}
	if filter.BasketID != "" {
		conditions = append(conditions, fmt.Sprintf("c.basket_id = $%d", len(args)+1))
		args = append(args, filter.BasketID)
	}
	if filter.Degree != "" {
		conditions = append(conditions, fmt.Sprintf("c.degree = $%d", len(args)+1))
		args = append(args, filter.Degree)
	}
	if filter.Branch != "" {
		conditions = append(conditions, fmt.Sprintf("c.branch = $%d", len(args)+1))
		args = append(args, filter.Branch)
	}

	if len(conditions) == 0 {
		return " WHERE 1=1", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
