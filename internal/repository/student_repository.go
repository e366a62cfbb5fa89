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

const studentColumns = "id, email, password_hash, full_name, roll_number, degree, branch, division, semester, active, last_login, created_at, updated_at"

// StudentRepository provides database access for student accounts.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new instance of StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByEmail returns a student by login email.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student by email: %w", err)
	}
	return &student, nil
}

// FindByID returns a student by identifier.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student by id: %w", err)
	}
	return &student, nil
}

// List returns students matching the filter with the total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	baseQuery := `FROM students WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(roll_number) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Degree != "" {
		conditions = append(conditions, fmt.Sprintf("degree = $%d", len(args)+1))
		args = append(args, filter.Degree)
	}
	if filter.Branch != "" {
		conditions = append(conditions, fmt.Sprintf("branch = $%d", len(args)+1))
		args = append(args, filter.Branch)
	}
	if filter.Semester != nil {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, *filter.Semester)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"full_name":   true,
		"roll_number": true,
		"semester":    true,
		"created_at":  true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", studentColumns, baseQuery, sortBy, sortOrder, pageSize, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, email, password_hash, full_name, roll_number, degree, branch, division, semester, active, created_at, updated_at)
VALUES (:id, :email, :password_hash, :full_name, :roll_number, :degree, :branch, :division, :semester, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		if database.IsUniqueViolation(err, "") {
			return fmt.Errorf("create student: %w", ErrDuplicate)
		}
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update writes mutable profile fields.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET email = :email, full_name = :full_name, roll_number = :roll_number, degree = :degree, branch = :branch, division = :division, semester = :semester, active = :active, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return fmt.Errorf("update student: %w", ErrDuplicate)
		}
		return fmt.Errorf("update student: %w", err)
	}
	return requireAffected(res, "update student")
}

// UpdateSemester sets the student's current semester.
func (r *StudentRepository) UpdateSemester(ctx context.Context, id string, semester int) error {
	const query = `UPDATE students SET semester = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, semester, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update student semester: %w", err)
	}
	return requireAffected(res, "update student semester")
}

// UpdateLastLogin updates the last_login timestamp.
func (r *StudentRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE students SET last_login = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts, ts); err != nil {
		return fmt.Errorf("update student last login: %w", err)
	}
	return nil
}

// Deactivate performs a soft delete.
func (r *StudentRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE students SET active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	return requireAffected(res, "deactivate student")
}

// Delete removes the student and, through ON DELETE CASCADE, their completions.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return requireAffected(res, "delete student")
}
