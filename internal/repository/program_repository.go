package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/pkg/database"
)

// ProgramRepository provides access to verticals, baskets and credit requirements.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository creates a new instance of ProgramRepository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// ListVerticals returns verticals in display order.
func (r *ProgramRepository) ListVerticals(ctx context.Context) ([]models.Vertical, error) {
	var verticals []models.Vertical
	if err := r.db.SelectContext(ctx, &verticals, `SELECT id, code, name, display_order FROM verticals ORDER BY display_order ASC, name ASC`); err != nil {
		return nil, fmt.Errorf("list verticals: %w", err)
	}
	return verticals, nil
}

// ListBaskets returns every basket ordered by vertical then name.
func (r *ProgramRepository) ListBaskets(ctx context.Context) ([]models.Basket, error) {
	var baskets []models.Basket
	if err := r.db.SelectContext(ctx, &baskets, `SELECT id, vertical_id, code, name FROM baskets ORDER BY vertical_id ASC, name ASC`); err != nil {
		return nil, fmt.Errorf("list baskets: %w", err)
	}
	return baskets, nil
}

// FindVertical returns a vertical by id.
func (r *ProgramRepository) FindVertical(ctx context.Context, id string) (*models.Vertical, error) {
	var vertical models.Vertical
	if err := r.db.GetContext(ctx, &vertical, `SELECT id, code, name, display_order FROM verticals WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find vertical: %w", err)
	}
	return &vertical, nil
}

// FindBasket returns a basket by id.
func (r *ProgramRepository) FindBasket(ctx context.Context, id string) (*models.Basket, error) {
	var basket models.Basket
	if err := r.db.GetContext(ctx, &basket, `SELECT id, vertical_id, code, name FROM baskets WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find basket: %w", err)
	}
	return &basket, nil
}

// CreateVertical inserts a vertical. A taken code is reported as ErrDuplicate.
func (r *ProgramRepository) CreateVertical(ctx context.Context, vertical *models.Vertical) error {
	if vertical.ID == "" {
		vertical.ID = uuid.NewString()
	}
	const query = `INSERT INTO verticals (id, code, name, display_order) VALUES (:id, :code, :name, :display_order)`
	if _, err := r.db.NamedExecContext(ctx, query, vertical); err != nil {
		if database.IsUniqueViolation(err, "") {
			return fmt.Errorf("create vertical: %w", ErrDuplicate)
		}
		return fmt.Errorf("create vertical: %w", err)
	}
	return nil
}

// CreateBasket inserts a basket under an existing vertical.
func (r *ProgramRepository) CreateBasket(ctx context.Context, basket *models.Basket) error {
	if basket.ID == "" {
		basket.ID = uuid.NewString()
	}
	const query = `INSERT INTO baskets (id, vertical_id, code, name) VALUES (:id, :vertical_id, :code, :name)`
	if _, err := r.db.NamedExecContext(ctx, query, basket); err != nil {
		if database.IsUniqueViolation(err, "") {
			return fmt.Errorf("create basket: %w", ErrDuplicate)
		}
		return fmt.Errorf("create basket: %w", err)
	}
	return nil
}

// ListRequirements returns requirement rows matching the filter.
func (r *ProgramRepository) ListRequirements(ctx context.Context, filter models.RequirementFilter) ([]models.ProgramRequirement, error) {
	query := `SELECT id, vertical_id, basket_id, semester, required_credits FROM program_requirements WHERE 1=1`
	var conditions []string
	var args []interface{}
	if filter.VerticalID != "" {
		conditions = append(conditions, fmt.Sprintf("vertical_id = $%d", len(args)+1))
		args = append(args, filter.VerticalID)
	}
	if filter.Semester != nil {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, *filter.Semester)
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY vertical_id ASC, semester ASC"

	var rows []models.ProgramRequirement
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	return rows, nil
}

// UpsertRequirement updates the row for (vertical, basket, semester) or inserts
// it when absent. A nil basket addresses the vertical-level row.
func (r *ProgramRepository) UpsertRequirement(ctx context.Context, req *models.ProgramRequirement) error {
	const update = `UPDATE program_requirements SET required_credits = $4 WHERE vertical_id = $1 AND basket_id IS NOT DISTINCT FROM $2 AND semester = $3 RETURNING id`
	var id string
	err := r.db.GetContext(ctx, &id, update, req.VerticalID, req.BasketID, req.Semester, req.RequiredCredits)
	if err == nil {
		req.ID = id
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update requirement: %w", err)
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	const insert = `INSERT INTO program_requirements (id, vertical_id, basket_id, semester, required_credits) VALUES (:id, :vertical_id, :basket_id, :semester, :required_credits)`
	if _, err := r.db.NamedExecContext(ctx, insert, req); err != nil {
		if database.IsUniqueViolation(err, "") {
			return fmt.Errorf("insert requirement: %w", ErrDuplicate)
		}
		return fmt.Errorf("insert requirement: %w", err)
	}
	return nil
}
