package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/credit-tracker-api/internal/dto"
)

// BasketCreditRepository reads the precomputed catalog credit totals.
type BasketCreditRepository struct {
	db *sqlx.DB
}

// NewBasketCreditRepository creates a new instance of BasketCreditRepository.
func NewBasketCreditRepository(db *sqlx.DB) *BasketCreditRepository {
	return &BasketCreditRepository{db: db}
}

// Totals returns Σ course credits per (vertical, basket) from the
// basket_credit_totals view. Baskets without courses are not listed.
func (r *BasketCreditRepository) Totals(ctx context.Context) ([]dto.BasketCreditRow, error) {
	const query = `SELECT vertical_id, vertical_name, basket_id, basket_name, total_credits, course_count FROM basket_credit_totals ORDER BY vertical_name ASC, basket_name ASC`
	var rows []dto.BasketCreditRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("basket credit totals: %w", err)
	}
	return rows, nil
}
