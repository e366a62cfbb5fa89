package repository

import (
	"database/sql"
	"fmt"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size
}

// requireAffected maps a zero-row update to sql.ErrNoRows so services can
// report NotFound.
func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
