package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/credit-tracker-api/internal/models"
)

func TestListRequirementsFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgramRepository(db)

	semester := 2
	basket := "b-1"
	mock.ExpectQuery(regexp.QuoteMeta("FROM program_requirements WHERE 1=1 AND vertical_id = $1 AND semester = $2 ORDER BY vertical_id ASC, semester ASC")).
		WithArgs("v-bs", 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "vertical_id", "basket_id", "semester", "required_credits"}).
			AddRow("r1", "v-bs", nil, 2, 8.0).
			AddRow("r2", "v-bs", basket, 2, 4.0))

	rows, err := repo.ListRequirements(context.Background(), models.RequirementFilter{VerticalID: "v-bs", Semester: &semester})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].IsVerticalLevel())
	assert.False(t, rows[1].IsVerticalLevel())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRequirementUpdatesExisting(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgramRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE program_requirements SET required_credits = $4")).
		WithArgs("v-bs", nil, 1, 6.0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("r1"))

	req := &models.ProgramRequirement{VerticalID: "v-bs", Semester: 1, RequiredCredits: 6}
	require.NoError(t, repo.UpsertRequirement(context.Background(), req))
	assert.Equal(t, "r1", req.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRequirementInsertsMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgramRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE program_requirements")).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO program_requirements").WillReturnResult(sqlmock.NewResult(1, 1))

	basket := "b-1"
	req := &models.ProgramRequirement{VerticalID: "v-bs", BasketID: &basket, Semester: 1, RequiredCredits: 3}
	require.NoError(t, repo.UpsertRequirement(context.Background(), req))
	assert.NotEmpty(t, req.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBasketCreditTotals(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBasketCreditRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM basket_credit_totals ORDER BY vertical_name ASC, basket_name ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"vertical_id", "vertical_name", "basket_id", "basket_name", "total_credits", "course_count"}).
			AddRow("v-bs", "Basic Science", "b-math", "Mathematics", 8.0, 2))

	rows, err := repo.Totals(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 8.0, rows[0].TotalCredits)
	assert.Equal(t, 2, rows[0].CourseCount)
}
