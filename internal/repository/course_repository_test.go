package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/credit-tracker-api/internal/models"
)

var courseRowColumns = []string{"id", "code", "title", "type", "credits", "semester", "vertical_id", "vertical_name", "basket_id", "basket_name", "degree", "branch", "created_at", "updated_at"}

func TestCourseFindAllWithFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	semester := 3
	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.semester = $1 AND c.type = $2 AND c.vertical_id = $3 ORDER BY c.semester ASC, c.code ASC")).
		WithArgs(3, models.CourseTypeTheory, "v-pc").
		WillReturnRows(sqlmock.NewRows(courseRowColumns).
			AddRow("c1", "CEPC301T", "Data Structures", "Theory", 4.0, 3, "v-pc", "Program Core", "b-1", "Core", "BTech", "Computer Engineering", now, now))

	courses, err := repo.FindAll(context.Background(), models.CourseFilter{Semester: &semester, Type: models.CourseTypeTheory, VerticalID: "v-pc"})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Program Core", courses[0].VerticalName)
	assert.Equal(t, 4.0, courses[0].Credits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseListPaginates(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 ORDER BY c.code ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows(courseRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses c WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{})
	require.NoError(t, err)
	assert.Empty(t, courses)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseCountByCodePrefix(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses WHERE code LIKE $1")).
		WithArgs("CEPC3%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountByCodePrefix(context.Background(), "CEPC3")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCourseCreateDuplicateCode(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").WillReturnError(&pq.Error{Code: "23505", Constraint: "courses_code_key"})

	err := repo.Create(context.Background(), &models.Course{Code: "CEPC301T"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCourseDeleteReferenced(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE id = $1")).
		WithArgs("c1").
		WillReturnError(&pq.Error{Code: "23503"})

	err := repo.Delete(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrReferenced)
}
