package service

import (
	"context"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/credit-tracker-api/internal/dto"
	"github.com/noah-isme/credit-tracker-api/internal/models"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
)

type completionFixture struct {
	svc      *CompletionService
	ledger   *fakeLedger
	students *fakeStudentRepo
	courses  *fakeCourseRepo
}

func newCompletionFixture(semester *int) completionFixture {
	courses := sampleCourses()
	students := newFakeStudentRepo(&models.Student{ID: "stu-1", FullName: "Asha Rao", RollNumber: "CS-042", Semester: semester, Active: true})
	ledger := newFakeLedger(courses)
	svc := NewCompletionService(ledger, students, courses, nil, NewMetricsService(), validator.New(), zap.NewNop())
	return completionFixture{svc: svc, ledger: ledger, students: students, courses: courses}
}

func TestMarkCompletedCapturesCourseSnapshot(t *testing.T) {
	fx := newCompletionFixture(intPtr(5))

	completion, err := fx.svc.MarkCompleted(context.Background(), studentIdentity("stu-1"), "stu-1", "c-ds")
	require.NoError(t, err)
	assert.Equal(t, 4.0, completion.CreditAwarded)
	assert.Equal(t, 3, completion.Semester)
	assert.Equal(t, 1, fx.ledger.count())
}

func TestMarkCompletedDuplicate(t *testing.T) {
	fx := newCompletionFixture(intPtr(5))
	ctx := context.Background()

	_, err := fx.svc.MarkCompleted(ctx, studentIdentity("stu-1"), "stu-1", "c-ds")
	require.NoError(t, err)

	_, err = fx.svc.MarkCompleted(ctx, studentIdentity("stu-1"), "stu-1", "c-ds")
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateCompletion))
	assert.Equal(t, 1, fx.ledger.count())
}

func TestMarkCompletedOrderingViolationWritesNothing(t *testing.T) {
	fx := newCompletionFixture(intPtr(2))

	_, err := fx.svc.MarkCompleted(context.Background(), studentIdentity("stu-1"), "stu-1", "c-os")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrSemesterOrderingViolation))
	assert.Equal(t, 422, appErrors.FromError(err).Status)
	assert.Equal(t, 0, fx.ledger.count())
}

func TestMarkCompletedRequiresSemester(t *testing.T) {
	fx := newCompletionFixture(nil)

	_, err := fx.svc.MarkCompleted(context.Background(), studentIdentity("stu-1"), "stu-1", "c-calc")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, 0, fx.ledger.count())
}

func TestMarkCompletedNotFound(t *testing.T) {
	fx := newCompletionFixture(intPtr(5))
	admin := adminIdentity(models.RoleAdmin, models.PermStudentsManage)

	_, err := fx.svc.MarkCompleted(context.Background(), admin, "ghost", "c-ds")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = fx.svc.MarkCompleted(context.Background(), admin, "stu-1", "ghost")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestMarkCompletedAccessRules(t *testing.T) {
	fx := newCompletionFixture(intPtr(5))
	ctx := context.Background()

	_, err := fx.svc.MarkCompleted(ctx, nil, "stu-1", "c-ds")
	assert.True(t, appErrors.Is(err, appErrors.ErrMissingToken))

	_, err = fx.svc.MarkCompleted(ctx, studentIdentity("stu-2"), "stu-1", "c-ds")
	assert.True(t, appErrors.Is(err, appErrors.ErrAccessDenied))

	_, err = fx.svc.MarkCompleted(ctx, adminIdentity(models.RoleViewer, models.PermReportsView), "stu-1", "c-ds")
	assert.True(t, appErrors.Is(err, appErrors.ErrAccessDenied))

	_, err = fx.svc.MarkCompleted(ctx, adminIdentity(models.RoleSuperAdmin), "stu-1", "c-ds")
	require.NoError(t, err)
}

func TestUnmarkCompletedIsIdempotent(t *testing.T) {
	fx := newCompletionFixture(intPtr(5))
	ctx := context.Background()
	caller := studentIdentity("stu-1")

	_, err := fx.svc.MarkCompleted(ctx, caller, "stu-1", "c-ds")
	require.NoError(t, err)

	require.NoError(t, fx.svc.UnmarkCompleted(ctx, caller, "stu-1", "c-ds"))
	require.NoError(t, fx.svc.UnmarkCompleted(ctx, caller, "stu-1", "c-ds"))
	assert.Equal(t, 0, fx.ledger.count())
}

func TestInactiveStudentLedgerIsFrozen(t *testing.T) {
	fx := newCompletionFixture(intPtr(5))
	ctx := context.Background()
	caller := studentIdentity("stu-1")

	_, err := fx.svc.MarkCompleted(ctx, caller, "stu-1", "c-ds")
	require.NoError(t, err)

	fx.students.mu.Lock()
	fx.students.students["stu-1"].Active = false
	fx.students.mu.Unlock()

	_, err = fx.svc.MarkCompleted(ctx, caller, "stu-1", "c-os")
	assert.True(t, appErrors.Is(err, appErrors.ErrInactiveAccount))

	_, err = fx.svc.Toggle(ctx, caller, dto.CompletionToggleRequest{CourseID: "c-ds", Completed: boolPtr(false)})
	assert.True(t, appErrors.Is(err, appErrors.ErrInactiveAccount))

	_, err = fx.svc.MarkCompleted(ctx, adminIdentity(models.RoleSuperAdmin), "stu-1", "c-os")
	assert.True(t, appErrors.Is(err, appErrors.ErrInactiveAccount))
	assert.Equal(t, 1, fx.ledger.count())
}

func TestConcurrentMarksRecordOnce(t *testing.T) {
	fx := newCompletionFixture(intPtr(5))
	caller := studentIdentity("stu-1")

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.svc.MarkCompleted(context.Background(), caller, "stu-1", "c-ds")
		}(i)
	}
	wg.Wait()

	succeeded, duplicates := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case appErrors.Is(err, appErrors.ErrDuplicateCompletion):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, duplicates)
	assert.Equal(t, 1, fx.ledger.count())
}

func TestToggleDefaultsToCallingStudent(t *testing.T) {
	fx := newCompletionFixture(intPtr(5))
	ctx := context.Background()
	caller := studentIdentity("stu-1")

	res, err := fx.svc.Toggle(ctx, caller, dto.CompletionToggleRequest{CourseID: "c-ds", Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, "stu-1", res.StudentID)
	require.NotNil(t, res.Completion)

	res, err = fx.svc.Toggle(ctx, caller, dto.CompletionToggleRequest{CourseID: "c-ds", Completed: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.Nil(t, res.Completion)
	assert.Equal(t, 0, fx.ledger.count())

	_, err = fx.svc.Toggle(ctx, caller, dto.CompletionToggleRequest{CourseID: "c-ds"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = fx.svc.Toggle(ctx, adminIdentity(models.RoleSuperAdmin), dto.CompletionToggleRequest{CourseID: "c-ds", Completed: boolPtr(true)})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestListCompletions(t *testing.T) {
	fx := newCompletionFixture(intPtr(5))
	ctx := context.Background()

	rows, err := fx.svc.List(ctx, studentIdentity("stu-1"), "stu-1")
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotNil(t, rows)

	_, err = fx.svc.MarkCompleted(ctx, studentIdentity("stu-1"), "stu-1", "c-calc")
	require.NoError(t, err)

	rows, err = fx.svc.List(ctx, adminIdentity(models.RoleViewer, models.PermReportsView), "stu-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Calculus", rows[0].CourseTitle)
	assert.Equal(t, "Basic Science", rows[0].VerticalName)
}
