package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/credit-tracker-api/internal/dto"
	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
)

const (
	completionRecorded          = "recorded"
	completionDuplicate         = "duplicate"
	completionOrderingViolation = "ordering_violation"
	completionRemoved           = "removed"
)

type completionLedger interface {
	Insert(ctx context.Context, completion *models.CompletedCourse) error
	Delete(ctx context.Context, studentID, courseID string) error
	ListByStudent(ctx context.Context, studentID string) ([]models.CompletionDetail, error)
}

type completionStudentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type completionCourseLookup interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// CompletionService writes and reads the completion ledger.
type CompletionService struct {
	ledger    completionLedger
	students  completionStudentLookup
	courses   completionCourseLookup
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCompletionService constructs a CompletionService.
func NewCompletionService(ledger completionLedger, students completionStudentLookup, courses completionCourseLookup, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CompletionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompletionService{
		ledger:    ledger,
		students:  students,
		courses:   courses,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// MarkCompleted records that the student completed the course, capturing the
// course's current credits and semester. The course semester may not be ahead
// of the student's current semester. Duplicates are detected by the store's
// unique constraint.
func (s *CompletionService) MarkCompleted(ctx context.Context, caller *models.Identity, studentID, courseID string) (*models.CompletedCourse, error) {
	if err := authorizeStudentAccess(caller, studentID, models.PermStudentsManage); err != nil {
		return nil, err
	}

	student, err := s.activeStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, lookupError(err, "course not found", "failed to load course")
	}
	if student.Semester == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "select a current semester before completing courses")
	}
	if course.Semester > *student.Semester {
		s.metrics.RecordCompletion(completionOrderingViolation)
		return nil, appErrors.Clone(appErrors.ErrSemesterOrderingViolation,
			fmt.Sprintf("course is offered in semester %d but the student is in semester %d", course.Semester, *student.Semester))
	}

	completion := &models.CompletedCourse{
		StudentID:     student.ID,
		CourseID:      course.ID,
		CreditAwarded: course.Credits,
		Semester:      course.Semester,
	}
	if err := s.ledger.Insert(ctx, completion); err != nil {
		if errors.Is(err, repository.ErrDuplicateCompletion) {
			s.metrics.RecordCompletion(completionDuplicate)
			return nil, appErrors.ErrDuplicateCompletion
		}
		return nil, appErrors.Store(err, "failed to record completion")
	}

	s.metrics.RecordCompletion(completionRecorded)
	s.cache.Invalidate(ctx, dashboardCacheKey)
	s.logger.Debug("completion recorded",
		zap.String("student_id", student.ID),
		zap.String("course_id", course.ID),
		zap.Float64("credits", completion.CreditAwarded),
	)
	return completion, nil
}

// UnmarkCompleted removes a completion. Removing a missing completion succeeds.
func (s *CompletionService) UnmarkCompleted(ctx context.Context, caller *models.Identity, studentID, courseID string) error {
	if err := authorizeStudentAccess(caller, studentID, models.PermStudentsManage); err != nil {
		return err
	}
	if _, err := s.activeStudent(ctx, studentID); err != nil {
		return err
	}
	if err := s.ledger.Delete(ctx, studentID, courseID); err != nil {
		return appErrors.Store(err, "failed to remove completion")
	}
	s.metrics.RecordCompletion(completionRemoved)
	s.cache.Invalidate(ctx, dashboardCacheKey)
	return nil
}

// Toggle marks or unmarks a completion. Students default to themselves.
func (s *CompletionService) Toggle(ctx context.Context, caller *models.Identity, req dto.CompletionToggleRequest) (*dto.CompletionToggleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "course_id and completed are required")
	}
	studentID := req.StudentID
	if studentID == "" && caller.IsStudent() {
		studentID = caller.ID
	}
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_id is required")
	}

	result := &dto.CompletionToggleResult{StudentID: studentID, CourseID: req.CourseID, Completed: *req.Completed}
	if *req.Completed {
		completion, err := s.MarkCompleted(ctx, caller, studentID, req.CourseID)
		if err != nil {
			return nil, err
		}
		result.Completion = completion
		return result, nil
	}
	if err := s.UnmarkCompleted(ctx, caller, studentID, req.CourseID); err != nil {
		return nil, err
	}
	return result, nil
}

// activeStudent loads the student and refuses deactivated accounts, so the
// ledger of a soft-deleted student is frozen.
func (s *CompletionService) activeStudent(ctx context.Context, studentID string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "student account is inactive")
	}
	return student, nil
}

// List returns the student's completions with course details.
func (s *CompletionService) List(ctx context.Context, caller *models.Identity, studentID string) ([]models.CompletionDetail, error) {
	if err := authorizeStudentAccess(caller, studentID, models.PermStudentsManage, models.PermReportsView); err != nil {
		return nil, err
	}
	rows, err := s.ledger.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Store(err, "failed to list completions")
	}
	if rows == nil {
		rows = []models.CompletionDetail{}
	}
	return rows, nil
}
