package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/credit-tracker-api/internal/dto"
	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
)

type courseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindAll(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	CountByCodePrefix(ctx context.Context, prefix string) (int, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type courseTaxonomyLookup interface {
	FindVertical(ctx context.Context, id string) (*models.Vertical, error)
	FindBasket(ctx context.Context, id string) (*models.Basket, error)
}

type courseCompletionLookup interface {
	CountByCourse(ctx context.Context, courseID string) (int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.CompletionDetail, error)
}

type courseStudentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// CreateCourseRequest is the payload for adding a catalog course. An empty
// code is generated from the branch, vertical and semester.
type CreateCourseRequest struct {
	Code       string            `json:"code" validate:"omitempty,max=16"`
	Title      string            `json:"title" validate:"required,max=200"`
	Type       models.CourseType `json:"type" validate:"required,oneof=Theory Practical"`
	Credits    float64           `json:"credits" validate:"gt=0"`
	Semester   int               `json:"semester" validate:"required,min=1,max=8"`
	VerticalID string            `json:"vertical_id" validate:"required"`
	BasketID   string            `json:"basket_id" validate:"required"`
	Degree     string            `json:"degree" validate:"required"`
	Branch     string            `json:"branch" validate:"required"`
}

// UpdateCourseRequest is the payload for editing a course. Nil fields are kept.
type UpdateCourseRequest struct {
	Code       *string            `json:"code" validate:"omitempty,min=1,max=16"`
	Title      *string            `json:"title" validate:"omitempty,min=1,max=200"`
	Type       *models.CourseType `json:"type" validate:"omitempty,oneof=Theory Practical"`
	Credits    *float64           `json:"credits" validate:"omitempty,gt=0"`
	Semester   *int               `json:"semester" validate:"omitempty,min=1,max=8"`
	VerticalID *string            `json:"vertical_id" validate:"omitempty,min=1"`
	BasketID   *string            `json:"basket_id" validate:"omitempty,min=1"`
	Degree     *string            `json:"degree" validate:"omitempty,min=1"`
	Branch     *string            `json:"branch" validate:"omitempty,min=1"`
}

// CourseService manages the course catalog.
type CourseService struct {
	courses     courseRepository
	taxonomy    courseTaxonomyLookup
	completions courseCompletionLookup
	students    courseStudentLookup
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(courses courseRepository, taxonomy courseTaxonomyLookup, completions courseCompletionLookup, students courseStudentLookup, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		courses:     courses,
		taxonomy:    taxonomy,
		completions: completions,
		students:    students,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// List returns a page of catalog courses.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Store(err, "failed to list courses")
	}
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a course by id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "course not found", "failed to load course")
	}
	return course, nil
}

// Create adds a course, generating its code when none is supplied.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid course payload")
	}
	vertical, basket, err := s.resolveTaxonomy(ctx, req.VerticalID, req.BasketID)
	if err != nil {
		return nil, err
	}

	course := &models.Course{
		Code:         strings.ToUpper(strings.TrimSpace(req.Code)),
		Title:        strings.TrimSpace(req.Title),
		Type:         req.Type,
		Credits:      req.Credits,
		Semester:     req.Semester,
		VerticalID:   vertical.ID,
		VerticalName: vertical.Name,
		BasketID:     basket.ID,
		BasketName:   basket.Name,
		Degree:       req.Degree,
		Branch:       req.Branch,
	}

	if course.Code != "" {
		if err := s.courses.Create(ctx, course); err != nil {
			return nil, writeError(err, "course code already exists", "failed to create course")
		}
	} else if err := s.createWithGeneratedCode(ctx, course, vertical.Code); err != nil {
		return nil, err
	}

	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("code", course.Code))
	s.invalidate(ctx)
	return course, nil
}

// createWithGeneratedCode picks the next free sequence for the prefix and
// retries on collision.
func (s *CourseService) createWithGeneratedCode(ctx context.Context, course *models.Course, verticalCode string) error {
	prefix := coursePrefix(course.Branch, verticalCode, course.Semester)
	existing, err := s.courses.CountByCodePrefix(ctx, prefix)
	if err != nil {
		return appErrors.Store(err, "failed to generate course code")
	}
	seq := existing + 1
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := formatCourseCode(prefix, seq, course.Type)
		if err != nil {
			return err
		}
		course.Code = code
		err = s.courses.Create(ctx, course)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return appErrors.Store(err, "failed to create course")
		}
		course.ID = ""
		seq++
	}
	return appErrors.Clone(appErrors.ErrConflict, "could not allocate a unique course code")
}

// Update edits a course. Credit snapshots on existing completions are unaffected.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid course payload")
	}
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	verticalID, basketID := course.VerticalID, course.BasketID
	if req.VerticalID != nil {
		verticalID = *req.VerticalID
	}
	if req.BasketID != nil {
		basketID = *req.BasketID
	}
	if verticalID != course.VerticalID || basketID != course.BasketID {
		vertical, basket, err := s.resolveTaxonomy(ctx, verticalID, basketID)
		if err != nil {
			return nil, err
		}
		course.VerticalID, course.VerticalName = vertical.ID, vertical.Name
		course.BasketID, course.BasketName = basket.ID, basket.Name
	}
	if req.Code != nil {
		course.Code = strings.ToUpper(strings.TrimSpace(*req.Code))
	}
	if req.Title != nil {
		course.Title = strings.TrimSpace(*req.Title)
	}
	if req.Type != nil {
		course.Type = *req.Type
	}
	if req.Credits != nil {
		course.Credits = *req.Credits
	}
	if req.Semester != nil {
		course.Semester = *req.Semester
	}
	if req.Degree != nil {
		course.Degree = *req.Degree
	}
	if req.Branch != nil {
		course.Branch = *req.Branch
	}

	if err := s.courses.Update(ctx, course); err != nil {
		return nil, writeError(err, "course code already exists", "failed to update course")
	}
	s.invalidate(ctx)
	return course, nil
}

// Delete removes a course that has no recorded completions.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	count, err := s.completions.CountByCourse(ctx, id)
	if err != nil {
		return appErrors.Store(err, "failed to check course completions")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "course has recorded completions")
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "course has recorded completions")
		}
		return lookupError(err, "course not found", "failed to delete course")
	}
	s.invalidate(ctx)
	return nil
}

// ListForStudent lists catalog courses for the student's degree and branch,
// marking the ones already completed.
func (s *CourseService) ListForStudent(ctx context.Context, studentID string, semester *int) ([]dto.StudentCourse, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}
	courses, err := s.courses.FindAll(ctx, models.CourseFilter{Degree: student.Degree, Branch: student.Branch, Semester: semester})
	if err != nil {
		return nil, appErrors.Store(err, "failed to list courses")
	}
	completions, err := s.completions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Store(err, "failed to list completions")
	}
	done := make(map[string]bool, len(completions))
	for _, c := range completions {
		done[c.CourseID] = true
	}

	out := make([]dto.StudentCourse, 0, len(courses))
	for _, course := range courses {
		out = append(out, dto.StudentCourse{Course: course, Completed: done[course.ID]})
	}
	return out, nil
}

func (s *CourseService) resolveTaxonomy(ctx context.Context, verticalID, basketID string) (*models.Vertical, *models.Basket, error) {
	vertical, err := s.taxonomy.FindVertical(ctx, verticalID)
	if err != nil {
		return nil, nil, lookupError(err, "vertical not found", "failed to load vertical")
	}
	basket, err := s.taxonomy.FindBasket(ctx, basketID)
	if err != nil {
		return nil, nil, lookupError(err, "basket not found", "failed to load basket")
	}
	if basket.VerticalID != vertical.ID {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "basket does not belong to vertical")
	}
	return vertical, basket, nil
}

func (s *CourseService) invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, basketCachePattern, dashboardCacheKey)
}
