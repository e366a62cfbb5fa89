package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/credit-tracker-api/internal/models"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
)

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	UpdateSemester(ctx context.Context, id string, semester int) error
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// UpdateProfileRequest is the self-service profile payload.
type UpdateProfileRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=120"`
	Division *string `json:"division" validate:"omitempty,max=16"`
}

// SelectSemesterRequest sets the student's current semester.
type SelectSemesterRequest struct {
	Semester int `json:"semester" validate:"required,min=1,max=8"`
}

// CreateStudentRequest is the admin payload for creating a student.
type CreateStudentRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	FullName   string `json:"full_name" validate:"required"`
	RollNumber string `json:"roll_number" validate:"required"`
	Degree     string `json:"degree" validate:"required"`
	Branch     string `json:"branch" validate:"required"`
	Division   string `json:"division"`
	Semester   *int   `json:"semester" validate:"omitempty,min=1,max=8"`
}

// UpdateStudentRequest is the admin payload for editing a student.
type UpdateStudentRequest struct {
	Email      *string `json:"email" validate:"omitempty,email"`
	FullName   *string `json:"full_name" validate:"omitempty,min=1"`
	RollNumber *string `json:"roll_number" validate:"omitempty,min=1"`
	Degree     *string `json:"degree" validate:"omitempty,min=1"`
	Branch     *string `json:"branch" validate:"omitempty,min=1"`
	Division   *string `json:"division"`
	Semester   *int    `json:"semester" validate:"omitempty,min=1,max=8"`
	Active     *bool   `json:"active"`
}

// StudentService implements student self-service and admin management.
type StudentService struct {
	repo      studentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}
	return student, nil
}

// List returns a page of students.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Store(err, "failed to list students")
	}
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create registers a student on behalf of an admin.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	student := &models.Student{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		RollNumber:   strings.TrimSpace(req.RollNumber),
		Degree:       req.Degree,
		Branch:       req.Branch,
		Division:     req.Division,
		Semester:     req.Semester,
		Active:       true,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, writeError(err, "email or roll number already registered", "failed to create student")
	}
	s.cache.Invalidate(ctx, dashboardCacheKey)
	return student, nil
}

// Update applies an admin edit.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Email != nil {
		student.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.FullName != nil {
		student.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.RollNumber != nil {
		student.RollNumber = strings.TrimSpace(*req.RollNumber)
	}
	if req.Degree != nil {
		student.Degree = *req.Degree
	}
	if req.Branch != nil {
		student.Branch = *req.Branch
	}
	if req.Division != nil {
		student.Division = *req.Division
	}
	if req.Semester != nil {
		student.Semester = req.Semester
	}
	if req.Active != nil {
		student.Active = *req.Active
	}
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, writeError(err, "email or roll number already registered", "failed to update student")
	}
	s.cache.Invalidate(ctx, dashboardCacheKey)
	return student, nil
}

// UpdateProfile applies a self-service profile edit.
func (s *StudentService) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid profile payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		student.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Division != nil {
		student.Division = strings.TrimSpace(*req.Division)
	}
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, writeError(err, "profile conflicts with another student", "failed to update profile")
	}
	return student, nil
}

// SelectSemester sets the student's current semester.
func (s *StudentService) SelectSemester(ctx context.Context, id string, req SelectSemesterRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "semester must be between 1 and 8")
	}
	if err := s.repo.UpdateSemester(ctx, id, req.Semester); err != nil {
		return nil, lookupError(err, "student not found", "failed to update semester")
	}
	s.cache.Invalidate(ctx, dashboardCacheKey)
	return s.Get(ctx, id)
}

// Delete deactivates a student, or removes the account when hard is set.
func (s *StudentService) Delete(ctx context.Context, id string, hard bool) error {
	var err error
	if hard {
		err = s.repo.Delete(ctx, id)
	} else {
		err = s.repo.Deactivate(ctx, id)
	}
	if err != nil {
		return lookupError(err, "student not found", "failed to delete student")
	}
	s.logger.Info("student removed", zap.String("student_id", id), zap.Bool("hard", hard))
	s.cache.Invalidate(ctx, dashboardCacheKey)
	return nil
}
