package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/credit-tracker-api/internal/dto"
	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/internal/service"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
	"github.com/noah-isme/credit-tracker-api/pkg/response"
)

type meStudentService interface {
	Get(ctx context.Context, id string) (*models.Student, error)
	UpdateProfile(ctx context.Context, id string, req service.UpdateProfileRequest) (*models.Student, error)
	SelectSemester(ctx context.Context, id string, req service.SelectSemesterRequest) (*models.Student, error)
}

type meCourseService interface {
	ListForStudent(ctx context.Context, studentID string, semester *int) ([]dto.StudentCourse, error)
}

// MeHandler serves the signed-in student's own resources.
type MeHandler struct {
	students meStudentService
	courses  meCourseService
}

// NewMeHandler constructs a MeHandler.
func NewMeHandler(students meStudentService, courses meCourseService) *MeHandler {
	return &MeHandler{students: students, courses: courses}
}

// Profile godoc
// @Summary Current student profile
// @Tags Me
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /me [get]
func (h *MeHandler) Profile(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.students.Get(c.Request.Context(), identity.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// UpdateProfile godoc
// @Summary Update own profile
// @Tags Me
// @Accept json
// @Produce json
// @Param payload body service.UpdateProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /me/profile [put]
func (h *MeHandler) UpdateProfile(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.UpdateProfile(c.Request.Context(), identity.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// SelectSemester godoc
// @Summary Select current semester
// @Tags Me
// @Accept json
// @Produce json
// @Param payload body service.SelectSemesterRequest true "Semester payload"
// @Success 200 {object} response.Envelope
// @Router /me/semester [put]
func (h *MeHandler) SelectSemester(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.SelectSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.SelectSemester(c.Request.Context(), identity.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Courses godoc
// @Summary Catalog courses for the current student
// @Tags Me
// @Produce json
// @Param semester query int false "Semester"
// @Success 200 {object} response.Envelope
// @Router /me/courses [get]
func (h *MeHandler) Courses(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	semester, err := optionalInt(c, "semester")
	if err != nil {
		response.Error(c, err)
		return
	}
	courses, err := h.courses.ListForStudent(c.Request.Context(), identity.ID, semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}
