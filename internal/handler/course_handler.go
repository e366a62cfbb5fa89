package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/internal/service"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
	"github.com/noah-isme/credit-tracker-api/pkg/response"
)

type courseService interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, req service.CreateCourseRequest) (*models.Course, error)
	Update(ctx context.Context, id string, req service.UpdateCourseRequest) (*models.Course, error)
	Delete(ctx context.Context, id string) error
}

// CourseHandler exposes catalog endpoints.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler constructs a CourseHandler.
func NewCourseHandler(svc courseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// courseFilterFromQuery reads the catalog filters shared by course listings
// and the basket credit overview.
func courseFilterFromQuery(c *gin.Context) (models.CourseFilter, error) {
	semester, err := optionalInt(c, "semester")
	if err != nil {
		return models.CourseFilter{}, err
	}
	if semester != nil && (*semester < models.MinSemester || *semester > models.MaxSemester) {
		return models.CourseFilter{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("semester must be between %d and %d", models.MinSemester, models.MaxSemester))
	}
	filter := models.CourseFilter{
		Search:     strings.TrimSpace(c.Query("search")),
		Semester:   semester,
		VerticalID: c.Query("vertical_id"),
		BasketID:   c.Query("basket_id"),
		Degree:     c.Query("degree"),
		Branch:     c.Query("branch"),
		SortBy:     c.Query("sort"),
		SortOrder:  c.Query("order"),
	}
	if raw := c.Query("type"); raw != "" {
		courseType := models.CourseType(raw)
		if !courseType.Valid() {
			return models.CourseFilter{}, appErrors.Clone(appErrors.ErrValidation, "type must be Theory or Practical")
		}
		filter.Type = courseType
	}
	filter.Page, filter.PageSize = pagination(c)
	return filter, nil
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param search query string false "Search by code or title"
// @Param semester query int false "Semester"
// @Param type query string false "Theory or Practical"
// @Param vertical_id query string false "Vertical"
// @Param basket_id query string false "Basket"
// @Param degree query string false "Degree"
// @Param branch query string false "Branch"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	filter, err := courseFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	courses, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get godoc
// @Summary Get course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Create course
// @Description An empty code is generated from branch, vertical and semester
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.UpdateCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req service.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Delete course
// @Description Refused while completions reference the course
// @Tags Courses
// @Param id path string true "Course ID"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
