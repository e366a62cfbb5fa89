package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/internal/service"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
	"github.com/noah-isme/credit-tracker-api/pkg/response"
)

type programService interface {
	Verticals(ctx context.Context) ([]models.Vertical, error)
	Requirements(ctx context.Context, filter models.RequirementFilter) ([]models.ProgramRequirement, error)
	CreateVertical(ctx context.Context, req service.CreateVerticalRequest) (*models.Vertical, error)
	CreateBasket(ctx context.Context, req service.CreateBasketRequest) (*models.Basket, error)
	UpsertRequirement(ctx context.Context, req service.UpsertRequirementRequest) (*models.ProgramRequirement, error)
}

// ProgramHandler exposes the program structure.
type ProgramHandler struct {
	service programService
}

// NewProgramHandler constructs a ProgramHandler.
func NewProgramHandler(svc programService) *ProgramHandler {
	return &ProgramHandler{service: svc}
}

// Verticals godoc
// @Summary List verticals with their baskets
// @Tags Program
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /program/verticals [get]
func (h *ProgramHandler) Verticals(c *gin.Context) {
	verticals, err := h.service.Verticals(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, verticals, nil)
}

// Requirements godoc
// @Summary List recommended credit requirements
// @Tags Program
// @Produce json
// @Param vertical_id query string false "Vertical"
// @Param semester query int false "Semester"
// @Success 200 {object} response.Envelope
// @Router /program/requirements [get]
func (h *ProgramHandler) Requirements(c *gin.Context) {
	semester, err := optionalInt(c, "semester")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.RequirementFilter{VerticalID: c.Query("vertical_id"), Semester: semester}
	requirements, err := h.service.Requirements(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requirements, nil)
}

// CreateVertical godoc
// @Summary Create vertical
// @Tags Program
// @Accept json
// @Produce json
// @Param payload body service.CreateVerticalRequest true "Vertical payload"
// @Success 201 {object} response.Envelope
// @Router /admin/program/verticals [post]
func (h *ProgramHandler) CreateVertical(c *gin.Context) {
	var req service.CreateVerticalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	vertical, err := h.service.CreateVertical(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, vertical)
}

// CreateBasket godoc
// @Summary Create basket
// @Tags Program
// @Accept json
// @Produce json
// @Param payload body service.CreateBasketRequest true "Basket payload"
// @Success 201 {object} response.Envelope
// @Router /admin/program/baskets [post]
func (h *ProgramHandler) CreateBasket(c *gin.Context) {
	var req service.CreateBasketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	basket, err := h.service.CreateBasket(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, basket)
}

// UpsertRequirement godoc
// @Summary Set a recommended credit requirement
// @Tags Program
// @Accept json
// @Produce json
// @Param payload body service.UpsertRequirementRequest true "Requirement payload"
// @Success 200 {object} response.Envelope
// @Router /admin/program/requirements [put]
func (h *ProgramHandler) UpsertRequirement(c *gin.Context) {
	var req service.UpsertRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	requirement, err := h.service.UpsertRequirement(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requirement, nil)
}
