package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/credit-tracker-api/internal/dto"
	"github.com/noah-isme/credit-tracker-api/internal/models"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
	"github.com/noah-isme/credit-tracker-api/pkg/response"
)

type completionService interface {
	Toggle(ctx context.Context, caller *models.Identity, req dto.CompletionToggleRequest) (*dto.CompletionToggleResult, error)
	List(ctx context.Context, caller *models.Identity, studentID string) ([]models.CompletionDetail, error)
}

// CompletionHandler exposes the completion ledger.
type CompletionHandler struct {
	service completionService
}

// NewCompletionHandler constructs a CompletionHandler.
func NewCompletionHandler(svc completionService) *CompletionHandler {
	return &CompletionHandler{service: svc}
}

// Toggle godoc
// @Summary Mark or unmark a course as completed
// @Description Students toggle their own courses; admins pass student_id
// @Tags Completions
// @Accept json
// @Produce json
// @Param payload body dto.CompletionToggleRequest true "Toggle payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /courses/completion [patch]
func (h *CompletionHandler) Toggle(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CompletionToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Toggle(c.Request.Context(), identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List a student's completed courses
// @Tags Completions
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/completions [get]
func (h *CompletionHandler) List(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	completions, err := h.service.List(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, completions, nil)
}
