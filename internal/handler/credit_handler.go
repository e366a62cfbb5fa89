package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/credit-tracker-api/internal/dto"
	"github.com/noah-isme/credit-tracker-api/internal/middleware"
	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/pkg/response"
)

type creditService interface {
	Summary(ctx context.Context, caller *models.Identity, studentID string) (*dto.CreditSummary, error)
	Export(ctx context.Context, caller *models.Identity, studentID, format string) (*dto.ExportFile, error)
	ExportLink(ctx context.Context, caller *models.Identity, studentID, format string) (*dto.ExportLink, error)
	ExportByToken(ctx context.Context, token string) (*dto.ExportFile, error)
}

type basketCreditService interface {
	Overview(ctx context.Context, filter models.CourseFilter) (*dto.BasketCreditResponse, error)
}

// CreditHandler serves credit aggregates and exports.
type CreditHandler struct {
	credits creditService
	baskets basketCreditService
}

// NewCreditHandler constructs a CreditHandler.
func NewCreditHandler(credits creditService, baskets basketCreditService) *CreditHandler {
	return &CreditHandler{credits: credits, baskets: baskets}
}

// Summary godoc
// @Summary Student credit summary
// @Tags Credits
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/credits [get]
func (h *CreditHandler) Summary(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.credits.Summary(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Download a credit statement
// @Tags Credits
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /students/{id}/credits/export [get]
func (h *CreditHandler) Export(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.credits.Export(c.Request.Context(), identity, c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeAttachment(c, file)
}

// ExportLink godoc
// @Summary Issue a signed download link for a credit statement
// @Tags Credits
// @Produce json
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/credits/export-link [post]
func (h *CreditHandler) ExportLink(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	link, err := h.credits.ExportLink(c.Request.Context(), identity, c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	link.URL = "/exports/" + link.Token
	response.Created(c, link)
}

// Download godoc
// @Summary Download a credit statement through a signed link
// @Tags Credits
// @Produce text/csv
// @Produce application/pdf
// @Param token path string true "Signed link token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *CreditHandler) Download(c *gin.Context) {
	file, err := h.credits.ExportByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeAttachment(c, file)
}

func writeAttachment(c *gin.Context, file *dto.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// BasketCredits godoc
// @Summary Offered credits per basket
// @Description Filtered requests are computed from the catalog; unfiltered requests read the precomputed totals
// @Tags Credits
// @Produce json
// @Param semester query int false "Semester"
// @Param type query string false "Theory or Practical"
// @Param vertical_id query string false "Vertical"
// @Param basket_id query string false "Basket"
// @Param degree query string false "Degree"
// @Param branch query string false "Branch"
// @Success 200 {object} response.Envelope
// @Router /basket-credits [get]
func (h *CreditHandler) BasketCredits(c *gin.Context) {
	filter, err := courseFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	overview, err := h.baskets.Overview(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "filtered", overview.Filtered)
	response.JSON(c, http.StatusOK, overview, nil, middleware.ExtractMeta(c))
}
