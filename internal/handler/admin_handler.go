package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/internal/service"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
	"github.com/noah-isme/credit-tracker-api/pkg/response"
)

type adminService interface {
	Me(ctx context.Context, caller *models.Identity) (*service.AdminProfile, error)
	Get(ctx context.Context, id string) (*service.AdminProfile, error)
	List(ctx context.Context, filter models.AdminFilter) ([]models.AdminUser, *models.Pagination, error)
	Create(ctx context.Context, caller *models.Identity, req service.CreateAdminRequest) (*models.AdminUser, error)
	Update(ctx context.Context, caller *models.Identity, id string, req service.UpdateAdminRequest) (*models.AdminUser, error)
	Deactivate(ctx context.Context, caller *models.Identity, id string) error
	Roles(ctx context.Context) ([]models.AdminRole, error)
}

// AdminHandler manages admin accounts.
type AdminHandler struct {
	service adminService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(svc adminService) *AdminHandler {
	return &AdminHandler{service: svc}
}

// Me godoc
// @Summary Current admin profile
// @Tags Admins
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/auth/me [get]
func (h *AdminHandler) Me(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	profile, err := h.service.Me(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// List godoc
// @Summary List admins
// @Tags Admins
// @Produce json
// @Param search query string false "Search by email or name"
// @Param role query string false "Role code"
// @Param active query bool false "Active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/admins [get]
func (h *AdminHandler) List(c *gin.Context) {
	active, err := optionalBool(c, "active")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.AdminFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		RoleCode: strings.ToUpper(c.Query("role")),
		Active:   active,
	}
	filter.Page, filter.PageSize = pagination(c)

	admins, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admins, pagination)
}

// Get godoc
// @Summary Get admin
// @Tags Admins
// @Produce json
// @Param id path string true "Admin ID"
// @Success 200 {object} response.Envelope
// @Router /admin/admins/{id} [get]
func (h *AdminHandler) Get(c *gin.Context) {
	profile, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Create godoc
// @Summary Create admin
// @Tags Admins
// @Accept json
// @Produce json
// @Param payload body service.CreateAdminRequest true "Admin payload"
// @Success 201 {object} response.Envelope
// @Router /admin/admins [post]
func (h *AdminHandler) Create(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	admin, err := h.service.Create(c.Request.Context(), identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, admin)
}

// Update godoc
// @Summary Update admin
// @Tags Admins
// @Accept json
// @Produce json
// @Param id path string true "Admin ID"
// @Param payload body service.UpdateAdminRequest true "Admin payload"
// @Success 200 {object} response.Envelope
// @Router /admin/admins/{id} [put]
func (h *AdminHandler) Update(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	admin, err := h.service.Update(c.Request.Context(), identity, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admin, nil)
}

// Deactivate godoc
// @Summary Deactivate admin
// @Tags Admins
// @Param id path string true "Admin ID"
// @Success 204
// @Router /admin/admins/{id} [delete]
func (h *AdminHandler) Deactivate(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), identity, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Roles godoc
// @Summary List admin roles with permissions
// @Tags Admins
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/roles [get]
func (h *AdminHandler) Roles(c *gin.Context) {
	roles, err := h.service.Roles(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roles, nil)
}
