package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/pkg/config"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
	"github.com/noah-isme/credit-tracker-api/pkg/response"
)

type authService interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.LoginResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	AdminLogin(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Bootstrap(ctx context.Context, req models.BootstrapRequest) (*models.LoginResponse, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
	cookie  config.CookieConfig
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, cookie config.CookieConfig) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "access_token"
	}
	return &AuthHandler{service: svc, cookie: cookie}
}

// Signup godoc
// @Summary Register a student
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.SignupRequest true "Signup payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid signup payload"))
		return
	}

	res, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setCookie(c, res)
	response.Created(c, res)
}

// Login godoc
// @Summary Authenticate student
// @Description Authenticate a student by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	req, ok := bindLogin(c)
	if !ok {
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setCookie(c, res)
	response.JSON(c, http.StatusOK, res, nil)
}

// AdminLogin godoc
// @Summary Authenticate admin
// @Description Repeated failures lock the account temporarily
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Router /admin/auth/login [post]
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	req, ok := bindLogin(c)
	if !ok {
		return
	}

	res, err := h.service.AdminLogin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setCookie(c, res)
	response.JSON(c, http.StatusOK, res, nil)
}

// Bootstrap godoc
// @Summary Create the first super admin
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.BootstrapRequest true "Bootstrap payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/auth/bootstrap [post]
func (h *AuthHandler) Bootstrap(c *gin.Context) {
	var req models.BootstrapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bootstrap payload"))
		return
	}

	res, err := h.service.Bootstrap(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setCookie(c, res)
	response.Created(c, res)
}

// Logout godoc
// @Summary Logout
// @Description Clears the auth cookie
// @Tags Authentication
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", h.cookie.Domain, h.cookie.Secure, true)
	response.NoContent(c)
}

func bindLogin(c *gin.Context) (models.LoginRequest, bool) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return req, false
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")
	return req, true
}

func (h *AuthHandler) setCookie(c *gin.Context, res *models.LoginResponse) {
	if res == nil || res.AccessToken == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, res.AccessToken, int(res.ExpiresIn), "/", h.cookie.Domain, h.cookie.Secure, true)
}
