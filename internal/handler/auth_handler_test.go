package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/pkg/config"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
)

type fakeAuthService struct {
	loginReq models.LoginRequest
	res      *models.LoginResponse
	err      error
}

func (f *fakeAuthService) Signup(context.Context, models.SignupRequest) (*models.LoginResponse, error) {
	return f.res, f.err
}

func (f *fakeAuthService) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.loginReq = req
	return f.res, f.err
}

func (f *fakeAuthService) AdminLogin(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.loginReq = req
	return f.res, f.err
}

func (f *fakeAuthService) Bootstrap(context.Context, models.BootstrapRequest) (*models.LoginResponse, error) {
	return f.res, f.err
}

func tokenResponse() *models.LoginResponse {
	return &models.LoginResponse{
		AccessToken: "signed-token",
		TokenType:   "Bearer",
		ExpiresIn:   3600,
		Identity:    models.Identity{ID: "stu-1", Type: models.IdentityStudent},
	}
}

func TestAuthHandlerLoginSetsCookie(t *testing.T) {
	svc := &fakeAuthService{res: tokenResponse()}
	h := NewAuthHandler(svc, config.CookieConfig{Name: "access_token", Secure: true})

	c, rec := newContext(http.MethodPost, "/auth/login", map[string]string{"email": "a@uni.edu", "password": "secret123"})
	c.Request.Header.Set("User-Agent", "test-agent")
	h.Login(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test-agent", svc.loginReq.UserAgent)
	assert.Equal(t, "signed-token", decode(t, rec).Data["access_token"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "access_token", cookies[0].Name)
	assert.Equal(t, "signed-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}

func TestAuthHandlerLoginInvalidPayload(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{}, config.CookieConfig{})

	c, rec := newContext(http.MethodPost, "/auth/login", "{not json")
	h.Login(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decode(t, rec).Error.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestAuthHandlerAdminLoginLocked(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{err: appErrors.ErrAccountLocked}, config.CookieConfig{})

	c, rec := newContext(http.MethodPost, "/admin/auth/login", map[string]string{"email": "root@uni.edu", "password": "correct-horse"})
	h.AdminLogin(c)

	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.Equal(t, appErrors.ErrAccountLocked.Code, decode(t, rec).Error.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestAuthHandlerSignupCreated(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{res: tokenResponse()}, config.CookieConfig{})

	c, rec := newContext(http.MethodPost, "/auth/signup", map[string]string{"email": "a@uni.edu"})
	h.Signup(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, "access_token", rec.Result().Cookies()[0].Name)
}

func TestAuthHandlerLogoutClearsCookie(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{}, config.CookieConfig{Name: "session"})

	c, rec := newContext(http.MethodPost, "/auth/logout", nil)
	h.Logout(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}
