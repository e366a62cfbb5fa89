package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/credit-tracker-api/internal/handler"
	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/internal/service"
	"github.com/noah-isme/credit-tracker-api/pkg/config"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
)

type stubResolver map[string]*models.Identity

func (s stubResolver) ResolveCaller(_ context.Context, token string, expected models.IdentityType) (*models.Identity, error) {
	if token == "" {
		return nil, appErrors.ErrMissingToken
	}
	identity, ok := s[token]
	if !ok {
		return nil, appErrors.ErrInvalidToken
	}
	if expected != "" && identity.Type != expected {
		return nil, appErrors.ErrWrongIdentityType
	}
	return identity, nil
}

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func buildRouter(env string, metrics *service.MetricsService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Env: env, APIPrefix: "/api/v1", Cookie: config.CookieConfig{Name: "access_token"}}
	h := Handlers{
		Auth:       handler.NewAuthHandler(nil, cfg.Cookie),
		Me:         handler.NewMeHandler(nil, nil),
		Course:     handler.NewCourseHandler(nil),
		Completion: handler.NewCompletionHandler(nil),
		Credit:     handler.NewCreditHandler(nil, nil),
		Program:    handler.NewProgramHandler(nil),
		Student:    handler.NewStudentHandler(nil),
		Admin:      handler.NewAdminHandler(nil),
		Dashboard:  handler.NewDashboardHandler(nil),
		Metrics:    handler.NewMetricsHandler(metrics, okPinger{}),
	}
	resolver := stubResolver{
		"student-token": {ID: "stu-1", Type: models.IdentityStudent},
		"viewer-token":  {ID: "adm-2", Type: models.IdentityAdmin, Role: models.RoleViewer, Permissions: []string{models.PermReportsView}},
	}
	r := New(cfg, h, Dependencies{Resolver: resolver, Observer: metrics})
	gin.SetMode(gin.TestMode)
	return r
}

func performRequest(r *gin.Engine, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestRouterRegistersRoutes(t *testing.T) {
	r := buildRouter(config.EnvDevelopment, nil)

	registered := make(map[string]bool)
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"POST /api/v1/auth/signup",
		"POST /api/v1/auth/login",
		"POST /api/v1/auth/logout",
		"GET /api/v1/me",
		"PUT /api/v1/me/semester",
		"GET /api/v1/me/courses",
		"GET /api/v1/students/:id/credits",
		"GET /api/v1/students/:id/credits/export",
		"POST /api/v1/students/:id/credits/export-link",
		"GET /api/v1/exports/:token",
		"GET /api/v1/students/:id/completions",
		"PATCH /api/v1/courses/completion",
		"GET /api/v1/courses/:id",
		"POST /api/v1/courses",
		"DELETE /api/v1/courses/:id",
		"GET /api/v1/basket-credits",
		"GET /api/v1/program/requirements",
		"PUT /api/v1/admin/program/requirements",
		"POST /api/v1/admin/auth/bootstrap",
		"GET /api/v1/admin/auth/me",
		"DELETE /api/v1/admin/students/:id",
		"PUT /api/v1/admin/admins/:id",
		"GET /api/v1/admin/roles",
		"GET /api/v1/admin/dashboard",
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"GET /docs/*any",
	} {
		assert.True(t, registered[want], want)
	}
}

func TestRouterAuthGuards(t *testing.T) {
	r := buildRouter(config.EnvDevelopment, nil)

	cases := []struct {
		name   string
		method string
		target string
		token  string
		status int
		code   string
	}{
		{"missing token", http.MethodGet, "/api/v1/me", "", http.StatusUnauthorized, appErrors.ErrMissingToken.Code},
		{"garbage token", http.MethodGet, "/api/v1/students/stu-1/credits", "nope", http.StatusUnauthorized, appErrors.ErrInvalidToken.Code},
		{"admin on student route", http.MethodGet, "/api/v1/me", "viewer-token", http.StatusForbidden, appErrors.ErrWrongIdentityType.Code},
		{"student on admin route", http.MethodGet, "/api/v1/admin/dashboard", "student-token", http.StatusForbidden, appErrors.ErrWrongIdentityType.Code},
		{"student creating course", http.MethodPost, "/api/v1/courses", "student-token", http.StatusForbidden, appErrors.ErrWrongIdentityType.Code},
		{"viewer managing students", http.MethodGet, "/api/v1/admin/students", "viewer-token", http.StatusForbidden, appErrors.ErrAccessDenied.Code},
		{"export link without token", http.MethodPost, "/api/v1/students/stu-1/credits/export-link", "", http.StatusUnauthorized, appErrors.ErrMissingToken.Code},
		{"viewer managing program", http.MethodPut, "/api/v1/admin/program/requirements", "viewer-token", http.StatusForbidden, appErrors.ErrAccessDenied.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := performRequest(r, tc.method, tc.target, tc.token)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, errorCode(t, rec))
		})
	}
}

func TestRouterHealthAndMetrics(t *testing.T) {
	metrics := service.NewMetricsService()
	r := buildRouter(config.EnvDevelopment, metrics)

	rec := performRequest(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = performRequest(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `path="/health"`)
}

func TestRouterHidesDocsInProduction(t *testing.T) {
	r := buildRouter(config.EnvProduction, nil)

	for _, route := range r.Routes() {
		assert.NotEqual(t, "/docs/*any", route.Path)
	}
	rec := performRequest(r, http.MethodGet, "/docs/index.html", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
