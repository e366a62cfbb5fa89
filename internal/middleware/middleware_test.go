package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/credit-tracker-api/internal/models"
)

type recordingAudit struct {
	mu   sync.Mutex
	logs []*models.AuditLog
	err  error
}

func (r *recordingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return r.err
}

func TestAuditRecordsSuccessfulAdminRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &recordingAudit{}
	r := gin.New()
	r.DELETE("/courses/:id",
		Authenticate(newResolver(), "", models.IdentityAdmin),
		Audit(recorder, nil, models.AuditActionCourseDelete, "course"),
		func(c *gin.Context) { c.Status(http.StatusNoContent) },
	)
	r.PUT("/courses/:id",
		Authenticate(newResolver(), "", models.IdentityAdmin),
		Audit(recorder, nil, models.AuditActionCourseUpdate, "course"),
		func(c *gin.Context) { c.Status(http.StatusBadRequest) },
	)

	req := httptest.NewRequest(http.MethodDelete, "/courses/c-1", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	r.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodPut, "/courses/c-1", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, recorder.logs, 1)
	log := recorder.logs[0]
	assert.Equal(t, models.AuditActionCourseDelete, log.Action)
	require.NotNil(t, log.AdminID)
	assert.Equal(t, "admin-1", *log.AdminID)
	require.NotNil(t, log.ResourceID)
	assert.Equal(t, "c-1", *log.ResourceID)
	assert.Contains(t, string(log.Payload), `"status":204`)
}

func TestAuditFailureDoesNotAffectResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &recordingAudit{err: errors.New("db down")}
	r := gin.New()
	r.POST("/courses",
		Authenticate(newResolver(), "", models.IdentityAdmin),
		Audit(recorder, nil, models.AuditActionCourseCreate, "course"),
		func(c *gin.Context) { c.Status(http.StatusCreated) },
	)

	req := httptest.NewRequest(http.MethodPost, "/courses", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, recorder.logs, 1)
}

func TestAuditSkipsStudentCallers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &recordingAudit{}
	r := gin.New()
	r.PATCH("/courses/completion",
		Authenticate(newResolver(), "", ""),
		Audit(recorder, nil, models.AuditActionCompletionEdit, "completion"),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	req := httptest.NewRequest(http.MethodPatch, "/courses/completion", nil)
	req.Header.Set("Authorization", "Bearer student-token")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, recorder.logs)
}

type observedRequest struct {
	method, path string
	status       int
}

type recordingObserver struct {
	requests []observedRequest
}

func (o *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.requests = append(o.requests, observedRequest{method, path, status})
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/students/:id/credits", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/students/stu-1/credits", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere/123", nil))

	require.Len(t, observer.requests, 2)
	assert.Equal(t, observedRequest{http.MethodGet, "/students/:id/credits", http.StatusOK}, observer.requests[0])
	assert.Equal(t, observedRequest{http.MethodGet, unmatchedPath, http.StatusNotFound}, observer.requests[1])
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/cached", func(c *gin.Context) {
		SetCacheHit(c, true)
		SetMeta(c, "filtered", false)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cached", nil))

	assert.Equal(t, true, meta[cacheHitKey])
	assert.Equal(t, false, meta["filtered"])
	assert.Contains(t, meta, "processing_time_ms")
}
