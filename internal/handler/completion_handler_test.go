package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/credit-tracker-api/internal/dto"
	"github.com/noah-isme/credit-tracker-api/internal/models"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
)

type fakeCompletionService struct {
	req       dto.CompletionToggleRequest
	caller    *models.Identity
	toggleErr error
	list      []models.CompletionDetail
}

func (f *fakeCompletionService) Toggle(_ context.Context, caller *models.Identity, req dto.CompletionToggleRequest) (*dto.CompletionToggleResult, error) {
	f.caller, f.req = caller, req
	if f.toggleErr != nil {
		return nil, f.toggleErr
	}
	return &dto.CompletionToggleResult{StudentID: caller.ID, CourseID: req.CourseID, Completed: *req.Completed}, nil
}

func (f *fakeCompletionService) List(_ context.Context, caller *models.Identity, _ string) ([]models.CompletionDetail, error) {
	f.caller = caller
	return f.list, nil
}

func TestCompletionHandlerToggle(t *testing.T) {
	svc := &fakeCompletionService{}
	h := NewCompletionHandler(svc)

	c, rec := newContext(http.MethodPatch, "/courses/completion", map[string]interface{}{"course_id": "c-ds", "completed": true})
	withIdentity(c, &models.Identity{ID: "stu-1", Type: models.IdentityStudent})
	h.Toggle(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "c-ds", svc.req.CourseID)
	require.NotNil(t, svc.req.Completed)
	assert.True(t, *svc.req.Completed)
	envelope := decode(t, rec)
	assert.Equal(t, true, envelope.Data["completed"])
	assert.Equal(t, "stu-1", envelope.Data["student_id"])
}

func TestCompletionHandlerToggleErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"duplicate", appErrors.ErrDuplicateCompletion, http.StatusConflict, appErrors.ErrDuplicateCompletion.Code},
		{"ordering", appErrors.ErrSemesterOrderingViolation, http.StatusUnprocessableEntity, appErrors.ErrSemesterOrderingViolation.Code},
		{"denied", appErrors.ErrAccessDenied, http.StatusForbidden, appErrors.ErrAccessDenied.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewCompletionHandler(&fakeCompletionService{toggleErr: tc.err})
			c, rec := newContext(http.MethodPatch, "/courses/completion", map[string]interface{}{"course_id": "c-os", "completed": true})
			withIdentity(c, &models.Identity{ID: "stu-1", Type: models.IdentityStudent})
			h.Toggle(c)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decode(t, rec).Error.Code)
		})
	}
}

func TestCompletionHandlerToggleWithoutIdentity(t *testing.T) {
	svc := &fakeCompletionService{}
	h := NewCompletionHandler(svc)

	c, rec := newContext(http.MethodPatch, "/courses/completion", map[string]interface{}{"course_id": "c-ds", "completed": true})
	h.Toggle(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.req.CourseID)
}

func TestCompletionHandlerList(t *testing.T) {
	svc := &fakeCompletionService{list: []models.CompletionDetail{{}}}
	h := NewCompletionHandler(svc)

	c, rec := newContext(http.MethodGet, "/students/stu-1/completions", nil)
	c.AddParam("id", "stu-1")
	withIdentity(c, &models.Identity{ID: "adm-1", Type: models.IdentityAdmin, Role: models.RoleViewer})
	h.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope listEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 1)
	assert.Equal(t, "adm-1", svc.caller.ID)
}
